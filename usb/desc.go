// Package usb composes trees of USB descriptors for device firmware.
//
// The caller constructs each descriptor object bottom-up, attaches
// children to parents in wire order, and calls Device.Start exactly once.
// Start derives every cross-referencing field the USB specification
// requires to be consistent (configuration values, interface numbers,
// alternate settings, string indices, endpoint counts, wTotalLength) in
// a single depth-first walk over the tree. A tree that violates a
// structural invariant is a firmware setup bug, not a runtime condition,
// so violations panic instead of returning errors; Valid predicates are
// provided for non-fatal probing.
package usb

import "encoding/binary"

// USB descriptor type constants (USB 2.0 spec table 9-5).
const (
	DeviceDescType    = 0x01
	ConfigDescType    = 0x02
	StringDescType    = 0x03
	InterfaceDescType = 0x04
	EndpointDescType  = 0x05
)

// Descriptor lengths in bytes (fixed values from USB spec).
const (
	DeviceDescLen    = 18
	ConfigDescLen    = 9
	InterfaceDescLen = 9
	EndpointDescLen  = 7
)

// Configuration descriptor bmAttributes bits.
const (
	ConfigAttrBusPowered   = 0x80 // must always be set
	ConfigAttrSelfPowered  = 0x40
	ConfigAttrRemoteWakeup = 0x20
	configAttrReservedMask = 0x1F
)

// Endpoint bEndpointAddress fields.
const (
	EndpointAddressNumberMask   = 0x0F
	endpointAddressReservedMask = 0x70
	EndpointAddressDirIn        = 0x80
)

// Endpoint bmAttributes fields.
const (
	transferTypeMask  = 0x03
	syncTypeMask      = 0x0C
	usageTypeMask     = 0x30
	usageTypeReserved = 0x30
	// Bits 10..0 of wMaxPacketSize carry the packet size; 12..11 are the
	// per-microframe transaction count for high-speed iso/interrupt.
	maxPacketSizeMask = 0x07FF
)

// TransferType is the transfer type encoded in endpoint bmAttributes.
type TransferType uint8

const (
	TransferControl     TransferType = 0x00
	TransferIsochronous TransferType = 0x01
	TransferBulk        TransferType = 0x02
	TransferInterrupt   TransferType = 0x03
)

func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "isochronous"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	}
	return "unknown"
}

// DeviceDescriptor is the caller-supplied portion of the standard USB
// device descriptor. bLength and bDescriptorType are implied; the string
// indices and bNumConfigurations are derived during Device.Start and
// must be left zero.
type DeviceDescriptor struct {
	BcdUSB             uint16
	BDeviceClass       uint8
	BDeviceSubClass    uint8
	BDeviceProtocol    uint8
	BMaxPacketSize0    uint8
	IDVendor           uint16
	IDProduct          uint16
	BcdDevice          uint16
	IManufacturer      uint8
	IProduct           uint8
	ISerialNumber      uint8
	BNumConfigurations uint8
}

// MarshalTo serializes the 18-byte device descriptor into buf,
// multi-byte fields little-endian. Returns the number of bytes written.
func (d *DeviceDescriptor) MarshalTo(buf []byte) int {
	assertf(len(buf) >= DeviceDescLen, "device descriptor buffer too small: %d < %d", len(buf), DeviceDescLen)
	buf[0] = DeviceDescLen
	buf[1] = DeviceDescType
	binary.LittleEndian.PutUint16(buf[2:4], d.BcdUSB)
	buf[4] = d.BDeviceClass
	buf[5] = d.BDeviceSubClass
	buf[6] = d.BDeviceProtocol
	buf[7] = d.BMaxPacketSize0
	binary.LittleEndian.PutUint16(buf[8:10], d.IDVendor)
	binary.LittleEndian.PutUint16(buf[10:12], d.IDProduct)
	binary.LittleEndian.PutUint16(buf[12:14], d.BcdDevice)
	buf[14] = d.IManufacturer
	buf[15] = d.IProduct
	buf[16] = d.ISerialNumber
	buf[17] = d.BNumConfigurations
	return DeviceDescLen
}

// ConfigurationDescriptor is the 9-byte configuration descriptor.
// WTotalLength, BNumInterfaces, BConfigurationValue and IConfiguration
// are derived during Device.Start and must be left zero.
type ConfigurationDescriptor struct {
	WTotalLength        uint16
	BNumInterfaces      uint8
	BConfigurationValue uint8
	IConfiguration      uint8
	BMAttributes        uint8
	BMaxPower           uint8
}

// MarshalTo serializes the configuration descriptor header into buf.
func (c *ConfigurationDescriptor) MarshalTo(buf []byte) int {
	assertf(len(buf) >= ConfigDescLen, "configuration descriptor buffer too small: %d < %d", len(buf), ConfigDescLen)
	buf[0] = ConfigDescLen
	buf[1] = ConfigDescType
	binary.LittleEndian.PutUint16(buf[2:4], c.WTotalLength)
	buf[4] = c.BNumInterfaces
	buf[5] = c.BConfigurationValue
	buf[6] = c.IConfiguration
	buf[7] = c.BMAttributes
	buf[8] = c.BMaxPower
	return ConfigDescLen
}

// InterfaceDescriptor is the 9-byte interface descriptor, shared by
// interfaces and alternate interfaces. BInterfaceNumber,
// BAlternateSetting, BNumEndpoints and IInterface are derived during
// Device.Start and must be left zero.
type InterfaceDescriptor struct {
	BInterfaceNumber   uint8
	BAlternateSetting  uint8
	BNumEndpoints      uint8
	BInterfaceClass    uint8
	BInterfaceSubClass uint8
	BInterfaceProtocol uint8
	IInterface         uint8
}

// MarshalTo serializes the interface descriptor into buf.
func (i *InterfaceDescriptor) MarshalTo(buf []byte) int {
	assertf(len(buf) >= InterfaceDescLen, "interface descriptor buffer too small: %d < %d", len(buf), InterfaceDescLen)
	buf[0] = InterfaceDescLen
	buf[1] = InterfaceDescType
	buf[2] = i.BInterfaceNumber
	buf[3] = i.BAlternateSetting
	buf[4] = i.BNumEndpoints
	buf[5] = i.BInterfaceClass
	buf[6] = i.BInterfaceSubClass
	buf[7] = i.BInterfaceProtocol
	buf[8] = i.IInterface
	return InterfaceDescLen
}

// EndpointDescriptor is the 7-byte endpoint descriptor.
type EndpointDescriptor struct {
	BEndpointAddress uint8
	BMAttributes     uint8
	WMaxPacketSize   uint16
	BInterval        uint8
}

// MarshalTo serializes the endpoint descriptor into buf.
func (e *EndpointDescriptor) MarshalTo(buf []byte) int {
	assertf(len(buf) >= EndpointDescLen, "endpoint descriptor buffer too small: %d < %d", len(buf), EndpointDescLen)
	buf[0] = EndpointDescLen
	buf[1] = EndpointDescType
	buf[2] = e.BEndpointAddress
	buf[3] = e.BMAttributes
	binary.LittleEndian.PutUint16(buf[4:6], e.WMaxPacketSize)
	buf[6] = e.BInterval
	return EndpointDescLen
}

// link threads a descriptor object into its parent's ordered child
// collection. A node belongs to at most one parent; insertion order is
// wire order.
type link struct {
	parent any
}

func (l *link) attach(parent any, kind string) {
	assertf(l.parent == nil, "%s is already attached to a parent", kind)
	assert(parent != nil, "nil parent")
	l.parent = parent
}
