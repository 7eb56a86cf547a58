package usb

import "math"

// ConfigureFunc arms an endpoint on real hardware. It is supplied by
// the embedding firmware and invoked by the protocol driver (via
// Device.ConfigureEndpoints) whenever endpoints must be (re)armed. id is
// Endpoint0Out/Endpoint0In for the control pair, otherwise the logical
// ID from NewEndpoint. ctx is the opaque value given to NewDevice.
type ConfigureFunc func(id EndpointID, typ TransferType, packetSize uint16, ctx any)

// PostFunc hands finalized outbound bytes for an endpoint to hardware.
type PostFunc func(id EndpointID, data []byte, ctx any)

// deviceState is the one-way lifecycle of a Device: composition
// operations are legal only before Start, serialization only after.
type deviceState uint8

const (
	stateSetup deviceState = iota
	stateStarted
)

// Device is the root of the descriptor tree. It owns the configurations,
// the device-level string collections, the endpoint callback bindings,
// and the finalization pass.
type Device struct {
	desc    DeviceDescriptor
	string0 *StringZero

	configurations      []*Configuration
	manufacturerStrings []*String
	productStrings      []*String
	serialNumberStrings []*String

	endpoint struct {
		configure ConfigureFunc
		post      PostFunc
		ctx       any
	}

	state deviceState
}

// NewDevice constructs a device from its descriptor, optional string
// descriptor zero, and the endpoint callback pair. string0 may be nil,
// in which case no string descriptors may be attached anywhere in the
// tree. Panics on a malformed descriptor or nil callback.
func NewDevice(desc DeviceDescriptor, string0 *StringZero, configure ConfigureFunc, post PostFunc, ctx any) *Device {
	assert(configure != nil, "nil configure callback")
	assert(post != nil, "nil post callback")
	assert(deviceDescriptorValid(&desc), "malformed device descriptor")
	if string0 != nil {
		assert(string0.Valid(), "malformed string descriptor zero")
	}
	d := &Device{desc: desc, string0: string0}
	d.endpoint.configure = configure
	d.endpoint.post = post
	d.endpoint.ctx = ctx
	return d
}

// deviceDescriptorValid checks the caller-supplied device descriptor
// fields. idVendor, idProduct and bcdDevice are user-specific and not
// checked; the string indices and bNumConfigurations are derived by
// Start, which re-runs this check first.
func deviceDescriptorValid(desc *DeviceDescriptor) bool {
	switch desc.BMaxPacketSize0 {
	case 8, 16, 32, 64:
	default:
		return false
	}
	return desc.IManufacturer == 0 && desc.IProduct == 0 &&
		desc.ISerialNumber == 0 && desc.BNumConfigurations == 0
}

func (d *Device) assertSetup() {
	assert(d.state == stateSetup, "device already started")
}

// AddConfiguration attaches a configuration to the device. Attachment
// order determines bConfigurationValue. Panics if the configuration is
// already linked elsewhere or the device has started.
func (d *Device) AddConfiguration(c *Configuration) {
	d.assertSetup()
	assert(c != nil, "nil configuration")
	c.link.attach(d, "configuration")
	d.configurations = append(d.configurations, c)
}

// addDeviceString appends to one of the device-level string collections.
// All strings in one collection share a single index, one entry per
// language, so the device must carry string descriptor zero.
func (d *Device) addDeviceString(list *[]*String, s *String) {
	d.assertSetup()
	assert(s != nil, "nil string")
	assert(d.string0 != nil, "device has no string descriptor zero")
	s.link.attach(d, "string")
	*list = append(*list, s)
}

// AddManufacturerString attaches a manufacturer string (iManufacturer).
func (d *Device) AddManufacturerString(s *String) {
	d.addDeviceString(&d.manufacturerStrings, s)
}

// AddProductString attaches a product string (iProduct).
func (d *Device) AddProductString(s *String) {
	d.addDeviceString(&d.productStrings, s)
}

// AddSerialNumberString attaches a serial number string (iSerialNumber).
func (d *Device) AddSerialNumberString(s *String) {
	d.addDeviceString(&d.serialNumberStrings, s)
}

// reserveStringIndex assigns one shared string index to a non-empty
// string collection and advances the counter. Empty collections do not
// consume an index and leave the referencing field 0. Every string in
// the collection is re-validated and its language must be listed in
// string descriptor zero.
func (d *Device) reserveStringIndex(strings []*String, next *uint8) uint8 {
	if len(strings) == 0 {
		return 0
	}
	assert(d.string0 != nil, "string descriptors attached but device has no string descriptor zero")
	for _, s := range strings {
		assert(s.Valid(), "invalid string descriptor")
		assertf(d.string0.HasLangID(s.langID), "string language 0x%04X not listed in string zero", s.langID)
	}
	index := *next
	assert(index != 0, "string index overflow")
	*next = index + 1
	return index
}

// Start finalizes the descriptor tree. It performs one depth-first
// traversal (configuration, then interface, then endpoints and
// alternate interfaces) that assigns configuration values, interface
// numbers, alternate settings and string indices, counts endpoints,
// re-validates every node, and rolls subtree byte sizes up into
// wTotalLength. Start is one-shot: the tree is immutable afterwards and
// a second call panics. Any structural violation panics; the tree is
// the single source of truth and the derived fields are never
// hand-maintained.
func (d *Device) Start() {
	d.assertSetup()
	assert(deviceDescriptorValid(&d.desc), "malformed device descriptor")

	// Device-level string indices come first, in fixed order. A
	// collection only consumes an index if it has strings.
	nextStringIndex := uint8(1)
	d.desc.IManufacturer = d.reserveStringIndex(d.manufacturerStrings, &nextStringIndex)
	d.desc.IProduct = d.reserveStringIndex(d.productStrings, &nextStringIndex)
	d.desc.ISerialNumber = d.reserveStringIndex(d.serialNumberStrings, &nextStringIndex)

	assertf(len(d.configurations) >= 1, "device has no configurations")
	assertf(len(d.configurations) <= math.MaxUint8, "too many configurations: %d", len(d.configurations))

	value := uint8(0)
	for _, c := range d.configurations {
		value++ // bConfigurationValue starts at 1
		c.desc.BConfigurationValue = value
		c.desc.IConfiguration = d.reserveStringIndex(c.strings, &nextStringIndex)
		assertf(c.Valid(), "invalid configuration %d", value)

		assertf(len(c.interfaces) >= 1, "configuration %d has no interfaces", value)
		assertf(len(c.interfaces) <= math.MaxUint8, "configuration %d has too many interfaces", value)
		c.desc.BNumInterfaces = uint8(len(c.interfaces))

		// One interface-number counter per configuration; alternates
		// reuse their owning interface's number.
		number := uint8(0)
		for _, itf := range c.interfaces {
			itf.desc.BInterfaceNumber = number
			itf.desc.BAlternateSetting = 0
			assertf(len(itf.endpoints) <= math.MaxUint8, "interface %d has too many endpoints", number)
			itf.desc.BNumEndpoints = uint8(len(itf.endpoints))
			itf.desc.IInterface = d.reserveStringIndex(itf.strings, &nextStringIndex)
			assertf(itf.Valid(), "invalid interface %d in configuration %d", number, value)

			setting := uint8(0)
			for _, alt := range itf.alternates {
				setting++ // bAlternateSetting starts at 1; the owning interface is 0
				alt.desc.BInterfaceNumber = number
				alt.desc.BAlternateSetting = setting
				assertf(len(alt.endpoints) <= math.MaxUint8,
					"alternate %d of interface %d has too many endpoints", setting, number)
				alt.desc.BNumEndpoints = uint8(len(alt.endpoints))
				alt.desc.IInterface = d.reserveStringIndex(alt.strings, &nextStringIndex)
				assertf(alt.Valid(), "invalid alternate %d of interface %d", setting, number)
			}
			number++
		}

		size := c.Size()
		assertf(size <= math.MaxUint16, "configuration %d subtree is %d bytes, overflows wTotalLength", value, size)
		c.desc.WTotalLength = uint16(size)
	}

	d.desc.BNumConfigurations = uint8(len(d.configurations))
	d.state = stateStarted
}

// Started reports whether Start has completed.
func (d *Device) Started() bool { return d.state == stateStarted }

// ConfigurationCount returns the number of attached configurations.
func (d *Device) ConfigurationCount() int { return len(d.configurations) }

// Configuration returns the configuration with the given
// bConfigurationValue, or nil before Start or when no such value exists.
func (d *Device) Configuration(bConfigurationValue uint8) *Configuration {
	if d.state != stateStarted {
		return nil
	}
	for _, c := range d.configurations {
		if c.desc.BConfigurationValue == bConfigurationValue {
			return c
		}
	}
	return nil
}

// Descriptor returns a copy of the device's wire record. The derived
// fields are meaningful only after Start.
func (d *Device) Descriptor() DeviceDescriptor { return d.desc }

// StringZero returns the device's string descriptor zero, or nil.
func (d *Device) StringZero() *StringZero { return d.string0 }

// Size returns the wire size of the device descriptor.
func (d *Device) Size() int { return DeviceDescLen }

// MarshalTo copies the 18-byte device descriptor into buf. Panics
// before Start; the derived fields are not yet consistent.
func (d *Device) MarshalTo(buf []byte) int {
	assert(d.state == stateStarted, "device not started")
	return d.desc.MarshalTo(buf)
}

// ConfigureEndpoints invokes the configure callback for the control
// endpoint pair and for every endpoint of the selected configuration's
// interfaces at alternate setting 0. This is the arming walk a
// SET_CONFIGURATION handler in the protocol driver needs. Panics before
// Start or for an unknown configuration value.
func (d *Device) ConfigureEndpoints(bConfigurationValue uint8) {
	assert(d.state == stateStarted, "device not started")
	c := d.Configuration(bConfigurationValue)
	assertf(c != nil, "no configuration with value %d", bConfigurationValue)

	packetSize0 := uint16(d.desc.BMaxPacketSize0)
	d.endpoint.configure(Endpoint0Out, TransferControl, packetSize0, d.endpoint.ctx)
	d.endpoint.configure(Endpoint0In, TransferControl, packetSize0, d.endpoint.ctx)
	for _, itf := range c.interfaces {
		for _, ep := range itf.endpoints {
			d.endpoint.configure(ep.id, ep.TransferType(), ep.PacketSize(), d.endpoint.ctx)
		}
	}
}

// ConfigureAlternate invokes the configure callback for every endpoint
// of one alternate setting, the walk a SET_INTERFACE handler needs.
// Setting 0 arms the owning interface's own endpoints.
func (d *Device) ConfigureAlternate(bConfigurationValue, bInterfaceNumber, bAlternateSetting uint8) {
	assert(d.state == stateStarted, "device not started")
	c := d.Configuration(bConfigurationValue)
	assertf(c != nil, "no configuration with value %d", bConfigurationValue)
	assertf(int(bInterfaceNumber) < len(c.interfaces), "no interface %d", bInterfaceNumber)

	itf := c.interfaces[bInterfaceNumber]
	endpoints := itf.endpoints
	if bAlternateSetting != 0 {
		assertf(int(bAlternateSetting) <= len(itf.alternates),
			"interface %d has no alternate setting %d", bInterfaceNumber, bAlternateSetting)
		endpoints = itf.alternates[bAlternateSetting-1].endpoints
	}
	for _, ep := range endpoints {
		d.endpoint.configure(ep.id, ep.TransferType(), ep.PacketSize(), d.endpoint.ctx)
	}
}

// Post hands outbound bytes for an endpoint to the firmware's post
// callback. Panics before Start.
func (d *Device) Post(id EndpointID, data []byte) {
	assert(d.state == stateStarted, "device not started")
	d.endpoint.post(id, data, d.endpoint.ctx)
}
