package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emblib/usbd/usb"
)

func noopConfigure(usb.EndpointID, usb.TransferType, uint16, any) {}
func noopPost(usb.EndpointID, []byte, any)                        {}

func testDeviceDescriptor() usb.DeviceDescriptor {
	return usb.DeviceDescriptor{
		BcdUSB:          0x0200,
		BMaxPacketSize0: 64,
		IDVendor:        0x2E8A,
		IDProduct:       0x0011,
		BcdDevice:       0x0100,
	}
}

func TestNewDeviceGuards(t *testing.T) {
	desc := testDeviceDescriptor()

	assert.Panics(t, func() { usb.NewDevice(desc, nil, nil, noopPost, nil) })
	assert.Panics(t, func() { usb.NewDevice(desc, nil, noopConfigure, nil, nil) })

	bad := desc
	bad.BMaxPacketSize0 = 10
	assert.Panics(t, func() { usb.NewDevice(bad, nil, noopConfigure, noopPost, nil) })

	preset := desc
	preset.IProduct = 2
	assert.Panics(t, func() { usb.NewDevice(preset, nil, noopConfigure, noopPost, nil) })
}

func TestDeviceStringsRequireStringZero(t *testing.T) {
	d := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, noopPost, nil)
	assert.Panics(t, func() { d.AddManufacturerString(usb.NewString("ACME", langEnUS)) })
}

// buildTestTree composes two configurations:
//
//	configuration 1: interface 0 (bulk in/out, one alternate with an iso
//	endpoint, interface string), interface 1 (interrupt in),
//	configuration string
//	configuration 2: one interface with a single bulk in endpoint
func buildTestTree(t *testing.T, configure usb.ConfigureFunc, post usb.PostFunc) *usb.Device {
	t.Helper()

	d := usb.NewDevice(testDeviceDescriptor(), usb.NewStringZero(langEnUS), configure, post, nil)
	d.AddManufacturerString(usb.NewString("ACME", langEnUS))
	d.AddProductString(usb.NewString("Widget", langEnUS))
	// Serial number collection left empty on purpose.

	itf0 := usb.NewInterface(usb.InterfaceDescriptor{BInterfaceClass: 0xFF})
	itf0.AddEndpoint(bulkIn(1, 0))
	itf0.AddEndpoint(bulkOut(2, 1))
	itf0.AddString(usb.NewString("Data", langEnUS))

	alt := usb.NewAlternateInterface(usb.InterfaceDescriptor{BInterfaceClass: 0xFF})
	alt.AddEndpoint(usb.NewEndpoint(usb.EndpointDescriptor{
		BEndpointAddress: 0x83,
		BMAttributes:     0x05, // iso, async
		WMaxPacketSize:   192,
		BInterval:        1,
	}, 2))
	itf0.AddAlternate(alt)

	itf1 := usb.NewInterface(usb.InterfaceDescriptor{BInterfaceClass: 0x03})
	itf1.AddEndpoint(usb.NewEndpoint(usb.EndpointDescriptor{
		BEndpointAddress: 0x84,
		BMAttributes:     0x03,
		WMaxPacketSize:   8,
		BInterval:        10,
	}, 3))

	cfg1 := usb.NewConfiguration(usb.ConfigurationDescriptor{
		BMAttributes: usb.ConfigAttrBusPowered,
		BMaxPower:    50,
	})
	cfg1.AddInterface(itf0)
	cfg1.AddInterface(itf1)
	cfg1.AddString(usb.NewString("Primary", langEnUS))

	cfg2 := usb.NewConfiguration(usb.ConfigurationDescriptor{
		BMAttributes: usb.ConfigAttrBusPowered | usb.ConfigAttrSelfPowered,
		BMaxPower:    25,
	})
	itf2 := usb.NewInterface(usb.InterfaceDescriptor{BInterfaceClass: 0xFF})
	itf2.AddEndpoint(bulkIn(1, 4))
	cfg2.AddInterface(itf2)

	d.AddConfiguration(cfg1)
	d.AddConfiguration(cfg2)
	return d
}

func TestStartDerivesTreeFields(t *testing.T) {
	d := buildTestTree(t, noopConfigure, noopPost)
	require.False(t, d.Started())
	d.Start()
	require.True(t, d.Started())

	desc := d.Descriptor()
	assert.Equal(t, uint8(2), desc.BNumConfigurations)
	// Device-level string indices in fixed order; the empty serial
	// number collection reserves nothing.
	assert.Equal(t, uint8(1), desc.IManufacturer)
	assert.Equal(t, uint8(2), desc.IProduct)
	assert.Equal(t, uint8(0), desc.ISerialNumber)

	cfg1 := d.Configuration(1)
	require.NotNil(t, cfg1)
	cd1 := cfg1.Descriptor()
	assert.Equal(t, uint8(1), cd1.BConfigurationValue)
	assert.Equal(t, uint8(2), cd1.BNumInterfaces)
	// User string indices continue after the device-level ones.
	assert.Equal(t, uint8(3), cd1.IConfiguration)
	// 9 + (9+7+7 + 9+7) + (9+7)
	assert.Equal(t, uint16(64), cd1.WTotalLength)

	cfg2 := d.Configuration(2)
	require.NotNil(t, cfg2)
	cd2 := cfg2.Descriptor()
	assert.Equal(t, uint8(2), cd2.BConfigurationValue)
	assert.Equal(t, uint8(1), cd2.BNumInterfaces)
	assert.Equal(t, uint8(0), cd2.IConfiguration)
	assert.Equal(t, uint16(25), cd2.WTotalLength)

	assert.Nil(t, d.Configuration(3))
}

func TestStartAssignsInterfaceNumbers(t *testing.T) {
	d := buildTestTree(t, noopConfigure, noopPost)
	d.Start()

	cfg1 := d.Configuration(1)
	buf := make([]byte, cfg1.Size())
	n := cfg1.MarshalTo(buf)
	require.Equal(t, 64, n)

	// interface 0, alternate setting 0, 2 endpoints, iInterface 4
	assert.Equal(t, []byte{9, 0x04, 0, 0, 2, 0xFF, 0, 0, 4}, buf[9:18])
	// its alternate: same interface number, setting 1, 1 endpoint
	assert.Equal(t, []byte{9, 0x04, 0, 1, 1, 0xFF, 0, 0, 0}, buf[32:41])
	// interface 1, alternate setting 0, 1 endpoint
	assert.Equal(t, []byte{9, 0x04, 1, 0, 1, 0x03, 0, 0, 0}, buf[48:57])
}

func TestStartWithoutConfigurations(t *testing.T) {
	d := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, noopPost, nil)
	assert.Panics(t, func() { d.Start() })
}

func TestStartWithEmptyConfiguration(t *testing.T) {
	d := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, noopPost, nil)
	d.AddConfiguration(usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered}))
	assert.Panics(t, func() { d.Start() })
}

func TestStartIsOneShot(t *testing.T) {
	d := buildTestTree(t, noopConfigure, noopPost)
	d.Start()
	assert.Panics(t, func() { d.Start() })
	assert.Panics(t, func() {
		d.AddConfiguration(usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered}))
	})
	assert.Panics(t, func() { d.AddProductString(usb.NewString("late", langEnUS)) })
}

func TestStartRejectsUnknownStringLanguage(t *testing.T) {
	d := usb.NewDevice(testDeviceDescriptor(), usb.NewStringZero(langEnUS), noopConfigure, noopPost, nil)
	d.AddManufacturerString(usb.NewString("ACME", 0x040C)) // fr-FR not in string zero

	itf := usb.NewInterface(usb.InterfaceDescriptor{})
	itf.AddEndpoint(bulkIn(1, 0))
	cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	cfg.AddInterface(itf)
	d.AddConfiguration(cfg)

	assert.Panics(t, func() { d.Start() })
}

func TestDeviceMarshalTo(t *testing.T) {
	d := buildTestTree(t, noopConfigure, noopPost)
	assert.Panics(t, func() { d.MarshalTo(make([]byte, usb.DeviceDescLen)) })
	d.Start()

	buf := make([]byte, usb.DeviceDescLen)
	n := d.MarshalTo(buf)
	require.Equal(t, usb.DeviceDescLen, n)
	assert.Equal(t, []byte{
		18, 0x01, // bLength, bDescriptorType
		0x00, 0x02, // bcdUSB
		0, 0, 0, // class triple
		64,         // bMaxPacketSize0
		0x8A, 0x2E, // idVendor
		0x11, 0x00, // idProduct
		0x00, 0x01, // bcdDevice
		1, 2, 0, // iManufacturer, iProduct, iSerialNumber
		2, // bNumConfigurations
	}, buf)
}

type armCall struct {
	id         usb.EndpointID
	typ        usb.TransferType
	packetSize uint16
}

func TestConfigureEndpoints(t *testing.T) {
	var calls []armCall
	configure := func(id usb.EndpointID, typ usb.TransferType, packetSize uint16, ctx any) {
		calls = append(calls, armCall{id, typ, packetSize})
	}
	d := buildTestTree(t, configure, noopPost)
	d.Start()
	d.ConfigureEndpoints(1)

	require.Len(t, calls, 5)
	assert.Equal(t, armCall{usb.Endpoint0Out, usb.TransferControl, 64}, calls[0])
	assert.Equal(t, armCall{usb.Endpoint0In, usb.TransferControl, 64}, calls[1])
	assert.Equal(t, armCall{0, usb.TransferBulk, 64}, calls[2])
	assert.Equal(t, armCall{1, usb.TransferBulk, 64}, calls[3])
	assert.Equal(t, armCall{3, usb.TransferInterrupt, 8}, calls[4])

	assert.Panics(t, func() { d.ConfigureEndpoints(9) })
}

func TestConfigureAlternate(t *testing.T) {
	var calls []armCall
	configure := func(id usb.EndpointID, typ usb.TransferType, packetSize uint16, ctx any) {
		calls = append(calls, armCall{id, typ, packetSize})
	}
	d := buildTestTree(t, configure, noopPost)
	d.Start()

	calls = nil
	d.ConfigureAlternate(1, 0, 1)
	require.Len(t, calls, 1)
	assert.Equal(t, armCall{2, usb.TransferIsochronous, 192}, calls[0])

	calls = nil
	d.ConfigureAlternate(1, 0, 0)
	require.Len(t, calls, 2)

	assert.Panics(t, func() { d.ConfigureAlternate(1, 0, 2) })
	assert.Panics(t, func() { d.ConfigureAlternate(1, 5, 0) })
}

func TestPostForwardsToCallback(t *testing.T) {
	type posted struct {
		id   usb.EndpointID
		data []byte
		ctx  any
	}
	var got []posted
	post := func(id usb.EndpointID, data []byte, ctx any) {
		got = append(got, posted{id, data, ctx})
	}

	d := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, post, "hw")
	itf := usb.NewInterface(usb.InterfaceDescriptor{})
	itf.AddEndpoint(bulkIn(1, 0))
	cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	cfg.AddInterface(itf)
	d.AddConfiguration(cfg)

	assert.Panics(t, func() { d.Post(0, []byte{1}) })
	d.Start()

	payload := []byte{0xDE, 0xAD}
	d.Post(0, payload)
	require.Len(t, got, 1)
	assert.Equal(t, usb.EndpointID(0), got[0].id)
	assert.Equal(t, payload, got[0].data)
	assert.Equal(t, "hw", got[0].ctx)
}

func TestConfigurationSingleDeviceOwner(t *testing.T) {
	cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	cfg.AddInterface(usb.NewInterface(usb.InterfaceDescriptor{}))

	a := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, noopPost, nil)
	b := usb.NewDevice(testDeviceDescriptor(), nil, noopConfigure, noopPost, nil)
	a.AddConfiguration(cfg)
	assert.Panics(t, func() { b.AddConfiguration(cfg) })
}
