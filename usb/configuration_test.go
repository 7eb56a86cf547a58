package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emblib/usbd/usb"
)

func TestNewConfigurationGuards(t *testing.T) {
	tests := []struct {
		name  string
		desc  usb.ConfigurationDescriptor
		valid bool
	}{
		{
			name:  "bus powered",
			desc:  usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered, BMaxPower: 50},
			valid: true,
		},
		{
			name: "self powered with remote wakeup",
			desc: usb.ConfigurationDescriptor{
				BMAttributes: usb.ConfigAttrBusPowered | usb.ConfigAttrSelfPowered | usb.ConfigAttrRemoteWakeup,
			},
			valid: true,
		},
		{
			name:  "missing bus powered bit",
			desc:  usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrSelfPowered},
			valid: false,
		},
		{
			name:  "reserved attribute bits set",
			desc:  usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered | 0x01},
			valid: false,
		},
		{
			name:  "preset wTotalLength",
			desc:  usb.ConfigurationDescriptor{WTotalLength: 9, BMAttributes: usb.ConfigAttrBusPowered},
			valid: false,
		},
		{
			name:  "preset bConfigurationValue",
			desc:  usb.ConfigurationDescriptor{BConfigurationValue: 1, BMAttributes: usb.ConfigAttrBusPowered},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				assert.NotPanics(t, func() { usb.NewConfiguration(tt.desc) })
			} else {
				assert.Panics(t, func() { usb.NewConfiguration(tt.desc) })
			}
		})
	}
}

func TestConfigurationSize(t *testing.T) {
	cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	assert.Equal(t, 9, cfg.Size())

	itf := usb.NewInterface(usb.InterfaceDescriptor{})
	itf.AddEndpoint(bulkIn(1, 0))
	itf.AddEndpoint(bulkOut(2, 1))
	cfg.AddInterface(itf)

	// 9 (configuration) + 9 (interface) + 7 + 7 (endpoints).
	assert.Equal(t, 32, cfg.Size())
	assert.Equal(t, 1, cfg.InterfaceCount())
}

func TestConfigurationSingleOwner(t *testing.T) {
	itf := usb.NewInterface(usb.InterfaceDescriptor{})
	a := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	b := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})

	a.AddInterface(itf)
	assert.Panics(t, func() { b.AddInterface(itf) })
}

func TestConfigurationMarshalBeforeStart(t *testing.T) {
	cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{BMAttributes: usb.ConfigAttrBusPowered})
	cfg.AddInterface(usb.NewInterface(usb.InterfaceDescriptor{}))

	// bConfigurationValue is still unassigned.
	assert.Panics(t, func() { cfg.MarshalTo(make([]byte, 64)) })
}
