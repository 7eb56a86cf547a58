// Package profile loads declarative USB descriptor-tree definitions
// from YAML, TOML or JSON and compiles them into a usb.Device. Profiles
// are a build/inspection aid: the same tree a firmware image would
// compose in code can be described in a file and checked with usbdctl
// before anything is flashed.
package profile

import (
	"fmt"

	"github.com/emblib/usbd/usb"
)

// Profile is the root of a declarative descriptor tree.
type Profile struct {
	Device         Device          `json:"device" yaml:"device" toml:"device"`
	Strings        Strings         `json:"strings,omitempty" yaml:"strings,omitempty" toml:"strings,omitempty"`
	Configurations []Configuration `json:"configurations" yaml:"configurations" toml:"configurations"`
}

// Device mirrors the caller-supplied device descriptor fields.
type Device struct {
	USBVersion     uint16 `json:"bcdUsb" yaml:"bcdUsb" toml:"bcdUsb"`
	Class          uint8  `json:"class" yaml:"class" toml:"class"`
	SubClass       uint8  `json:"subClass" yaml:"subClass" toml:"subClass"`
	Protocol       uint8  `json:"protocol" yaml:"protocol" toml:"protocol"`
	MaxPacketSize0 uint8  `json:"maxPacketSize0" yaml:"maxPacketSize0" toml:"maxPacketSize0"`
	VendorID       uint16 `json:"vendorId" yaml:"vendorId" toml:"vendorId"`
	ProductID      uint16 `json:"productId" yaml:"productId" toml:"productId"`
	DeviceVersion  uint16 `json:"bcdDevice" yaml:"bcdDevice" toml:"bcdDevice"`
}

// Strings carries string descriptor zero's language list and the
// device-level string collections, one Text entry per language.
type Strings struct {
	Languages    []uint16 `json:"languages,omitempty" yaml:"languages,omitempty" toml:"languages,omitempty"`
	Manufacturer []Text   `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty" toml:"manufacturer,omitempty"`
	Product      []Text   `json:"product,omitempty" yaml:"product,omitempty" toml:"product,omitempty"`
	SerialNumber []Text   `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty" toml:"serialNumber,omitempty"`
}

// Text is one localized string.
type Text struct {
	Lang  uint16 `json:"lang" yaml:"lang" toml:"lang"`
	Value string `json:"text" yaml:"text" toml:"text"`
}

// Configuration describes one configuration descriptor and its subtree.
type Configuration struct {
	SelfPowered  bool        `json:"selfPowered,omitempty" yaml:"selfPowered,omitempty" toml:"selfPowered,omitempty"`
	RemoteWakeup bool        `json:"remoteWakeup,omitempty" yaml:"remoteWakeup,omitempty" toml:"remoteWakeup,omitempty"`
	MaxPowerMA   uint16      `json:"maxPowerMa" yaml:"maxPowerMa" toml:"maxPowerMa"`
	Strings      []Text      `json:"strings,omitempty" yaml:"strings,omitempty" toml:"strings,omitempty"`
	Interfaces   []Interface `json:"interfaces" yaml:"interfaces" toml:"interfaces"`
}

// Interface describes one interface and its endpoints, strings and
// alternate settings.
type Interface struct {
	Class      uint8       `json:"class" yaml:"class" toml:"class"`
	SubClass   uint8       `json:"subClass" yaml:"subClass" toml:"subClass"`
	Protocol   uint8       `json:"protocol" yaml:"protocol" toml:"protocol"`
	Strings    []Text      `json:"strings,omitempty" yaml:"strings,omitempty" toml:"strings,omitempty"`
	Endpoints  []Endpoint  `json:"endpoints,omitempty" yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
	Alternates []Alternate `json:"alternates,omitempty" yaml:"alternates,omitempty" toml:"alternates,omitempty"`
}

// Alternate describes one alternate setting; alternates cannot nest.
type Alternate struct {
	Class     uint8      `json:"class" yaml:"class" toml:"class"`
	SubClass  uint8      `json:"subClass" yaml:"subClass" toml:"subClass"`
	Protocol  uint8      `json:"protocol" yaml:"protocol" toml:"protocol"`
	Strings   []Text     `json:"strings,omitempty" yaml:"strings,omitempty" toml:"strings,omitempty"`
	Endpoints []Endpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty" toml:"endpoints,omitempty"`
}

// Endpoint describes one endpoint descriptor plus its logical ID.
type Endpoint struct {
	ID         int    `json:"id" yaml:"id" toml:"id"`
	Number     uint8  `json:"number" yaml:"number" toml:"number"`
	Direction  string `json:"direction" yaml:"direction" toml:"direction"`
	Transfer   string `json:"transfer" yaml:"transfer" toml:"transfer"`
	Sync       string `json:"sync,omitempty" yaml:"sync,omitempty" toml:"sync,omitempty"`
	Usage      string `json:"usage,omitempty" yaml:"usage,omitempty" toml:"usage,omitempty"`
	PacketSize uint16 `json:"packetSize" yaml:"packetSize" toml:"packetSize"`
	Interval   uint8  `json:"interval,omitempty" yaml:"interval,omitempty" toml:"interval,omitempty"`
}

// Build compiles the profile into a usb.Device with the given endpoint
// callbacks. Mapping problems (unknown transfer names, bad directions)
// return errors; descriptor-level invariant violations surface as the
// usb package's assertion panics, which usbdctl lint recovers at its
// boundary.
func (p *Profile) Build(configure usb.ConfigureFunc, post usb.PostFunc, ctx any) (*usb.Device, error) {
	var string0 *usb.StringZero
	if len(p.Strings.Languages) > 0 {
		string0 = usb.NewStringZero(p.Strings.Languages...)
	}

	dev := usb.NewDevice(usb.DeviceDescriptor{
		BcdUSB:          p.Device.USBVersion,
		BDeviceClass:    p.Device.Class,
		BDeviceSubClass: p.Device.SubClass,
		BDeviceProtocol: p.Device.Protocol,
		BMaxPacketSize0: p.Device.MaxPacketSize0,
		IDVendor:        p.Device.VendorID,
		IDProduct:       p.Device.ProductID,
		BcdDevice:       p.Device.DeviceVersion,
	}, string0, configure, post, ctx)

	for _, txt := range p.Strings.Manufacturer {
		dev.AddManufacturerString(usb.NewString(txt.Value, txt.Lang))
	}
	for _, txt := range p.Strings.Product {
		dev.AddProductString(usb.NewString(txt.Value, txt.Lang))
	}
	for _, txt := range p.Strings.SerialNumber {
		dev.AddSerialNumberString(usb.NewString(txt.Value, txt.Lang))
	}

	for ci, pc := range p.Configurations {
		attrs := uint8(usb.ConfigAttrBusPowered)
		if pc.SelfPowered {
			attrs |= usb.ConfigAttrSelfPowered
		}
		if pc.RemoteWakeup {
			attrs |= usb.ConfigAttrRemoteWakeup
		}
		// bMaxPower is one byte in 2 mA units, so 510 mA is the ceiling.
		if pc.MaxPowerMA > 510 {
			return nil, fmt.Errorf("configuration %d: max power %d mA exceeds the 510 mA descriptor limit", ci, pc.MaxPowerMA)
		}
		cfg := usb.NewConfiguration(usb.ConfigurationDescriptor{
			BMAttributes: attrs,
			BMaxPower:    uint8((pc.MaxPowerMA + 1) / 2), // field unit is 2 mA
		})
		for _, txt := range pc.Strings {
			cfg.AddString(usb.NewString(txt.Value, txt.Lang))
		}

		for ii, pi := range pc.Interfaces {
			itf := usb.NewInterface(usb.InterfaceDescriptor{
				BInterfaceClass:    pi.Class,
				BInterfaceSubClass: pi.SubClass,
				BInterfaceProtocol: pi.Protocol,
			})
			for _, txt := range pi.Strings {
				itf.AddString(usb.NewString(txt.Value, txt.Lang))
			}
			for ei, pe := range pi.Endpoints {
				ep, err := pe.build()
				if err != nil {
					return nil, fmt.Errorf("configuration %d interface %d endpoint %d: %w", ci, ii, ei, err)
				}
				itf.AddEndpoint(ep)
			}
			for ai, pa := range pi.Alternates {
				alt := usb.NewAlternateInterface(usb.InterfaceDescriptor{
					BInterfaceClass:    pa.Class,
					BInterfaceSubClass: pa.SubClass,
					BInterfaceProtocol: pa.Protocol,
				})
				for _, txt := range pa.Strings {
					alt.AddString(usb.NewString(txt.Value, txt.Lang))
				}
				for ei, pe := range pa.Endpoints {
					ep, err := pe.build()
					if err != nil {
						return nil, fmt.Errorf("configuration %d interface %d alternate %d endpoint %d: %w", ci, ii, ai, ei, err)
					}
					alt.AddEndpoint(ep)
				}
				itf.AddAlternate(alt)
			}
			cfg.AddInterface(itf)
		}
		dev.AddConfiguration(cfg)
	}
	return dev, nil
}

func (e *Endpoint) build() (*usb.Endpoint, error) {
	address := e.Number & usb.EndpointAddressNumberMask
	if address != e.Number {
		return nil, fmt.Errorf("endpoint number %d out of range", e.Number)
	}
	switch e.Direction {
	case "in":
		address |= usb.EndpointAddressDirIn
	case "out":
	default:
		return nil, fmt.Errorf("unknown endpoint direction %q", e.Direction)
	}
	attrs, err := attributeBits(e.Transfer, e.Sync, e.Usage)
	if err != nil {
		return nil, err
	}
	return usb.NewEndpoint(usb.EndpointDescriptor{
		BEndpointAddress: address,
		BMAttributes:     attrs,
		WMaxPacketSize:   e.PacketSize,
		BInterval:        e.Interval,
	}, usb.EndpointID(e.ID)), nil
}

// attributeBits maps the profile's transfer/sync/usage names onto
// endpoint bmAttributes. Sync and usage are isochronous-only.
func attributeBits(transfer, sync, usage string) (uint8, error) {
	var attrs uint8
	switch transfer {
	case "control":
		attrs = uint8(usb.TransferControl)
	case "isochronous":
		attrs = uint8(usb.TransferIsochronous)
	case "bulk":
		attrs = uint8(usb.TransferBulk)
	case "interrupt":
		attrs = uint8(usb.TransferInterrupt)
	default:
		return 0, fmt.Errorf("unknown transfer type %q", transfer)
	}
	if transfer != "isochronous" {
		if sync != "" || usage != "" {
			return 0, fmt.Errorf("sync/usage are only valid for isochronous endpoints")
		}
		return attrs, nil
	}
	switch sync {
	case "", "none":
	case "async":
		attrs |= 0x04
	case "adaptive":
		attrs |= 0x08
	case "sync":
		attrs |= 0x0C
	default:
		return 0, fmt.Errorf("unknown sync type %q", sync)
	}
	switch usage {
	case "", "data":
	case "feedback":
		attrs |= 0x10
	case "implicit":
		attrs |= 0x20
	default:
		return 0, fmt.Errorf("unknown usage type %q", usage)
	}
	return attrs, nil
}
