package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Load reads a profile from a YAML, TOML or JSON file, picking the
// format from the file extension.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Parse decodes profile bytes in the given format ("yaml", "toml" or
// "json").
func Parse(data []byte, format string) (*Profile, error) {
	var p Profile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse yaml profile: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse toml profile: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse json profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
	return &p, nil
}

// Marshal encodes a profile in the given format ("yaml", "toml" or
// "json"). Used by usbdctl config init to emit templates.
func Marshal(p *Profile, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(p)
	case "toml":
		return toml.Marshal(*p)
	case "json":
		return json.MarshalIndent(p, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}
}

// Template returns a small but complete profile describing a vendor
// device with one bulk IN/OUT pair, suitable as a starting point for
// config init.
func Template() *Profile {
	return &Profile{
		Device: Device{
			USBVersion:     0x0200,
			MaxPacketSize0: 64,
			VendorID:       0x1209, // pid.codes open-source VID space
			ProductID:      0x0001,
			DeviceVersion:  0x0100,
		},
		Strings: Strings{
			Languages:    []uint16{0x0409},
			Manufacturer: []Text{{Lang: 0x0409, Value: "Example Corp"}},
			Product:      []Text{{Lang: 0x0409, Value: "Example Device"}},
			SerialNumber: []Text{{Lang: 0x0409, Value: "0001"}},
		},
		Configurations: []Configuration{
			{
				MaxPowerMA: 100,
				Interfaces: []Interface{
					{
						Class: 0xFF, // vendor specific
						Endpoints: []Endpoint{
							{ID: 0, Number: 1, Direction: "in", Transfer: "bulk", PacketSize: 64},
							{ID: 1, Number: 1, Direction: "out", Transfer: "bulk", PacketSize: 64},
						},
					},
				},
			},
		},
	}
}
