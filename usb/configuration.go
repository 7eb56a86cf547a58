package usb

// Configuration holds interfaces and strings. wTotalLength,
// bNumInterfaces, bConfigurationValue and iConfiguration are derived
// during Device.Start; the caller supplies bmAttributes and bMaxPower.
type Configuration struct {
	link       link
	desc       ConfigurationDescriptor
	interfaces []*Interface
	strings    []*String
}

// NewConfiguration constructs a configuration from its descriptor.
// Panics if a derived field was pre-set or bmAttributes is malformed.
func NewConfiguration(desc ConfigurationDescriptor) *Configuration {
	assert(desc.WTotalLength == 0 && desc.BNumInterfaces == 0 &&
		desc.BConfigurationValue == 0 && desc.IConfiguration == 0,
		"derived configuration descriptor fields must be zero")
	assert(configurationAttributesValid(desc.BMAttributes), "malformed configuration bmAttributes")
	return &Configuration{desc: desc}
}

// configurationAttributesValid checks bmAttributes per USB 2.0 table
// 9-10: bit 7 set, reserved bits 0..4 clear.
func configurationAttributesValid(attrs uint8) bool {
	return attrs&ConfigAttrBusPowered != 0 && attrs&configAttrReservedMask == 0
}

// AddInterface attaches an interface to this configuration. Panics if
// the interface is already linked elsewhere.
func (c *Configuration) AddInterface(i *Interface) {
	assert(i != nil, "nil interface")
	i.link.attach(c, "interface")
	c.interfaces = append(c.interfaces, i)
}

// AddString attaches a string descriptor describing this configuration.
// Strings attached here share the iConfiguration index, one entry per
// language. Panics if the string is already linked elsewhere.
func (c *Configuration) AddString(s *String) {
	assert(s != nil, "nil string")
	s.link.attach(c, "string")
	c.strings = append(c.strings, s)
}

// Valid reports whether the configuration and everything beneath it is
// structurally sound.
func (c *Configuration) Valid() bool {
	if !configurationAttributesValid(c.desc.BMAttributes) {
		return false
	}
	for _, i := range c.interfaces {
		if !i.Valid() {
			return false
		}
	}
	return true
}

// InterfaceCount returns the number of attached interfaces.
func (c *Configuration) InterfaceCount() int { return len(c.interfaces) }

// Descriptor returns a copy of the configuration's wire record.
func (c *Configuration) Descriptor() ConfigurationDescriptor { return c.desc }

// Size returns the wire size of the configuration subtree: this
// descriptor plus every interface subtree. Filled into wTotalLength by
// Device.Start.
func (c *Configuration) Size() int {
	bytes := ConfigDescLen
	for _, i := range c.interfaces {
		bytes += i.Size()
	}
	return bytes
}

// MarshalTo serializes the whole configuration subtree into buf in wire
// order: configuration header, then per interface its descriptor,
// endpoints, and alternate settings each followed by their endpoints.
// Only meaningful after Device.Start has derived the cross-referencing
// fields; calling it earlier panics. Returns the number of bytes
// written.
func (c *Configuration) MarshalTo(buf []byte) int {
	assert(c.desc.BConfigurationValue != 0, "configuration not finalized")
	assertf(len(buf) >= c.Size(), "configuration buffer too small: %d < %d", len(buf), c.Size())
	n := c.desc.MarshalTo(buf)
	for _, i := range c.interfaces {
		n += i.desc.MarshalTo(buf[n:])
		for _, ep := range i.endpoints {
			n += ep.desc.MarshalTo(buf[n:])
		}
		for _, alt := range i.alternates {
			n += alt.desc.MarshalTo(buf[n:])
			for _, ep := range alt.endpoints {
				n += ep.desc.MarshalTo(buf[n:])
			}
		}
	}
	return n
}
