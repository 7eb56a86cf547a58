package usb

// Interface holds endpoints, strings, and alternate interfaces. The
// derived descriptor fields (bInterfaceNumber, bAlternateSetting,
// bNumEndpoints, iInterface) are written during Device.Start; the caller
// supplies only the class triple.
type Interface struct {
	link       link
	desc       InterfaceDescriptor
	endpoints  []*Endpoint
	alternates []*AlternateInterface
	strings    []*String
}

// NewInterface constructs an interface from its descriptor. Panics if a
// derived field was pre-set.
func NewInterface(desc InterfaceDescriptor) *Interface {
	assert(interfaceDescriptorClean(&desc), "derived interface descriptor fields must be zero")
	return &Interface{desc: desc}
}

// interfaceDescriptorClean reports whether the fields Device.Start
// derives are still zero.
func interfaceDescriptorClean(desc *InterfaceDescriptor) bool {
	return desc.BInterfaceNumber == 0 &&
		desc.BAlternateSetting == 0 &&
		desc.BNumEndpoints == 0 &&
		desc.IInterface == 0
}

// hasEndpointAddress scans an endpoint collection for an address.
// O(n), acceptable: n is small and this runs at setup time only.
func hasEndpointAddress(endpoints []*Endpoint, address uint8) bool {
	for _, ep := range endpoints {
		if ep.desc.BEndpointAddress == address {
			return true
		}
	}
	return false
}

// endpointsValid re-validates every endpoint in a collection and checks
// address uniqueness within it.
func endpointsValid(endpoints []*Endpoint) bool {
	for i, ep := range endpoints {
		if !ep.Valid() {
			return false
		}
		if hasEndpointAddress(endpoints[:i], ep.desc.BEndpointAddress) {
			return false
		}
	}
	return true
}

// AddEndpoint attaches an endpoint to this interface. Panics if the
// endpoint is already linked elsewhere or its address duplicates one
// already present in this interface's endpoint collection.
func (i *Interface) AddEndpoint(ep *Endpoint) {
	assert(ep != nil, "nil endpoint")
	assertf(!hasEndpointAddress(i.endpoints, ep.desc.BEndpointAddress),
		"duplicate endpoint address 0x%02X in interface", ep.desc.BEndpointAddress)
	ep.link.attach(i, "endpoint")
	i.endpoints = append(i.endpoints, ep)
}

// AddAlternate attaches an alternate interface. Panics if it is already
// linked elsewhere.
func (i *Interface) AddAlternate(alt *AlternateInterface) {
	assert(alt != nil, "nil alternate interface")
	alt.link.attach(i, "alternate interface")
	i.alternates = append(i.alternates, alt)
}

// AddString attaches a string descriptor describing this interface.
// Strings attached here share the interface's iInterface index, one
// entry per language. Panics if the string is already linked elsewhere.
func (i *Interface) AddString(s *String) {
	assert(s != nil, "nil string")
	s.link.attach(i, "string")
	i.strings = append(i.strings, s)
}

// Valid reports whether the interface and everything beneath it is
// structurally sound. Device.Start re-runs this on every interface.
func (i *Interface) Valid() bool {
	if !endpointsValid(i.endpoints) {
		return false
	}
	for _, alt := range i.alternates {
		if !alt.Valid() {
			return false
		}
	}
	return true
}

// EndpointCount returns the number of direct endpoints. Alternates keep
// their own counts.
func (i *Interface) EndpointCount() int { return len(i.endpoints) }

// AlternateCount returns the number of attached alternate interfaces.
func (i *Interface) AlternateCount() int { return len(i.alternates) }

// Descriptor returns a copy of the interface's wire record.
func (i *Interface) Descriptor() InterfaceDescriptor { return i.desc }

// Size returns the wire size of the interface subtree: this descriptor,
// its direct endpoints, and every alternate interface subtree.
func (i *Interface) Size() int {
	bytes := InterfaceDescLen + EndpointDescLen*len(i.endpoints)
	for _, alt := range i.alternates {
		bytes += alt.Size()
	}
	return bytes
}

// AlternateInterface is an alternate setting for an interface. It
// shares the interface descriptor shape but cannot hold further
// alternates; nesting is one level deep.
type AlternateInterface struct {
	link      link
	desc      InterfaceDescriptor
	endpoints []*Endpoint
	strings   []*String
}

// NewAlternateInterface constructs an alternate interface from its
// descriptor. Panics if a derived field was pre-set.
func NewAlternateInterface(desc InterfaceDescriptor) *AlternateInterface {
	assert(interfaceDescriptorClean(&desc), "derived interface descriptor fields must be zero")
	return &AlternateInterface{desc: desc}
}

// AddEndpoint attaches an endpoint to this alternate interface. Panics
// if the endpoint is already linked elsewhere or its address duplicates
// one already present in this alternate's endpoint collection.
func (a *AlternateInterface) AddEndpoint(ep *Endpoint) {
	assert(ep != nil, "nil endpoint")
	assertf(!hasEndpointAddress(a.endpoints, ep.desc.BEndpointAddress),
		"duplicate endpoint address 0x%02X in alternate interface", ep.desc.BEndpointAddress)
	ep.link.attach(a, "endpoint")
	a.endpoints = append(a.endpoints, ep)
}

// AddString attaches a string descriptor describing this alternate
// setting. Panics if the string is already linked elsewhere.
func (a *AlternateInterface) AddString(s *String) {
	assert(s != nil, "nil string")
	s.link.attach(a, "string")
	a.strings = append(a.strings, s)
}

// Valid reports whether the alternate interface and its endpoints are
// structurally sound.
func (a *AlternateInterface) Valid() bool {
	return endpointsValid(a.endpoints)
}

// EndpointCount returns the number of endpoints in this alternate.
func (a *AlternateInterface) EndpointCount() int { return len(a.endpoints) }

// Descriptor returns a copy of the alternate's wire record.
func (a *AlternateInterface) Descriptor() InterfaceDescriptor { return a.desc }

// Size returns the wire size of this alternate's descriptor plus its
// endpoints.
func (a *AlternateInterface) Size() int {
	return InterfaceDescLen + EndpointDescLen*len(a.endpoints)
}
