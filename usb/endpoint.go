package usb

// EndpointID is the logical identifier the firmware uses to map an
// endpoint descriptor to a physical hardware endpoint. Negative values
// are reserved for the implicit control endpoint, which has no
// descriptor; user-assigned IDs start at EndpointUserIDBegin.
type EndpointID int

const (
	// Endpoint0Out and Endpoint0In identify the control endpoint pair in
	// Configure and Post callbacks.
	Endpoint0Out EndpointID = -2
	Endpoint0In  EndpointID = -1

	// EndpointUserIDBegin is the lowest ID assignable to a user endpoint.
	EndpointUserIDBegin EndpointID = 0
)

// Endpoint wraps one endpoint descriptor. It is a leaf: it exposes no
// children and is attached to exactly one interface or alternate
// interface.
type Endpoint struct {
	link link
	desc EndpointDescriptor
	id   EndpointID
}

// NewEndpoint constructs an endpoint from its descriptor and logical ID.
// Panics if the descriptor is malformed or id is below the user ID
// floor.
func NewEndpoint(desc EndpointDescriptor, id EndpointID) *Endpoint {
	assert(endpointDescriptorValid(&desc), "malformed endpoint descriptor")
	assertf(id >= EndpointUserIDBegin, "endpoint id %d is reserved", id)
	return &Endpoint{desc: desc, id: id}
}

// endpointDescriptorValid checks the wire-level constraints of an
// endpoint descriptor: endpoint number non-zero (endpoint 0 has no
// descriptor), reserved address bits clear, a non-zero packet size, and
// a bmAttributes combination that is legal for the declared transfer
// type (USB 2.0 spec 9.6.6).
func endpointDescriptorValid(desc *EndpointDescriptor) bool {
	if desc.BEndpointAddress&EndpointAddressNumberMask == 0 {
		return false
	}
	if desc.BEndpointAddress&endpointAddressReservedMask != 0 {
		return false
	}
	if desc.WMaxPacketSize&maxPacketSizeMask == 0 {
		return false
	}
	switch TransferType(desc.BMAttributes & transferTypeMask) {
	case TransferControl, TransferBulk, TransferInterrupt:
		// Sync and usage fields are iso-only.
		return desc.BMAttributes&(syncTypeMask|usageTypeMask) == 0
	case TransferIsochronous:
		return desc.BMAttributes&usageTypeMask != usageTypeReserved
	}
	return false
}

// Valid reports whether the endpoint still holds a well-formed
// descriptor. It re-derives the construction-time check so Device.Start
// can catch corruption of descriptor memory after construction.
func (e *Endpoint) Valid() bool {
	return endpointDescriptorValid(&e.desc)
}

// ID returns the endpoint's logical identifier.
func (e *Endpoint) ID() EndpointID { return e.id }

// Descriptor returns a copy of the endpoint's wire record.
func (e *Endpoint) Descriptor() EndpointDescriptor { return e.desc }

// Address returns bEndpointAddress (direction bit included).
func (e *Endpoint) Address() uint8 { return e.desc.BEndpointAddress }

// Number returns the endpoint number without the direction bit.
func (e *Endpoint) Number() uint8 { return e.desc.BEndpointAddress & EndpointAddressNumberMask }

// In reports whether this is an IN endpoint.
func (e *Endpoint) In() bool { return e.desc.BEndpointAddress&EndpointAddressDirIn != 0 }

// TransferType returns the transfer type encoded in bmAttributes.
func (e *Endpoint) TransferType() TransferType {
	return TransferType(e.desc.BMAttributes & transferTypeMask)
}

// PacketSize returns the packet size portion of wMaxPacketSize.
func (e *Endpoint) PacketSize() uint16 { return e.desc.WMaxPacketSize & maxPacketSizeMask }

// Size returns the wire size of the endpoint descriptor.
func (e *Endpoint) Size() int { return EndpointDescLen }

// MarshalTo copies the endpoint descriptor's wire bytes into buf.
func (e *Endpoint) MarshalTo(buf []byte) int { return e.desc.MarshalTo(buf) }
