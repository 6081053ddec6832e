package mem

// A Request is one memory access traveling through the memory hierarchy.
// Requests are values. An in-flight request lives in an Arena and is
// referred to by its Handle; the components that do not own it never hold
// a pointer to it.
type Request struct {
	ID       string
	Address  uint64
	ByteSize uint64
	Kind     AccessKind
	Status   Status
	IsAtomic bool

	// SectorMask marks the sectors of the line this request touches.
	// Bit i corresponds to sector i.
	SectorMask uint64

	// ByteMask marks the bytes within the line that a write modifies.
	ByteMask []bool

	// Parent refers to the request this one was split from. It is the
	// zero Handle for requests that are not sector-split children.
	Parent Handle
}

// IsWrite returns true if the request carries data toward memory.
func (r Request) IsWrite() bool {
	return r.Kind.IsWrite()
}

// IsSplit returns true if the request is a sector-split child.
func (r Request) IsSplit() bool {
	return r.Parent != (Handle{})
}

// BlockAddress returns the address of the cache line the request falls in.
func (r Request) BlockAddress(lineSize uint64) uint64 {
	return BlockAddr(r.Address, lineSize)
}

// A RequestBuilder can build requests.
type RequestBuilder struct {
	id         string
	address    uint64
	byteSize   uint64
	kind       AccessKind
	isAtomic   bool
	sectorMask uint64
	byteMask   []bool
	parent     Handle
}

// WithID sets the ID of the request to build.
func (b RequestBuilder) WithID(id string) RequestBuilder {
	b.id = id
	return b
}

// WithAddress sets the address of the request to build.
func (b RequestBuilder) WithAddress(addr uint64) RequestBuilder {
	b.address = addr
	return b
}

// WithByteSize sets the number of bytes the request accesses.
func (b RequestBuilder) WithByteSize(size uint64) RequestBuilder {
	b.byteSize = size
	return b
}

// WithKind sets the access kind of the request to build.
func (b RequestBuilder) WithKind(kind AccessKind) RequestBuilder {
	b.kind = kind
	return b
}

// WithAtomic marks the request as an atomic read-modify-write.
func (b RequestBuilder) WithAtomic() RequestBuilder {
	b.isAtomic = true
	b.kind = AtomicRMW
	return b
}

// WithSectorMask sets the sectors the request touches.
func (b RequestBuilder) WithSectorMask(mask uint64) RequestBuilder {
	b.sectorMask = mask
	return b
}

// WithByteMask sets the bytes within the line a write modifies.
func (b RequestBuilder) WithByteMask(mask []bool) RequestBuilder {
	b.byteMask = mask
	return b
}

// WithParent links the request to the request it was split from.
func (b RequestBuilder) WithParent(parent Handle) RequestBuilder {
	b.parent = parent
	return b
}

// Build returns a new request.
func (b RequestBuilder) Build() Request {
	return Request{
		ID:         b.id,
		Address:    b.address,
		ByteSize:   b.byteSize,
		Kind:       b.kind,
		Status:     StatusInitialized,
		IsAtomic:   b.isAtomic,
		SectorMask: b.sectorMask,
		ByteMask:   b.byteMask,
		Parent:     b.parent,
	}
}
