package dissector

import "firestige.xyz/pktdesc/internal/core/packid"

// Layer tells an extension which namespace a type value belongs to.
type Layer uint8

const (
	LayerL2 Layer = iota + 1 // value is an ethertype
	LayerL3                  // value is an IP protocol number
)

func (l Layer) String() string {
	switch l {
	case LayerL2:
		return "l2"
	case LayerL3:
		return "l3"
	}
	return "layer?"
}

// Walker is the view of a running dissection given to extensions. Offsets
// are absolute within the frame.
type Walker interface {
	Buffer() []byte
	CaptureLength() int
	HasRemaining(offset int) bool
	HasRemainingLen(offset, length int) bool
	AddRecord(id packid.HeaderID, offset, length int) bool
	DissectEthernet(offset int)
	DissectEthType(offset int, etherType uint16)
	DissectIP(offset int)
}

// Extension is consulted for protocols the built-in walk does not know.
// Each method returns true when it claimed the payload.
type Extension interface {
	// DissectType is called for an unknown ethertype or IP protocol.
	DissectType(w Walker, offset int, layer Layer, typ uint16) bool
	// DissectPorts is called after every TCP and UDP header with the
	// offset of its payload.
	DissectPorts(w Walker, offset int, proto uint8, src, dst uint16) bool
	// DissectEncaps is called after every GRE header with the offset of
	// its payload and the encapsulated protocol type.
	DissectEncaps(w Walker, offset int, proto uint16) bool
}

// NoopExtension claims nothing.
type NoopExtension struct{}

func (NoopExtension) DissectType(Walker, int, Layer, uint16) bool          { return false }
func (NoopExtension) DissectPorts(Walker, int, uint8, uint16, uint16) bool { return false }
func (NoopExtension) DissectEncaps(Walker, int, uint16) bool               { return false }

// Composite asks each extension in turn and stops at the first claim.
type Composite []Extension

func (c Composite) DissectType(w Walker, offset int, layer Layer, typ uint16) bool {
	for _, e := range c {
		if e.DissectType(w, offset, layer, typ) {
			return true
		}
	}
	return false
}

func (c Composite) DissectPorts(w Walker, offset int, proto uint8, src, dst uint16) bool {
	for _, e := range c {
		if e.DissectPorts(w, offset, proto, src, dst) {
			return true
		}
	}
	return false
}

func (c Composite) DissectEncaps(w Walker, offset int, proto uint16) bool {
	for _, e := range c {
		if e.DissectEncaps(w, offset, proto) {
			return true
		}
	}
	return false
}
