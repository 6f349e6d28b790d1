package descriptor

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
)

// Fragment reads an IPF descriptor. The tracking flags are owned by
// whatever follows the fragment through reassembly and are settable.
type Fragment struct {
	link
}

var _ Descriptor = (*Fragment)(nil)

// NewFragment returns an unbound view. A nil order means little endian.
func NewFragment(order binary.ByteOrder) *Fragment {
	return &Fragment{link: newLink(order)}
}

func (d *Fragment) Type() core.DescriptorType { return core.DescriptorTypeIPF }

func (d *Fragment) Bind(buf []byte) Descriptor {
	d.bind(buf, layout.IPFSize)
	return d
}

func (d *Fragment) Unbind()          { d.unbind() }
func (d *Fragment) ByteSize() int    { return layout.IPFSize }
func (d *Fragment) ByteSizeMin() int { return layout.IPFSize }
func (d *Fragment) ByteSizeMax() int { return layout.IPFSize }

func (d *Fragment) FindDescriptor(t core.DescriptorType) (Descriptor, bool) { return find(d, t) }

func (d *Fragment) field(f layout.Field) uint32 { return f.Get(d.word(f.Word)) }
func (d *Fragment) flag(f layout.Field) bool    { return d.field(f) != 0 }

func (d *Fragment) setFlag(f layout.Field, on bool) {
	var v uint32
	if on {
		v = 1
	}
	d.setWord(f.Word, f.Set(d.word(f.Word), v))
}

func (d *Fragment) IsFragment() bool    { return d.flag(layout.IPFIsFrag) }
func (d *Fragment) IsLast() bool        { return d.flag(layout.IPFIsLast) }
func (d *Fragment) IsOverlap() bool     { return d.flag(layout.IPFIsOverlap) }
func (d *Fragment) IsDuplicate() bool   { return d.flag(layout.IPFIsDuplicate) }
func (d *Fragment) IsComplete() bool    { return d.flag(layout.IPFIsComplete) }
func (d *Fragment) IsTimeout() bool     { return d.flag(layout.IPFIsTimeout) }
func (d *Fragment) IsReassembled() bool { return d.flag(layout.IPFIsReassembled) }

func (d *Fragment) SetOverlap(on bool)     { d.setFlag(layout.IPFIsOverlap, on) }
func (d *Fragment) SetDuplicate(on bool)   { d.setFlag(layout.IPFIsDuplicate, on) }
func (d *Fragment) SetComplete(on bool)    { d.setFlag(layout.IPFIsComplete, on) }
func (d *Fragment) SetTimeout(on bool)     { d.setFlag(layout.IPFIsTimeout, on) }
func (d *Fragment) SetReassembled(on bool) { d.setFlag(layout.IPFIsReassembled, on) }

func (d *Fragment) IPVersion() int      { return int(d.field(layout.IPFIPVersion)) }
func (d *Fragment) L3Offset() int       { return int(d.field(layout.IPFL3Offset)) }
func (d *Fragment) L3HeaderLength() int { return int(d.field(layout.IPFL3HeaderLen)) }
func (d *Fragment) L4Protocol() uint8   { return uint8(d.field(layout.IPFL4Protocol)) }

// FragmentOffset returns the offset of the fragment data in bytes.
func (d *Fragment) FragmentOffset() int { return int(d.field(layout.IPFFragOffset)) }

// DataLength returns the fragment data length in bytes.
func (d *Fragment) DataLength() int { return int(d.field(layout.IPFFragDataLen)) }

// ID returns the datagram identification, 16 bits for IPv4 and 32 for IPv6.
func (d *Fragment) ID() uint32 { return d.word(layout.IPFID) }

func (d *Fragment) Timestamp() uint64 { return d.order.Uint64(d.buf[layout.IPFTimestamp:]) }

func (d *Fragment) String() string {
	if !d.IsBound() {
		return "ipf(unbound)"
	}
	return fmt.Sprintf("ipf v%d id=%#x off=%d len=%d last=%t proto=%d",
		d.IPVersion(), d.ID(), d.FragmentOffset(), d.DataLength(), d.IsLast(), d.L4Protocol())
}
