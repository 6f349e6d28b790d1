package descriptor

import (
	"encoding/binary"
	"fmt"
	"iter"
	"strings"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/core/packid"
)

// Type2 reads a summary plus record array descriptor.
type Type2 struct {
	link

	// union and bitmask words, decoded on first use after Bind
	cached  bool
	union   uint32
	bitmask packid.Bitmask
}

var _ Descriptor = (*Type2)(nil)

// NewType2 returns an unbound view. A nil order means little endian.
func NewType2(order binary.ByteOrder) *Type2 {
	return &Type2{link: newLink(order)}
}

func (d *Type2) Type() core.DescriptorType { return core.DescriptorType2 }

func (d *Type2) Bind(buf []byte) Descriptor {
	if len(buf) < layout.Type2SizeMin {
		panic(fmt.Sprintf("descriptor: bind %d bytes, need %d", len(buf), layout.Type2SizeMin))
	}
	n := int(layout.Type2RecordCount.Get(d.order.Uint32(buf[layout.Type2Word1:])))
	d.bind(buf, layout.Type2Size(n))
	d.cached = false
	return d
}

func (d *Type2) Unbind() {
	d.cached = false
	d.unbind()
}

func (d *Type2) ByteSize() int {
	if !d.IsBound() {
		return layout.Type2SizeMin
	}
	return layout.Type2Size(d.RecordCount())
}

func (d *Type2) ByteSizeMin() int { return layout.Type2SizeMin }
func (d *Type2) ByteSizeMax() int { return layout.Type2SizeMax }

func (d *Type2) FindDescriptor(t core.DescriptorType) (Descriptor, bool) { return find(d, t) }

func (d *Type2) field(f layout.Field) uint32 { return f.Get(d.word(f.Word)) }

func (d *Type2) setField(f layout.Field, v uint32) {
	d.setWord(f.Word, f.Set(d.word(f.Word), v))
}

func (d *Type2) Timestamp() uint64   { return d.order.Uint64(d.buf[layout.Type2Timestamp:]) }
func (d *Type2) CaptureLength() int  { return int(d.field(layout.Type2CaptureLength)) }
func (d *Type2) WireLength() int     { return int(d.field(layout.Type2WireLength)) }
func (d *Type2) RxPort() uint8       { return uint8(d.field(layout.Type2RxPort)) }
func (d *Type2) TxPort() uint8       { return uint8(d.field(layout.Type2TxPort)) }
func (d *Type2) TxFlags() uint8      { return uint8(d.field(layout.Type2TxFlags)) }
func (d *Type2) TxNow() bool         { return d.field(layout.Type2TxNow) != 0 }
func (d *Type2) TxIgnore() bool      { return d.field(layout.Type2TxIgnore) != 0 }
func (d *Type2) TxCRCOverride() bool { return d.field(layout.Type2TxCRCOverride) != 0 }
func (d *Type2) TxSetClock() bool    { return d.field(layout.Type2TxSetClock) != 0 }

func (d *Type2) L2FrameType() core.L2FrameType {
	return core.L2FrameType(d.field(layout.Type2L2Type))
}

func (d *Type2) IsFragment() bool     { return d.field(layout.Type2L3IsFrag) != 0 }
func (d *Type2) IsLastFragment() bool { return d.field(layout.Type2L3LastFrag) != 0 }

// SetTxPort sets the port a transmitter should use.
func (d *Type2) SetTxPort(port uint8) { d.setField(layout.Type2TxPort, uint32(port)) }

// SetTxFlags sets the four transmit flags, see layout.TxNow.
func (d *Type2) SetTxFlags(flags uint8) { d.setField(layout.Type2TxFlags, uint32(flags)) }

func (d *Type2) load() {
	if d.cached {
		return
	}
	d.union = d.word(layout.Type2Union)
	d.bitmask = packid.Bitmask(d.word(layout.Type2Bitmask))
	d.cached = true
}

// Hash32 returns the union word read as a 32-bit hash.
func (d *Type2) Hash32() uint32 {
	d.load()
	return d.union
}

func (d *Type2) Hash24() uint32 {
	d.load()
	return layout.Type2Hash24.Get(d.union)
}

func (d *Type2) HashType() core.HashType {
	d.load()
	return core.HashType(layout.Type2HashType.Get(d.union))
}

// Color returns the union word read as a user color. Color and hash share
// storage; setting one overwrites the other.
func (d *Type2) Color() uint32 {
	d.load()
	return d.union
}

func (d *Type2) SetColor(color uint32) {
	d.setWord(layout.Type2Union, color)
	d.load()
	d.union = color
}

func (d *Type2) Bitmask() packid.Bitmask {
	d.load()
	return d.bitmask
}

func (d *Type2) RecordCount() int { return int(d.field(layout.Type2RecordCount)) }

// Record returns record i and panics when i is out of range.
func (d *Type2) Record(i int) packid.Record {
	if n := d.RecordCount(); i < 0 || i >= n {
		panic(fmt.Sprintf("descriptor: record index %d out of range [0,%d)", i, n))
	}
	return packid.Record(d.word(layout.Type2Records + i*layout.Type2RecordSize))
}

// Records iterates over the records in insertion order.
func (d *Type2) Records() iter.Seq2[int, packid.Record] {
	return func(yield func(int, packid.Record) bool) {
		for i, n := 0, d.RecordCount(); i < n; i++ {
			if !yield(i, d.Record(i)) {
				return
			}
		}
	}
}

// LookupHeader returns the depth-th occurrence of id, counting from 0, or
// packid.NotFound. The payload is synthesized from the furthest record end.
func (d *Type2) LookupHeader(id packid.HeaderID, depth int) packid.Compact {
	if id == packid.Payload {
		return d.lookupPayload(depth)
	}
	if !d.Bitmask().Check(id) {
		return packid.NotFound
	}
	for i, r := range d.Records() {
		if !r.Is(id) {
			continue
		}
		if depth == 0 {
			return r.Compact(i)
		}
		depth--
	}
	return packid.NotFound
}

func (d *Type2) lookupPayload(depth int) packid.Compact {
	n := d.RecordCount()
	if depth != 0 || n == 0 {
		return packid.NotFound
	}
	end := 0
	for _, r := range d.Records() {
		end = max(end, r.End())
	}
	caplen := d.CaptureLength()
	if end >= caplen {
		return packid.NotFound
	}
	return packid.NewCompact(packid.Payload, end, caplen-end, n)
}

// LookupHeaderExtension returns option or extension header ext of the
// depth-th occurrence of id. A positive hint is the record index of that
// occurrence, as returned by LookupHeader, and skips the base lookup.
func (d *Type2) LookupHeaderExtension(id, ext packid.HeaderID, depth, hint int) packid.Compact {
	start := hint
	if hint <= 0 {
		base := d.LookupHeader(id, depth)
		if !base.Found() {
			return packid.NotFound
		}
		start = base.Index()
	}
	if !d.Bitmask().Check(ext) {
		return packid.NotFound
	}
	// options follow their owner contiguously
	for i, n := start+1, d.RecordCount(); i < n; i++ {
		r := d.Record(i)
		if r.Pack() != packid.PackOptions {
			break
		}
		if r.Is(ext) {
			return r.Compact(i)
		}
	}
	return packid.NotFound
}

func (d *Type2) count(id packid.HeaderID) int {
	n := 0
	for _, r := range d.Records() {
		if r.Is(id) {
			n++
		}
	}
	return n
}

// VLANCount returns the number of VLAN tags recorded.
func (d *Type2) VLANCount() int { return d.count(packid.VLAN) }

// MPLSCount returns the number of MPLS labels recorded.
func (d *Type2) MPLSCount() int { return d.count(packid.MPLS) }

func (d *Type2) String() string {
	if !d.IsBound() {
		return "type2(unbound)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "type2 ts=%d caplen=%d wirelen=%d l2=%s", d.Timestamp(), d.CaptureLength(), d.WireLength(), d.L2FrameType())
	if d.IsFragment() {
		b.WriteString(" frag")
		if d.IsLastFragment() {
			b.WriteString(",last")
		}
	}
	if ht := d.HashType(); ht != core.HashTypeNone {
		fmt.Fprintf(&b, " hash=%06x/%s", d.Hash24(), ht)
	}
	b.WriteString(" [")
	for i, r := range d.Records() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.String())
	}
	b.WriteByte(']')
	return b.String()
}
