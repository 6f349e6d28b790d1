package descriptor

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/core/packid"
)

// Type1 reads the fixed 16-byte summary descriptor.
type Type1 struct {
	link
}

var _ Descriptor = (*Type1)(nil)

// NewType1 returns an unbound view. A nil order means little endian.
func NewType1(order binary.ByteOrder) *Type1 {
	return &Type1{link: newLink(order)}
}

func (d *Type1) Type() core.DescriptorType { return core.DescriptorType1 }

func (d *Type1) Bind(buf []byte) Descriptor {
	d.bind(buf, layout.Type1Size)
	return d
}

func (d *Type1) Unbind()          { d.unbind() }
func (d *Type1) ByteSize() int    { return layout.Type1Size }
func (d *Type1) ByteSizeMin() int { return layout.Type1Size }
func (d *Type1) ByteSizeMax() int { return layout.Type1Size }

func (d *Type1) FindDescriptor(t core.DescriptorType) (Descriptor, bool) { return find(d, t) }

func (d *Type1) field(f layout.Field) uint32 { return f.Get(d.word(f.Word)) }

func (d *Type1) Timestamp() uint64  { return d.order.Uint64(d.buf[layout.Type1Timestamp:]) }
func (d *Type1) CaptureLength() int { return int(d.field(layout.Type1CaptureLength)) }
func (d *Type1) WireLength() int    { return int(d.field(layout.Type1WireLength)) }
func (d *Type1) VLANCount() int     { return int(d.field(layout.Type1VLANCount)) }
func (d *Type1) MPLSCount() int     { return int(d.field(layout.Type1MPLSCount)) }

func (d *Type1) L2FrameType() core.L2FrameType {
	return core.L2FrameType(d.field(layout.Type1L2Type))
}

func (d *Type1) L3FrameType() core.L3FrameType {
	return core.L3FrameType(d.field(layout.Type1L3Type))
}

func (d *Type1) L4FrameType() core.L4FrameType {
	return core.L4FrameType(d.field(layout.Type1L4Type))
}

// L3Offset returns the byte offset of the outermost network header.
func (d *Type1) L3Offset() int { return int(d.field(layout.Type1L3Offset)) }

// L3Size returns the network header size in bytes, rounded up to 4.
func (d *Type1) L3Size() int { return int(d.field(layout.Type1L3Size)) << 2 }

// L4Size returns the transport header size in bytes, rounded up to 4.
func (d *Type1) L4Size() int { return int(d.field(layout.Type1L4Size)) << 2 }

var (
	l3IDs = map[core.L3FrameType]packid.HeaderID{
		core.L3FrameIPv4: packid.IPv4,
		core.L3FrameIPv6: packid.IPv6,
		core.L3FrameIPX:  packid.IPX,
		core.L3FrameARP:  packid.ARP,
	}
	l4IDs = map[core.L4FrameType]packid.HeaderID{
		core.L4FrameTCP:    packid.TCP,
		core.L4FrameUDP:    packid.UDP,
		core.L4FrameICMPv4: packid.ICMPv4,
		core.L4FrameICMPv6: packid.ICMPv6,
		core.L4FrameGRE:    packid.GRE,
		core.L4FrameSCTP:   packid.SCTP,
	}
)

// LookupHeader synthesizes handles for the outermost network and transport
// headers and the payload behind them. Only depth 0 exists.
func (d *Type1) LookupHeader(id packid.HeaderID, depth int) packid.Compact {
	if depth != 0 {
		return packid.NotFound
	}
	l3Off, l3Len := d.L3Offset(), d.L3Size()
	l4Off, l4Len := l3Off+l3Len, d.L4Size()

	switch {
	case id == packid.Ether && d.L2FrameType() == core.L2FrameEther:
		return packid.NewCompact(id, 0, 14, 0)
	case d.L3FrameType() != core.L3FrameNone && l3IDs[d.L3FrameType()] == id:
		return packid.NewCompact(id, l3Off, l3Len, 0)
	case d.L4FrameType() != core.L4FrameNone && l4IDs[d.L4FrameType()] == id:
		return packid.NewCompact(id, l4Off, l4Len, 0)
	case id == packid.Payload && d.L4FrameType() != core.L4FrameNone:
		if end := l4Off + l4Len; end < d.CaptureLength() {
			return packid.NewCompact(id, end, d.CaptureLength()-end, 0)
		}
	}
	return packid.NotFound
}

func (d *Type1) String() string {
	if !d.IsBound() {
		return "type1(unbound)"
	}
	return fmt.Sprintf("type1 ts=%d caplen=%d wirelen=%d l2=%s l3=%s@%d,%d l4=%s,%d vlan=%d mpls=%d",
		d.Timestamp(), d.CaptureLength(), d.WireLength(), d.L2FrameType(),
		d.L3FrameType(), d.L3Offset(), d.L3Size(), d.L4FrameType(), d.L4Size(),
		d.VLANCount(), d.MPLSCount())
}
