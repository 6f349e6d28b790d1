package dissector

import (
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
)

// Type1 dissects Ethernet frames into the 16-byte summary descriptor. It
// runs the same walk as Type2 without keeping records. Offsets, sizes and
// counts that do not fit their fields saturate.
type Type1 struct {
	walker
}

var (
	_ Dissector      = (*Type1)(nil)
	_ FragmentWriter = (*Type1)(nil)
)

// NewType1 returns a Type1 dissector with the default configuration.
func NewType1() *Type1 { return newType1(defaultConfig()) }

func newType1(cfg config) *Type1 {
	d := &Type1{walker: walker{cfg: cfg}}
	d.reset()
	return d
}

func (d *Type1) DissectPacket(buf []byte, timestamp uint64, caplen, wirelen int) int {
	d.begin(buf, timestamp, caplen, wirelen)
	d.dissectLink()
	return caplen
}

func (d *Type1) Reset() Dissector {
	d.reset()
	return d
}

func (d *Type1) SetDatalinkType(l layers.LinkType) error {
	if l != layers.LinkTypeEthernet {
		return &ProtocolError{Op: "set datalink", Datalink: l, Err: core.ErrUnsupportedDatalink}
	}
	d.cfg.datalink = l
	return nil
}

func (d *Type1) DescriptorType() core.DescriptorType { return core.DescriptorType1 }

func words32(n int) int { return (n + 3) >> 2 }

func (d *Type1) WriteDescriptor(out []byte) int {
	_ = out[layout.Type1Size-1]

	order := d.cfg.order()
	w0 := layout.Type1CaptureLength.Put(uint32(d.caplen)) |
		layout.Type1L2Type.Put(uint32(d.l2Type)) |
		layout.Type1L3Offset.Put(layout.Type1L3Offset.Saturate(d.l3Offset)) |
		layout.Type1L3Size.Put(layout.Type1L3Size.Saturate(words32(d.l3Size)))
	w1 := layout.Type1WireLength.Put(uint32(d.wirelen)) |
		layout.Type1VLANCount.Put(layout.Type1VLANCount.Saturate(d.vlanCount)) |
		layout.Type1MPLSCount.Put(layout.Type1MPLSCount.Saturate(d.mplsCount)) |
		layout.Type1L3Type.Put(uint32(d.l3Type)) |
		layout.Type1L4Type.Put(uint32(d.l4Type)) |
		layout.Type1L4Size.Put(layout.Type1L4Size.Saturate(words32(d.l4Size)))

	order.PutUint64(out[layout.Type1Timestamp:], d.timestamp)
	order.PutUint32(out[layout.Type1Word0:], w0)
	order.PutUint32(out[layout.Type1Word1:], w1)
	return layout.Type1Size
}
