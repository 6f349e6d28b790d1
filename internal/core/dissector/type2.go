package dissector

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/core/packid"
)

// Type2 dissects every supported datalink and records each header found,
// up to layout.Type2MaxRecords records.
type Type2 struct {
	walker
}

var (
	_ Dissector      = (*Type2)(nil)
	_ FragmentWriter = (*Type2)(nil)
	_ Walker         = (*Type2)(nil)
)

// NewType2 returns a Type2 dissector with the default configuration.
func NewType2() *Type2 { return newType2(defaultConfig()) }

func newType2(cfg config) *Type2 {
	d := &Type2{walker: walker{cfg: cfg, recording: true}}
	d.reset()
	return d
}

func (d *Type2) DissectPacket(buf []byte, timestamp uint64, caplen, wirelen int) int {
	d.begin(buf, timestamp, caplen, wirelen)
	d.dissectLink()
	if d.cfg.hashing {
		d.computeHash()
	}
	return caplen
}

func (d *Type2) Reset() Dissector {
	d.reset()
	return d
}

func (d *Type2) SetDatalinkType(l layers.LinkType) error {
	switch l {
	case layers.LinkTypeEthernet, layers.LinkTypeLinuxSLL,
		layers.LinkTypeRaw, layers.LinkTypeIPv4, layers.LinkTypeIPv6:
		d.cfg.datalink = l
		return nil
	}
	return &ProtocolError{Op: "set datalink", Datalink: l, Err: core.ErrUnsupportedDatalink}
}

func (d *Type2) DescriptorType() core.DescriptorType { return core.DescriptorType2 }

// RecordCount returns the number of records of the last dissection.
func (d *Type2) RecordCount() int { return d.recordCount }

// Record returns record i. It panics when i is out of range.
func (d *Type2) Record(i int) packid.Record { return d.records[:d.recordCount][i] }

// Records returns the records of the last dissection. The slice aliases
// internal state and is valid until the next dissection.
func (d *Type2) Records() []packid.Record { return d.records[:d.recordCount] }

// Hash returns the 24-bit flow hash of the last dissection.
func (d *Type2) Hash() (uint32, core.HashType) { return d.hash, d.hashType }

func (d *Type2) words() (w0, w1, union uint32) {
	w0 = layout.Type2CaptureLength.Put(uint32(d.caplen)) |
		layout.Type2RxPort.Put(uint32(d.cfg.rxPort))
	w1 = layout.Type2WireLength.Put(uint32(d.wirelen)) |
		layout.Type2L2Type.Put(uint32(d.l2Type)) |
		layout.Type2L3IsFrag.Put(b2u(d.isFragment)) |
		layout.Type2L3LastFrag.Put(b2u(d.isLastFragment)) |
		layout.Type2RecordCount.Put(uint32(d.recordCount))
	if d.cfg.hashing && d.hashType != core.HashTypeNone {
		union = layout.Type2Hash24.Put(d.hash) | layout.Type2HashType.Put(uint32(d.hashType))
	}
	return w0, w1, union
}

// WriteDescriptor stores adjacent words with single 64-bit writes.
func (d *Type2) WriteDescriptor(out []byte) int {
	n := layout.Type2Size(d.recordCount)
	_ = out[n-1]

	order := d.cfg.order()
	w0, w1, union := d.words()
	order.PutUint64(out[layout.Type2Timestamp:], d.timestamp)
	putPair(out[layout.Type2Word0:], d.cfg.bigEndian, w0, w1)
	putPair(out[layout.Type2Union:], d.cfg.bigEndian, union, uint32(d.bitmask))
	for i, r := range d.records[:d.recordCount] {
		order.PutUint32(out[layout.Type2Records+i*layout.Type2RecordSize:], uint32(r))
	}
	return n
}

// putPair writes lo then hi as two consecutive 32-bit words.
func putPair(out []byte, bigEndian bool, lo, hi uint32) {
	if bigEndian {
		binary.BigEndian.PutUint64(out, uint64(lo)<<32|uint64(hi))
		return
	}
	binary.LittleEndian.PutUint64(out, uint64(hi)<<32|uint64(lo))
}

// writeDescriptorFields is the field-at-a-time form of WriteDescriptor. Both must
// produce identical bytes.
func (d *Type2) writeDescriptorFields(out []byte) int {
	n := layout.Type2Size(d.recordCount)
	_ = out[n-1]

	order := d.cfg.order()
	clear(out[layout.Type2Word0:layout.Type2Records])
	set := func(f layout.Field, v uint32) {
		order.PutUint32(out[f.Word:], f.Set(order.Uint32(out[f.Word:]), v))
	}

	order.PutUint64(out[layout.Type2Timestamp:], d.timestamp)
	set(layout.Type2CaptureLength, uint32(d.caplen))
	set(layout.Type2RxPort, uint32(d.cfg.rxPort))
	set(layout.Type2TxPort, 0)
	set(layout.Type2WireLength, uint32(d.wirelen))
	set(layout.Type2TxFlags, 0)
	set(layout.Type2L2Type, uint32(d.l2Type))
	set(layout.Type2L3IsFrag, b2u(d.isFragment))
	set(layout.Type2L3LastFrag, b2u(d.isLastFragment))
	set(layout.Type2RecordCount, uint32(d.recordCount))
	if d.cfg.hashing && d.hashType != core.HashTypeNone {
		set(layout.Type2Hash24, d.hash)
		set(layout.Type2HashType, uint32(d.hashType))
	}
	order.PutUint32(out[layout.Type2Bitmask:], uint32(d.bitmask))
	for i := 0; i < d.recordCount; i++ {
		order.PutUint32(out[layout.Type2Records+i*layout.Type2RecordSize:], uint32(d.records[i]))
	}
	return n
}
