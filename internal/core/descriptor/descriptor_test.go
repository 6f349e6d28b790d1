package descriptor

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/dissector"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/core/packid"
)

func ether(etherType uint16) []byte {
	b := make([]byte, 14)
	b[0], b[6] = 0x02, 0x04
	binary.BigEndian.PutUint16(b[12:], etherType)
	return b
}

func ipv4(proto uint8, payloadLen int) []byte {
	b := make([]byte, 20)
	b[0] = 0x45
	binary.BigEndian.PutUint16(b[2:], uint16(20+payloadLen))
	b[4], b[5] = 0xBE, 0xEF
	b[8], b[9] = 64, proto
	copy(b[12:], []byte{10, 0, 0, 1, 10, 0, 0, 2})
	return b
}

func ipv6(next uint8, payloadLen int) []byte {
	b := make([]byte, 40)
	b[0] = 0x60
	binary.BigEndian.PutUint16(b[4:], uint16(payloadLen))
	b[6], b[7] = next, 64
	b[23], b[39] = 1, 2
	return b
}

func tcpWithTimestamp() []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint16(b, 1234)
	binary.BigEndian.PutUint16(b[2:], 80)
	b[12] = 8 << 4
	copy(b[20:], []byte{1, 1, 8, 10, 0, 0, 0, 1, 0, 0, 0, 2})
	return b
}

func udp() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b, 1000)
	binary.BigEndian.PutUint16(b[2:], 2000)
	return b
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// write dissects pkt with a fresh Type2 dissector and returns the descriptor
// bytes together with the dissector, whose records are the expected values.
func write(t *testing.T, pkt []byte, opts ...dissector.Option) ([]byte, *dissector.Type2) {
	t.Helper()
	d, err := dissector.New(core.DescriptorType2, opts...)
	require.NoError(t, err)
	d.DissectPacket(pkt, 1700000000123456789, len(pkt), len(pkt))
	out := make([]byte, layout.Type2SizeMax)
	n := d.WriteDescriptor(out)
	return out[:n], d.(*dissector.Type2)
}

func frameTCP() []byte {
	return concat(ether(0x0800), ipv4(6, 32+20), tcpWithTimestamp(), make([]byte, 20))
}

func frameICMPv6Error() []byte {
	icmp := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	return concat(ether(0x86DD), ipv6(58, 8+40+8), icmp, ipv6(17, 8), udp())
}

func TestType2Scalars(t *testing.T) {
	pkt := frameTCP()
	buf, _ := write(t, pkt, dissector.WithRxPort(7))

	d := NewType2(nil)
	assert.False(t, d.IsBound())
	d.Bind(buf)
	require.True(t, d.IsBound())

	assert.Equal(t, core.DescriptorType2, d.Type())
	assert.Equal(t, uint64(1700000000123456789), d.Timestamp())
	assert.Equal(t, len(pkt), d.CaptureLength())
	assert.Equal(t, len(pkt), d.WireLength())
	assert.Equal(t, uint8(7), d.RxPort())
	assert.Equal(t, core.L2FrameEther, d.L2FrameType())
	assert.False(t, d.IsFragment())
	assert.Equal(t, 4, d.RecordCount())
	assert.Equal(t, layout.Type2Size(4), d.ByteSize())
	assert.Equal(t, 24, d.ByteSizeMin())
	assert.Equal(t, 152, d.ByteSizeMax())
	assert.Equal(t, core.HashTypeL4, d.HashType())
	assert.Contains(t, d.String(), "[ether@0,14 ipv4@14,20 tcp@34,32 tcp.ts@56,10]")
}

func TestRoundTrip(t *testing.T) {
	frames := map[string][]byte{
		"tcp":          frameTCP(),
		"icmpv6-error": frameICMPv6Error(),
		"udp":          concat(ether(0x0800), ipv4(17, 8), udp()),
	}
	for name, pkt := range frames {
		t.Run(name, func(t *testing.T) {
			buf, dis := write(t, pkt)
			d := NewType2(binary.LittleEndian)
			d.Bind(buf)

			var got []packid.Record
			for _, r := range d.Records() {
				got = append(got, r)
			}
			if diff := cmp.Diff(dis.Records(), got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}

			seen := map[packid.HeaderID]int{}
			for i, r := range dis.Records() {
				depth := seen[r.ID()]
				seen[r.ID()]++
				if r.ID().IsOption() {
					continue
				}
				c := d.LookupHeader(r.ID(), depth)
				require.True(t, c.Found(), "%s depth %d", r, depth)
				assert.Equal(t, r.Offset(), c.Offset())
				assert.Equal(t, r.Length(), c.Length())
				assert.Equal(t, i, c.Index())
			}
		})
	}
}

func TestLookupHeader(t *testing.T) {
	buf, _ := write(t, frameICMPv6Error())
	d := NewType2(nil)
	d.Bind(buf)

	outer := d.LookupHeader(packid.IPv6, 0)
	require.True(t, outer.Found())
	assert.Equal(t, 14, outer.Offset())

	inner := d.LookupHeader(packid.IPv6, 1)
	require.True(t, inner.Found())
	assert.Equal(t, 62, inner.Offset())
	assert.Equal(t, 3, inner.Index())

	assert.False(t, d.LookupHeader(packid.IPv6, 2).Found())
	assert.False(t, d.LookupHeader(packid.TCP, 0).Found())
	assert.Equal(t, packid.NotFound, d.LookupHeader(packid.VXLAN, 0))
}

func TestLookupPayload(t *testing.T) {
	pkt := frameTCP()
	buf, _ := write(t, pkt)
	d := NewType2(nil)
	d.Bind(buf)

	p := d.LookupHeader(packid.Payload, 0)
	require.True(t, p.Found())
	assert.Equal(t, 66, p.Offset())
	assert.Equal(t, 20, p.Length())
	assert.Equal(t, packid.Payload, p.ID())

	buf, _ = write(t, concat(ether(0x0800), ipv4(17, 8), udp()))
	d.Bind(buf)
	assert.False(t, d.LookupHeader(packid.Payload, 0).Found())
}

func TestLookupHeaderExtension(t *testing.T) {
	buf, _ := write(t, frameTCP())
	d := NewType2(nil)
	d.Bind(buf)

	ts := d.LookupHeaderExtension(packid.TCP, packid.TCPOptTimestamp, 0, 0)
	require.True(t, ts.Found())
	assert.Equal(t, 56, ts.Offset())
	assert.Equal(t, 10, ts.Length())

	base := d.LookupHeader(packid.TCP, 0)
	hinted := d.LookupHeaderExtension(packid.TCP, packid.TCPOptTimestamp, 0, base.Index())
	assert.Equal(t, ts, hinted)

	assert.False(t, d.LookupHeaderExtension(packid.TCP, packid.TCPOptSACK, 0, 0).Found())
	// ipv4 carries no options; the scan stops at the tcp record
	assert.False(t, d.LookupHeaderExtension(packid.IPv4, packid.TCPOptTimestamp, 0, 0).Found())
	assert.False(t, d.LookupHeaderExtension(packid.UDP, packid.TCPOptTimestamp, 0, 0).Found())
}

func TestRecordOutOfRangePanics(t *testing.T) {
	buf, _ := write(t, frameTCP())
	d := NewType2(nil)
	d.Bind(buf)
	assert.Panics(t, func() { d.Record(d.RecordCount()) })
	assert.Panics(t, func() { d.Record(-1) })
	assert.NotPanics(t, func() { d.Record(0) })
}

func TestBindShortBufferPanics(t *testing.T) {
	buf, _ := write(t, frameTCP())
	assert.Panics(t, func() { NewType2(nil).Bind(buf[:layout.Type2SizeMin-1]) })
	assert.Panics(t, func() { NewType2(nil).Bind(buf[:len(buf)-1]) })
	assert.Panics(t, func() { NewType1(nil).Bind(make([]byte, 15)) })
	assert.Panics(t, func() { NewFragment(nil).Bind(make([]byte, 23)) })
}

func TestUnionCacheInvalidatedOnBind(t *testing.T) {
	hashed, _ := write(t, frameTCP())
	plain, _ := write(t, frameTCP(), dissector.WithHashing(false))

	d := NewType2(nil)
	d.Bind(hashed)
	h := d.Hash32()
	require.NotZero(t, h)

	d.Bind(plain)
	assert.Zero(t, d.Hash32())
	assert.Equal(t, core.HashTypeNone, d.HashType())

	d.SetColor(0xC0FFEE)
	assert.Equal(t, uint32(0xC0FFEE), d.Color())
	assert.Equal(t, uint32(0xC0FFEE), binary.LittleEndian.Uint32(plain[layout.Type2Union:]))

	d.Unbind()
	d.Bind(hashed)
	assert.Equal(t, h, d.Hash32())
}

func TestTxFields(t *testing.T) {
	buf, _ := write(t, frameTCP(), dissector.WithRxPort(2))
	d := NewType2(nil)
	d.Bind(buf)

	d.SetTxPort(9)
	d.SetTxFlags(layout.TxNow | layout.TxSetClock)
	assert.Equal(t, uint8(9), d.TxPort())
	assert.Equal(t, uint8(2), d.RxPort())
	assert.True(t, d.TxNow())
	assert.False(t, d.TxIgnore())
	assert.False(t, d.TxCRCOverride())
	assert.True(t, d.TxSetClock())
	assert.Equal(t, 4, d.RecordCount())
}

func TestDerivedCounts(t *testing.T) {
	vlan := []byte{0, 10, 0x81, 0x00, 0, 20, 0x88, 0x47}
	mpls := []byte{0, 1, 0x01, 64}
	pkt := concat(ether(0x8100), vlan, mpls, ipv4(17, 8), udp())
	buf, _ := write(t, pkt)

	d := NewType2(nil)
	d.Bind(buf)
	assert.Equal(t, 2, d.VLANCount())
	assert.Equal(t, 1, d.MPLSCount())
}

func TestChain(t *testing.T) {
	pkt := concat(ether(0x0800), ipv4(17, 8), udp())
	binary.BigEndian.PutUint16(pkt[14+6:], 0x2000) // MF
	d, err := dissector.New(core.DescriptorType2)
	require.NoError(t, err)
	d.DissectPacket(pkt, 3, len(pkt), len(pkt))

	slot := make([]byte, layout.Type2SizeMax+layout.IPFSize)
	n := d.WriteDescriptor(slot)
	m := d.(dissector.FragmentWriter).WriteFragmentDescriptor(slot[n:])
	require.Equal(t, layout.IPFSize, m)

	base := NewType2(nil)
	base.Bind(slot)
	frag := NewFragment(nil)
	frag.Bind(slot[n:])
	base.AddDescriptor(frag)
	base.AddDescriptor(nil)

	got, ok := base.PeekDescriptor(core.DescriptorTypeIPF)
	require.True(t, ok)
	assert.Same(t, frag, got)

	self, ok := base.FindDescriptor(core.DescriptorType2)
	require.True(t, ok)
	assert.Same(t, base, self)

	_, ok = base.FindDescriptor(core.DescriptorType1)
	assert.False(t, ok)
	_, ok = frag.PeekDescriptor(core.DescriptorTypeIPF)
	assert.False(t, ok)

	f := got.(*Fragment)
	assert.True(t, f.IsFragment())
	assert.False(t, f.IsLast())
	assert.Equal(t, uint32(0xBEEF), f.ID())
	assert.Equal(t, uint64(3), f.Timestamp())

	base.Unbind()
	assert.False(t, base.IsBound())
	assert.False(t, frag.IsBound())
	assert.Nil(t, base.Next())
}

func TestAddDescriptorAppendsAtTail(t *testing.T) {
	a, b, c := NewType2(nil), NewFragment(nil), NewType1(nil)
	a.AddDescriptor(b)
	a.AddDescriptor(c)
	assert.Same(t, b, a.Next())
	assert.Same(t, c, b.Next())

	found, ok := a.FindDescriptor(core.DescriptorType1)
	require.True(t, ok)
	assert.Same(t, c, found)
	_, ok = a.PeekDescriptor(core.DescriptorType1)
	assert.False(t, ok)
}

func TestFragmentFlags(t *testing.T) {
	f := NewFragment(nil)
	f.Bind(make([]byte, layout.IPFSize))

	f.SetDuplicate(true)
	assert.True(t, f.IsDuplicate())
	assert.False(t, f.IsOverlap())

	f.SetOverlap(true)
	f.SetDuplicate(false)
	assert.True(t, f.IsOverlap())
	assert.False(t, f.IsDuplicate())

	f.SetComplete(true)
	f.SetTimeout(true)
	f.SetReassembled(true)
	assert.True(t, f.IsComplete())
	assert.True(t, f.IsTimeout())
	assert.True(t, f.IsReassembled())
	assert.False(t, f.IsFragment())
}

func TestType1View(t *testing.T) {
	pkt := frameTCP()
	d, err := dissector.New(core.DescriptorType1)
	require.NoError(t, err)
	d.DissectPacket(pkt, 11, len(pkt), len(pkt))
	buf := make([]byte, layout.Type1Size)
	d.WriteDescriptor(buf)

	v := NewType1(nil)
	v.Bind(buf)
	assert.Equal(t, uint64(11), v.Timestamp())
	assert.Equal(t, core.L3FrameIPv4, v.L3FrameType())
	assert.Equal(t, core.L4FrameTCP, v.L4FrameType())
	assert.Equal(t, 14, v.L3Offset())
	assert.Equal(t, 20, v.L3Size())
	assert.Equal(t, 32, v.L4Size())

	l4 := v.LookupHeader(packid.TCP, 0)
	require.True(t, l4.Found())
	assert.Equal(t, 34, l4.Offset())
	assert.Equal(t, 32, l4.Length())

	p := v.LookupHeader(packid.Payload, 0)
	require.True(t, p.Found())
	assert.Equal(t, 66, p.Offset())
	assert.Equal(t, 20, p.Length())

	assert.True(t, v.LookupHeader(packid.Ether, 0).Found())
	assert.False(t, v.LookupHeader(packid.UDP, 0).Found())
	assert.False(t, v.LookupHeader(packid.IPv4, 1).Found())
	assert.Contains(t, v.String(), "l3=IPv4@14,20")
}

func TestType1IPInIP(t *testing.T) {
	pkt := concat(ether(0x0800), ipv4(4, 20+32), ipv4(6, 32), tcpWithTimestamp())

	d, err := dissector.New(core.DescriptorType1)
	require.NoError(t, err)
	d.DissectPacket(pkt, 0, len(pkt), len(pkt))
	buf := make([]byte, layout.Type1Size)
	d.WriteDescriptor(buf)

	v := NewType1(nil)
	v.Bind(buf)
	assert.Equal(t, core.L3FrameIPv4, v.L3FrameType())
	assert.Equal(t, 14, v.L3Offset())
	// the TCP header sits behind the inner IPv4, which Type1 cannot address
	assert.Equal(t, core.L4FrameNone, v.L4FrameType())
	assert.False(t, v.LookupHeader(packid.TCP, 0).Found())
	assert.False(t, v.LookupHeader(packid.Payload, 0).Found())

	// Type2 keeps the inner header in its records
	buf2, _ := write(t, pkt)
	v2 := NewType2(nil)
	v2.Bind(buf2)
	tcp := v2.LookupHeader(packid.TCP, 0)
	require.True(t, tcp.Found())
	assert.Equal(t, 54, tcp.Offset())
}

func TestNew(t *testing.T) {
	for _, typ := range []core.DescriptorType{core.DescriptorType1, core.DescriptorType2, core.DescriptorTypeIPF} {
		d, err := New(typ, binary.BigEndian)
		require.NoError(t, err)
		assert.Equal(t, typ, d.Type())
	}
	_, err := New(core.DescriptorTypeNone, nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedDescriptor)
}
