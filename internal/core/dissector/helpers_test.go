package dissector

import (
	"encoding/binary"
	"fmt"
)

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func ether(etherType uint16) []byte {
	b := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // dst
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // src
		0, 0,
	}
	binary.BigEndian.PutUint16(b[12:], etherType)
	return b
}

func vlanTag(id, etherType uint16) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b, id)
	binary.BigEndian.PutUint16(b[2:], etherType)
	return b
}

// ipv4 builds a header with opts padded to a 4-byte boundary.
func ipv4Header(proto uint8, payloadLen int, opts ...byte) []byte {
	hl := 20 + (len(opts)+3)&^3
	b := make([]byte, hl)
	b[0] = 0x40 | byte(hl/4)
	binary.BigEndian.PutUint16(b[2:], uint16(hl+payloadLen))
	b[4], b[5] = 0x12, 0x34 // id
	b[8] = 64
	b[9] = proto
	copy(b[12:], []byte{192, 168, 1, 1, 192, 168, 1, 2})
	copy(b[20:], opts)
	return b
}

func fragmented(ip []byte, more bool, offset8 uint16) []byte {
	v := offset8
	if more {
		v |= 0x2000
	}
	binary.BigEndian.PutUint16(ip[6:], v)
	return ip
}

func ipv6Header(next uint8, payloadLen int) []byte {
	b := make([]byte, 40)
	b[0] = 0x60
	binary.BigEndian.PutUint16(b[4:], uint16(payloadLen))
	b[6] = next
	b[7] = 64
	b[8], b[9], b[23] = 0x20, 0x01, 0x01 // 2001::1
	b[24], b[25], b[39] = 0x20, 0x01, 0x02
	return b
}

func tcp(src, dst uint16, opts ...byte) []byte {
	hl := 20 + (len(opts)+3)&^3
	b := make([]byte, hl)
	binary.BigEndian.PutUint16(b, src)
	binary.BigEndian.PutUint16(b[2:], dst)
	b[12] = byte(hl/4) << 4
	b[13] = 0x02 // SYN
	copy(b[20:], opts)
	return b
}

func udp(src, dst uint16, payloadLen int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b, src)
	binary.BigEndian.PutUint16(b[2:], dst)
	binary.BigEndian.PutUint16(b[4:], uint16(8+payloadLen))
	return b
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// Sample frames shared by the property tests.

func frameEtherIPv4TCP() []byte {
	return concat(ether(0x0800), ipv4Header(6, 40), tcp(40000, 80), payload(20))
}

func frameVLANIPv4UDP() []byte {
	return concat(ether(0x8100), vlanTag(100, 0x0800), ipv4Header(17, 12), udp(5000, 5001, 4), payload(4))
}

func frameIPv6HopByHopTCP() []byte {
	hop := []byte{6, 0, 1, 4, 0, 0, 0, 0}
	return concat(ether(0x86DD), ipv6Header(0, 28), hop, tcp(40000, 443))
}

func frameSNAP() []byte {
	llc := []byte{0xAA, 0xAA, 0x03}
	snap := []byte{0, 0, 0, 0x08, 0x00}
	return concat(ether(0x0030), llc, snap, ipv4Header(17, 8), udp(53, 53, 0))
}

func frameTCPOptions() []byte {
	mss := []byte{2, 4, 0x05, 0xB4}
	sackOK := []byte{4, 2}
	ts := []byte{8, 10, 0, 0, 0, 1, 0, 0, 0, 0}
	nop := []byte{1}
	wscale := []byte{3, 3, 7}
	opts := concat(mss, sackOK, ts, nop, wscale)
	return concat(ether(0x0800), ipv4Header(6, 40), tcp(40000, 80, opts...))
}

func frameICMPv6TimeExceeded() []byte {
	icmp := []byte{3, 0, 0, 0, 0, 0, 0, 0}
	return concat(ether(0x86DD), ipv6Header(58, 8+40+8), icmp, ipv6Header(17, 8), udp(1000, 2000, 0))
}

func frameMPLS(labels int) []byte {
	b := ether(0x8847)
	for i := 0; i < labels; i++ {
		word := uint32(i+16)<<12 | 64
		if i == labels-1 {
			word |= 0x100
		}
		b = binary.BigEndian.AppendUint32(b, word)
	}
	return concat(b, ipv4Header(17, 8), udp(1, 2, 0))
}

func sampleFrames() map[string][]byte {
	return map[string][]byte{
		"ether-ipv4-tcp":  frameEtherIPv4TCP(),
		"vlan-ipv4-udp":   frameVLANIPv4UDP(),
		"ipv6-hop-tcp":    frameIPv6HopByHopTCP(),
		"snap":            frameSNAP(),
		"tcp-options":     frameTCPOptions(),
		"icmpv6-embedded": frameICMPv6TimeExceeded(),
		"mpls":            frameMPLS(3),
		"mpls-overflow":   frameMPLS(40),
		"ipv4-fragment":   concat(ether(0x0800), fragmented(ipv4Header(17, 16), true, 0), udp(1, 2, 8), payload(8)),
	}
}

func recordStrings(d *Type2) []string {
	out := make([]string, 0, d.RecordCount())
	for _, r := range d.Records() {
		out = append(out, r.String())
	}
	return out
}

// recordingExt logs every hook call and claims according to claim.
type recordingExt struct {
	claim bool
	calls []string
}

func (e *recordingExt) DissectType(w Walker, offset int, layer Layer, typ uint16) bool {
	e.calls = append(e.calls, fmt.Sprintf("type %s@%d 0x%04x", layer, offset, typ))
	return e.claim
}

func (e *recordingExt) DissectPorts(w Walker, offset int, proto uint8, src, dst uint16) bool {
	e.calls = append(e.calls, fmt.Sprintf("ports %d@%d %d>%d", proto, offset, src, dst))
	return e.claim
}

func (e *recordingExt) DissectEncaps(w Walker, offset int, proto uint16) bool {
	e.calls = append(e.calls, fmt.Sprintf("encaps@%d 0x%04x", offset, proto))
	return e.claim
}

// greIPExt continues into IP payloads of GRE.
type greIPExt struct{ NoopExtension }

func (greIPExt) DissectEncaps(w Walker, offset int, proto uint16) bool {
	if proto != 0x0800 && proto != 0x86DD {
		return false
	}
	w.DissectIP(offset)
	return true
}
