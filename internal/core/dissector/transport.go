package dissector

import (
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv6"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/packid"
)

const (
	icmpv4HeaderLen = 8
	tcpHeaderMinLen = 20
	udpHeaderLen    = 8
	sctpHeaderLen   = 12
	greHeaderMinLen = 4

	// GRE flags
	greFlagChecksum = 0x8000
	greFlagRouting  = 0x4000
	greFlagKey      = 0x2000
	greFlagSequence = 0x1000

	// TCP option kinds with no length byte
	tcpOptEOL = 0
	tcpOptNOP = 1

	// ICMPv6 header lengths by type
	icmpv6MinLen      = 4
	icmpv6ErrorLen    = 8
	icmpv6EchoLen     = 8
	icmpv6RSLen       = 8
	icmpv6RALen       = 16
	icmpv6NDLen       = 24
	icmpv6RedirectLen = 40
)

// dissectIPType dispatches the payload of an IP header by protocol number.
func (w *walker) dissectIPType(offset int, proto uint8) {
	if !w.enter() {
		return
	}
	defer w.leave()

	switch layers.IPProtocol(proto) {
	case layers.IPProtocolICMPv4:
		if w.addRecord(packid.ICMPv4, offset, icmpv4HeaderLen) {
			w.setL4(core.L4FrameICMPv4, offset, icmpv4HeaderLen)
		}
	case layers.IPProtocolIPv4, layers.IPProtocolIPv6:
		w.dissectIP(offset)
	case layers.IPProtocolTCP:
		w.dissectTCP(offset)
	case layers.IPProtocolUDP:
		w.dissectUDP(offset)
	case layers.IPProtocolGRE:
		w.dissectGRE(offset)
	case layers.IPProtocolSCTP:
		if w.addRecord(packid.SCTP, offset, sctpHeaderLen) {
			w.setTransport(core.L4FrameSCTP, offset, sctpHeaderLen)
		}
	case layers.IPProtocolICMPv6:
		w.dissectICMPv6(offset)
	default:
		w.cfg.ext.DissectType(w, offset, LayerL3, uint16(proto))
	}
}

// setTransport is setL4 for headers that start with a port pair.
func (w *walker) setTransport(t core.L4FrameType, offset, size int) {
	if w.l4Type == core.L4FrameNone && w.ipCount == 1 {
		w.portsAt = offset
	}
	w.setL4(t, offset, size)
}

func (w *walker) dissectTCP(offset int) {
	if !w.hasRemainingLen(offset, tcpHeaderMinLen) {
		return
	}
	hl := int(w.buf[offset+12]>>4) << 2
	if hl < tcpHeaderMinLen || !w.addRecord(packid.TCP, offset, hl) {
		return
	}
	w.setTransport(core.L4FrameTCP, offset, hl)
	if hl > tcpHeaderMinLen {
		w.dissectTCPOptions(offset+tcpHeaderMinLen, offset+hl)
	}
	src, dst := get16(w.buf[offset:]), get16(w.buf[offset+2:])
	w.cfg.ext.DissectPorts(w, offset+hl, uint8(layers.IPProtocolTCP), src, dst)
}

func (w *walker) dissectTCPOptions(offset, end int) {
	for offset < end {
		kind := w.buf[offset]
		switch kind {
		case tcpOptEOL:
			return
		case tcpOptNOP:
			offset++
			continue
		}
		if offset+1 >= end {
			return
		}
		n := int(w.buf[offset+1])
		if n < 2 || offset+n > end {
			return
		}
		id := packid.MapTCPOptionKind(kind)
		if id != packid.OptUnknown && optionEnabled(w.cfg.disabledTCP, id) {
			if !w.addRecord(id, offset, n) {
				return
			}
		}
		offset += n
	}
}

func (w *walker) dissectUDP(offset int) {
	if !w.addRecord(packid.UDP, offset, udpHeaderLen) {
		return
	}
	w.setTransport(core.L4FrameUDP, offset, udpHeaderLen)
	src, dst := get16(w.buf[offset:]), get16(w.buf[offset+2:])
	w.cfg.ext.DissectPorts(w, offset+udpHeaderLen, uint8(layers.IPProtocolUDP), src, dst)
}

func (w *walker) dissectGRE(offset int) {
	if !w.hasRemainingLen(offset, greHeaderMinLen) {
		return
	}
	flags := get16(w.buf[offset:])
	proto := get16(w.buf[offset+2:])
	n := greHeaderMinLen
	if flags&(greFlagChecksum|greFlagRouting) != 0 {
		n += 4
	}
	if flags&greFlagKey != 0 {
		n += 4
	}
	if flags&greFlagSequence != 0 {
		n += 4
	}
	if !w.addRecord(packid.GRE, offset, n) {
		return
	}
	w.setL4(core.L4FrameGRE, offset, n)
	w.cfg.ext.DissectEncaps(w, offset+n, proto)
}

// dissectICMPv6 records the header by type. Error messages carry the
// offending packet, which is dissected as IP.
func (w *walker) dissectICMPv6(offset int) {
	if !w.hasRemainingLen(offset, icmpv6MinLen) {
		return
	}
	n := icmpv6MinLen
	embedded := false
	switch ipv6.ICMPType(w.buf[offset]) {
	case ipv6.ICMPTypeDestinationUnreachable, ipv6.ICMPTypePacketTooBig,
		ipv6.ICMPTypeTimeExceeded, ipv6.ICMPTypeParameterProblem:
		n, embedded = icmpv6ErrorLen, true
	case ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply:
		n = icmpv6EchoLen
	case ipv6.ICMPTypeRouterSolicitation:
		n = icmpv6RSLen
	case ipv6.ICMPTypeRouterAdvertisement:
		n = icmpv6RALen
	case ipv6.ICMPTypeNeighborSolicitation, ipv6.ICMPTypeNeighborAdvertisement:
		n = icmpv6NDLen
	case ipv6.ICMPTypeRedirect:
		n = icmpv6RedirectLen
	}
	if !w.addRecord(packid.ICMPv6, offset, n) {
		return
	}
	w.setL4(core.L4FrameICMPv6, offset, n)
	if embedded {
		w.dissectIP(offset + n)
	}
}
