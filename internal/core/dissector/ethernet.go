package dissector

import (
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/packid"
)

const (
	// Link header lengths
	ethernetHeaderLen = 14
	sllHeaderLen      = 16
	sllProtocolOffset = 14
	vlanHeaderLen     = 4
	mplsLabelLen      = 4
	llcUFormatLen     = 3
	llcLen            = 4
	snapLen           = 5
	arpLen            = 28
	ipxHeaderLen      = 30

	// STP BPDU lengths by type
	stpConfigLen = 35
	stpTCNLen    = 4
	stpRSTPLen   = 36

	// Values above this are ethertypes, the rest 802.3 lengths.
	etherTypeMin = 0x0600

	// EtherType values gopacket does not name
	etherTypeVLAN9100 = 0x9100
	etherTypeIPX      = 0x8137
	etherTypeRARP     = 0x8035

	// 802.2 service access points
	sapSNAP   = 0xAA
	sapNovell = 0xE0
	sapSTP    = 0x42
	llcUI     = 0x03 // unnumbered information control field

	novellRawMarker   = 0xFFFF // IPX checksum, always 0xFFFF in raw 802.3
	mplsBottomOfStack = 0x100
)

// dissectLink dispatches on the configured datalink type.
func (w *walker) dissectLink() {
	switch w.cfg.datalink {
	case layers.LinkTypeEthernet:
		w.l2Type = core.L2FrameEther
		w.dissectEthernet(0)
	case layers.LinkTypeLinuxSLL:
		w.l2Type = core.L2FrameSLL
		if w.addRecord(packid.SLL, 0, sllHeaderLen) {
			w.dissectEthType(sllHeaderLen, get16(w.buf[sllProtocolOffset:]))
		}
	case layers.LinkTypeRaw, layers.LinkTypeIPv4, layers.LinkTypeIPv6:
		w.l2Type = core.L2FrameRawIP
		w.dissectIP(0)
	}
}

// dissectEthernet handles Ethernet II, 802.3 with LLC or SNAP, and raw
// Novell framing. Only the frame at offset 0 sets the L2 frame type.
func (w *walker) dissectEthernet(offset int) {
	if !w.enter() {
		return
	}
	defer w.leave()

	if !w.addRecord(packid.Ether, offset, ethernetHeaderLen) {
		return
	}
	etherType := get16(w.buf[offset+12:])
	payload := offset + ethernetHeaderLen
	if etherType > etherTypeMin {
		w.dissectEthType(payload, etherType)
		return
	}

	// 802.3: the type field is a length
	if w.hasRemainingLen(payload, 2) && get16(w.buf[payload:]) == novellRawMarker {
		if offset == 0 {
			w.l2Type = core.L2FrameNovellRaw
		}
		w.dissectIPX(payload)
		return
	}
	w.dissectLLC(offset, payload)
}

func (w *walker) dissectLLC(frame, offset int) {
	if !w.hasRemainingLen(offset, llcUFormatLen) {
		return
	}
	dsap, ssap, control := w.buf[offset], w.buf[offset+1], w.buf[offset+2]
	n := llcLen
	if control&0x03 == 0x03 {
		n = llcUFormatLen
	}
	if !w.addRecord(packid.LLC, offset, n) {
		return
	}
	if frame == 0 {
		w.l2Type = core.L2FrameLLC
	}

	payload := offset + n
	switch {
	case dsap == sapSNAP && ssap == sapSNAP && control == llcUI:
		if !w.addRecord(packid.SNAP, payload, snapLen) {
			return
		}
		if frame == 0 {
			w.l2Type = core.L2FrameSNAP
		}
		w.dissectEthType(payload+snapLen, get16(w.buf[payload+3:]))
	case dsap == sapNovell && ssap == sapNovell:
		w.dissectIPX(payload)
	case dsap == sapSTP && ssap == sapSTP:
		w.dissectSTP(payload)
	}
}

func (w *walker) dissectSTP(offset int) {
	if !w.hasRemainingLen(offset, stpTCNLen) {
		return
	}
	var n int
	switch w.buf[offset+3] {
	case 0x00:
		n = stpConfigLen
	case 0x80:
		n = stpTCNLen
	case 0x02:
		n = stpRSTPLen
	default:
		return
	}
	w.addRecord(packid.STP, offset, n)
}

func (w *walker) dissectIPX(offset int) {
	if w.addRecord(packid.IPX, offset, ipxHeaderLen) {
		w.setL3(core.L3FrameIPX, offset, ipxHeaderLen)
	}
}

// dissectEthType dispatches the payload at offset by ethertype.
func (w *walker) dissectEthType(offset int, etherType uint16) {
	if !w.enter() {
		return
	}
	defer w.leave()

	switch layers.EthernetType(etherType) {
	case layers.EthernetTypeIPv4, layers.EthernetTypeIPv6:
		w.dissectIP(offset)
	case layers.EthernetTypeDot1Q, layers.EthernetTypeQinQ, etherTypeVLAN9100:
		if !w.addRecord(packid.VLAN, offset, vlanHeaderLen) {
			return
		}
		w.vlanCount++
		w.dissectEthType(offset+vlanHeaderLen, get16(w.buf[offset+2:]))
	case layers.EthernetTypeMPLSUnicast, layers.EthernetTypeMPLSMulticast:
		w.dissectMPLS(offset)
	case layers.EthernetTypeARP, etherTypeRARP:
		if w.addRecord(packid.ARP, offset, arpLen) {
			w.setL3(core.L3FrameARP, offset, arpLen)
		}
	case etherTypeIPX:
		w.dissectIPX(offset)
	default:
		w.cfg.ext.DissectType(w, offset, LayerL2, etherType)
	}
}

// dissectMPLS walks the label stack. The payload after the bottom label is
// assumed to be IP.
func (w *walker) dissectMPLS(offset int) {
	for w.hasRemainingLen(offset, mplsLabelLen) {
		label := get32(w.buf[offset:])
		if !w.addRecord(packid.MPLS, offset, mplsLabelLen) {
			return
		}
		w.mplsCount++
		offset += mplsLabelLen
		if label&mplsBottomOfStack != 0 {
			w.dissectIP(offset)
			return
		}
	}
}
