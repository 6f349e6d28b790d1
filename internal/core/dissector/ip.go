package dissector

import (
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/packid"
)

const (
	ipv4FlagMF         = 0x2000
	ipv4FragOffsetMask = 0x1FFF
	ipv4AddrOffset     = 12
	ipv4AddrLen        = 8

	ipv6AddrOffset     = 8
	ipv6AddrLen        = 32
	ipv6FragHeaderLen  = 8
	ipv6ESPHeaderLen   = 8
	ipv6FragOffsetMask = 0xFFF8
	ipv6FlagM          = 0x0001
	maxIPv6Extensions  = 16

	// IPv4 option kinds with no length byte
	ipv4OptEOL = 0
	ipv4OptNOP = 1
)

// dissectIP dispatches on the version nibble.
func (w *walker) dissectIP(offset int) {
	if !w.enter() {
		return
	}
	defer w.leave()

	if !w.hasRemainingLen(offset, 1) {
		return
	}
	switch w.buf[offset] >> 4 {
	case 4:
		if w.hasRemainingLen(offset, ipv4.HeaderLen) {
			w.dissectIPv4(offset)
		}
	case 6:
		if w.hasRemainingLen(offset, ipv6.HeaderLen) {
			w.dissectIPv6(offset)
		}
	}
}

func (w *walker) dissectIPv4(offset int) {
	b := w.buf[offset:]
	hl := int(b[0]&0x0F) << 2
	if hl < ipv4.HeaderLen || !w.addRecord(packid.IPv4, offset, hl) {
		return
	}
	w.ipCount++
	outer := w.ipCount == 1

	flags := get16(b[6:])
	fragOffset := int(flags&ipv4FragOffsetMask) << 3
	more := flags&ipv4FlagMF != 0
	proto := b[9]

	if outer {
		w.setL3(core.L3FrameIPv4, offset, hl)
		w.isFragment = more || fragOffset > 0
		w.isLastFragment = !more && fragOffset > 0
		w.frag = fragment{
			version:     4,
			id:          uint32(get16(b[4:])),
			offset:      fragOffset,
			dataLen:     max(int(get16(b[2:]))-hl, 0),
			l3Offset:    offset,
			l3HeaderLen: hl,
			proto:       proto,
		}
		w.addrOffset, w.addrLen, w.proto = offset+ipv4AddrOffset, ipv4AddrLen, proto
	}

	if hl > ipv4.HeaderLen {
		w.dissectIPv4Options(offset+ipv4.HeaderLen, offset+hl)
	}
	// only the first fragment carries the upper layer header
	if fragOffset > 0 {
		return
	}
	w.dissectIPType(offset+hl, proto)
}

// dissectIPv4Options records known options in [offset, end). Unknown
// options are skipped. A malformed length ends the walk.
func (w *walker) dissectIPv4Options(offset, end int) {
	for offset < end {
		kind := w.buf[offset]
		switch kind {
		case ipv4OptEOL:
			return
		case ipv4OptNOP:
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
		id := packid.MapIPv4OptionKind(kind)
		if id != packid.OptUnknown && optionEnabled(w.cfg.disabledIPv4, id) {
			if !w.addRecord(id, offset, n) {
				return
			}
		}
		offset += n
	}
}

// dissectIPv6 records the base header, walks the extension chain and
// patches the base record length to cover it.
func (w *walker) dissectIPv6(offset int) {
	if !w.addRecord(packid.IPv6, offset, ipv6.HeaderLen) {
		return
	}
	base := w.recordCount - 1
	w.ipCount++
	outer := w.ipCount == 1

	b := w.buf[offset:]
	next := b[6]
	if outer {
		w.setL3(core.L3FrameIPv6, offset, ipv6.HeaderLen)
		w.addrOffset, w.addrLen = offset+ipv6AddrOffset, ipv6AddrLen
		w.frag = fragment{
			version:     6,
			dataLen:     int(get16(b[4:])),
			l3Offset:    offset,
			l3HeaderLen: ipv6.HeaderLen,
		}
	}

	extLen := 0
	stop, nonFirst := false, false
	for i := 0; ; i++ {
		id := packid.MapIPv6ExtType(next)
		if id == packid.OptUnknown {
			break
		}
		ext := offset + ipv6.HeaderLen + extLen
		if i == maxIPv6Extensions || !w.hasRemainingLen(ext, 2) {
			stop = true
			break
		}

		var n int
		switch id {
		case packid.IPv6ExtFragment:
			n = ipv6FragHeaderLen
		case packid.IPv6ExtESP:
			n = ipv6ESPHeaderLen
		case packid.IPv6ExtAH:
			n = (int(w.buf[ext+1]) + 2) << 2
		default:
			n = int(w.buf[ext+1])<<3 + 8
		}
		if !w.hasRemainingLen(ext, n) {
			stop = true
			break
		}

		if id == packid.IPv6ExtFragment {
			fo := get16(w.buf[ext+2:])
			fragOffset := int(fo & ipv6FragOffsetMask)
			more := fo&ipv6FlagM != 0
			nonFirst = fragOffset > 0
			if outer {
				w.isFragment = more || fragOffset > 0
				w.isLastFragment = !more && fragOffset > 0
				w.frag.id = get32(w.buf[ext+4:])
				w.frag.offset = fragOffset
				w.frag.proto = w.buf[ext]
			}
		}
		if optionEnabled(w.cfg.disabledIPv6, id) && !w.addRecord(id, ext, n) {
			stop = true
			break
		}
		extLen += n
		if id == packid.IPv6ExtESP {
			// the rest is encrypted
			stop = true
			break
		}
		next = w.buf[ext]
	}

	if extLen > 0 {
		w.patchLength(base, ipv6.HeaderLen+extLen)
		if outer {
			w.l3Size = ipv6.HeaderLen + extLen
			w.frag.l3HeaderLen = ipv6.HeaderLen + extLen
			w.frag.dataLen = max(w.frag.dataLen-extLen, 0)
		}
	}
	if outer {
		w.proto = next
		if w.frag.proto == 0 {
			w.frag.proto = next
		}
	}
	if stop || nonFirst {
		return
	}
	w.dissectIPType(offset+ipv6.HeaderLen+extLen, next)
}
