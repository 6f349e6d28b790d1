package dissector

import (
	"github.com/cespare/xxhash/v2"

	"firestige.xyz/pktdesc/internal/core"
)

const hash24Mask = 1<<24 - 1

// computeHash fills w.hash from the outermost IP addresses and, when
// present, the protocol and port pair of the outermost transport header.
func (w *walker) computeHash() {
	if w.addrLen == 0 {
		return
	}
	var key [ipv6AddrLen + 5]byte
	n := copy(key[:], w.buf[w.addrOffset:w.addrOffset+w.addrLen])
	w.hashType = core.HashTypeL3
	if w.portsAt >= 0 && w.hasRemainingLen(w.portsAt, 4) {
		key[n] = w.proto
		n += 1 + copy(key[n+1:], w.buf[w.portsAt:w.portsAt+4])
		w.hashType = core.HashTypeL4
	}
	h := xxhash.Sum64(key[:n])
	w.hash = uint32(h^h>>32) & hash24Mask
}
