package packid

// Bitmask is the presence set of a dissection. Core pack ordinals 0-23 own
// bits 0-23 and tunnel pack ordinals 0-7 own bits 24-31. Option ids own no
// bit: they mark and test the bit of their owning header, so a check never
// yields a false negative.
type Bitmask uint32

// DisabledBitmask has every bit set, which makes every Check pass.
const DisabledBitmask Bitmask = 0xFFFFFFFF

const (
	coreBits   = 24
	tunnelBase = coreBits
	tunnelBits = 8
)

// BitIndex returns the presence bit of id, if it has one.
func BitIndex(id HeaderID) (uint, bool) {
	switch id.Pack() {
	case PackCore:
		if ord := id.Ordinal(); ord < coreBits {
			return uint(ord), true
		}
	case PackTunnel:
		if ord := id.Ordinal(); ord < tunnelBits {
			return uint(tunnelBase + ord), true
		}
	case PackOptions:
		if owner := id.Owner(); owner != id {
			return BitIndex(owner)
		}
	}
	return 0, false
}

// Set returns m with the bit for id set.
func (m Bitmask) Set(id HeaderID) Bitmask {
	if bit, ok := BitIndex(id); ok {
		return m | 1<<bit
	}
	return m
}

// Check reports whether id may be present. Ids without a presence bit are
// reported absent unless m is DisabledBitmask.
//
// For option ids Check is only a pre-check: it tests the owner's bit, so
// Check(TCPOptSACK) is true for any packet with a TCP header, SACK or not.
// Confirm with a record lookup. Core and tunnel ids are exact.
func (m Bitmask) Check(id HeaderID) bool {
	if m == DisabledBitmask {
		return true
	}
	bit, ok := BitIndex(id)
	return ok && m&(1<<bit) != 0
}

// BitmaskSet is the free-function form of Bitmask.Set.
func BitmaskSet(m Bitmask, id HeaderID) Bitmask { return m.Set(id) }

// BitmaskCheck is the free-function form of Bitmask.Check.
func BitmaskCheck(m Bitmask, id HeaderID) bool { return m.Check(id) }
