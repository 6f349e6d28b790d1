package dissector

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/core/packid"
)

// maxDepth bounds the nesting of encapsulation walks.
const maxDepth = 32

// config survives Reset.
type config struct {
	datalink       layers.LinkType
	ext            Extension
	rxPort         uint8
	hashing        bool
	bigEndian      bool
	defaultBitmask packid.Bitmask

	// one bit per option ordinal, see packid.OptionBit
	disabledIPv4 uint16
	disabledIPv6 uint16
	disabledTCP  uint16
}

func defaultConfig() config {
	return config{
		datalink: layers.LinkTypeEthernet,
		ext:      NoopExtension{},
		hashing:  true,
	}
}

func (c *config) order() binary.ByteOrder {
	if c.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (c *config) setByteOrder(order binary.ByteOrder) {
	c.bigEndian = order != nil && order.Uint16([]byte{0, 1}) == 1
}

func (c *config) disableOption(id packid.HeaderID) {
	if !id.IsOption() || id == packid.OptUnknown {
		return
	}
	bit := uint16(1) << packid.OptionBit(id)
	switch id.Owner() {
	case packid.IPv4:
		c.disabledIPv4 |= bit
	case packid.IPv6:
		c.disabledIPv6 |= bit
	case packid.TCP:
		c.disabledTCP |= bit
	}
}

func optionEnabled(mask uint16, id packid.HeaderID) bool {
	return mask&(1<<packid.OptionBit(id)) == 0
}

// state is cleared by reset.
type state struct {
	buf       []byte
	caplen    int
	wirelen   int
	timestamp uint64

	l2Type   core.L2FrameType
	l3Type   core.L3FrameType
	l3Offset int
	l3Size   int
	l4Type   core.L4FrameType
	l4Offset int
	l4Size   int

	vlanCount int
	mplsCount int
	ipCount   int
	depth     int

	isFragment     bool
	isLastFragment bool
	frag           fragment

	bitmask     packid.Bitmask
	records     [layout.Type2MaxRecords]packid.Record
	recordCount int
	truncated   bool
	overflow    bool

	// flow hash inputs, taken from the outermost IP header
	addrOffset int
	addrLen    int
	proto      uint8
	portsAt    int // offset of the L4 port pair, or -1
	hash       uint32
	hashType   core.HashType
}

// fragment holds what an IPF descriptor needs about the outermost IP header.
type fragment struct {
	version     uint8
	id          uint32
	offset      int // bytes
	dataLen     int
	l3Offset    int
	l3HeaderLen int
	proto       uint8
}

// walker is the shared protocol walk. Type1 runs it without records.
type walker struct {
	state
	cfg       config
	recording bool
}

func (w *walker) reset() {
	w.state = state{
		bitmask: w.cfg.defaultBitmask,
		portsAt: -1,
	}
}

func (w *walker) begin(buf []byte, timestamp uint64, caplen, wirelen int) {
	w.reset()
	if caplen < 0 {
		caplen = 0
	}
	if caplen > len(buf) {
		caplen = len(buf)
	}
	w.buf = buf[:caplen]
	w.caplen = caplen
	w.wirelen = wirelen
	w.timestamp = timestamp
}

// enter guards recursion depth. Every enter that returns true must be
// paired with leave.
func (w *walker) enter() bool {
	if w.depth >= maxDepth {
		return false
	}
	w.depth++
	return true
}

func (w *walker) leave() { w.depth-- }

func (w *walker) hasRemainingLen(offset, length int) bool {
	if HasRemainingLen(w.caplen, offset, length) {
		return true
	}
	w.truncated = true
	return false
}

// addRecord notes a header at [offset, offset+length). It returns false,
// meaning the caller stops walking this branch, when the header does not
// fit in the capture or the record array is full.
func (w *walker) addRecord(id packid.HeaderID, offset, length int) bool {
	if !w.hasRemainingLen(offset, length) {
		return false
	}
	if w.recording {
		if w.recordCount >= len(w.records) {
			w.overflow = true
			return false
		}
		r, ok := packid.EncodeRecord(id, offset, length)
		if !ok {
			return false
		}
		w.records[w.recordCount] = r
		w.recordCount++
	}
	w.bitmask = w.bitmask.Set(id)
	return true
}

// patchLength rewrites the length of record i.
func (w *walker) patchLength(i, length int) {
	if !w.recording || i < 0 || i >= w.recordCount {
		return
	}
	if r, ok := w.records[i].WithLength(length); ok {
		w.records[i] = r
	}
}

func (w *walker) setL3(t core.L3FrameType, offset, size int) {
	if w.l3Type != core.L3FrameNone {
		return
	}
	w.l3Type, w.l3Offset, w.l3Size = t, offset, size
}

// setL4 records the summary L4 header. Only a header directly behind the
// summary L3 qualifies: Type1 derives the L4 offset from the L3 end, so an
// L4 behind an inner IP header is left out of the summary.
func (w *walker) setL4(t core.L4FrameType, offset, size int) {
	if w.l4Type != core.L4FrameNone || w.l3Type == core.L3FrameNone {
		return
	}
	if offset != w.l3Offset+w.l3Size {
		return
	}
	w.l4Type, w.l4Offset, w.l4Size = t, offset, size
}

func (w *walker) summary() Summary {
	return Summary{
		L2Type:         w.l2Type,
		L3Type:         w.l3Type,
		L3Offset:       w.l3Offset,
		L3Size:         w.l3Size,
		L4Type:         w.l4Type,
		L4Offset:       w.l4Offset,
		L4Size:         w.l4Size,
		IsFragment:     w.isFragment,
		IsLastFragment: w.isLastFragment,
		VLANCount:      w.vlanCount,
		MPLSCount:      w.mplsCount,
		RecordCount:    w.recordCount,
		Bitmask:        w.bitmask,
		Truncated:      w.truncated,
		Overflow:       w.overflow,
	}
}

// Walker methods, exposed to extensions.

func (w *walker) Buffer() []byte                          { return w.buf }
func (w *walker) CaptureLength() int                      { return w.caplen }
func (w *walker) HasRemaining(offset int) bool            { return HasRemaining(w.caplen, offset) }
func (w *walker) HasRemainingLen(offset, length int) bool { return w.hasRemainingLen(offset, length) }

func (w *walker) AddRecord(id packid.HeaderID, offset, length int) bool {
	return w.addRecord(id, offset, length)
}

func (w *walker) DissectEthernet(offset int)                  { w.dissectEthernet(offset) }
func (w *walker) DissectEthType(offset int, etherType uint16) { w.dissectEthType(offset, etherType) }
func (w *walker) DissectIP(offset int)                        { w.dissectIP(offset) }
