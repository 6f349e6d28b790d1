package packid

import (
	"math"
	"strconv"
)

// Compact handle layout.
//
//	bits  0-15  byte offset
//	bits 16-31  byte length
//	bits 32-41  header id
//	bits 48-55  record index hint
const (
	compactLengthShift = 16
	compactIDShift     = 32
	compactIndexShift  = 48
	compactIndexMask   = 0xFF
)

// Compact is the result of a header lookup. It carries enough to access the
// header directly and to resume a record scan at the matched index.
type Compact uint64

// NotFound is returned by lookups that do not match.
const NotFound Compact = math.MaxUint64

// NewCompact builds a handle. Values are truncated to their field widths.
func NewCompact(id HeaderID, offset, length, index int) Compact {
	return Compact(uint64(uint16(offset)) |
		uint64(uint16(length))<<compactLengthShift |
		uint64(id&idMask)<<compactIDShift |
		uint64(index&compactIndexMask)<<compactIndexShift)
}

// Found reports whether the handle is not the NotFound sentinel.
func (c Compact) Found() bool { return c != NotFound }

// ID returns the header id.
func (c Compact) ID() HeaderID { return HeaderID(c>>compactIDShift) & idMask }

// Offset returns the header byte offset.
func (c Compact) Offset() int { return int(uint16(c)) }

// Length returns the header byte length.
func (c Compact) Length() int { return int(uint16(c >> compactLengthShift)) }

// Index returns the record index hint. Synthesized handles carry the index
// of the record they were derived from.
func (c Compact) Index() int { return int(c>>compactIndexShift) & compactIndexMask }

func (c Compact) String() string {
	if !c.Found() {
		return "not-found"
	}
	return c.ID().String() + "@" + strconv.Itoa(c.Offset()) + "," + strconv.Itoa(c.Length()) +
		"#" + strconv.Itoa(c.Index())
}
