package packid

import "strconv"

// Record word layout.
//
//	bits  0-11  byte offset from the start of the frame
//	bits 12-21  byte length
//	bits 22-31  header id
const (
	RecordOffsetBits  = 12
	RecordOffsetMask  = 1<<RecordOffsetBits - 1
	RecordLengthShift = RecordOffsetBits
	RecordLengthBits  = 10
	RecordLengthMask  = 1<<RecordLengthBits - 1
	RecordIDShift     = RecordLengthShift + RecordLengthBits

	// MaxRecordOffset and MaxRecordLength are the largest encodable values.
	MaxRecordOffset = RecordOffsetMask
	MaxRecordLength = RecordLengthMask
)

// Record is one header occurrence packed into 32 bits.
type Record uint32

// EncodeRecord packs id, offset and length. It returns false when offset or
// length is negative or wider than its field.
func EncodeRecord(id HeaderID, offset, length int) (Record, bool) {
	if offset < 0 || offset > MaxRecordOffset || length < 0 || length > MaxRecordLength {
		return 0, false
	}
	return Record(uint32(id&idMask)<<RecordIDShift |
		uint32(length)<<RecordLengthShift |
		uint32(offset)), true
}

// ID returns the header id.
func (r Record) ID() HeaderID { return HeaderID(r>>RecordIDShift) & idMask }

// Offset returns the header byte offset.
func (r Record) Offset() int { return int(r & RecordOffsetMask) }

// Length returns the header byte length.
func (r Record) Length() int { return int(r>>RecordLengthShift) & RecordLengthMask }

// End returns Offset()+Length().
func (r Record) End() int { return r.Offset() + r.Length() }

// Pack returns the pack id of the header.
func (r Record) Pack() PackID { return r.ID().Pack() }

// Ordinal returns the ordinal of the header within its pack.
func (r Record) Ordinal() uint8 { return r.ID().Ordinal() }

// Is reports whether the record describes header id.
func (r Record) Is(id HeaderID) bool { return r.ID() == id&idMask }

// WithLength returns r with its length replaced. It is used to patch the
// IPv6 base record once the extension chain length is known.
func (r Record) WithLength(length int) (Record, bool) {
	if length < 0 || length > MaxRecordLength {
		return r, false
	}
	return r&^(RecordLengthMask<<RecordLengthShift) | Record(length)<<RecordLengthShift, true
}

// Compact converts the record into a lookup handle carrying index as hint.
func (r Record) Compact(index int) Compact {
	return NewCompact(r.ID(), r.Offset(), r.Length(), index)
}

func (r Record) String() string {
	return r.ID().String() + "@" + strconv.Itoa(r.Offset()) + "," + strconv.Itoa(r.Length())
}
