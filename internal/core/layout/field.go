// Package layout describes the binary descriptor formats as explicit
// shift/mask tables. It holds no behavior beyond packing and unpacking bit
// fields of 32-bit words; callers choose the byte order.
package layout

// Field is a bit field within a 32-bit word located at byte offset Word of
// the descriptor.
type Field struct {
	Word  int  // byte offset of the containing 32-bit word
	Shift uint // position of the least significant bit
	Bits  uint // width in bits
}

// Mask returns the unshifted mask of the field.
func (f Field) Mask() uint32 { return 1<<f.Bits - 1 }

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 { return f.Mask() }

// Get extracts the field from word.
func (f Field) Get(word uint32) uint32 { return word >> f.Shift & f.Mask() }

// Set returns word with the field replaced by v. v is truncated.
func (f Field) Set(word, v uint32) uint32 {
	return word&^(f.Mask()<<f.Shift) | (v&f.Mask())<<f.Shift
}

// Put returns v truncated and shifted into position, for OR-ing several
// fields into one word.
func (f Field) Put(v uint32) uint32 { return (v & f.Mask()) << f.Shift }

// Saturate clamps v to the field maximum.
func (f Field) Saturate(v int) uint32 {
	if v < 0 {
		return 0
	}
	if uint32(v) > f.Max() {
		return f.Max()
	}
	return uint32(v)
}

// Flag is a one bit field.
func Flag(word int, bit uint) Field { return Field{Word: word, Shift: bit, Bits: 1} }
