package layout

// Type2 is a 24-byte header followed by record_count 32-bit record words.
//
//	0..7    timestamp (u64)
//	8..11   caplen:16 | rx_port:8 | tx_port:8
//	12..15  wirelen:16 | tx_now:1 | tx_ignore:1 | tx_crc_override:1 | tx_set_clock:1 |
//	        l2_type:4 | l3_is_frag:1 | l3_last_frag:1 | reserved:1 | record_count:5
//	16..19  hash32 | color32 | hash24:24 + hash_type:5
//	20..23  presence bitmask
//	24..    records
const (
	Type2Timestamp = 0
	Type2Word0     = 8
	Type2Word1     = 12
	Type2Union     = 16
	Type2Bitmask   = 20
	Type2Records   = 24

	Type2RecordSize = 4

	// Type2RecordSlots is the number of record words the layout reserves.
	Type2RecordSlots = 32
	// Type2MaxRecords is the usable record capacity, bounded by the 5-bit
	// record_count field.
	Type2MaxRecords = 1<<5 - 1

	Type2SizeMin = Type2Records
	Type2SizeMax = Type2Records + Type2RecordSlots*Type2RecordSize
)

var (
	Type2CaptureLength = Field{Word: Type2Word0, Shift: 0, Bits: 16}
	Type2RxPort        = Field{Word: Type2Word0, Shift: 16, Bits: 8}
	Type2TxPort        = Field{Word: Type2Word0, Shift: 24, Bits: 8}

	Type2WireLength    = Field{Word: Type2Word1, Shift: 0, Bits: 16}
	Type2TxNow         = Flag(Type2Word1, 16)
	Type2TxIgnore      = Flag(Type2Word1, 17)
	Type2TxCRCOverride = Flag(Type2Word1, 18)
	Type2TxSetClock    = Flag(Type2Word1, 19)
	Type2TxFlags       = Field{Word: Type2Word1, Shift: 16, Bits: 4}
	Type2L2Type        = Field{Word: Type2Word1, Shift: 20, Bits: 4}
	Type2L3IsFrag      = Flag(Type2Word1, 24)
	Type2L3LastFrag    = Flag(Type2Word1, 25)
	Type2RecordCount   = Field{Word: Type2Word1, Shift: 27, Bits: 5}

	Type2Hash32   = Field{Word: Type2Union, Shift: 0, Bits: 32}
	Type2Color    = Field{Word: Type2Union, Shift: 0, Bits: 32}
	Type2Hash24   = Field{Word: Type2Union, Shift: 0, Bits: 24}
	Type2HashType = Field{Word: Type2Union, Shift: 24, Bits: 5}
)

// Tx flag bits as they appear in the 4-bit Type2TxFlags group.
const (
	TxNow uint8 = 1 << iota
	TxIgnore
	TxCRCOverride
	TxSetClock
)

// Type2Size returns the byte size of a Type2 descriptor with n records.
func Type2Size(n int) int { return Type2Records + n*Type2RecordSize }
