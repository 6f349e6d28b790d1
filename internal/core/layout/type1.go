package layout

// Type1 is a fixed 16-byte summary descriptor.
//
//	0..7    timestamp (u64)
//	8..11   caplen:16 | l2_type:2 | l3_offset:7 | l3_size:7
//	12..15  wirelen:16 | vlan_count:2 | mpls_count:3 | l3_type:3 | l4_type:4 | l4_size:4
//
// l3_size and l4_size count 32-bit words.
const (
	Type1Size      = 16
	Type1Timestamp = 0
	type1Word0     = 8
	type1Word1     = 12
)

var (
	Type1CaptureLength = Field{Word: type1Word0, Shift: 0, Bits: 16}
	Type1L2Type        = Field{Word: type1Word0, Shift: 16, Bits: 2}
	Type1L3Offset      = Field{Word: type1Word0, Shift: 18, Bits: 7}
	Type1L3Size        = Field{Word: type1Word0, Shift: 25, Bits: 7}

	Type1WireLength = Field{Word: type1Word1, Shift: 0, Bits: 16}
	Type1VLANCount  = Field{Word: type1Word1, Shift: 16, Bits: 2}
	Type1MPLSCount  = Field{Word: type1Word1, Shift: 18, Bits: 3}
	Type1L3Type     = Field{Word: type1Word1, Shift: 21, Bits: 3}
	Type1L4Type     = Field{Word: type1Word1, Shift: 24, Bits: 4}
	Type1L4Size     = Field{Word: type1Word1, Shift: 28, Bits: 4}
)

// Type1Word0 and Type1Word1 are the byte offsets of the two packed words.
const (
	Type1Word0 = type1Word0
	Type1Word1 = type1Word1
)
