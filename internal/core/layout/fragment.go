package layout

// IPF is the 24-byte IP fragment tracking descriptor chained after a base
// packet descriptor.
//
//	0..3    is_frag:1 | is_last:1 | is_overlap:1 | is_duplicate:1 | is_complete:1 |
//	        is_timeout:1 | is_reassembled:1 | reserved:1 | ip_version:4 | l3_offset:12 | reserved:8
//	4..7    frag_offset:16 | frag_data_len:16
//	8..11   ip id
//	12..15  l3_header_len:16 | l4_protocol:8 | reserved:8
//	16..23  timestamp (u64)
const (
	IPFSize      = 24
	IPFWord0     = 0
	IPFWord1     = 4
	IPFID        = 8
	IPFWord3     = 12
	IPFTimestamp = 16
)

var (
	IPFIsFrag        = Flag(IPFWord0, 0)
	IPFIsLast        = Flag(IPFWord0, 1)
	IPFIsOverlap     = Flag(IPFWord0, 2)
	IPFIsDuplicate   = Flag(IPFWord0, 3)
	IPFIsComplete    = Flag(IPFWord0, 4)
	IPFIsTimeout     = Flag(IPFWord0, 5)
	IPFIsReassembled = Flag(IPFWord0, 6)
	IPFIPVersion     = Field{Word: IPFWord0, Shift: 8, Bits: 4}
	IPFL3Offset      = Field{Word: IPFWord0, Shift: 12, Bits: 12}

	IPFFragOffset  = Field{Word: IPFWord1, Shift: 0, Bits: 16}
	IPFFragDataLen = Field{Word: IPFWord1, Shift: 16, Bits: 16}

	IPFL3HeaderLen = Field{Word: IPFWord3, Shift: 0, Bits: 16}
	IPFL4Protocol  = Field{Word: IPFWord3, Shift: 16, Bits: 8}
)
