// Package core defines core types with zero external dependencies.
package core

import "strconv"

// DescriptorType tags a descriptor layout. It is the discriminator used to
// select a dissection strategy and to walk descriptor chains.
type DescriptorType uint8

const (
	DescriptorTypeNone DescriptorType = iota
	DescriptorType1                   // fixed 16-byte summary
	DescriptorType2                   // summary plus record array
	DescriptorTypeIPF                 // IP fragment tracking, chained
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeNone:
		return "none"
	case DescriptorType1:
		return "type1"
	case DescriptorType2:
		return "type2"
	case DescriptorTypeIPF:
		return "ipf"
	}
	return "DescriptorType(" + strconv.Itoa(int(t)) + ")"
}

// ParseDescriptorType maps a configuration name to a DescriptorType.
func ParseDescriptorType(s string) (DescriptorType, bool) {
	switch s {
	case "type1", "TYPE1", "1":
		return DescriptorType1, true
	case "type2", "TYPE2", "2":
		return DescriptorType2, true
	}
	return DescriptorTypeNone, false
}

// L2FrameType identifies the framing found at the start of the packet.
// Type1 descriptors store 2 bits of it, Type2 descriptors 4 bits.
type L2FrameType uint8

const (
	L2FrameEther     L2FrameType = iota // Ethernet II
	L2FrameLLC                          // IEEE 802.3 + 802.2 LLC
	L2FrameSNAP                         // IEEE 802.3 + LLC + SNAP
	L2FrameNovellRaw                    // IEEE 802.3 raw IPX
	L2FrameSLL                          // Linux cooked capture
	L2FrameRawIP                        // no link header
)

var l2FrameNames = [...]string{"ETHER", "LLC", "SNAP", "NOVELL_RAW", "SLL", "RAW_IP"}

func (t L2FrameType) String() string {
	if int(t) < len(l2FrameNames) {
		return l2FrameNames[t]
	}
	return "L2FrameType(" + strconv.Itoa(int(t)) + ")"
}

// L3FrameType is the outermost network layer found. Type1 stores 3 bits.
type L3FrameType uint8

const (
	L3FrameNone L3FrameType = iota
	L3FrameIPv4
	L3FrameIPv6
	L3FrameIPX
	L3FrameARP
)

var l3FrameNames = [...]string{"NONE", "IPv4", "IPv6", "IPX", "ARP"}

func (t L3FrameType) String() string {
	if int(t) < len(l3FrameNames) {
		return l3FrameNames[t]
	}
	return "L3FrameType(" + strconv.Itoa(int(t)) + ")"
}

// L4FrameType is the outermost transport layer found. Type1 stores 4 bits.
type L4FrameType uint8

const (
	L4FrameNone L4FrameType = iota
	L4FrameTCP
	L4FrameUDP
	L4FrameICMPv4
	L4FrameICMPv6
	L4FrameGRE
	L4FrameSCTP
)

var l4FrameNames = [...]string{"NONE", "TCP", "UDP", "ICMPv4", "ICMPv6", "GRE", "SCTP"}

func (t L4FrameType) String() string {
	if int(t) < len(l4FrameNames) {
		return l4FrameNames[t]
	}
	return "L4FrameType(" + strconv.Itoa(int(t)) + ")"
}

// HashType tells what the 24-bit hash of a Type2 descriptor was computed over.
type HashType uint8

const (
	HashTypeNone HashType = iota
	HashTypeL3            // addresses only
	HashTypeL4            // addresses, protocol and ports
)

func (t HashType) String() string {
	switch t {
	case HashTypeNone:
		return "none"
	case HashTypeL3:
		return "l3"
	case HashTypeL4:
		return "l4"
	}
	return "HashType(" + strconv.Itoa(int(t)) + ")"
}
