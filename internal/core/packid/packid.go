// Package packid encodes header identities, header records, presence
// bitmasks and compact lookup handles as fixed-width integers.
//
// A HeaderID is 10 bits wide: a 4-bit protocol pack in the high bits and a
// 6-bit ordinal within that pack in the low bits.
package packid

import "strconv"

// PackID identifies the protocol pack that owns a header definition.
type PackID uint8

const (
	PackCore    PackID = 0 // link, network and transport headers
	PackOptions PackID = 1 // IPv4 options, IPv6 extension headers, TCP options
	PackTunnel  PackID = 2 // overlay encapsulations added by extensions
)

func (p PackID) String() string {
	switch p {
	case PackCore:
		return "core"
	case PackOptions:
		return "options"
	case PackTunnel:
		return "tunnel"
	}
	return "pack(" + strconv.Itoa(int(p)) + ")"
}

const (
	ordinalBits = 6
	ordinalMask = 1<<ordinalBits - 1
	packBits    = 4
	packMask    = 1<<packBits - 1

	// IDBits is the width of a HeaderID in records and compact handles.
	IDBits = ordinalBits + packBits
	idMask = 1<<IDBits - 1
)

// HeaderID names one header definition: pack id plus ordinal.
type HeaderID uint16

// NewHeaderID builds a HeaderID. Out of range inputs are truncated.
func NewHeaderID(pack PackID, ordinal uint8) HeaderID {
	return HeaderID(pack&packMask)<<ordinalBits | HeaderID(ordinal&ordinalMask)
}

// Pack returns the pack id.
func (id HeaderID) Pack() PackID { return PackID(id>>ordinalBits) & packMask }

// Ordinal returns the index of the header within its pack.
func (id HeaderID) Ordinal() uint8 { return uint8(id & ordinalMask) }

// IsOption reports whether the id is an option or extension header, that is
// a record which always follows the record of its owning header.
func (id HeaderID) IsOption() bool { return id.Pack() == PackOptions }

// Owner returns the header that carries this option. Non-option ids own
// themselves; OptUnknown has no owner and returns itself.
func (id HeaderID) Owner() HeaderID {
	if !id.IsOption() {
		return id
	}
	switch ord := id.Ordinal(); {
	case ord < ipv6ExtBase:
		return IPv4
	case ord < tcpOptBase:
		return IPv6
	case ord < tcpOptBase+16:
		return TCP
	}
	return id
}

func (id HeaderID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return id.Pack().String() + "#" + strconv.Itoa(int(id.Ordinal()))
}

// Core pack headers.
const (
	Ether  HeaderID = HeaderID(PackCore)<<ordinalBits | iota
	LLC             // IEEE 802.2
	SNAP            // IEEE 802.2 SNAP
	VLAN            // IEEE 802.1Q tag
	MPLS            // one label stack entry
	IPX             // Novell IPX
	ARP             // ARP and RARP
	STP             // spanning tree BPDU
	IPv4            // IPv4 with options
	IPv6            // IPv6 with extension chain
	ICMPv4          // ICMP for IPv4
	ICMPv6          // ICMP for IPv6
	TCP             // TCP with options
	UDP             // UDP
	GRE             // generic routing encapsulation
	SCTP            // SCTP common header
	SLL             // Linux cooked capture header
)

// Payload is never stored. Lookups synthesize it from the last record.
const Payload HeaderID = HeaderID(PackCore)<<ordinalBits | 32

// Tunnel pack headers.
const (
	VXLAN  HeaderID = HeaderID(PackTunnel)<<ordinalBits | iota
	Geneve          // generic network virtualization encapsulation
)

const (
	ipv4OptBase = 0
	ipv6ExtBase = 16
	tcpOptBase  = 32
)

// IPv4 options.
const (
	IPv4OptRecordRoute HeaderID = HeaderID(PackOptions)<<ordinalBits | (ipv4OptBase + iota)
	IPv4OptTimestamp
	IPv4OptLSRR
	IPv4OptSSRR
	IPv4OptRouterAlert
	IPv4OptSecurity
	IPv4OptStreamID
	IPv4OptTraceroute
	IPv4OptMTUProbe
	IPv4OptMTUReply
)

// IPv6 extension headers.
const (
	IPv6ExtHopByHop HeaderID = HeaderID(PackOptions)<<ordinalBits | (ipv6ExtBase + iota)
	IPv6ExtRouting
	IPv6ExtFragment
	IPv6ExtESP
	IPv6ExtAH
	IPv6ExtDestOpts
	IPv6ExtMobility
	IPv6ExtHIP
	IPv6ExtShim6
)

// TCP options.
const (
	TCPOptMSS HeaderID = HeaderID(PackOptions)<<ordinalBits | (tcpOptBase + iota)
	TCPOptWindowScale
	TCPOptSACKPermitted
	TCPOptSACK
	TCPOptTimestamp
	TCPOptMD5
	TCPOptUserTimeout
	TCPOptFastOpen
	TCPOptMultipath
)

// OptUnknown is returned by the kind maps for option kinds without a record.
const OptUnknown HeaderID = HeaderID(PackOptions)<<ordinalBits | ordinalMask

var idNames = map[HeaderID]string{
	Ether:   "ether",
	LLC:     "llc",
	SNAP:    "snap",
	VLAN:    "vlan",
	MPLS:    "mpls",
	IPX:     "ipx",
	ARP:     "arp",
	STP:     "stp",
	IPv4:    "ipv4",
	IPv6:    "ipv6",
	ICMPv4:  "icmpv4",
	ICMPv6:  "icmpv6",
	TCP:     "tcp",
	UDP:     "udp",
	GRE:     "gre",
	SCTP:    "sctp",
	SLL:     "sll",
	Payload: "payload",
	VXLAN:   "vxlan",
	Geneve:  "geneve",

	IPv4OptRecordRoute: "ipv4.rr",
	IPv4OptTimestamp:   "ipv4.ts",
	IPv4OptLSRR:        "ipv4.lsrr",
	IPv4OptSSRR:        "ipv4.ssrr",
	IPv4OptRouterAlert: "ipv4.ra",
	IPv4OptSecurity:    "ipv4.sec",
	IPv4OptStreamID:    "ipv4.sid",
	IPv4OptTraceroute:  "ipv4.tr",
	IPv4OptMTUProbe:    "ipv4.mtup",
	IPv4OptMTUReply:    "ipv4.mtur",

	IPv6ExtHopByHop: "ipv6.hop",
	IPv6ExtRouting:  "ipv6.routing",
	IPv6ExtFragment: "ipv6.fragment",
	IPv6ExtESP:      "ipv6.esp",
	IPv6ExtAH:       "ipv6.ah",
	IPv6ExtDestOpts: "ipv6.dst",
	IPv6ExtMobility: "ipv6.mobility",
	IPv6ExtHIP:      "ipv6.hip",
	IPv6ExtShim6:    "ipv6.shim6",

	TCPOptMSS:           "tcp.mss",
	TCPOptWindowScale:   "tcp.wscale",
	TCPOptSACKPermitted: "tcp.sackok",
	TCPOptSACK:          "tcp.sack",
	TCPOptTimestamp:     "tcp.ts",
	TCPOptMD5:           "tcp.md5",
	TCPOptUserTimeout:   "tcp.uto",
	TCPOptFastOpen:      "tcp.tfo",
	TCPOptMultipath:     "tcp.mptcp",

	OptUnknown: "option.unknown",
}

var idByName map[string]HeaderID

func init() {
	idByName = make(map[string]HeaderID, len(idNames))
	for id, name := range idNames {
		idByName[name] = id
	}
}

// Lookup returns the HeaderID with the given name, as printed by String.
func Lookup(name string) (HeaderID, bool) {
	id, ok := idByName[name]
	return id, ok
}
