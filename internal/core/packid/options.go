package packid

// The kind maps below are total: every wire value maps to a HeaderID, with
// OptUnknown standing for kinds that are walked over but not recorded.

var ipv4OptionKinds = [256]HeaderID{}
var tcpOptionKinds = [256]HeaderID{}
var ipv6ExtTypes = [256]HeaderID{}

func init() {
	for i := range ipv4OptionKinds {
		ipv4OptionKinds[i] = OptUnknown
		tcpOptionKinds[i] = OptUnknown
		ipv6ExtTypes[i] = OptUnknown
	}

	ipv4OptionKinds[7] = IPv4OptRecordRoute
	ipv4OptionKinds[68] = IPv4OptTimestamp
	ipv4OptionKinds[131] = IPv4OptLSRR
	ipv4OptionKinds[137] = IPv4OptSSRR
	ipv4OptionKinds[148] = IPv4OptRouterAlert
	ipv4OptionKinds[130] = IPv4OptSecurity
	ipv4OptionKinds[136] = IPv4OptStreamID
	ipv4OptionKinds[82] = IPv4OptTraceroute
	ipv4OptionKinds[11] = IPv4OptMTUProbe
	ipv4OptionKinds[12] = IPv4OptMTUReply

	tcpOptionKinds[2] = TCPOptMSS
	tcpOptionKinds[3] = TCPOptWindowScale
	tcpOptionKinds[4] = TCPOptSACKPermitted
	tcpOptionKinds[5] = TCPOptSACK
	tcpOptionKinds[8] = TCPOptTimestamp
	tcpOptionKinds[19] = TCPOptMD5
	tcpOptionKinds[28] = TCPOptUserTimeout
	tcpOptionKinds[34] = TCPOptFastOpen
	tcpOptionKinds[30] = TCPOptMultipath

	ipv6ExtTypes[0] = IPv6ExtHopByHop
	ipv6ExtTypes[43] = IPv6ExtRouting
	ipv6ExtTypes[44] = IPv6ExtFragment
	ipv6ExtTypes[50] = IPv6ExtESP
	ipv6ExtTypes[51] = IPv6ExtAH
	ipv6ExtTypes[60] = IPv6ExtDestOpts
	ipv6ExtTypes[135] = IPv6ExtMobility
	ipv6ExtTypes[139] = IPv6ExtHIP
	ipv6ExtTypes[140] = IPv6ExtShim6
}

// MapIPv4OptionKind maps an IPv4 option type octet to its HeaderID.
func MapIPv4OptionKind(kind uint8) HeaderID { return ipv4OptionKinds[kind] }

// MapTCPOptionKind maps a TCP option kind to its HeaderID.
func MapTCPOptionKind(kind uint8) HeaderID { return tcpOptionKinds[kind] }

// MapIPv6ExtType maps an IPv6 next-header value to an extension HeaderID.
// Upper layer protocols map to OptUnknown, which ends the extension chain.
func MapIPv6ExtType(nextHeader uint8) HeaderID { return ipv6ExtTypes[nextHeader] }

// OptionBit returns the position of an option id within its owner's
// disable mask. Ordinals are 16 per owner.
func OptionBit(id HeaderID) uint { return uint(id.Ordinal() % 16) }
