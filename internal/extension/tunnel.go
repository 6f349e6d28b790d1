package extension

import (
	"encoding/binary"
	"slices"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core/dissector"
	"firestige.xyz/pktdesc/internal/core/packid"
)

const (
	// Well-known UDP ports
	vxlanPort  = 4789
	genevePort = 6081

	// Header lengths
	vxlanHeaderLen  = 8
	geneveHeaderLen = 8

	vxlanFlagVNI = 0x08

	// transparent Ethernet bridging
	etherTypeTEB = 0x6558
)

// portConfig lists the UDP destination ports a tunnel listens on.
type portConfig struct {
	Ports []uint16 `mapstructure:"ports"`
}

func (c portConfig) match(proto uint8, dst uint16) bool {
	return proto == uint8(layers.IPProtocolUDP) && slices.Contains(c.Ports, dst)
}

// VXLAN claims UDP payloads on the VXLAN ports and continues into the inner
// Ethernet frame.
type VXLAN struct {
	dissector.NoopExtension
	portConfig
}

// NewVXLAN returns a VXLAN extension for the given ports, 4789 when none.
func NewVXLAN(ports ...uint16) *VXLAN {
	if len(ports) == 0 {
		ports = []uint16{vxlanPort}
	}
	return &VXLAN{portConfig: portConfig{Ports: ports}}
}

func newVXLAN(cfg map[string]interface{}) (dissector.Extension, error) {
	v := NewVXLAN()
	if err := decode(cfg, &v.portConfig); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *VXLAN) DissectPorts(w dissector.Walker, offset int, proto uint8, _, dst uint16) bool {
	if !v.match(proto, dst) || !w.HasRemainingLen(offset, vxlanHeaderLen) {
		return false
	}
	// I flag must be set for the VNI to be valid
	if w.Buffer()[offset]&vxlanFlagVNI == 0 {
		return false
	}
	if !w.AddRecord(packid.VXLAN, offset, vxlanHeaderLen) {
		return true
	}
	w.DissectEthernet(offset + vxlanHeaderLen)
	return true
}

// Geneve claims UDP payloads on the Geneve ports. The inner frame is
// Ethernet for protocol type 0x6558 and an ethertype payload otherwise.
type Geneve struct {
	dissector.NoopExtension
	portConfig
}

// NewGeneve returns a Geneve extension for the given ports, 6081 when none.
func NewGeneve(ports ...uint16) *Geneve {
	if len(ports) == 0 {
		ports = []uint16{genevePort}
	}
	return &Geneve{portConfig: portConfig{Ports: ports}}
}

func newGeneve(cfg map[string]interface{}) (dissector.Extension, error) {
	g := NewGeneve()
	if err := decode(cfg, &g.portConfig); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Geneve) DissectPorts(w dissector.Walker, offset int, proto uint8, _, dst uint16) bool {
	if !g.match(proto, dst) || !w.HasRemainingLen(offset, geneveHeaderLen) {
		return false
	}
	buf := w.Buffer()
	// 0: version (2 bits) + opt len (6 bits), 2-3: protocol type
	if buf[offset]>>6 != 0 {
		return false
	}
	n := geneveHeaderLen + int(buf[offset]&0x3F)*4
	if !w.AddRecord(packid.Geneve, offset, n) {
		return true
	}
	dissectInner(w, offset+n, binary.BigEndian.Uint16(buf[offset+2:]))
	return true
}

// GRE continues into IPv4, IPv6 and bridged Ethernet payloads of GRE.
type GRE struct {
	dissector.NoopExtension
}

func newGRE(cfg map[string]interface{}) (dissector.Extension, error) {
	var unused struct{}
	if err := decode(cfg, &unused); err != nil {
		return nil, err
	}
	return GRE{}, nil
}

func (GRE) DissectEncaps(w dissector.Walker, offset int, proto uint16) bool {
	switch layers.EthernetType(proto) {
	case layers.EthernetTypeIPv4, layers.EthernetTypeIPv6, etherTypeTEB:
		dissectInner(w, offset, proto)
		return true
	}
	return false
}

func dissectInner(w dissector.Walker, offset int, proto uint16) {
	switch layers.EthernetType(proto) {
	case etherTypeTEB:
		w.DissectEthernet(offset)
	case layers.EthernetTypeIPv4, layers.EthernetTypeIPv6:
		w.DissectIP(offset)
	default:
		w.DissectEthType(offset, proto)
	}
}
