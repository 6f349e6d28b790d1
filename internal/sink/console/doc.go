package console

import (
	"fmt"

	"firestige.xyz/pktdesc/internal/core/descriptor"
	"firestige.xyz/pktdesc/internal/core/packid"
)

type packetDoc struct {
	Seq         uint64          `yaml:"seq"`
	Descriptors []descriptorDoc `yaml:"descriptors"`
}

type descriptorDoc struct {
	Type      string `yaml:"type"`
	Timestamp uint64 `yaml:"timestamp"`

	CaptureLength int    `yaml:"caplen,omitempty"`
	WireLength    int    `yaml:"wirelen,omitempty"`
	L2            string `yaml:"l2,omitempty"`
	L3            string `yaml:"l3,omitempty"`
	L4            string `yaml:"l4,omitempty"`
	RxPort        uint8  `yaml:"rx_port,omitempty"`
	Hash          string `yaml:"hash,omitempty"`
	Fragment      string `yaml:"fragment,omitempty"`
	VLANs         int    `yaml:"vlans,omitempty"`
	MPLS          int    `yaml:"mpls,omitempty"`

	Records []string `yaml:"records,omitempty"`
	Payload string   `yaml:"payload,omitempty"`

	IPF *fragmentDoc `yaml:"ipf,omitempty"`
}

type fragmentDoc struct {
	Version  int    `yaml:"version"`
	ID       uint32 `yaml:"id"`
	Offset   int    `yaml:"offset"`
	Length   int    `yaml:"length"`
	Last     bool   `yaml:"last"`
	L3Offset int    `yaml:"l3_offset"`
	L3Header int    `yaml:"l3_header"`
	Protocol uint8  `yaml:"protocol"`
}

// documents flattens a descriptor chain.
func documents(d descriptor.Descriptor) []descriptorDoc {
	var docs []descriptorDoc
	for ; d != nil; d = d.Next() {
		doc := descriptorDoc{Type: d.Type().String()}
		switch v := d.(type) {
		case *descriptor.Type1:
			doc.Timestamp = v.Timestamp()
			doc.CaptureLength, doc.WireLength = v.CaptureLength(), v.WireLength()
			doc.L2 = v.L2FrameType().String()
			doc.L3 = fmt.Sprintf("%s@%d,%d", v.L3FrameType(), v.L3Offset(), v.L3Size())
			doc.L4 = fmt.Sprintf("%s,%d", v.L4FrameType(), v.L4Size())
			doc.VLANs, doc.MPLS = v.VLANCount(), v.MPLSCount()
		case *descriptor.Type2:
			doc.Timestamp = v.Timestamp()
			doc.CaptureLength, doc.WireLength = v.CaptureLength(), v.WireLength()
			doc.L2 = v.L2FrameType().String()
			doc.RxPort = v.RxPort()
			if ht := v.HashType(); ht != 0 {
				doc.Hash = fmt.Sprintf("%06x/%s", v.Hash24(), ht)
			}
			if v.IsFragment() {
				doc.Fragment = "more"
				if v.IsLastFragment() {
					doc.Fragment = "last"
				}
			}
			doc.VLANs, doc.MPLS = v.VLANCount(), v.MPLSCount()
			for _, r := range v.Records() {
				doc.Records = append(doc.Records, r.String())
			}
			if p := v.LookupHeader(packid.Payload, 0); p.Found() {
				doc.Payload = fmt.Sprintf("%d,%d", p.Offset(), p.Length())
			}
		case *descriptor.Fragment:
			doc.Timestamp = v.Timestamp()
			doc.IPF = &fragmentDoc{
				Version:  v.IPVersion(),
				ID:       v.ID(),
				Offset:   v.FragmentOffset(),
				Length:   v.DataLength(),
				Last:     v.IsLast(),
				L3Offset: v.L3Offset(),
				L3Header: v.L3HeaderLength(),
				Protocol: v.L4Protocol(),
			}
		}
		docs = append(docs, doc)
	}
	return docs
}
