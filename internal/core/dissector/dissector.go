// Package dissector walks the protocol encapsulation stack of a captured
// frame and accumulates the bounds of every header it recognizes. The
// accumulated state is serialized into a descriptor by WriteDescriptor.
//
// A Dissector is not safe for concurrent use. Run one instance per worker.
package dissector

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/packid"
)

// Dissector is implemented once per descriptor type.
type Dissector interface {
	// DissectPacket walks buf and returns caplen unchanged. Malformed or
	// truncated input stops the walk early and is never reported as an
	// error. Per-packet state from a previous call is discarded first.
	DissectPacket(buf []byte, timestamp uint64, caplen, wirelen int) int

	// WriteDescriptor serializes the last dissection into out and returns
	// the number of bytes written. out must hold at least that many bytes.
	WriteDescriptor(out []byte) int

	// Reset clears per-packet state. Configuration survives.
	Reset() Dissector

	// SetDatalinkType selects the link framing of subsequent packets.
	SetDatalinkType(l layers.LinkType) error

	// IsNative reports whether dissection is delegated to a native backend.
	IsNative() bool

	// DescriptorType returns the layout written by WriteDescriptor.
	DescriptorType() core.DescriptorType

	// Summary returns the scalar results of the last dissection.
	Summary() Summary
}

// FragmentWriter is implemented by dissectors that can describe the IP
// fragment carried by the last packet.
type FragmentWriter interface {
	// WriteFragmentDescriptor writes an IPF descriptor and returns its size,
	// or returns 0 when the last packet was not a fragment.
	WriteFragmentDescriptor(out []byte) int
}

// Summary is the scalar part of the working state.
type Summary struct {
	L2Type         core.L2FrameType
	L3Type         core.L3FrameType
	L3Offset       int
	L3Size         int
	L4Type         core.L4FrameType
	L4Offset       int
	L4Size         int
	IsFragment     bool
	IsLastFragment bool
	VLANCount      int
	MPLSCount      int
	RecordCount    int
	Bitmask        packid.Bitmask
	Truncated      bool // a header did not fit in the captured bytes
	Overflow       bool // the record array filled up
}

// ProtocolError reports a configuration the dissector cannot honor.
type ProtocolError struct {
	Op       string
	Datalink layers.LinkType
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dissector %s: datalink %s: %v", e.Op, e.Datalink, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// New returns the dissector for kind configured with opts.
func New(kind core.DescriptorType, opts ...Option) (Dissector, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var d Dissector
	switch kind {
	case core.DescriptorType1:
		d = newType1(cfg)
	case core.DescriptorType2:
		d = newType2(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedDescriptor, kind)
	}
	if err := d.SetDatalinkType(cfg.datalink); err != nil {
		return nil, err
	}
	return d, nil
}

// Option configures a dissector created by New.
type Option func(*config)

// WithDatalink sets the initial datalink type. The default is Ethernet.
func WithDatalink(l layers.LinkType) Option {
	return func(c *config) { c.datalink = l }
}

// WithExtensions installs extensions, consulted in the given order.
func WithExtensions(exts ...Extension) Option {
	return func(c *config) {
		if len(exts) == 1 {
			c.ext = exts[0]
			return
		}
		c.ext = Composite(exts)
	}
}

// WithRxPort sets the receive port written into Type2 descriptors.
func WithRxPort(port uint8) Option {
	return func(c *config) { c.rxPort = port }
}

// WithHashing enables or disables the Type2 flow hash. Enabled by default.
func WithHashing(on bool) Option {
	return func(c *config) { c.hashing = on }
}

// WithByteOrder sets the byte order of descriptor words. The default is
// little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) { c.setByteOrder(order) }
}

// WithDisabledOptions turns off recording of the given option and
// extension header ids. Non-option ids are ignored.
func WithDisabledOptions(ids ...packid.HeaderID) Option {
	return func(c *config) {
		for _, id := range ids {
			c.disableOption(id)
		}
	}
}

// WithoutBitmaskRecording starts every dissection with all presence bits
// set, so every presence check passes.
func WithoutBitmaskRecording() Option {
	return func(c *config) { c.defaultBitmask = packid.DisabledBitmask }
}
