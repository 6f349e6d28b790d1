package pipeline

import (
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/dissector"
)

// Builder provides a fluent interface for building pipelines.
// This is an alternative to using Config directly.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			Descriptor: core.DescriptorType2,
			BufferSize: 1024,
			SlotCount:  256,
		},
	}
}

// WithID sets the pipeline ID.
func (b *Builder) WithID(id int) *Builder {
	b.config.ID = id
	return b
}

// WithSource sets the packet source.
func (b *Builder) WithSource(s Source) *Builder {
	b.config.Source = s
	return b
}

// WithSink sets the descriptor sink.
func (b *Builder) WithSink(s Sink) *Builder {
	b.config.Sink = s
	return b
}

// WithDescriptor sets the descriptor type and the dissector options.
func (b *Builder) WithDescriptor(t core.DescriptorType, opts ...dissector.Option) *Builder {
	b.config.Descriptor = t
	b.config.Options = opts
	return b
}

// WithDatalink overrides the link type reported by the source.
func (b *Builder) WithDatalink(l layers.LinkType) *Builder {
	b.config.Datalink = l
	return b
}

// WithFragments chains IPF descriptors to fragments.
func (b *Builder) WithFragments(on bool) *Builder {
	b.config.Fragments = on
	return b
}

// WithLimit stops the pipeline after n packets.
func (b *Builder) WithLimit(n uint64) *Builder {
	b.config.Limit = n
	return b
}

// WithBufferSize sets the raw packet channel buffer size.
func (b *Builder) WithBufferSize(size int) *Builder {
	b.config.BufferSize = size
	return b
}

// WithSlotCount sets the number of descriptor slots.
func (b *Builder) WithSlotCount(n int) *Builder {
	b.config.SlotCount = n
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	return New(b.config)
}
