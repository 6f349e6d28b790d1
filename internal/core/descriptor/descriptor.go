// Package descriptor provides typed read views over descriptor bytes
// written by the dissector. A view is bound to a buffer, read, and unbound
// when the buffer is released. Views of auxiliary types are chained behind
// the base packet descriptor.
package descriptor

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/pktdesc/internal/core"
)

// Descriptor is a bound view plus its position in a chain.
type Descriptor interface {
	Type() core.DescriptorType

	// Bind attaches the view to buf and returns it. It panics when buf is
	// smaller than the layout requires.
	Bind(buf []byte) Descriptor
	// Unbind detaches this view and every view chained after it, and
	// tears the chain down.
	Unbind()
	IsBound() bool
	// Bytes returns the bound bytes, ByteSize long.
	Bytes() []byte

	// ByteSize is the number of bytes the bound descriptor occupies.
	ByteSize() int
	ByteSizeMin() int
	ByteSizeMax() int

	Next() Descriptor
	// AddDescriptor appends d at the tail of the chain.
	AddDescriptor(d Descriptor)
	// FindDescriptor searches the whole chain, this view included.
	FindDescriptor(t core.DescriptorType) (Descriptor, bool)
	// PeekDescriptor looks at the immediate successor only.
	PeekDescriptor(t core.DescriptorType) (Descriptor, bool)
}

// New returns an unbound view of type t reading words in order.
func New(t core.DescriptorType, order binary.ByteOrder) (Descriptor, error) {
	switch t {
	case core.DescriptorType1:
		return NewType1(order), nil
	case core.DescriptorType2:
		return NewType2(order), nil
	case core.DescriptorTypeIPF:
		return NewFragment(order), nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedDescriptor, t)
}

// link is embedded by every view.
type link struct {
	buf   []byte
	order binary.ByteOrder
	next  Descriptor
}

func newLink(order binary.ByteOrder) link {
	if order == nil {
		order = binary.LittleEndian
	}
	return link{order: order}
}

func (l *link) IsBound() bool    { return l.buf != nil }
func (l *link) Bytes() []byte    { return l.buf }
func (l *link) Next() Descriptor { return l.next }

func (l *link) AddDescriptor(d Descriptor) {
	if d == nil {
		return
	}
	if l.next == nil {
		l.next = d
		return
	}
	l.next.AddDescriptor(d)
}

func (l *link) PeekDescriptor(t core.DescriptorType) (Descriptor, bool) {
	if l.next != nil && l.next.Type() == t {
		return l.next, true
	}
	return nil, false
}

func (l *link) unbind() {
	l.buf = nil
	if l.next != nil {
		l.next.Unbind()
		l.next = nil
	}
}

func (l *link) word(off int) uint32 { return l.order.Uint32(l.buf[off:]) }

func (l *link) setWord(off int, v uint32) { l.order.PutUint32(l.buf[off:], v) }

func (l *link) bind(buf []byte, size int) {
	if len(buf) < size {
		panic(fmt.Sprintf("descriptor: bind %d bytes, need %d", len(buf), size))
	}
	l.buf = buf[:size]
}

func find(d Descriptor, t core.DescriptorType) (Descriptor, bool) {
	for ; d != nil; d = d.Next() {
		if d.Type() == t {
			return d, true
		}
	}
	return nil, false
}
