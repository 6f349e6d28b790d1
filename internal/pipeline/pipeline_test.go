package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/descriptor"
	"firestige.xyz/pktdesc/internal/core/dissector"
)

// Mock implementations for testing

// MockSource replays a fixed set of packets.
type MockSource struct {
	link    layers.LinkType
	packets []core.RawPacket
}

func NewMockSource(link layers.LinkType, packets ...core.RawPacket) *MockSource {
	return &MockSource{link: link, packets: packets}
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) LinkType() layers.LinkType { return m.link }

func (m *MockSource) Capture(ctx context.Context, output chan<- core.RawPacket) error {
	for _, p := range m.packets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case output <- p:
		}
	}
	return nil
}

// MockSink records what it was handed. Descriptors are rendered at write
// time since the views are recycled.
type MockSink struct {
	mu      sync.Mutex
	failOn  uint64
	lines   []string
	views   []descriptor.Descriptor
	flushed int
}

func (m *MockSink) Name() string { return "mock" }

func (m *MockSink) Write(seq uint64, d descriptor.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq == m.failOn {
		return errors.New("sink full")
	}
	var parts []string
	for v := d; v != nil; v = v.Next() {
		parts = append(parts, v.(interface{ String() string }).String())
	}
	m.lines = append(m.lines, strings.Join(parts, " | "))
	m.views = append(m.views, d)
	return nil
}

func (m *MockSink) Flush() error {
	m.mu.Lock()
	m.flushed++
	m.mu.Unlock()
	return nil
}

// tcpFrame is Ethernet / IPv4 / TCP with 20 bytes of payload, 74 bytes.
func tcpFrame(moreFragments bool) []byte {
	b := make([]byte, 74)
	binary.BigEndian.PutUint16(b[12:], 0x0800)
	ip := b[14:]
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:], 60)
	ip[4], ip[5] = 0x12, 0x34
	if moreFragments {
		ip[6] = 0x20
	}
	ip[8], ip[9] = 64, 6
	b[34+12] = 5 << 4
	return b
}

func packet(ts int64, data []byte) core.RawPacket {
	return core.RawPacket{
		Data:       data,
		Timestamp:  time.Unix(0, ts),
		CaptureLen: uint32(len(data)),
		OrigLen:    uint32(len(data)),
	}
}

func packets(n int) []core.RawPacket {
	out := make([]core.RawPacket, n)
	for i := range out {
		out[i] = packet(int64(i+1), tcpFrame(false))
	}
	return out
}

func newPipeline(t *testing.T, b *Builder) *Pipeline {
	t.Helper()
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

func TestPipeline_Run(t *testing.T) {
	sink := &MockSink{}
	p := newPipeline(t, NewBuilder().
		WithID(1).
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(3)...)).
		WithSink(sink).
		WithDescriptor(core.DescriptorType2, dissector.WithHashing(false)))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.lines) != 3 {
		t.Fatalf("sink got %d descriptors, want 3", len(sink.lines))
	}
	want := "type2 ts=2 caplen=74 wirelen=74 l2=ETHER [ether@0,14 ipv4@14,20 tcp@34,20]"
	if sink.lines[1] != want {
		t.Errorf("line = %q, want %q", sink.lines[1], want)
	}
	if sink.flushed != 1 {
		t.Errorf("flushed %d times, want 1", sink.flushed)
	}

	stats := p.Stats()
	if stats.Received != 3 || stats.Dissected != 3 {
		t.Errorf("stats = %+v, want 3 received and dissected", stats)
	}
	if stats.Records != 9 {
		t.Errorf("Records = %d, want 9", stats.Records)
	}
	if stats.Bytes != 3*(24+3*4) {
		t.Errorf("Bytes = %d, want %d", stats.Bytes, 3*(24+3*4))
	}
}

func TestPipeline_Type1(t *testing.T) {
	sink := &MockSink{}
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(2)...)).
		WithSink(sink).
		WithDescriptor(core.DescriptorType1))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.lines) != 2 {
		t.Fatalf("sink got %d descriptors, want 2", len(sink.lines))
	}
	if !strings.HasPrefix(sink.lines[0], "type1 ") {
		t.Errorf("line = %q, want a type1 descriptor", sink.lines[0])
	}
	if got := p.Stats().Bytes; got != 2*16 {
		t.Errorf("Bytes = %d, want 32", got)
	}
}

func TestPipeline_Limit(t *testing.T) {
	sink := &MockSink{}
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(10)...)).
		WithSink(sink).
		WithLimit(4))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.lines) != 4 {
		t.Errorf("sink got %d descriptors, want 4", len(sink.lines))
	}
}

func TestPipeline_Truncated(t *testing.T) {
	sink := &MockSink{}
	short := packet(1, tcpFrame(false))
	short.CaptureLen = 40

	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, short)).
		WithSink(sink).
		WithDescriptor(core.DescriptorType2, dissector.WithHashing(false)))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := p.Stats().Truncated; got != 1 {
		t.Errorf("Truncated = %d, want 1", got)
	}
	if !strings.Contains(sink.lines[0], "caplen=40 wirelen=74") {
		t.Errorf("line = %q, want the clipped capture length", sink.lines[0])
	}
}

func TestPipeline_Fragments(t *testing.T) {
	sink := &MockSink{}
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet,
			packet(1, tcpFrame(true)),
			packet(2, tcpFrame(false)))).
		WithSink(sink).
		WithDescriptor(core.DescriptorType2, dissector.WithHashing(false)).
		WithFragments(true))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.lines) != 2 {
		t.Fatalf("sink got %d descriptors, want 2", len(sink.lines))
	}
	if !strings.HasSuffix(sink.lines[0], " | ipf v4 id=0x1234 off=0 len=40 last=false proto=6") {
		t.Errorf("fragment line = %q", sink.lines[0])
	}
	if strings.Contains(sink.lines[1], "ipf") {
		t.Errorf("unfragmented line = %q, want no chained descriptor", sink.lines[1])
	}
	if got := p.Stats().Fragments; got != 1 {
		t.Errorf("Fragments = %d, want 1", got)
	}
	if got := p.Stats().Bytes; got != 2*(24+3*4)+24 {
		t.Errorf("Bytes = %d, want %d", got, 2*(24+3*4)+24)
	}
}

func TestPipeline_SlotReuse(t *testing.T) {
	sink := &MockSink{}
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(5)...)).
		WithSink(sink).
		WithSlotCount(2))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.views) != 5 {
		t.Fatalf("sink got %d descriptors, want 5", len(sink.views))
	}

	// slots rotate, seq 3 and seq 5 share a view
	if sink.views[2] != sink.views[4] {
		t.Error("expected the third and fifth packet to share a slot")
	}
	for i, want := range map[int]uint64{3: 4, 4: 5} {
		v := sink.views[i].(*descriptor.Type2)
		if !v.IsBound() {
			t.Fatalf("view %d unbound", i)
		}
		if v.Timestamp() != want {
			t.Errorf("view %d timestamp = %d, want %d", i, v.Timestamp(), want)
		}
	}
}

func TestPipeline_SinkError(t *testing.T) {
	sink := &MockSink{failOn: 2}
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(3)...)).
		WithSink(sink))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	stats := p.Stats()
	if stats.SinkErrors != 1 {
		t.Errorf("SinkErrors = %d, want 1", stats.SinkErrors)
	}
	if stats.Dissected != 3 || len(sink.lines) != 2 {
		t.Errorf("dissected %d, sink kept %d, want 3 and 2", stats.Dissected, len(sink.lines))
	}
}

func TestPipeline_UnsupportedDatalink(t *testing.T) {
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeLinuxSLL, packets(1)...)).
		WithSink(&MockSink{}).
		WithDescriptor(core.DescriptorType1))

	err := p.Start()
	if !errors.Is(err, core.ErrUnsupportedDatalink) {
		t.Fatalf("Start() error = %v, want ErrUnsupportedDatalink", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestPipeline_DatalinkOverride(t *testing.T) {
	sink := &MockSink{}
	// the source claims SLL, the frames are Ethernet
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeLinuxSLL, packets(1)...)).
		WithSink(sink).
		WithDescriptor(core.DescriptorType1).
		WithDatalink(layers.LinkTypeEthernet))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.lines) != 1 {
		t.Errorf("sink got %d descriptors, want 1", len(sink.lines))
	}
}

func TestPipeline_StartAfterStop(t *testing.T) {
	p := newPipeline(t, NewBuilder().
		WithSource(NewMockSource(layers.LinkTypeEthernet, packets(1)...)).
		WithSink(&MockSink{}))

	if err := p.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := p.Start(); !errors.Is(err, core.ErrPipelineStopped) {
		t.Errorf("Start() error = %v, want ErrPipelineStopped", err)
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(Config{Sink: &MockSink{}}); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("New() without source error = %v, want ErrConfigInvalid", err)
	}

	_, err := New(Config{
		Source:     NewMockSource(layers.LinkTypeEthernet),
		Sink:       &MockSink{},
		Descriptor: core.DescriptorTypeIPF,
	})
	if !errors.Is(err, core.ErrUnsupportedDescriptor) {
		t.Errorf("New() with ipf error = %v, want ErrUnsupportedDescriptor", err)
	}
}
