// Package pipeline implements the packet processing pipeline engine:
// source → dissector → descriptor slot → sink.
package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/gopacket/layers"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/descriptor"
	"firestige.xyz/pktdesc/internal/core/dissector"
	"firestige.xyz/pktdesc/internal/core/layout"
	"firestige.xyz/pktdesc/internal/log"
)

// Source produces raw packets.
type Source interface {
	Name() string
	// Capture sends packets to output until the source runs dry, which
	// returns nil, or ctx is cancelled.
	Capture(ctx context.Context, output chan<- core.RawPacket) error
	LinkType() layers.LinkType
}

// Sink consumes descriptor chains. A chain stays valid until SlotCount
// further packets have been processed.
type Sink interface {
	Name() string
	Write(seq uint64, d descriptor.Descriptor) error
	Flush() error
}

// Pipeline represents a single-threaded dissection chain. It owns one
// dissector instance.
type Pipeline struct {
	id        int
	source    Source
	sink      Sink
	dissector dissector.Dissector
	datalink  layers.LinkType
	fragments bool
	limit     uint64
	metrics   *Metrics
	logger    log.Logger

	// descriptor slot ring
	slots []slot
	next  int
	seq   uint64

	// Runtime state
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	err     error

	// Channel for backpressure control
	rawPacketChan chan core.RawPacket
}

// slot holds the descriptor bytes of one packet and the views bound to them.
type slot struct {
	buf  []byte
	ipf  [layout.IPFSize]byte
	head descriptor.Descriptor
	frag *descriptor.Fragment
}

// Config contains pipeline configuration.
type Config struct {
	ID         int
	Source     Source
	Sink       Sink
	Descriptor core.DescriptorType
	Options    []dissector.Option
	Datalink   layers.LinkType // 0 = the source's link type
	Fragments  bool            // chain an IPF descriptor to fragments
	Limit      uint64          // stop after this many packets, 0 = no limit
	BufferSize int             // raw packet channel buffer size
	SlotCount  int             // descriptor slots
}

// New creates a new pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil || cfg.Sink == nil {
		return nil, fmt.Errorf("%w: pipeline needs a source and a sink", core.ErrConfigInvalid)
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = 256
	}

	d, err := dissector.New(cfg.Descriptor, cfg.Options...)
	if err != nil {
		return nil, err
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if o, ok := d.(interface{ ByteOrder() binary.ByteOrder }); ok {
		order = o.ByteOrder()
	}

	slots := make([]slot, cfg.SlotCount)
	for i := range slots {
		head, err := descriptor.New(cfg.Descriptor, order)
		if err != nil {
			return nil, err
		}
		slots[i] = slot{
			buf:  make([]byte, head.ByteSizeMax()),
			head: head,
			frag: descriptor.NewFragment(order),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		id:            cfg.ID,
		source:        cfg.Source,
		sink:          cfg.Sink,
		dissector:     d,
		datalink:      cfg.Datalink,
		fragments:     cfg.Fragments,
		limit:         cfg.Limit,
		metrics:       NewMetrics(strconv.Itoa(cfg.ID), cfg.Descriptor, cfg.Sink.Name()),
		logger:        log.GetLogger().WithField("pipeline", cfg.ID),
		slots:         slots,
		ctx:           ctx,
		cancel:        cancel,
		rawPacketChan: make(chan core.RawPacket, cfg.BufferSize),
	}, nil
}

// Start selects the datalink and starts the pipeline processing.
func (p *Pipeline) Start() error {
	if p.ctx.Err() != nil {
		return core.ErrPipelineStopped
	}
	link := p.datalink
	if link == 0 {
		link = p.source.LinkType()
	}
	if err := p.dissector.SetDatalinkType(link); err != nil {
		return err
	}

	p.logger.WithField("source", p.source.Name()).WithField("sink", p.sink.Name()).
		WithField("datalink", link.String()).Info("pipeline starting")
	p.started = true

	// Start capture goroutine
	p.wg.Add(1)
	go p.captureLoop()

	// Start processing goroutine
	p.wg.Add(1)
	go p.processLoop()

	return nil
}

// Wait blocks until the source is drained or the limit reached, and
// returns the capture error, if any.
func (p *Pipeline) Wait() error {
	p.wg.Wait()
	return p.err
}

// Stop stops the pipeline gracefully.
func (p *Pipeline) Stop() error {
	if !p.started {
		return nil
	}
	p.logger.Info("pipeline stopping")

	// Cancel context to signal goroutines to stop
	p.cancel()

	// Wait for all goroutines to finish
	p.wg.Wait()

	s := p.Stats()
	p.logger.WithFields(map[string]interface{}{
		"received":  s.Received,
		"dissected": s.Dissected,
		"truncated": s.Truncated,
		"overflows": s.Overflows,
	}).Info("pipeline stopped")
	return nil
}

// Run starts the pipeline, waits for it to finish and stops it.
func (p *Pipeline) Run() error {
	if err := p.Start(); err != nil {
		return err
	}
	err := p.Wait()
	if stopErr := p.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// captureLoop reads packets from the source and sends them to the
// processing channel.
func (p *Pipeline) captureLoop() {
	defer p.wg.Done()

	if err := p.source.Capture(p.ctx, p.rawPacketChan); err != nil {
		if p.ctx.Err() == nil {
			// Context not cancelled, this is a real error
			p.logger.WithError(err).Error("capture failed")
			p.err = err
		}
	}

	// Close channel when capture ends
	close(p.rawPacketChan)
}

// processLoop is the main processing loop.
func (p *Pipeline) processLoop() {
	defer p.wg.Done()
	defer func() {
		if err := p.sink.Flush(); err != nil {
			p.logger.WithError(err).Error("sink flush failed")
		}
	}()

	for {
		select {
		case <-p.ctx.Done():
			return

		case raw, ok := <-p.rawPacketChan:
			if !ok {
				// Channel closed, source drained
				return
			}

			if err := p.processPacket(raw); err != nil {
				// Log error but continue processing
				p.logger.WithError(err).Debug("packet processing failed")
			}

			if p.limit > 0 && p.seq >= p.limit {
				p.cancel()
				return
			}
		}
	}
}

// processPacket dissects one packet into the next slot and hands the
// bound chain to the sink.
func (p *Pipeline) processPacket(raw core.RawPacket) error {
	p.metrics.Received.Add(1)

	caplen := int(raw.CaptureLen)
	if caplen == 0 || caplen > len(raw.Data) {
		caplen = len(raw.Data)
	}
	wirelen := int(raw.OrigLen)
	if wirelen == 0 {
		wirelen = caplen
	}
	p.dissector.DissectPacket(raw.Data, raw.TimestampNanos(), caplen, wirelen)

	s := &p.slots[p.next]
	p.next = (p.next + 1) % len(p.slots)

	// release the chain of the packet this slot held before
	s.head.Unbind()
	n := p.dissector.WriteDescriptor(s.buf)
	s.head.Bind(s.buf[:n])
	bytes := n

	if p.fragments {
		if fw, ok := p.dissector.(dissector.FragmentWriter); ok {
			if m := fw.WriteFragmentDescriptor(s.ipf[:]); m > 0 {
				s.head.AddDescriptor(s.frag.Bind(s.ipf[:m]))
				bytes += m
			}
		}
	}

	p.metrics.observe(p.dissector.Summary(), bytes)

	p.seq++
	if err := p.sink.Write(p.seq, s.head); err != nil {
		p.metrics.SinkErrors.Add(1)
		p.metrics.prom.sinkErrors.Inc()
		return fmt.Errorf("sink %s: %w", p.sink.Name(), err)
	}
	return nil
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:   p.metrics.Received.Load(),
		Dissected:  p.metrics.Dissected.Load(),
		Records:    p.metrics.Records.Load(),
		Truncated:  p.metrics.Truncated.Load(),
		Overflows:  p.metrics.Overflows.Load(),
		Fragments:  p.metrics.Fragments.Load(),
		Bytes:      p.metrics.Bytes.Load(),
		SinkErrors: p.metrics.SinkErrors.Load(),
	}
}

// Stats represents pipeline statistics.
type Stats struct {
	Received   uint64
	Dissected  uint64
	Records    uint64
	Truncated  uint64
	Overflows  uint64
	Fragments  uint64
	Bytes      uint64
	SinkErrors uint64
}
