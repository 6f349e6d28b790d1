package pipeline

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/dissector"
	"firestige.xyz/pktdesc/internal/metrics"
)

// Metrics contains per-pipeline counters. The atomic counters back Stats;
// the Prometheus children are resolved once so the hot loop skips the
// label lookup.
type Metrics struct {
	PipelineID string

	// Packet counters (using atomic for thread-safety)
	Received   atomic.Uint64
	Dissected  atomic.Uint64
	Records    atomic.Uint64
	Truncated  atomic.Uint64
	Overflows  atomic.Uint64
	Fragments  atomic.Uint64
	Bytes      atomic.Uint64
	SinkErrors atomic.Uint64

	prom struct {
		packets    prometheus.Counter
		dissected  prometheus.Counter
		records    prometheus.Observer
		truncated  prometheus.Counter
		overflows  prometheus.Counter
		fragments  prometheus.Counter
		bytes      prometheus.Counter
		sinkErrors prometheus.Counter
	}
}

// NewMetrics creates a new metrics instance.
func NewMetrics(pipelineID string, t core.DescriptorType, sink string) *Metrics {
	m := &Metrics{PipelineID: pipelineID}
	m.prom.packets = metrics.PacketsTotal.WithLabelValues(pipelineID)
	m.prom.dissected = metrics.DissectedTotal.WithLabelValues(pipelineID, t.String())
	m.prom.records = metrics.RecordsPerPacket.WithLabelValues(pipelineID)
	m.prom.truncated = metrics.TruncatedTotal.WithLabelValues(pipelineID)
	m.prom.overflows = metrics.OverflowsTotal.WithLabelValues(pipelineID)
	m.prom.fragments = metrics.FragmentsTotal.WithLabelValues(pipelineID)
	m.prom.bytes = metrics.DescriptorBytesTotal.WithLabelValues(pipelineID, t.String())
	m.prom.sinkErrors = metrics.SinkErrorsTotal.WithLabelValues(pipelineID, sink)
	return m
}

// observe accounts one dissected packet.
func (m *Metrics) observe(s dissector.Summary, descriptorBytes int) {
	m.prom.packets.Inc()

	m.Dissected.Add(1)
	m.prom.dissected.Inc()

	m.Records.Add(uint64(s.RecordCount))
	m.prom.records.Observe(float64(s.RecordCount))

	if s.Truncated {
		m.Truncated.Add(1)
		m.prom.truncated.Inc()
	}
	if s.Overflow {
		m.Overflows.Add(1)
		m.prom.overflows.Inc()
	}
	if s.IsFragment {
		m.Fragments.Add(1)
		m.prom.fragments.Inc()
	}

	m.Bytes.Add(uint64(descriptorBytes))
	m.prom.bytes.Add(float64(descriptorBytes))
}
