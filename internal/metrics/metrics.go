// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsTotal counts packets read from sources
	PacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_packets_total",
			Help: "Total number of packets read by the pipeline",
		},
		[]string{"pipeline"},
	)

	// DissectedTotal counts packets dissected, by descriptor type
	DissectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_dissected_total",
			Help: "Total number of packets dissected",
		},
		[]string{"pipeline", "descriptor"},
	)

	// RecordsPerPacket tracks the record array fill of Type2 descriptors
	RecordsPerPacket = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pktdesc_records_per_packet",
			Help:    "Number of header records per dissected packet",
			Buckets: prometheus.LinearBuckets(1, 2, 16), // 1, 3, ..., 31
		},
		[]string{"pipeline"},
	)

	// OverflowsTotal counts packets whose record array filled up
	OverflowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_record_overflows_total",
			Help: "Total number of packets with more headers than record slots",
		},
		[]string{"pipeline"},
	)

	// TruncatedTotal counts packets whose headers ran past the capture length
	TruncatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_truncated_total",
			Help: "Total number of packets with headers cut by the capture length",
		},
		[]string{"pipeline"},
	)

	// FragmentsTotal counts IP fragments, for which an IPF descriptor may be chained
	FragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_fragments_total",
			Help: "Total number of IP fragments seen",
		},
		[]string{"pipeline"},
	)

	// DescriptorBytesTotal counts descriptor bytes written
	DescriptorBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_descriptor_bytes_total",
			Help: "Total number of descriptor bytes written",
		},
		[]string{"pipeline", "descriptor"},
	)

	// SinkErrorsTotal counts sink write failures
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktdesc_sink_errors_total",
			Help: "Total number of sink write errors",
		},
		[]string{"pipeline", "sink"},
	)
)
