// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. The dissection hot path never returns errors; these are
// reported by configuration and by the surrounding pipeline.
var (
	// Configuration errors
	ErrUnsupportedDatalink   = errors.New("pktdesc: unsupported datalink type")
	ErrUnsupportedDescriptor = errors.New("pktdesc: unsupported descriptor type")
	ErrConfigInvalid         = errors.New("pktdesc: invalid configuration")

	// Extension errors
	ErrUnknownExtension    = errors.New("pktdesc: unknown dissector extension")
	ErrExtensionInitFailed = errors.New("pktdesc: dissector extension init failed")

	// Source errors
	ErrSourceNotStarted = errors.New("pktdesc: source not started")

	// Pipeline errors
	ErrPipelineStopped = errors.New("pktdesc: pipeline stopped")
)
