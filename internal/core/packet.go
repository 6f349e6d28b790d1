// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is captured from a source, zero-copy reference to the source buffer.
type RawPacket struct {
	Data           []byte    // Raw frame data, zero-copy slice
	Timestamp      time.Time // Capture timestamp
	CaptureLen     uint32    // Actual captured length
	OrigLen        uint32    // Original frame length on the wire
	InterfaceIndex int       // Capture interface index, 0 for files
}

// TimestampNanos returns the capture timestamp as unix nanoseconds, the unit
// descriptors store.
func (p RawPacket) TimestampNanos() uint64 {
	if p.Timestamp.IsZero() {
		return 0
	}
	return uint64(p.Timestamp.UnixNano())
}
