package dissector

import "encoding/binary"

// Network byte order readers. Callers check bounds first.
var (
	get16 = binary.BigEndian.Uint16
	get32 = binary.BigEndian.Uint32
)

// HasRemaining reports whether offset lies within a capture of caplen bytes.
// An offset equal to caplen is valid and addresses an empty remainder.
func HasRemaining(caplen, offset int) bool {
	return offset >= 0 && offset <= caplen
}

// HasRemainingLen reports whether length bytes starting at offset lie
// within a capture of caplen bytes. offset+length is never formed, so
// lengths read from the wire cannot wrap.
func HasRemainingLen(caplen, offset, length int) bool {
	return offset >= 0 && length >= 0 && offset <= caplen && length <= caplen-offset
}
