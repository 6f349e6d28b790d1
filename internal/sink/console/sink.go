// Package console writes descriptor chains to a stream in a readable form.
package console

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/descriptor"
	"firestige.xyz/pktdesc/internal/core/packid"
)

const Name = "console"

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text" // descriptor line, then one line per record
	FormatYAML Format = "yaml" // one YAML document per packet
	FormatHex  Format = "hex"  // raw descriptor bytes
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatYAML, FormatHex:
		return f, nil
	}
	return "", fmt.Errorf("%w: output format %q", core.ErrConfigInvalid, s)
}

// Sink writes to an io.Writer. It is not safe for concurrent use.
type Sink struct {
	format Format
	w      *bufio.Writer
	enc    *yaml.Encoder
}

func NewSink(w io.Writer, format Format) *Sink {
	s := &Sink{format: format, w: bufio.NewWriter(w)}
	if format == FormatYAML {
		s.enc = yaml.NewEncoder(s.w)
		s.enc.SetIndent(2)
	}
	return s
}

func (s *Sink) Name() string { return Name }

// Write renders the chain headed by d. seq numbers the packet.
func (s *Sink) Write(seq uint64, d descriptor.Descriptor) error {
	switch s.format {
	case FormatYAML:
		return s.enc.Encode(packetDoc{Seq: seq, Descriptors: documents(d)})
	case FormatHex:
		return s.writeHex(seq, d)
	}
	return s.writeText(seq, d)
}

func (s *Sink) writeText(seq uint64, d descriptor.Descriptor) error {
	fmt.Fprintf(s.w, "#%d %s\n", seq, d)
	if t2, ok := d.(*descriptor.Type2); ok {
		for _, r := range t2.Records() {
			fmt.Fprintf(s.w, "    %s\n", r)
		}
		if p := t2.LookupHeader(packid.Payload, 0); p.Found() {
			fmt.Fprintf(s.w, "    %s\n", p)
		}
	}
	for next := d.Next(); next != nil; next = next.Next() {
		fmt.Fprintf(s.w, "  + %s\n", next)
	}
	return nil
}

func (s *Sink) writeHex(seq uint64, d descriptor.Descriptor) error {
	fmt.Fprintf(s.w, "#%d", seq)
	for ; d != nil; d = d.Next() {
		fmt.Fprintf(s.w, " %s:%s", d.Type(), hex.EncodeToString(d.Bytes()))
	}
	return s.w.WriteByte('\n')
}

// Flush writes buffered output through.
func (s *Sink) Flush() error {
	return s.w.Flush()
}

// Close flushes and finishes the YAML stream.
func (s *Sink) Close() error {
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			return err
		}
	}
	return s.Flush()
}
