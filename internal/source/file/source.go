// Package file reads packets from pcap and pcapng capture files.
package file

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/log"
)

const Name = "file"

// pcapng section header block type
const ngMagic = 0x0A0D0D0A

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Source reads a capture file once, front to back.
type Source struct {
	path   string
	file   *os.File
	reader packetReader
	ng     bool

	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewSource creates a source for path. The file is opened by Open.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	return &Source{path: path}, nil
}

func (s *Source) Name() string { return Name }

// Open opens the file and reads its header. The format is detected from
// the leading magic number.
func (s *Source) Open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", s.path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read capture file %s: %w", s.path, err)
	}

	var r packetReader
	if binary.BigEndian.Uint32(magic) == ngMagic {
		r, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		s.ng = true
	} else {
		r, err = pcapgo.NewReader(br)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to parse capture file %s: %w", s.path, err)
	}

	s.file, s.reader = f, r
	log.GetLogger().WithField("file", s.path).WithField("pcapng", s.ng).
		WithField("linktype", r.LinkType().String()).Debug("capture file opened")
	return nil
}

// ReadPacket returns the next packet, or io.EOF at the end of the file.
func (s *Source) ReadPacket() (core.RawPacket, error) {
	if s.reader == nil {
		return core.RawPacket{}, core.ErrSourceNotStarted
	}

	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return core.RawPacket{}, io.EOF
		}
		return core.RawPacket{}, fmt.Errorf("failed to read packet: %w", err)
	}

	s.packets.Add(1)
	s.bytes.Add(uint64(len(data)))
	return core.RawPacket{
		Data:           data,
		Timestamp:      ci.Timestamp,
		CaptureLen:     uint32(ci.CaptureLength),
		OrigLen:        uint32(ci.Length),
		InterfaceIndex: ci.InterfaceIndex,
	}, nil
}

// Capture sends every packet of the file to output. It returns nil at the
// end of the file and ctx.Err() when cancelled.
func (s *Source) Capture(ctx context.Context, output chan<- core.RawPacket) error {
	for {
		pkt, err := s.ReadPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case output <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LinkType returns the datalink type from the file header, Ethernet
// before Open.
func (s *Source) LinkType() layers.LinkType {
	if s.reader == nil {
		return layers.LinkTypeEthernet
	}
	return s.reader.LinkType()
}

// Stats returns the packets and bytes read so far.
func (s *Source) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}

func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file, s.reader = nil, nil
	return err
}
