package cmd

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCapture writes n Ethernet / IPv4 / UDP frames to a pcap file.
func writeCapture(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))

	frame := make([]byte, 14+20+8+4)
	binary.BigEndian.PutUint16(frame[12:], 0x0800)
	ip := frame[14:]
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:], 32)
	ip[8], ip[9] = 64, 17
	binary.BigEndian.PutUint16(frame[34+4:], 12)

	for i := 0; i < n; i++ {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(100, int64(i)*1000),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		require.NoError(t, w.WritePacket(ci, frame))
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDissect(t *testing.T) {
	path := writeCapture(t, 3)

	out, err := run(t, "dissect", "-r", path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, " type2 "))
	assert.Contains(t, out, "#3 type2 ts=100000002000 caplen=46 wirelen=46 l2=ETHER")
	assert.Contains(t, out, "    udp@34,8\n")
	assert.Contains(t, out, "    payload@42,4#3\n")
}

func TestDissect_Flags(t *testing.T) {
	path := writeCapture(t, 5)

	out, err := run(t, "dissect", "-r", path, "--descriptor", "type1", "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, " type1 "))

	out, err = run(t, "dissect", "-r", path, "-o", "hex", "-n", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#1 type2:"), out)
}

func TestDissect_Errors(t *testing.T) {
	_, err := run(t, "dissect")
	assert.Error(t, err)

	_, err = run(t, "dissect", "-r", filepath.Join(t.TempDir(), "missing.pcap"))
	assert.Error(t, err)

	_, err = run(t, "dissect", "-r", writeCapture(t, 1), "--descriptor", "ipf")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte(`
pktdesc:
  dissector:
    descriptor: type2
    extensions:
      - name: vxlan
      - name: gre
  output:
    format: yaml
`), 0o644))

	out, err := run(t, "validate", "-c", good)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID: type2 descriptors, 2 extension(s), yaml output")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte(`
pktdesc:
  dissector:
    extensions:
      - name: nvgre
`), 0o644))

	out, err = run(t, "validate", "-c", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "INVALID:")

	_, err = run(t, "validate")
	assert.Error(t, err)
}

func TestExtensions(t *testing.T) {
	out, err := run(t, "extensions")
	require.NoError(t, err)
	for _, name := range []string{"geneve", "gre", "vxlan"} {
		assert.Contains(t, out, name)
	}
}
