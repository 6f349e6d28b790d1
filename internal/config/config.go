// Package config handles configuration loading using viper.
package config

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/dissector"
	"firestige.xyz/pktdesc/internal/core/packid"
	"firestige.xyz/pktdesc/internal/extension"
	"firestige.xyz/pktdesc/internal/log"
)

// Config is the top-level configuration, found under the `pktdesc:` root
// key in YAML.
type Config struct {
	Dissector DissectorConfig  `mapstructure:"dissector"`
	Pipeline  PipelineConfig   `mapstructure:"pipeline"`
	Output    OutputConfig     `mapstructure:"output"`
	Log       log.LoggerConfig `mapstructure:"log"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
}

// ─── Dissector ───

// DissectorConfig selects and tunes the dissector.
type DissectorConfig struct {
	Descriptor       string                `mapstructure:"descriptor"` // type1 | type2
	Datalink         string                `mapstructure:"datalink"`   // empty = taken from the source
	RxPort           int                   `mapstructure:"rx_port"`
	Hashing          bool                  `mapstructure:"hashing"`
	BitmaskRecording bool                  `mapstructure:"bitmask_recording"`
	ByteOrder        string                `mapstructure:"byte_order"` // little | big
	Disabled         DisabledOptionsConfig `mapstructure:"disabled"`
	Extensions       []extension.Spec      `mapstructure:"extensions"`
}

// DisabledOptionsConfig names options that are not recorded, by their
// header name (e.g. "tcp.ts", "ipv6.hop", "ipv4.rr").
type DisabledOptionsConfig struct {
	IPv4Options    []string `mapstructure:"ipv4_options"`
	IPv6Extensions []string `mapstructure:"ipv6_extensions"`
	TCPOptions     []string `mapstructure:"tcp_options"`
}

// ─── Pipeline ───

// PipelineConfig sizes the pipeline buffers.
type PipelineConfig struct {
	BufferSize int `mapstructure:"buffer_size"` // packets queued between source and dissector
	SlotCount  int `mapstructure:"slot_count"`  // descriptor slots in the ring
}

// ─── Output ───

// OutputConfig controls how descriptors are written.
type OutputConfig struct {
	Format    string `mapstructure:"format"`    // text | yaml | hex
	Fragments bool   `mapstructure:"fragments"` // chain an IPF descriptor to fragments
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `pktdesc: ...`.
type configRoot struct {
	Pktdesc Config `mapstructure:"pktdesc"`
}

// Load loads configuration from file. An empty path yields the defaults,
// still subject to environment overrides.
// Env vars use the PKTDESC_ prefix (e.g., PKTDESC_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `pktdesc.` key prefix maps to `PKTDESC_` in env vars via the key
	// replacer (e.g., key "pktdesc.log.level" → env "PKTDESC_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pktdesc

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use "pktdesc." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Dissector defaults
	v.SetDefault("pktdesc.dissector.descriptor", "type2")
	v.SetDefault("pktdesc.dissector.datalink", "")
	v.SetDefault("pktdesc.dissector.rx_port", 0)
	v.SetDefault("pktdesc.dissector.hashing", true)
	v.SetDefault("pktdesc.dissector.bitmask_recording", true)
	v.SetDefault("pktdesc.dissector.byte_order", "little")

	// Pipeline defaults
	v.SetDefault("pktdesc.pipeline.buffer_size", 1024)
	v.SetDefault("pktdesc.pipeline.slot_count", 256)

	// Output defaults
	v.SetDefault("pktdesc.output.format", "text")
	v.SetDefault("pktdesc.output.fragments", false)

	// Log defaults
	v.SetDefault("pktdesc.log.level", "info")
	v.SetDefault("pktdesc.log.pattern", log.DefaultPattern)
	v.SetDefault("pktdesc.log.time", log.DefaultTime)
	v.SetDefault("pktdesc.log.caller", false)

	// Metrics defaults
	v.SetDefault("pktdesc.metrics.enabled", false)
	v.SetDefault("pktdesc.metrics.listen", ":9091")
	v.SetDefault("pktdesc.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.File != nil && cfg.Log.File.Filename == "" {
		return fmt.Errorf("%w: log.file.filename is required when log.file is set", core.ErrConfigInvalid)
	}

	// ── Dissector validation ──
	if err := cfg.Dissector.validate(); err != nil {
		return err
	}

	// ── Pipeline ──
	if cfg.Pipeline.BufferSize <= 0 {
		cfg.Pipeline.BufferSize = 1024
	}
	if cfg.Pipeline.SlotCount <= 0 {
		cfg.Pipeline.SlotCount = 256
	}

	// ── Output ──
	switch cfg.Output.Format {
	case "text", "yaml", "hex":
	default:
		return fmt.Errorf("%w: output format %q (must be text/yaml/hex)", core.ErrConfigInvalid, cfg.Output.Format)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics.enabled=true", core.ErrConfigInvalid)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}

func (d *DissectorConfig) validate() error {
	if _, ok := core.ParseDescriptorType(d.Descriptor); !ok {
		return fmt.Errorf("%w: %q", core.ErrUnsupportedDescriptor, d.Descriptor)
	}
	if d.Datalink != "" {
		if _, err := ParseDatalink(d.Datalink); err != nil {
			return err
		}
	}
	if d.RxPort < 0 || d.RxPort > 255 {
		return fmt.Errorf("%w: rx_port %d out of range 0-255", core.ErrConfigInvalid, d.RxPort)
	}
	if _, err := parseByteOrder(d.ByteOrder); err != nil {
		return err
	}
	if _, err := d.disabledIDs(); err != nil {
		return err
	}
	for _, s := range d.Extensions {
		if _, err := extension.Get(s.Name); err != nil {
			return err
		}
	}
	return nil
}

// DescriptorType returns the configured descriptor type.
func (d *DissectorConfig) DescriptorType() core.DescriptorType {
	t, _ := core.ParseDescriptorType(d.Descriptor)
	return t
}

// DissectorOptions translates the dissector section into dissector options.
// The datalink option is omitted when the datalink is left to the source.
func (cfg *Config) DissectorOptions() ([]dissector.Option, error) {
	d := &cfg.Dissector

	order, err := parseByteOrder(d.ByteOrder)
	if err != nil {
		return nil, err
	}
	ids, err := d.disabledIDs()
	if err != nil {
		return nil, err
	}
	ext, err := extension.Build(d.Extensions)
	if err != nil {
		return nil, err
	}

	opts := []dissector.Option{
		dissector.WithRxPort(uint8(d.RxPort)),
		dissector.WithHashing(d.Hashing),
		dissector.WithByteOrder(order),
		dissector.WithExtensions(ext),
	}
	if d.Datalink != "" {
		link, err := ParseDatalink(d.Datalink)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dissector.WithDatalink(link))
	}
	if len(ids) > 0 {
		opts = append(opts, dissector.WithDisabledOptions(ids...))
	}
	if !d.BitmaskRecording {
		opts = append(opts, dissector.WithoutBitmaskRecording())
	}
	return opts, nil
}

// disabledIDs resolves the disabled option names. Each name must belong to
// the list it appears in.
func (d *DissectorConfig) disabledIDs() ([]packid.HeaderID, error) {
	var ids []packid.HeaderID
	for _, group := range []struct {
		key   string
		owner packid.HeaderID
		names []string
	}{
		{"ipv4_options", packid.IPv4, d.Disabled.IPv4Options},
		{"ipv6_extensions", packid.IPv6, d.Disabled.IPv6Extensions},
		{"tcp_options", packid.TCP, d.Disabled.TCPOptions},
	} {
		for _, name := range group.names {
			id, ok := packid.Lookup(name)
			if !ok || !id.IsOption() || id.Owner() != group.owner {
				return nil, fmt.Errorf("%w: %s: unknown option %q", core.ErrConfigInvalid, group.key, name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

var datalinks = map[string]layers.LinkType{
	"ethernet":  layers.LinkTypeEthernet,
	"linux_sll": layers.LinkTypeLinuxSLL,
	"raw":       layers.LinkTypeRaw,
	"ipv4":      layers.LinkTypeIPv4,
	"ipv6":      layers.LinkTypeIPv6,
}

// ParseDatalink maps a configuration name to a link type.
func ParseDatalink(name string) (layers.LinkType, error) {
	if l, ok := datalinks[strings.ToLower(name)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnsupportedDatalink, name)
}

func parseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: byte_order %q (must be little/big)", core.ErrConfigInvalid, name)
}
