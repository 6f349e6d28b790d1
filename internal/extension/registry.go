// Package extension holds the dissector extensions that ship with pktdesc
// and the registry that builds them by name from configuration.
package extension

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/pktdesc/internal/core"
	"firestige.xyz/pktdesc/internal/core/dissector"
)

// Metadata describes a registered extension.
type Metadata struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Factory creates an extension from its configuration block. cfg may be nil.
type Factory func(cfg map[string]interface{}) (dissector.Extension, error)

// Spec selects one extension and its configuration.
type Spec struct {
	Name   string                 `mapstructure:"name"`
	Config map[string]interface{} `mapstructure:"config"`
}

type entry struct {
	meta    Metadata
	factory Factory
}

// Registry maps extension names to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a factory. Names are unique.
func (r *Registry) Register(meta Metadata, f Factory) error {
	if meta.Name == "" || f == nil {
		return fmt.Errorf("extension: name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[meta.Name]; exists {
		return fmt.Errorf("extension '%s' already registered", meta.Name)
	}
	r.entries[meta.Name] = entry{meta: meta, factory: f}
	return nil
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", core.ErrUnknownExtension, name)
	}
	return e.factory, nil
}

// List returns the metadata of every registered extension sorted by name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, e.meta)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Build instantiates specs in order. The result consults them in that
// order; an empty list yields dissector.NoopExtension.
func (r *Registry) Build(specs []Spec) (dissector.Extension, error) {
	if len(specs) == 0 {
		return dissector.NoopExtension{}, nil
	}

	exts := make(dissector.Composite, 0, len(specs))
	for _, s := range specs {
		f, err := r.Get(s.Name)
		if err != nil {
			return nil, err
		}
		ext, err := f(s.Config)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s': %v", core.ErrExtensionInitFailed, s.Name, err)
		}
		exts = append(exts, ext)
	}
	if len(exts) == 1 {
		return exts[0], nil
	}
	return exts, nil
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(meta Metadata, f Factory) error { return defaultRegistry.Register(meta, f) }

// Get looks a factory up in the default registry.
func Get(name string) (Factory, error) { return defaultRegistry.Get(name) }

// List returns the extensions of the default registry.
func List() []Metadata { return defaultRegistry.List() }

// Build instantiates specs from the default registry.
func Build(specs []Spec) (dissector.Extension, error) { return defaultRegistry.Build(specs) }

// decode fills target from a configuration block.
func decode(cfg map[string]interface{}, target interface{}) error {
	if len(cfg) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(cfg)
}

func init() {
	for _, b := range []struct {
		meta    Metadata
		factory Factory
	}{
		{Metadata{Name: "vxlan", Description: "VXLAN over UDP, inner Ethernet"}, newVXLAN},
		{Metadata{Name: "geneve", Description: "Geneve over UDP, inner frame by protocol type"}, newGeneve},
		{Metadata{Name: "gre", Description: "IP and Ethernet payloads of GRE"}, newGRE},
	} {
		if err := Register(b.meta, b.factory); err != nil {
			panic(err)
		}
	}
}
