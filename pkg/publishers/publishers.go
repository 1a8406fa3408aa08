package publishers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/mtg-card-harvester/pkg/configfile"
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// ConfigRegistry holds normalized publisher entries in file order. It is
// read-only after construction.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry reads the publishers file (YAML or JSON).
func LoadRegistry(path string) (*ConfigRegistry, error) {
	var file configFile
	if err := configfile.Decode(path, &file); err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}
	return NewConfigRegistry(file.Publishers...)
}

// NewConfigRegistry normalizes and validates cfgs and rejects duplicate ids.
func NewConfigRegistry(cfgs ...PublisherConfig) (*ConfigRegistry, error) {
	reg := &ConfigRegistry{
		entries: make([]PublisherConfig, 0, len(cfgs)),
		byID:    make(map[string]int, len(cfgs)),
	}
	for i, raw := range cfgs {
		cfg, err := raw.normalized()
		if err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: duplicate publisher id %q", i, cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

// ByID returns the publisher entry with the given id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns a copy of every entry.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.entries...)
}

// Enabled returns the entries whose enabled flag is not false.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
