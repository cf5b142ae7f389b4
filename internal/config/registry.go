package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Registry maps supplier identifiers to their upstream URLs.
//
// The file format is
//
//	data:
//	  supplier1: https://example.com/supplier1
type Registry struct {
	Data map[string]string `yaml:"data" json:"data"`
}

// IDs returns the registered supplier identifiers in lexicographic order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Data))
	for id := range r.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Select returns the subset of the registry named by ids. A nil ids selects
// every supplier. Unknown ids are ignored.
func (r *Registry) Select(ids []string) map[string]string {
	if ids == nil {
		selected := make(map[string]string, len(r.Data))
		for id, u := range r.Data {
			selected[id] = u
		}
		return selected
	}

	selected := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := r.Data[id]; ok {
			selected[id] = u
		}
	}
	return selected
}

// LoadRegistry reads the supplier registry from path (YAML or JSON by extension).
func LoadRegistry(path string) (*Registry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("supplier registry does not exists: %s", path)
	}

	var reg Registry
	if err := cleanenv.ReadConfig(path, &reg); err != nil {
		return nil, fmt.Errorf("cannot read the supplier registry: %w", err)
	}

	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supplier registry %s: %w", path, err)
	}

	return &reg, nil
}

// Validate requires at least one supplier, non-blank ids without commas and
// absolute http(s) URLs.
func (r *Registry) Validate() error {
	if len(r.Data) == 0 {
		return fmt.Errorf("no suppliers registered")
	}

	for _, id := range r.IDs() {
		if strings.TrimSpace(id) == "" || strings.Contains(id, ",") {
			return fmt.Errorf("invalid supplier id %q", id)
		}

		u, err := url.Parse(r.Data[id])
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("supplier %s: %q is not an absolute http(s) URL", id, r.Data[id])
		}
	}

	return nil
}
