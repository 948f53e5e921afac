package template

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// catalog is the on-disk shape of a template catalog file.
type catalog struct {
	Templates []*Template `yaml:"templates"`
}

// UnmarshalYAML accepts human-readable durations ("72h") for the TTL field.
func (m *Metadata) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		DefaultPriority string `yaml:"defaultPriority"`
		Category        string `yaml:"category"`
		TTL             string `yaml:"ttl"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	m.DefaultPriority = raw.DefaultPriority
	m.Category = raw.Category
	if raw.TTL != "" {
		ttl, err := time.ParseDuration(raw.TTL)
		if err != nil {
			return fmt.Errorf("parsing ttl %q: %w", raw.TTL, err)
		}
		m.TTL = ttl
	}
	return nil
}

// LoadCatalog parses a YAML template catalog. Every template in the catalog
// must validate; duplicate ids are rejected.
func LoadCatalog(r io.Reader) ([]*Template, error) {
	var cat catalog
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogInvalid, err)
	}
	if len(cat.Templates) == 0 {
		return nil, fmt.Errorf("%w: no templates defined", ErrCatalogInvalid)
	}

	seen := make(map[string]struct{}, len(cat.Templates))
	for _, tpl := range cat.Templates {
		if err := tpl.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCatalogInvalid, err)
		}
		if _, dup := seen[tpl.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate template id %q", ErrCatalogInvalid, tpl.ID)
		}
		seen[tpl.ID] = struct{}{}
	}

	return cat.Templates, nil
}

// LoadCatalogFile reads and parses a YAML template catalog from disk.
func LoadCatalogFile(path string) ([]*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template catalog: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}
