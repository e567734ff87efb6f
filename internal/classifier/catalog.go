package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// QueryPlaceholder marks where the default topic echoes the caller's question.
const QueryPlaceholder = "{query}"

// Topic is one canned answer keyed by a set of keywords
type Topic struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Confidence float64  `yaml:"confidence"`
	Actions    []string `yaml:"actions"`
	Text       string   `yaml:"text"`
}

// Catalog is the ordered topic table plus the answer used when nothing matches
type Catalog struct {
	Topics  []Topic `yaml:"topics"`
	Default Topic   `yaml:"default"`
}

// LoadCatalog decodes and validates a YAML catalog
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i := range c.Topics {
		for j, kw := range c.Topics[i].Keywords {
			c.Topics[i].Keywords[j] = strings.ToLower(kw)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(strings.NewReader(string(defaultCatalogYAML)))
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded catalog is invalid: %v", err))
	}
	return c
}

// Validate checks the structural rules every catalog must satisfy
func (c *Catalog) Validate() error {
	if len(c.Topics) == 0 {
		return errors.New("catalog has no topics")
	}

	seen := make(map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		if t.Name == "" {
			return errors.New("catalog topic without a name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate topic %q", t.Name)
		}
		seen[t.Name] = true

		if len(t.Keywords) == 0 {
			return fmt.Errorf("topic %q has no keywords", t.Name)
		}
		for _, kw := range t.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("topic %q has an empty keyword", t.Name)
			}
		}
		if err := validatePayload(t); err != nil {
			return err
		}
	}

	if c.Default.Name == "" {
		return errors.New("catalog default topic without a name")
	}
	if err := validatePayload(c.Default); err != nil {
		return err
	}
	if !strings.Contains(c.Default.Text, QueryPlaceholder) {
		return fmt.Errorf("default topic text must contain %s", QueryPlaceholder)
	}
	return nil
}

func validatePayload(t Topic) error {
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("topic %q has no text", t.Name)
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("topic %q confidence %.2f outside [0,1]", t.Name, t.Confidence)
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("topic %q has no suggested actions", t.Name)
	}
	return nil
}

// match returns the first topic whose keywords appear in the lower-cased text
func (c *Catalog) match(lower string) (Topic, bool) {
	for _, t := range c.Topics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t, true
			}
		}
	}
	return Topic{}, false
}
