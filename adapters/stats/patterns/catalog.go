package patterns

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"perfpulse/domain/insight"
	"perfpulse/internal/errors"
)

// Catalog is the YAML document holding custom pattern definitions
type Catalog struct {
	Patterns []insight.PatternDefinition `yaml:"patterns"`
}

// Validate checks a single definition
func Validate(def insight.PatternDefinition) error {
	if def.ID == "" {
		return errors.InvalidInput("pattern has no id")
	}
	if len(def.Conditions) == 0 {
		return errors.InvalidInput(fmt.Sprintf("pattern %s has no conditions", def.ID))
	}
	for _, c := range def.Conditions {
		if err := c.Validate(); err != nil {
			return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("pattern %s: %w", def.ID, err))
		}
	}
	for _, o := range def.ExpectedOutcomes {
		if o.Metric == "" {
			return errors.InvalidInput(fmt.Sprintf("pattern %s has an outcome without a metric", def.ID))
		}
	}
	return nil
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(r io.Reader) ([]insight.PatternDefinition, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		if err == io.EOF {
			return []insight.PatternDefinition{}, nil
		}
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "failed to decode pattern catalog"))
	}

	seen := map[string]bool{}
	for _, def := range catalog.Patterns {
		if err := Validate(def); err != nil {
			return nil, err
		}
		if seen[def.ID] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate pattern id %s", def.ID))
		}
		seen[def.ID] = true
	}
	return catalog.Patterns, nil
}

// LoadCatalogFile reads a YAML catalog from disk
func LoadCatalogFile(path string) ([]insight.PatternDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pattern catalog %s", path)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// WithCanonical appends custom definitions to the canonical five. A custom
// definition reusing a canonical ID is rejected.
func WithCanonical(custom []insight.PatternDefinition) ([]insight.PatternDefinition, error) {
	all := Canonical()
	seen := map[string]bool{}
	for _, def := range all {
		seen[def.ID] = true
	}
	for _, def := range custom {
		if seen[def.ID] {
			return nil, errors.InvalidInput(fmt.Sprintf("pattern id %s collides with a built-in pattern", def.ID))
		}
		seen[def.ID] = true
		all = append(all, def)
	}
	return all, nil
}
