package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileVersion is the catalogs file format version.
const fileVersion = "1"

// catalogFile is the on-disk YAML layout of the two tables.
type catalogFile struct {
	Version string          `yaml:"version"`
	ISRs    []ISRDescriptor `yaml:"isrs"`
	Rules   []ControlRule   `yaml:"rules"`
}

// Load reads and parses a catalogs YAML file. Entries with an empty
// function name or matched identifier are rejected here, mirroring the
// add-time precondition; everything else is accepted as-is.
func Load(path string) (*Catalogs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogs file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalogs YAML: %w", err)
	}

	c := &Catalogs{}
	for i, d := range f.ISRs {
		if _, err := c.AddISR(d); err != nil {
			return nil, fmt.Errorf("isr entry %d: %w", i, err)
		}
	}
	for i, r := range f.Rules {
		if _, err := c.AddRule(r); err != nil {
			return nil, fmt.Errorf("rule entry %d: %w", i, err)
		}
	}
	return c, nil
}

// Save writes the catalogs to a YAML file, preserving order.
func Save(path string, c *Catalogs) error {
	f := catalogFile{
		Version: fileVersion,
		ISRs:    c.ISRs,
		Rules:   c.Rules,
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal catalogs: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write catalogs file: %w", err)
	}
	return nil
}
