package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is one selectable class in the teacher's class picker.
type Class struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type ClassCatalog struct {
	Classes []Class `yaml:"classes"`
}

// DefaultClassCatalog is used when no catalog file is configured.
func DefaultClassCatalog() ClassCatalog {
	return ClassCatalog{Classes: []Class{
		{ID: "1", Name: "10A"},
		{ID: "2", Name: "10B"},
		{ID: "3", Name: "9A"},
		{ID: "4", Name: "9B"},
		{ID: "5", Name: "8A"},
		{ID: "6", Name: "8B"},
	}}
}

// LoadClassCatalog reads a YAML class catalog. An empty path yields the default catalog.
func LoadClassCatalog(path string) (ClassCatalog, error) {
	if path == "" {
		return DefaultClassCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ClassCatalog{}, fmt.Errorf("read class catalog: %w", err)
	}

	var catalog ClassCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return ClassCatalog{}, fmt.Errorf("parse class catalog: %w", err)
	}

	if len(catalog.Classes) == 0 {
		return ClassCatalog{}, fmt.Errorf("class catalog %s defines no classes", path)
	}
	seen := make(map[string]struct{}, len(catalog.Classes))
	for i, c := range catalog.Classes {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return ClassCatalog{}, fmt.Errorf("class catalog entry %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return ClassCatalog{}, fmt.Errorf("class catalog has duplicate class %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		catalog.Classes[i] = c
	}

	return catalog, nil
}

// Has reports whether name is a class in the catalog
func (c ClassCatalog) Has(name string) bool {
	for _, class := range c.Classes {
		if class.Name == name {
			return true
		}
	}
	return false
}

// Names returns class names in catalog order
func (c ClassCatalog) Names() []string {
	names := make([]string, 0, len(c.Classes))
	for _, class := range c.Classes {
		names = append(names, class.Name)
	}
	return names
}
