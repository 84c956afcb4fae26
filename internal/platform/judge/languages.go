package judge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var defaultCatalogYAML []byte

type Language struct {
	Name string `yaml:"name" json:"name"`
	ID   int    `yaml:"id" json:"id"`
}

type Catalog struct {
	DefaultID int        `yaml:"default_id"`
	Languages []Language `yaml:"languages"`

	byName map[string]int
}

func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse language catalog: %w", err)
	}
	if c.DefaultID <= 0 {
		return nil, fmt.Errorf("language catalog: default_id must be positive")
	}
	c.byName = make(map[string]int, len(c.Languages))
	for _, l := range c.Languages {
		c.byName[strings.ToLower(l.Name)] = l.ID
	}
	return &c, nil
}

// DefaultCatalog is the embedded catalog; it panics only if the embedded file is broken.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve maps a language name to its normalized name and judge id.
// Empty names mean python; unknown names keep their name and get the default id.
func (c *Catalog) Resolve(name string) (string, int) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = "python"
	}
	if id, ok := c.byName[n]; ok {
		return n, id
	}
	return n, c.DefaultID
}
