package demo

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category lists the well-known brands of one keyword
type Category struct {
	Keyword string   `yaml:"keyword"`
	Brands  []string `yaml:"brands"`
}

// Catalog maps category keywords to their known brands
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

var defaultCatalog = mustParseCatalog(catalogYAML)

// ParseCatalog decodes a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Keyword) == "" {
			return nil, fmt.Errorf("catalog category %d has no keyword", i)
		}
	}
	return &c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the known brands for keyword, matched on the trimmed
// lowercase keyword. Unknown keywords yield nil.
func (c *Catalog) Lookup(keyword string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	for _, cat := range c.Categories {
		if strings.ToLower(strings.TrimSpace(cat.Keyword)) == keyword {
			brands := make([]string, len(cat.Brands))
			copy(brands, cat.Brands)
			return brands
		}
	}
	return nil
}

// Lookup searches the built-in catalog
func Lookup(keyword string) []string {
	return defaultCatalog.Lookup(keyword)
}
