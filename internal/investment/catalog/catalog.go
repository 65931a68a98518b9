// Package catalog serves the static property catalog embedded at build time.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"realtyvest/internal/investment/models"
	"realtyvest/pkg/platform/sentinel"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	byID map[string]models.Property
	ids  []string
}

type document struct {
	Properties []models.Property `yaml:"properties"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse loads a catalog document. IDs must be unique and every property
// needs shares on offer.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{byID: make(map[string]models.Property, len(doc.Properties))}
	for _, p := range doc.Properties {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog property %q has no id", p.Title)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog property %q", p.ID)
		}
		if p.Terms.AvailableShares <= 0 || p.Terms.SoldShares > p.Terms.AvailableShares {
			return nil, fmt.Errorf("catalog property %q has invalid share terms", p.ID)
		}
		c.byID[p.ID] = p
		c.ids = append(c.ids, p.ID)
	}
	slices.Sort(c.ids)
	return c, nil
}

// Get returns sentinel.ErrNotFound for unknown IDs.
func (c *Catalog) Get(id string) (models.Property, error) {
	p, ok := c.byID[id]
	if !ok {
		return models.Property{}, fmt.Errorf("property %s: %w", id, sentinel.ErrNotFound)
	}
	return p, nil
}

// List returns the matching properties ordered by ID.
func (c *Catalog) List(f models.Filter) []models.Property {
	out := []models.Property{}
	for _, id := range c.ids {
		if p := c.byID[id]; f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) All() []models.Property { return c.List(models.Filter{}) }

func (c *Catalog) ByType(t models.PropertyType) []models.Property {
	return c.List(models.Filter{Type: t})
}

func (c *Catalog) ByLocation(location string) []models.Property {
	return c.List(models.Filter{Location: strings.TrimSpace(location)})
}

func (c *Catalog) Search(term string) []models.Property {
	return c.List(models.Filter{Search: strings.TrimSpace(term)})
}
