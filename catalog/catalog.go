// Package catalog serves the read-only appliance catalog.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"energy-server/entities"

	"gopkg.in/yaml.v3"
)

//go:embed household_items.yaml
var embedded []byte

const defaultRecommendedHours = 4

type Catalog struct {
	items []entities.CatalogItem
	byID  map[string]entities.CatalogItem
}

// Load reads the catalog from path, or the embedded copy when path is empty.
func Load(path string) (*Catalog, error) {
	raw := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a YAML list of catalog items.
func Parse(raw []byte) (*Catalog, error) {
	var items []entities.CatalogItem
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(items)
}

// New validates items and builds the lookup index.
func New(items []entities.CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items: make([]entities.CatalogItem, 0, len(items)),
		byID:  make(map[string]entities.CatalogItem, len(items)),
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog item %d has no id", i)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", item.ID)
		}
		if item.PowerConsumption < 0 {
			return nil, fmt.Errorf("catalog item %q has negative power_consumption", item.ID)
		}
		if item.RecommendedHours <= 0 {
			item.RecommendedHours = defaultRecommendedHours
		}
		c.items = append(c.items, item)
		c.byID[item.ID] = item
	}
	return c, nil
}

// List returns a copy of every item in catalog order.
func (c *Catalog) List() []entities.CatalogItem {
	out := make([]entities.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id string) (entities.CatalogItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

func (c *Catalog) Len() int { return len(c.items) }
