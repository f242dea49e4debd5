// Package catalog holds the products that can be placed on a facade,
// grouped by category.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/facade"
)

//go:embed default.yaml
var defaultYAML []byte

// Item is a single product.
type Item struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ImageURL  string `yaml:"image_url"`
	Thumbnail string `yaml:"thumbnail"`
}

// Category groups related products, such as gates or shutters.
type Category struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Items []Item `yaml:"items"`
}

// Catalog is an ordered list of categories.
type Catalog struct {
	Categories []Category `yaml:"categories"`

	byID map[string]Item
}

// Parse decodes a YAML catalog and checks that every item has an id, a name
// and an image URL and that item ids are unique.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, errors.New("parse catalog: no categories")
	}
	c.byID = make(map[string]Item)
	for ci, cat := range c.Categories {
		if cat.ID == "" {
			return nil, fmt.Errorf("parse catalog: category %d has no id", ci)
		}
		if cat.Title == "" {
			c.Categories[ci].Title = cat.ID
		}
		for _, it := range cat.Items {
			if it.ID == "" || it.Name == "" || it.ImageURL == "" {
				return nil, fmt.Errorf("parse catalog: incomplete item %q in %s", it.ID, cat.ID)
			}
			if _, dup := c.byID[it.ID]; dup {
				return nil, fmt.Errorf("parse catalog: duplicate item id %q", it.ID)
			}
			c.byID[it.ID] = it
		}
	}
	return &c, nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: invalid built-in catalog: " + err.Error())
	}
	return c
}

// Category returns the category with the given id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Item returns the product with the given id.
func (c *Catalog) Item(id string) (Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Items returns every product in catalog order.
func (c *Catalog) Items() []Item {
	var out []Item
	for _, cat := range c.Categories {
		out = append(out, cat.Items...)
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Search returns the products whose name fuzzy-matches query, best match
// first. An empty query returns every product.
func (c *Catalog) Search(query string) []Item {
	items := itemSource(c.Items())
	if query == "" {
		return items
	}
	matches := fuzzy.FindFrom(query, items)
	out := make([]Item, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}

// itemSource exposes item names to the fuzzy matcher.
type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Name }
func (s itemSource) Len() int            { return len(s) }

// RefPrefix marks image references that name a catalog item instead of a
// file or URL.
const RefPrefix = "catalog:"

// Ref returns the image reference for the item with the given id.
func Ref(id string) string {
	return RefPrefix + id
}

// Loader returns a facade.Loader that resolves catalog references to the
// item's image URL and passes everything else to next unchanged. Loaded
// images keep the catalog reference so saved scenes stay portable.
func (c *Catalog) Loader(next facade.Loader) facade.Loader {
	return facade.LoaderFunc(func(ctx context.Context, ref string) (facade.Image, error) {
		id, ok := strings.CutPrefix(ref, RefPrefix)
		if !ok {
			return next.Load(ctx, ref)
		}
		it, ok := c.Item(id)
		if !ok {
			return facade.Image{}, fmt.Errorf("%w: unknown catalog item %q", facade.ErrInvalidImage, id)
		}
		img, err := next.Load(ctx, it.ImageURL)
		if err != nil {
			return facade.Image{}, err
		}
		img.Ref = ref
		return img, nil
	})
}
