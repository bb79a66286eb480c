package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/aretw0/sessiond/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Catalog implements ports.ProductCatalog over an in-memory map.
// Safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewCatalog creates a catalog seeded with the given products.
func NewCatalog(products ...domain.Product) *Catalog {
	c := &Catalog{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// catalogFile is the on-disk seed format.
type catalogFile struct {
	Products []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Category  string `yaml:"category"`
		Price     int64  `yaml:"price"`
		Available *bool  `yaml:"available"`
	} `yaml:"products"`
}

// LoadCatalogFile builds a catalog from a YAML seed file.
// Products default to available unless the file says otherwise.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := NewCatalog()
	for i, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog entry %q has a negative price", p.ID)
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q is duplicated", p.ID)
		}
		available := true
		if p.Available != nil {
			available = *p.Available
		}
		c.products[p.ID] = domain.Product{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Available: available,
		}
	}
	return c, nil
}

// Get returns a copy of the product.
func (c *Catalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return &p, nil
}

// Put inserts or replaces a product.
func (c *Catalog) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// List returns all products sorted by ID.
func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	products := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}
