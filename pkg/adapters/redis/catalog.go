package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/sessiond/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Catalog implements ports.ProductCatalog on top of Redis.
// Each product is a hash at <prefix>product:<id>; the set <prefix>products indexes them.
type Catalog struct {
	client *backend.Client
	prefix string
}

type Option func(*Catalog)

// WithPrefix sets the key prefix for catalog entries.
func WithPrefix(prefix string) Option {
	return func(c *Catalog) {
		c.prefix = prefix
	}
}

// New creates a catalog with its own client.
func New(address, password string, db int, opts ...Option) *Catalog {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a catalog from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Catalog {
	c := &Catalog{
		client: client,
		prefix: "sessiond:catalog:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) key(productID string) string {
	return c.prefix + "product:" + productID
}

func (c *Catalog) indexKey() string {
	return c.prefix + "products"
}

// Get reads a product hash. The context bounds the round trip.
func (c *Catalog) Get(ctx context.Context, productID string) (*domain.Product, error) {
	fields, err := c.client.HGetAll(ctx, c.key(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get product from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return decodeProduct(productID, fields)
}

// Put writes a product and indexes it.
func (c *Catalog) Put(ctx context.Context, p domain.Product) error {
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, c.key(p.ID), map[string]any{
		"name":      p.Name,
		"category":  p.Category,
		"price":     strconv.FormatInt(p.Price, 10),
		"available": strconv.FormatBool(p.Available),
	})
	pipe.SAdd(ctx, c.indexKey(), p.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save product to redis: %w", err)
	}
	return nil
}

// List returns every indexed product sorted by ID. Index entries whose hash
// has disappeared are skipped.
func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	ids, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	sort.Strings(ids)

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := c.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// Ping checks that the server is reachable.
func (c *Catalog) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis catalog unreachable: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Catalog) Close() error {
	return c.client.Close()
}

func decodeProduct(id string, fields map[string]string) (*domain.Product, error) {
	price, err := strconv.ParseInt(fields["price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("product %s has an invalid price %q: %w", id, fields["price"], err)
	}
	available := true
	if raw, ok := fields["available"]; ok && raw != "" {
		available, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("product %s has an invalid availability %q: %w", id, raw, err)
		}
	}
	return &domain.Product{
		ID:        id,
		Name:      fields["name"],
		Category:  fields["category"],
		Price:     price,
		Available: available,
	}, nil
}
