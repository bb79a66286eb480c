package ports

import (
	"context"

	"github.com/aretw0/sessiond/pkg/domain"
)

// ProductCatalog is the read-only lookup the cart resolves product references against.
type ProductCatalog interface {
	// Get returns the product, or domain.ErrProductNotFound.
	// Implementations that do I/O should honor ctx cancellation.
	Get(ctx context.Context, productID string) (*domain.Product, error)
}

// ProductLister is implemented by catalogs that can enumerate their products.
type ProductLister interface {
	List(ctx context.Context) ([]domain.Product, error)
}
