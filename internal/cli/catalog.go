package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/sessiond/internal/presentation/tui"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
)

// ProductWriter stores products, e.g. the Redis catalog.
type ProductWriter interface {
	Put(ctx context.Context, p domain.Product) error
}

// ListCatalog writes the catalog as a rendered markdown table.
func ListCatalog(ctx context.Context, w io.Writer, catalog Catalog, render tui.Renderer) error {
	products, err := catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list catalog: %w", err)
	}
	out, err := render(tui.CatalogMarkdown(products))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// SeedCatalog copies every product of a YAML catalog file into dst and
// returns how many were written.
func SeedCatalog(ctx context.Context, file string, dst ProductWriter) (int, error) {
	src, err := memory.LoadCatalogFile(file)
	if err != nil {
		return 0, err
	}
	products, err := src.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, p := range products {
		if err := dst.Put(ctx, p); err != nil {
			return i, fmt.Errorf("failed to seed %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}
