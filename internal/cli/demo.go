package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/sessiond"
	"github.com/aretw0/sessiond/internal/presentation/tui"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
	"github.com/aretw0/sessiond/pkg/observability"
)

// DemoCatalog is used by the demo when no catalog is configured.
func DemoCatalog() *memory.Catalog {
	return memory.NewCatalog(
		domain.Product{ID: "p1", Name: "Mechanical Keyboard", Category: "peripherals", Price: 999, Available: true},
		domain.Product{ID: "p2", Name: "USB-C Cable", Category: "accessories", Price: 49, Available: true},
	)
}

// Demo walks one session through a cart and a checkout workflow against
// catalog, then writes a markdown report through render. Products p1 and p2
// must exist in the catalog.
func Demo(ctx context.Context, w io.Writer, catalog Catalog, render tui.Renderer, logger *slog.Logger) error {
	svc, err := sessiond.New(
		sessiond.WithCatalog(catalog),
		sessiond.WithLogger(logger),
		sessiond.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	if err != nil {
		return err
	}

	var report strings.Builder
	step := func(title string) {
		fmt.Fprintf(&report, "\n### %s\n\n", title)
	}

	report.WriteString("# sessiond demo\n")

	s, err := svc.Registry.Create(ctx, "demo-user", domain.Payload{
		Preferences: map[string]string{"currency": "USD"},
	})
	if err != nil {
		return err
	}
	sess, err := svc.Resolver.Resolve(ctx, s.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(&report, "\nSession `%s…` created for `%s`, expires at %s.\n",
		sess.ID[:8], sess.OwnerID, sess.ExpiresAt.Format("15:04:05"))

	cartOps := []struct {
		title string
		run   func() (*domain.Cart, error)
	}{
		{"Add 2 × p1", func() (*domain.Cart, error) { return svc.Carts.AddItem(ctx, sess.ID, "p1", 2) }},
		{"Add 1 × p2", func() (*domain.Cart, error) { return svc.Carts.AddItem(ctx, sess.ID, "p2", 1) }},
		{"Remove p1", func() (*domain.Cart, error) { return svc.Carts.RemoveItem(ctx, sess.ID, "p1") }},
	}
	for _, op := range cartOps {
		c, err := op.run()
		if err != nil {
			return fmt.Errorf("%s: %w", op.title, err)
		}
		step(op.title)
		report.WriteString(tui.CartMarkdown(c))
	}

	wf, err := svc.Workflows.Start(ctx, sess.ID, []string{"cart", "shipping", "payment"})
	if err != nil {
		return err
	}
	step("Checkout started")
	report.WriteString(tui.WorkflowMarkdown(wf))
	for !wf.IsCompleted() {
		if wf, err = svc.Workflows.Advance(ctx, sess.ID); err != nil {
			return err
		}
		step("Advance")
		report.WriteString(tui.WorkflowMarkdown(wf))
	}

	svc.Registry.Delete(ctx, sess.ID)
	_, err = svc.Resolver.Resolve(ctx, sess.ID)
	step("Session deleted")
	fmt.Fprintf(&report, "Resolving the old token now fails: `%v`\n", err)

	out, err := render(report.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
