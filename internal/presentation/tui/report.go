package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/sessiond/pkg/domain"
)

// FormatMoney renders minor units as a decimal amount, e.g. 2047 -> "20.47".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// CatalogMarkdown lists products as a markdown table.
func CatalogMarkdown(products []domain.Product) string {
	var b strings.Builder
	b.WriteString("## Catalog\n\n")
	if len(products) == 0 {
		b.WriteString("_No products._\n")
		return b.String()
	}
	b.WriteString("| ID | Name | Category | Price | Available |\n")
	b.WriteString("|---|---|---|---:|:---:|\n")
	for _, p := range products {
		avail := "yes"
		if !p.Available {
			avail = "no"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n", p.ID, p.Name, p.Category, FormatMoney(p.Price), avail)
	}
	return b.String()
}

// CartMarkdown renders a cart with its derived total.
func CartMarkdown(c *domain.Cart) string {
	var b strings.Builder
	if c == nil || len(c.Items) == 0 {
		b.WriteString("_Cart is empty._\n")
		return b.String()
	}
	b.WriteString("| Product | Qty | Unit | Subtotal |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, item := range c.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", name, item.Quantity, FormatMoney(item.UnitPrice), FormatMoney(item.Subtotal()))
	}
	fmt.Fprintf(&b, "\n**Total: %s**\n", FormatMoney(c.Total()))
	return b.String()
}

// WorkflowMarkdown renders the step sequence with the current position marked.
func WorkflowMarkdown(wf *domain.Workflow) string {
	var b strings.Builder
	if wf == nil {
		b.WriteString("_No active workflow._\n")
		return b.String()
	}
	current := slices.Index(wf.Steps, wf.CurrentStep)
	if wf.IsCompleted() {
		current = len(wf.Steps)
	}
	for i, step := range wf.Steps {
		switch {
		case i < current:
			fmt.Fprintf(&b, "- [x] %s\n", step)
		case i == current:
			fmt.Fprintf(&b, "- [ ] **%s** (current)\n", step)
		default:
			fmt.Fprintf(&b, "- [ ] %s\n", step)
		}
	}
	if wf.IsCompleted() {
		b.WriteString("\nCompleted.\n")
	}
	return b.String()
}
