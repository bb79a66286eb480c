package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// MaxLineQuantity caps the units a single cart line may hold.
const MaxLineQuantity = 1_000_000

// LineItem is one product in a cart. UnitPrice is frozen when the line is first added.
type LineItem struct {
	ProductID string `json:"product_id" mapstructure:"product_id"`
	Name      string `json:"name" mapstructure:"name"`
	Quantity  int    `json:"quantity" mapstructure:"quantity"`
	UnitPrice int64  `json:"unit_price" mapstructure:"unit_price"`
}

// Subtotal is Quantity x UnitPrice.
func (li LineItem) Subtotal() int64 {
	return int64(li.Quantity) * li.UnitPrice
}

// Cart is the per-session basket. It has no total field: Total is always derived
// from the current items.
type Cart struct {
	Items []LineItem `json:"items" mapstructure:"items"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}}
}

// Total recomputes the sum of all line subtotals.
func (c *Cart) Total() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// Add increments the quantity of an existing line or appends a new one,
// snapshotting the product's current price. It fails with ErrInvalidQuantity,
// leaving the cart untouched, when the line would exceed MaxLineQuantity or
// the total would overflow.
func (c *Cart) Add(p Product, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	i := c.index(p.ID)
	if i < 0 {
		c.Items = append(c.Items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
		})
		i = len(c.Items) - 1
	}
	prev := c.Items[i].Quantity
	if quantity > MaxLineQuantity-prev {
		c.undo(i, prev)
		return fmt.Errorf("%w: %s would exceed %d units", ErrInvalidQuantity, p.ID, MaxLineQuantity)
	}
	c.Items[i].Quantity = prev + quantity
	if err := c.CheckTotal(); err != nil {
		c.undo(i, prev)
		return err
	}
	return nil
}

// undo restores line i to prev units, dropping it when it was just appended.
func (c *Cart) undo(i, prev int) {
	if prev == 0 {
		c.Items = c.Items[:i]
		return
	}
	c.Items[i].Quantity = prev
}

// CheckTotal reports ErrInvalidQuantity when a subtotal or the total does not
// fit in int64.
func (c *Cart) CheckTotal() error {
	var total int64
	for _, item := range c.Items {
		if item.UnitPrice > 0 && int64(item.Quantity) > math.MaxInt64/item.UnitPrice {
			return fmt.Errorf("%w: subtotal for %s overflows", ErrInvalidQuantity, item.ProductID)
		}
		sub := item.Subtotal()
		if sub > math.MaxInt64-total {
			return fmt.Errorf("%w: cart total overflows", ErrInvalidQuantity)
		}
		total += sub
	}
	return nil
}

// Remove drops the line for productID. It reports whether a line was removed.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line. It reports whether the product was in the cart.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
}

// Quantity returns the quantity held for productID, or zero.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) index(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Validate rejects lines that could not have been produced by Add.
func (c *Cart) Validate() error {
	seen := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: cart line without product_id", ErrInvalidPayload)
		}
		if seen[item.ProductID] {
			return fmt.Errorf("%w: duplicate cart line for %s", ErrInvalidPayload, item.ProductID)
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 || item.Quantity > MaxLineQuantity {
			return fmt.Errorf("%w: quantity for %s must be between 1 and %d", ErrInvalidPayload, item.ProductID, MaxLineQuantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: negative unit price for %s", ErrInvalidPayload, item.ProductID)
		}
	}
	if err := c.CheckTotal(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items}
}

// MarshalJSON adds the derived total to the wire projection.
// Any "total" sent back on input is ignored by the default decoder.
func (c Cart) MarshalJSON() ([]byte, error) {
	type view struct {
		Items []LineItem `json:"items"`
		Total int64      `json:"total"`
	}
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(view{Items: items, Total: c.Total()})
}
