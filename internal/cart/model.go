package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Item is a cart line item resolved to its product and the product's categories.
type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	CategoryIDs []int64         `json:"categoryIds"`
}

// InCategory reports whether the item's product is directly assigned to categoryID.
func (it Item) InCategory(categoryID int64) bool {
	return slices.Contains(it.CategoryIDs, categoryID)
}

// Fee is a non-product charge line added to the cart total.
type Fee struct {
	// ID identifies the component that added the fee.
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Taxable bool            `json:"taxable"`
}

// Cart is the request-scoped view of a cart handed to fee handlers.
type Cart struct {
	ID     string
	AnonID string
	items  []Item
	fees   []Fee
}

// New builds a cart with the provided line items in order.
func New(id string, items []Item) *Cart {
	return &Cart{ID: id, items: append([]Item(nil), items...)}
}

// Items returns a copy of the cart line items.
func (c *Cart) Items() []Item {
	if c == nil {
		return nil
	}
	return append([]Item(nil), c.items...)
}

// AddFee appends a fee line to the cart.
func (c *Cart) AddFee(fee Fee) {
	if c == nil {
		return
	}
	c.fees = append(c.fees, fee)
}

// RemoveFees drops every fee added under id and returns how many were removed.
func (c *Cart) RemoveFees(id string) int {
	if c == nil {
		return 0
	}
	kept := c.fees[:0]
	removed := 0
	for _, fee := range c.fees {
		if fee.ID == id {
			removed++
			continue
		}
		kept = append(kept, fee)
	}
	c.fees = kept
	return removed
}

// Fees returns a copy of the fee lines currently applied.
func (c *Cart) Fees() []Fee {
	if c == nil {
		return nil
	}
	return append([]Fee(nil), c.fees...)
}

// FeeTotal sums the amounts of all applied fees.
func (c *Cart) FeeTotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, fee := range c.fees {
		total = total.Add(fee.Amount)
	}
	return total
}
