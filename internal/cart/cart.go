// Package cart implements the shopping cart held for a signed-in user.
//
// Lines are unique by product id and always carry a positive quantity.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = 999

// ErrQuantityLimit is returned when a line would exceed MaxQuantity.
var ErrQuantityLimit = errors.New("quantity exceeds limit")

// Product is the snapshot of a catalog entry taken when it is added.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// Item is one cart line.
type Item struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a set of items keyed by product id. The zero value is an empty cart.
type Cart struct {
	Items []Item `json:"items"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Items: []Item{}}
}

// Add merges qty of p into the cart. An existing line keeps its snapshot and
// accumulates quantity. A qty below 1 counts as 1. The cart is left unchanged
// when the line would exceed MaxQuantity.
func (c *Cart) Add(p Product, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if qty > MaxQuantity {
		return ErrQuantityLimit
	}
	if i := c.index(p.ID); i >= 0 {
		if c.Items[i].Quantity > MaxQuantity-qty {
			return ErrQuantityLimit
		}
		c.Items[i].Quantity += qty
		return nil
	}
	c.Items = append(c.Items, Item{Product: p, Quantity: qty})
	return nil
}

// Remove drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) Remove(productID int64) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// SetQuantity overwrites the quantity of an existing line. qty <= 0 removes
// the line; an absent product is left absent.
func (c *Cart) SetQuantity(productID int64, qty int) error {
	if qty <= 0 {
		c.Remove(productID)
		return nil
	}
	if qty > MaxQuantity {
		return ErrQuantityLimit
	}
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity = qty
	}
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []Item{}
}

// Subtotal is the sum of price*quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// LineCount is the number of distinct products.
func (c *Cart) LineCount() int {
	return len(c.Items)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) index(productID int64) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
