// Package cart implements the session-scoped shopping cart.
//
// A Cart is an ordered list of lines, one per dish, merged by dish ID. All
// derived values are computed from the current lines on every call. Every
// method takes the cart mutex for its whole body, so operations are atomic
// with respect to each other.
package cart

import (
	"slices"
	"sync"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
)

// Line is one dish-and-quantity pairing. Quantity is always at least 1.
type Line struct {
	Dish     dish.Dish
	Quantity int
}

// Cart holds the lines of one browsing session. The zero value is an empty
// cart ready to use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// index returns the position of the line for dishID or -1. Caller holds mu.
func (c *Cart) index(dishID int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Dish.ID == dishID })
}

// Add puts one more unit of d into the cart. A dish already present has its
// quantity incremented; otherwise a snapshot of d is appended with quantity 1.
func (c *Cart) Add(d dish.Dish) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(d.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Dish: d, Quantity: 1})
}

// Remove drops the line for dishID, if any.
func (c *Cart) Remove(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(dishID); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Unknown dish IDs are ignored.
func (c *Cart) UpdateQuantity(dishID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(dishID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
		return
	}
	c.lines[i].Quantity = quantity
}

// Increment adds one unit to an existing line.
func (c *Cart) Increment(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(dishID); i >= 0 {
		c.lines[i].Quantity++
	}
}

// Decrement takes one unit from an existing line, removing it at quantity 1.
func (c *Cart) Decrement(dishID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(dishID)
	switch {
	case i < 0:
	case c.lines[i].Quantity > 1:
		c.lines[i].Quantity--
	default:
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
}

// Settle takes the submitted quantities out of the cart once an order built
// from them has been accepted. Lines added or raised in the meantime keep the
// difference; lines that reach zero are dropped.
func (c *Cart) Settle(items []order.ItemRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range items {
		if i := c.index(it.DishID); i >= 0 {
			c.lines[i].Quantity -= it.Quantity
		}
	}
	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool { return l.Quantity <= 0 })
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// LineCount is the number of distinct dishes in the cart.
//
// Dishes carry no price, so this is the only "size" figure the cart offers
// besides TotalItems. It is not a monetary value.
func (c *Cart) LineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c.LineCount() == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

// Line returns the line for dishID.
func (c *Cart) Line(dishID int64) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(dishID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// OrderItems projects the cart into order submission lines, in insertion order.
func (c *Cart) OrderItems() []order.ItemRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]order.ItemRequest, len(c.lines))
	for i, l := range c.lines {
		items[i] = order.ItemRequest{DishID: l.Dish.ID, Quantity: l.Quantity}
	}
	return items
}
