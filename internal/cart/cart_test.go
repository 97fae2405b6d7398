package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
)

// --- Helpers ---

func newTestDish(id int64, name string) dish.Dish {
	return dish.Dish{
		ID:          id,
		Name:        name,
		Category:    "test",
		Rating:      dish.DefaultRating,
		IsAvailable: true,
	}
}

func quantities(c *Cart) map[int64]int {
	out := make(map[int64]int)
	for _, l := range c.Lines() {
		out[l.Dish.ID] = l.Quantity
	}
	return out
}

// requireInvariants checks the properties every cart state must satisfy.
func requireInvariants(t *testing.T, c *Cart) {
	t.Helper()

	lines := c.Lines()
	seen := make(map[int64]bool, len(lines))
	sum := 0
	for _, l := range lines {
		require.GreaterOrEqual(t, l.Quantity, 1, "dish %d", l.Dish.ID)
		require.False(t, seen[l.Dish.ID], "duplicate line for dish %d", l.Dish.ID)
		seen[l.Dish.ID] = true
		sum += l.Quantity
	}
	require.Equal(t, sum, c.TotalItems())
	require.Equal(t, len(lines) == 0, c.IsEmpty())
	require.Equal(t, c.TotalItems() == 0, c.IsEmpty())
	require.Len(t, c.OrderItems(), len(lines))
}

// --- Tests ---

func TestCart_Empty(t *testing.T) {
	c := New()

	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())
	assert.Zero(t, c.LineCount())
	assert.Empty(t, c.Lines())
	assert.Empty(t, c.OrderItems())

	var zero Cart
	assert.True(t, zero.IsEmpty())
}

func TestCart_AddMergesByID(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "Dumplings"))
	c.Add(newTestDish(1, "Dumplings"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].Dish.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	requireInvariants(t, c)
}

func TestCart_AddMergesByIDNotByValue(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "Dumplings"))

	renamed := newTestDish(1, "Steamed Dumplings")
	renamed.IsAvailable = false
	c.Add(renamed)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Dumplings", lines[0].Dish.Name, "first snapshot is kept")
}

func TestCart_AddStoresSnapshot(t *testing.T) {
	c := New()
	d := newTestDish(1, "Dumplings")
	c.Add(d)

	d.Name = "changed"
	d.IsAvailable = false

	l, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, "Dumplings", l.Dish.Name)
	assert.True(t, l.Dish.IsAvailable)
}

func TestCart_LinesIsACopy(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "Dumplings"))

	lines := c.Lines()
	lines[0].Quantity = 99
	lines[0].Dish.Name = "changed"

	l, _ := c.Line(1)
	assert.Equal(t, 1, l.Quantity)
	assert.Equal(t, "Dumplings", l.Dish.Name)
}

func TestCart_Remove(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(2, "B"))
	c.Increment(2)
	c.Remove(1)

	assert.Equal(t, map[int64]int{2: 2}, quantities(c))

	// Unknown id is a no-op.
	c.Remove(42)
	assert.Equal(t, map[int64]int{2: 2}, quantities(c))
	requireInvariants(t, c)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		dishID   int64
		quantity int
		want     map[int64]int
	}{
		{name: "set exact", dishID: 1, quantity: 5, want: map[int64]int{1: 5, 2: 1}},
		{name: "zero removes", dishID: 1, quantity: 0, want: map[int64]int{2: 1}},
		{name: "negative removes", dishID: 2, quantity: -3, want: map[int64]int{1: 1}},
		{name: "unknown is no-op", dishID: 99, quantity: 5, want: map[int64]int{1: 1, 2: 1}},
		{name: "unknown with zero is no-op", dishID: 99, quantity: 0, want: map[int64]int{1: 1, 2: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.Add(newTestDish(1, "A"))
			c.Add(newTestDish(2, "B"))

			c.UpdateQuantity(tt.dishID, tt.quantity)

			assert.Equal(t, tt.want, quantities(c))
			requireInvariants(t, c)
		})
	}
}

func TestCart_IncrementDecrement(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))

	c.Increment(1)
	c.Increment(1)
	assert.Equal(t, map[int64]int{1: 3}, quantities(c))

	c.Decrement(1)
	assert.Equal(t, map[int64]int{1: 2}, quantities(c))

	c.Increment(7)
	c.Decrement(7)
	assert.Equal(t, map[int64]int{1: 2}, quantities(c))
	requireInvariants(t, c)
}

func TestCart_DecrementAtBoundary(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))

	c.Decrement(1)
	assert.True(t, c.IsEmpty())
	_, ok := c.Line(1)
	assert.False(t, ok)

	// Second decrement on the now-absent id changes nothing.
	c.Decrement(1)
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())
	requireInvariants(t, c)
}

func TestCart_Clear(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(2, "B"))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalItems())

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestCart_AddRemoveRoundTrip(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(2, "B"))
	c.Add(newTestDish(2, "B"))
	c.Remove(1)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Dish.ID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestCart_OrderItemsProjection(t *testing.T) {
	c := New()
	c.Add(newTestDish(3, "C"))
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(2, "B"))
	c.UpdateQuantity(1, 4)

	first := c.OrderItems()
	second := c.OrderItems()

	want := []order.ItemRequest{
		{DishID: 3, Quantity: 1},
		{DishID: 1, Quantity: 4},
		{DishID: 2, Quantity: 1},
	}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)

	// The projection is detached from the cart.
	first[0].Quantity = 100
	assert.Equal(t, want, c.OrderItems())
}

func TestCart_Scenario(t *testing.T) {
	c := New()
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(1, "A"))
	c.Add(newTestDish(2, "B"))
	c.Increment(2)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].Dish.ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(2), lines[1].Dish.ID)
	assert.Equal(t, 2, lines[1].Quantity)

	assert.Equal(t, 4, c.TotalItems())
	assert.Equal(t, 2, c.LineCount())
	assert.Equal(t, []order.ItemRequest{
		{DishID: 1, Quantity: 2},
		{DishID: 2, Quantity: 2},
	}, c.OrderItems())
}

func TestCart_InvariantsUnderMixedOperations(t *testing.T) {
	c := New()
	ops := []func(){
		func() { c.Add(newTestDish(1, "A")) },
		func() { c.Add(newTestDish(2, "B")) },
		func() { c.Decrement(1) },
		func() { c.Decrement(1) },
		func() { c.UpdateQuantity(2, 7) },
		func() { c.Add(newTestDish(3, "C")) },
		func() { c.UpdateQuantity(3, -1) },
		func() { c.Increment(2) },
		func() { c.Remove(5) },
		func() { c.Add(newTestDish(1, "A")) },
	}

	for _, op := range ops {
		op()
		requireInvariants(t, c)
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 8}, quantities(c))
	assert.Equal(t, []order.ItemRequest{{DishID: 2, Quantity: 8}, {DishID: 1, Quantity: 1}}, c.OrderItems())
}

func TestCart_ConcurrentAdds(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(newTestDish(int64(i%5), "dish"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, c.LineCount())
	assert.Equal(t, 50, c.TotalItems())
	requireInvariants(t, c)
}

func TestCart_Settle(t *testing.T) {
	c := New()
	c.Add(dish.Dish{ID: 1, Name: "Pho"})
	c.Add(dish.Dish{ID: 1, Name: "Pho"})
	c.Add(dish.Dish{ID: 2, Name: "Soup"})
	submitted := c.OrderItems()

	// Changes made after the projection.
	c.Add(dish.Dish{ID: 1, Name: "Pho"})
	c.Add(dish.Dish{ID: 3, Name: "Tea"})

	c.Settle(submitted)

	assert.Equal(t, []order.ItemRequest{{DishID: 1, Quantity: 1}, {DishID: 3, Quantity: 1}}, c.OrderItems())
	requireInvariants(t, c)
}

func TestCart_SettleLoweredLine(t *testing.T) {
	c := New()
	c.Add(dish.Dish{ID: 1})
	c.Add(dish.Dish{ID: 1})
	submitted := c.OrderItems()
	c.Decrement(1)

	c.Settle(submitted)

	assert.True(t, c.IsEmpty())
	requireInvariants(t, c)
}
