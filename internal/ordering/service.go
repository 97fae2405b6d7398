// Package ordering combines the cart with backend calls: building the menu,
// adding dishes, checking out and following an order until it is served.
package ordering

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/canteen/internal/cart"
	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrDishUnavailable    = errors.New("dish is not available")
)

// Backend is the subset of the API client the service needs.
type Backend interface {
	ListDishes(ctx context.Context, f dish.Filter) ([]dish.Dish, error)
	GetDish(ctx context.Context, id int64) (*dish.Dish, error)
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
}

// Service is safe for concurrent use.
type Service struct {
	backend Backend

	mu       sync.Mutex
	checking map[*cart.Cart]struct{}
}

// NewService returns a Service calling backend.
func NewService(backend Backend) *Service {
	return &Service{
		backend:  backend,
		checking: make(map[*cart.Cart]struct{}),
	}
}

// Category is one menu section.
type Category struct {
	Name   string
	Dishes []dish.Dish
}

// Menu is the available dishes grouped by category, categories sorted by
// name.
type Menu struct {
	Categories []Category
}

// Len returns the number of dishes on the menu.
func (m Menu) Len() (n int) {
	for _, c := range m.Categories {
		n += len(c.Dishes)
	}
	return n
}

// Menu lists available dishes. With categories given, each one is fetched
// concurrently and the results are merged.
func (s *Service) Menu(ctx context.Context, categories ...string) (Menu, error) {
	categories = slices.Compact(slices.Sorted(slices.Values(categories)))

	var dishes []dish.Dish
	if len(categories) == 0 {
		all, err := s.backend.ListDishes(ctx, dish.DefaultFilter())
		if err != nil {
			return Menu{}, errors.Wrap(err, "list dishes")
		}
		dishes = all
	} else {
		parts := make([][]dish.Dish, len(categories))
		g, gctx := errgroup.WithContext(ctx)
		for i, category := range categories {
			g.Go(func() error {
				f := dish.DefaultFilter()
				f.Category = category
				list, err := s.backend.ListDishes(gctx, f)
				if err != nil {
					return errors.Wrapf(err, "list %q dishes", category)
				}
				parts[i] = list
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Menu{}, err
		}
		dishes = slices.Concat(parts...)
	}
	return groupMenu(dishes), nil
}

func groupMenu(dishes []dish.Dish) Menu {
	byName := make(map[string]int)
	var m Menu
	for _, d := range dishes {
		i, ok := byName[d.Category]
		if !ok {
			i = len(m.Categories)
			byName[d.Category] = i
			m.Categories = append(m.Categories, Category{Name: d.Category})
		}
		m.Categories[i].Dishes = append(m.Categories[i].Dishes, d)
	}
	slices.SortStableFunc(m.Categories, func(a, b Category) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return m
}

// AddDish fetches the dish and adds it to c. Unavailable dishes are rejected
// and leave c untouched.
func (s *Service) AddDish(ctx context.Context, c *cart.Cart, dishID int64) (*dish.Dish, error) {
	d, err := s.backend.GetDish(ctx, dishID)
	if err != nil {
		return nil, errors.Wrap(err, "get dish")
	}
	if !d.IsAvailable {
		return nil, errors.Wrapf(ErrDishUnavailable, "dish %d", dishID)
	}
	c.Add(*d)
	return d, nil
}

// Checkout submits the cart as a new order and, once the backend has accepted
// it, removes the submitted quantities from the cart. Changes made while the
// order was in flight survive. On any failure the cart keeps its lines. Only one
// checkout per cart can be in flight.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, note string) (*order.Order, error) {
	if !s.begin(c) {
		return nil, ErrCheckoutInProgress
	}
	defer s.end(c)

	items := c.OrderItems()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o, err := s.backend.CreateOrder(ctx, order.CreateRequest{Items: items, Note: note})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	c.Settle(items)

	zctx.From(ctx).Info("Order placed",
		zap.Int64("order_id", o.ID),
		zap.Int("total_items", o.TotalItems),
	)
	return o, nil
}

func (s *Service) begin(c *cart.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.checking[c]; busy {
		return false
	}
	s.checking[c] = struct{}{}
	return true
}

func (s *Service) end(c *cart.Cart) {
	s.mu.Lock()
	delete(s.checking, c)
	s.mu.Unlock()
}

// Watch polls the order every interval and calls fn on the first observation
// and on every status change. It returns the completed order, or the last
// observed one together with the error that stopped polling.
func (s *Service) Watch(ctx context.Context, orderID int64, interval time.Duration, fn func(*order.Order)) (*order.Order, error) {
	if interval <= 0 {
		return nil, errors.Errorf("invalid poll interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *order.Order
	for {
		o, err := s.backend.GetOrder(ctx, orderID)
		if err != nil {
			return last, errors.Wrap(err, "get order")
		}
		if last == nil || last.Status != o.Status {
			if fn != nil {
				fn(o)
			}
		}
		last = o
		if o.Status == order.StatusCompleted {
			return o, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
