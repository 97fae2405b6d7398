package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/wire"
)

func dishPath(id int64) string {
	return "/dishes/" + strconv.FormatInt(id, 10)
}

// ListDishes returns the dishes matching f. The category parameter is sent
// only when set; available_only is always sent.
func (c *Client) ListDishes(ctx context.Context, f dish.Filter) ([]dish.Dish, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	q.Set("available_only", strconv.FormatBool(f.AvailableOnly))

	var out []dish.Dish
	err := c.do(ctx, request{
		op:     "ListDishes",
		method: http.MethodGet,
		path:   "/dishes",
		query:  q,
	}, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeDishes(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDish returns a single dish. A missing dish yields an error matching
// ErrNotFound.
func (c *Client) GetDish(ctx context.Context, id int64) (*dish.Dish, error) {
	return c.dishCall(ctx, request{
		op:     "GetDish",
		method: http.MethodGet,
		path:   dishPath(id),
	})
}

// CreateDish creates a dish and returns it with its assigned ID.
func (c *Client) CreateDish(ctx context.Context, in dish.Input) (*dish.Dish, error) {
	return c.dishCall(ctx, request{
		op:     "CreateDish",
		method: http.MethodPost,
		path:   "/dishes",
		body:   func(e *jx.Encoder) { wire.EncodeDishInput(e, in) },
	})
}

// UpdateDish applies a partial update and returns the updated dish. An
// update that sets no field fails with ErrEmptyUpdate.
func (c *Client) UpdateDish(ctx context.Context, id int64, upd dish.Update) (*dish.Dish, error) {
	if upd.IsZero() {
		return nil, errors.Wrapf(ErrEmptyUpdate, "UpdateDish %d", id)
	}
	return c.dishCall(ctx, request{
		op:     "UpdateDish",
		method: http.MethodPut,
		path:   dishPath(id),
		body:   func(e *jx.Encoder) { wire.EncodeDishUpdate(e, upd) },
	})
}

func (c *Client) dishCall(ctx context.Context, req request) (*dish.Dish, error) {
	var out dish.Dish
	err := c.do(ctx, req, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeDish(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
