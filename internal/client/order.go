package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/wire"
)

// DefaultOrderLimit is the page size used when ListOrders gets limit <= 0.
const DefaultOrderLimit = 20

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}

// CreateOrder submits a cart projection and returns the created order with
// its ID and initial status.
func (c *Client) CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	return c.orderCall(ctx, request{
		op:     "CreateOrder",
		method: http.MethodPost,
		path:   "/orders",
		body:   func(e *jx.Encoder) { wire.EncodeCreateOrder(e, req) },
	})
}

// ListOrders returns up to limit recent orders in the order the backend
// sends them (most recent first).
func (c *Client) ListOrders(ctx context.Context, limit int) ([]order.Order, error) {
	if limit <= 0 {
		limit = DefaultOrderLimit
	}

	var out []order.Order
	err := c.do(ctx, request{
		op:     "ListOrders",
		method: http.MethodGet,
		path:   "/orders",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
	}, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeOrders(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetActiveOrder returns the order currently in progress. When there is none
// it returns nil and no error.
func (c *Client) GetActiveOrder(ctx context.Context) (*order.Order, error) {
	o, err := c.orderCall(ctx, request{
		op:     "GetActiveOrder",
		method: http.MethodGet,
		path:   "/orders/active",
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return o, err
}

// GetOrder returns a single order.
func (c *Client) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	return c.orderCall(ctx, request{
		op:     "GetOrder",
		method: http.MethodGet,
		path:   orderPath(id),
	})
}

// UpdateOrderStatus sets the status of an order and returns the updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error) {
	return c.orderCall(ctx, request{
		op:     "UpdateOrderStatus",
		method: http.MethodPatch,
		path:   orderPath(id) + "/status",
		body:   func(e *jx.Encoder) { wire.EncodeStatusUpdate(e, status) },
	})
}

func (c *Client) orderCall(ctx context.Context, req request) (*order.Order, error) {
	var out *order.Order
	err := c.do(ctx, req, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeOrder(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
