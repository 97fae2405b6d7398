package order

import (
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidStatus is returned by ParseStatus for an unknown status value.
var ErrInvalidStatus = errors.New("invalid order status")

// Status is the kitchen-side lifecycle of an order. Transitions are driven by
// the backend; the client only observes them or requests one explicitly.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusCooking   Status = "cooking"
	StatusCompleted Status = "completed"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusCooking, StatusCompleted}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
}

// Active reports whether the order is still in progress.
func (s Status) Active() bool {
	return s != StatusCompleted
}

func (s Status) String() string { return string(s) }

// Order is a backend-tracked order created from a cart projection.
type Order struct {
	ID         int64
	OrderTime  time.Time
	Status     Status
	Note       string
	TotalItems int
	Items      []Item
}

// Item is one line of a placed order. DishName is the backend's snapshot of
// the dish name at order time; DishID is zero when the dish was deleted.
type Item struct {
	ID       int64
	OrderID  int64
	DishID   int64
	DishName string
	Quantity int
}

// ItemRequest is one line of the projection sent on order creation.
type ItemRequest struct {
	DishID   int64
	Quantity int
}

// CreateRequest is the order submission payload.
type CreateRequest struct {
	Items []ItemRequest
	Note  string
}

// TotalQuantity sums the requested quantities.
func (r CreateRequest) TotalQuantity() int {
	var n int
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}
