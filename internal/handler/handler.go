// Package handler exposes the cart and ordering flow over HTTP for a browser
// front end. Every visitor gets a session cookie that owns one cart.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/ordering"
	"github.com/xenking/canteen/internal/session"
)

// DefaultCookieName names the session cookie when Config leaves it empty.
const DefaultCookieName = "canteen_session"

// Backend is the part of the API client used directly by the handlers.
type Backend interface {
	GetDish(ctx context.Context, id int64) (*dish.Dish, error)
	ListOrders(ctx context.Context, limit int) ([]order.Order, error)
	GetActiveOrder(ctx context.Context) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error)
}

// Config holds non-dependency handler settings.
type Config struct {
	CookieName string
	// CookieTTL sets the cookie Max-Age; 0 makes it a browser session cookie.
	CookieTTL    time.Duration
	SecureCookie bool
}

// Handler serves the /api routes.
type Handler struct {
	backend  Backend
	ordering *ordering.Service
	sessions *session.Store
	cfg      Config
}

// NewHandler wires the handlers to their dependencies. An empty
// cfg.CookieName falls back to DefaultCookieName.
func NewHandler(cfg Config, backend Backend, svc *ordering.Service, sessions *session.Store) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Handler{
		backend:  backend,
		ordering: svc,
		sessions: sessions,
		cfg:      cfg,
	}
}

// Routes returns the router with every endpoint mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.getMenu)
		r.Get("/dishes/{id}", h.getDish)

		r.Route("/cart", func(r chi.Router) {
			r.Use(h.withSession)
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addItem)
			r.Put("/items/{id}", h.setQuantity)
			r.Delete("/items/{id}", h.removeItem)
			r.Post("/items/{id}/increment", h.incrementItem)
			r.Post("/items/{id}/decrement", h.decrementItem)
			r.Post("/checkout", h.checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Get("/active", h.getActiveOrder)
			r.Get("/{id}", h.getOrder)
			r.Patch("/{id}/status", h.updateOrderStatus)
		})
	})
	return r
}
