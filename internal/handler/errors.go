package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/canteen/internal/client"
	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/ordering"
	"github.com/xenking/canteen/pkg/httpmiddleware"
)

// badRequest marks client input errors.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: errors.Errorf(format, args...).Error()}
}

func writeError(w http.ResponseWriter, code int, message string) {
	httpmiddleware.WriteError(w, code, message)
}

// respondError maps err to a status code. Backend 4xx answers are relayed
// with their detail, backend 5xx and transport failures become 502.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := classify(err)
	lg := zctx.From(r.Context())
	if code >= http.StatusInternalServerError {
		lg.Warn("Request failed", zap.Error(err), zap.Int("status", code))
	} else {
		lg.Debug("Request rejected", zap.Error(err), zap.Int("status", code))
	}
	writeError(w, code, message)
}

func classify(err error) (int, string) {
	var (
		bad       *badRequest
		server    *client.ServerError
		transport *client.TransportError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, bad.msg
	case errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ordering.ErrEmptyCart):
		return http.StatusUnprocessableEntity, ordering.ErrEmptyCart.Error()
	case errors.Is(err, ordering.ErrDishUnavailable):
		return http.StatusUnprocessableEntity, ordering.ErrDishUnavailable.Error()
	case errors.Is(err, ordering.ErrCheckoutInProgress):
		return http.StatusConflict, ordering.ErrCheckoutInProgress.Error()
	case errors.As(err, &server):
		if server.StatusCode >= 400 && server.StatusCode < 500 {
			return server.StatusCode, server.Detail()
		}
		return http.StatusBadGateway, "backend error"
	case errors.As(err, &transport):
		return http.StatusBadGateway, "backend unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
