package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/domain/order"
	"github.com/xenking/canteen/internal/wire"
)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(w, r, invalid("invalid limit %q", raw))
			return
		}
		limit = v
	}

	orders, err := h.backend.ListOrders(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrders(e, orders) })
}

// getActiveOrder answers 204 when nothing is in progress.
func (h *Handler) getActiveOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.backend.GetActiveOrder(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if o == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	o, err := h.backend.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var raw string
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		if d.Next() != jx.String {
			return invalid("status must be a string")
		}
		v, err := d.Str()
		raw = v
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	status, err := order.ParseStatus(raw)
	if err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.backend.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}
