package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/cart"
	"github.com/xenking/canteen/internal/wire"
)

func writeCart(w http.ResponseWriter, c *cart.Cart) {
	lines := c.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, lines) })
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, sessionFrom(r.Context()).Cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r.Context()).Cart
	c.Clear()
	writeCart(w, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var dishID int64
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "dish_id" {
			return d.Skip()
		}
		v, err := decodeInt(d, key)
		dishID = int64(v)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if dishID <= 0 {
		respondError(w, r, invalid("dish_id must be a positive integer"))
		return
	}

	c := sessionFrom(r.Context()).Cart
	if _, err := h.ordering.AddDish(r.Context(), c, dishID); err != nil {
		respondError(w, r, err)
		return
	}
	writeCart(w, c)
}

// setQuantity sets a line's quantity; zero or negative removes the line.
func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var (
		quantity int
		seen     bool
	)
	err = decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		seen = true
		v, err := decodeInt(d, key)
		quantity = v
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !seen {
		respondError(w, r, invalid("quantity is required"))
		return
	}

	c := sessionFrom(r.Context()).Cart
	c.UpdateQuantity(id, quantity)
	writeCart(w, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.withLine(w, r, (*cart.Cart).Remove)
}

func (h *Handler) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.withLine(w, r, (*cart.Cart).Increment)
}

func (h *Handler) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.withLine(w, r, (*cart.Cart).Decrement)
}

func (h *Handler) withLine(w http.ResponseWriter, r *http.Request, op func(*cart.Cart, int64)) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	c := sessionFrom(r.Context()).Cart
	op(c, id)
	writeCart(w, c)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var note string
	err := decodeOptionalBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "note" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		v, err := d.Str()
		note = v
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	o, err := h.ordering.Checkout(r.Context(), sessionFrom(r.Context()).Cart, note)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}
