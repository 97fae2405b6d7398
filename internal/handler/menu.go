package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/wire"
)

// getMenu accepts a repeatable ?category= filter.
func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	var categories []string
	for _, c := range r.URL.Query()["category"] {
		if c != "" {
			categories = append(categories, c)
		}
	}
	m, err := h.ordering.Menu(r.Context(), categories...)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenu(e, m) })
}

func (h *Handler) getDish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	d, err := h.backend.GetDish(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeDish(e, *d) })
}
