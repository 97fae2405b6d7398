package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/cart"
	"github.com/xenking/canteen/internal/ordering"
	"github.com/xenking/canteen/internal/wire"
)

// maxBodySize bounds request bodies; every request payload is a tiny object.
const maxBodySize = 64 << 10

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

// decodeBody reads a JSON object, calling field for every key.
func decodeBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 512)
	if err := d.Obj(field); err != nil {
		var bad *badRequest
		if errors.As(err, &bad) {
			return bad
		}
		return invalid("invalid request body: %v", err)
	}
	return nil
}

// decodeOptionalBody is decodeBody for endpoints whose body may be omitted.
// An empty or whitespace-only body leaves every field unset, whatever the
// Content-Length says.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	if r.Body == nil {
		return nil
	}
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return invalid("invalid request body: %v", err)
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}
	if err := jx.DecodeBytes(buf).Obj(field); err != nil {
		var bad *badRequest
		if errors.As(err, &bad) {
			return bad
		}
		return invalid("invalid request body: %v", err)
	}
	return nil
}

// decodeInt accepts only JSON integers.
func decodeInt(d *jx.Decoder, key string) (int, error) {
	if d.Next() != jx.Number {
		return 0, invalid("%s must be an integer", key)
	}
	n, err := d.Num()
	if err != nil {
		return 0, invalid("%s must be an integer", key)
	}
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, invalid("%s must be an integer", key)
	}
	return v, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("invalid id %q", raw)
	}
	return id, nil
}

// encodeCart writes {items, total_items, line_count, is_empty} from a single
// snapshot so the totals always agree with the items.
func encodeCart(e *jx.Encoder, lines []cart.Line) {
	total := 0
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range lines {
		total += l.Quantity
		e.ObjStart()
		e.FieldStart("dish")
		wire.EncodeDish(e, l.Dish)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total_items")
	e.Int(total)
	e.FieldStart("line_count")
	e.Int(len(lines))
	e.FieldStart("is_empty")
	e.Bool(len(lines) == 0)
	e.ObjEnd()
}

func encodeMenu(e *jx.Encoder, m ordering.Menu) {
	e.ObjStart()
	e.FieldStart("categories")
	e.ArrStart()
	for _, c := range m.Categories {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("dishes")
		wire.EncodeDishes(e, c.Dishes)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Int(m.Len())
	e.ObjEnd()
}
