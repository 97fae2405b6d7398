// Package wire encodes and decodes the JSON representation of dishes and
// orders shared by the backend API and the cart server.
package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/canteen/internal/domain/dish"
	"github.com/xenking/canteen/internal/domain/order"
)

// naiveTimeLayout matches timestamps the backend emits without a zone.
const naiveTimeLayout = "2006-01-02T15:04:05.999999999"

// ParseTime accepts RFC 3339 and zone-less ISO 8601 timestamps. Zone-less
// values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

func fieldErr(key string, err error) error {
	if err != nil {
		return errors.Wrapf(err, "field %q", key)
	}
	return nil
}

func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func optInt64(d *jx.Decoder) (int64, error) {
	if d.Next() == jx.Null {
		return 0, d.Null()
	}
	return d.Int64()
}

// DecodeDish reads a single dish object.
func DecodeDish(d *jx.Decoder) (dish.Dish, error) {
	var (
		out dish.Dish
		err error
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			out.ID, err = d.Int64()
		case "name":
			out.Name, err = d.Str()
		case "category":
			out.Category, err = d.Str()
		case "image_url":
			out.ImageURL, err = optStr(d)
		case "tags":
			out.Tags, err = optStr(d)
		case "rating":
			out.Rating, err = d.Int()
		case "is_available":
			out.IsAvailable, err = d.Bool()
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	}); err != nil {
		return dish.Dish{}, errors.Wrap(err, "decode dish")
	}
	return out, nil
}

// DecodeDishes reads an array of dishes.
func DecodeDishes(d *jx.Decoder) ([]dish.Dish, error) {
	out := []dish.Dish{}
	if err := d.Arr(func(d *jx.Decoder) error {
		v, err := DecodeDish(d)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode dishes")
	}
	return out, nil
}

// EncodeDish writes a dish object. Empty optional fields are written as null.
func EncodeDish(e *jx.Encoder, v dish.Dish) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(v.ID)
	e.FieldStart("name")
	e.Str(v.Name)
	e.FieldStart("category")
	e.Str(v.Category)
	e.FieldStart("image_url")
	encodeOptStr(e, v.ImageURL)
	e.FieldStart("tags")
	encodeOptStr(e, v.Tags)
	e.FieldStart("rating")
	e.Int(v.Rating)
	e.FieldStart("is_available")
	e.Bool(v.IsAvailable)
	e.ObjEnd()
}

// EncodeDishes writes an array of dishes.
func EncodeDishes(e *jx.Encoder, v []dish.Dish) {
	e.ArrStart()
	for _, d := range v {
		EncodeDish(e, d)
	}
	e.ArrEnd()
}

func encodeOptStr(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

// EncodeDishInput writes a dish creation body.
func EncodeDishInput(e *jx.Encoder, v dish.Input) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(v.Name)
	e.FieldStart("category")
	e.Str(v.Category)
	if v.ImageURL != "" {
		e.FieldStart("image_url")
		e.Str(v.ImageURL)
	}
	if v.Tags != "" {
		e.FieldStart("tags")
		e.Str(v.Tags)
	}
	e.FieldStart("rating")
	e.Int(v.Rating)
	e.FieldStart("is_available")
	e.Bool(v.IsAvailable)
	e.ObjEnd()
}

// DecodeDishInputs reads an array of dish definitions, as used by menu seed
// files. Missing rating and is_available take the backend defaults.
func DecodeDishInputs(d *jx.Decoder) ([]dish.Input, error) {
	out := []dish.Input{}
	err := d.Arr(func(d *jx.Decoder) error {
		in := dish.NewInput("", "")
		if err := d.Obj(func(d *jx.Decoder, key string) (err error) {
			switch key {
			case "name":
				in.Name, err = d.Str()
			case "category":
				in.Category, err = d.Str()
			case "image_url":
				in.ImageURL, err = optStr(d)
			case "tags":
				in.Tags, err = optStr(d)
			case "rating":
				in.Rating, err = d.Int()
			case "is_available":
				in.IsAvailable, err = d.Bool()
			default:
				err = d.Skip()
			}
			return fieldErr(key, err)
		}); err != nil {
			return err
		}
		if in.Name == "" || in.Category == "" {
			return errors.Errorf("dish %d: name and category are required", len(out))
		}
		out = append(out, in)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode dish inputs")
	}
	return out, nil
}

// EncodeDishUpdate writes a partial update body holding only the set fields.
func EncodeDishUpdate(e *jx.Encoder, v dish.Update) {
	e.ObjStart()
	if v.Name != nil {
		e.FieldStart("name")
		e.Str(*v.Name)
	}
	if v.Category != nil {
		e.FieldStart("category")
		e.Str(*v.Category)
	}
	if v.ImageURL != nil {
		e.FieldStart("image_url")
		encodeOptStr(e, *v.ImageURL)
	}
	if v.Tags != nil {
		e.FieldStart("tags")
		encodeOptStr(e, *v.Tags)
	}
	if v.Rating != nil {
		e.FieldStart("rating")
		e.Int(*v.Rating)
	}
	if v.IsAvailable != nil {
		e.FieldStart("is_available")
		e.Bool(*v.IsAvailable)
	}
	e.ObjEnd()
}

// EncodeItemRequests writes the cart projection as [{dish_id, quantity}].
func EncodeItemRequests(e *jx.Encoder, items []order.ItemRequest) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("dish_id")
		e.Int64(it.DishID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// EncodeCreateOrder writes an order creation body.
func EncodeCreateOrder(e *jx.Encoder, v order.CreateRequest) {
	e.ObjStart()
	e.FieldStart("items")
	EncodeItemRequests(e, v.Items)
	if v.Note != "" {
		e.FieldStart("note")
		e.Str(v.Note)
	}
	e.ObjEnd()
}

// EncodeStatusUpdate writes {"status": s}.
func EncodeStatusUpdate(e *jx.Encoder, s order.Status) {
	e.ObjStart()
	e.FieldStart("status")
	e.Str(string(s))
	e.ObjEnd()
}

func decodeOrderItem(d *jx.Decoder) (order.Item, error) {
	var (
		out order.Item
		err error
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			out.ID, err = d.Int64()
		case "order_id":
			out.OrderID, err = d.Int64()
		case "dish_id":
			out.DishID, err = optInt64(d)
		case "dish_name":
			out.DishName, err = d.Str()
		case "quantity":
			out.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	}); err != nil {
		return order.Item{}, errors.Wrap(err, "decode order item")
	}
	return out, nil
}

// DecodeOrder reads a single order object.
func DecodeOrder(d *jx.Decoder) (*order.Order, error) {
	out := &order.Order{Items: []order.Item{}}
	var err error
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			out.ID, err = d.Int64()
		case "order_time":
			var s string
			if s, err = d.Str(); err == nil {
				out.OrderTime, err = ParseTime(s)
			}
		case "status":
			var s string
			s, err = d.Str()
			out.Status = order.Status(s)
		case "note":
			out.Note, err = optStr(d)
		case "total_items":
			out.TotalItems, err = d.Int()
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				it, err := decodeOrderItem(d)
				if err != nil {
					return err
				}
				out.Items = append(out.Items, it)
				return nil
			})
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	}); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return out, nil
}

// DecodeOrders reads an array of orders.
func DecodeOrders(d *jx.Decoder) ([]order.Order, error) {
	out := []order.Order{}
	if err := d.Arr(func(d *jx.Decoder) error {
		o, err := DecodeOrder(d)
		if err != nil {
			return err
		}
		out = append(out, *o)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return out, nil
}

// EncodeOrder writes an order object. OrderTime is written in UTC.
func EncodeOrder(e *jx.Encoder, v order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(v.ID)
	e.FieldStart("order_time")
	e.Str(v.OrderTime.UTC().Format(time.RFC3339Nano))
	e.FieldStart("status")
	e.Str(string(v.Status))
	e.FieldStart("note")
	encodeOptStr(e, v.Note)
	e.FieldStart("total_items")
	e.Int(v.TotalItems)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range v.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(it.ID)
		e.FieldStart("order_id")
		e.Int64(it.OrderID)
		e.FieldStart("dish_id")
		if it.DishID == 0 {
			e.Null()
		} else {
			e.Int64(it.DishID)
		}
		e.FieldStart("dish_name")
		e.Str(it.DishName)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// EncodeOrders writes an array of orders.
func EncodeOrders(e *jx.Encoder, v []order.Order) {
	e.ArrStart()
	for _, o := range v {
		EncodeOrder(e, o)
	}
	e.ArrEnd()
}
