package client

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// ErrNotFound matches a *ServerError carrying 404 Not Found.
var ErrNotFound = errors.New("not found")

// ErrEmptyUpdate is returned by UpdateDish for an update with no fields set.
// No request is sent.
var ErrEmptyUpdate = errors.New("empty dish update")

// TransportError reports a request that never produced an HTTP response, or
// whose response body could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response. Body is the raw response body.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: backend responded %d: %s", e.Op, e.StatusCode, e.Detail())
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Detail extracts the human readable message from the body. The backend
// reports errors as {"detail": ...}; anything else is returned verbatim.
func (e *ServerError) Detail() string {
	var detail string
	err := jx.DecodeStr(e.Body).Obj(func(d *jx.Decoder, key string) error {
		if key != "detail" || d.Next() != jx.String {
			return d.Skip()
		}
		var err error
		detail, err = d.Str()
		return err
	})
	if err != nil || detail == "" {
		return e.Body
	}
	return detail
}
