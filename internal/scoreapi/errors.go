package scoreapi

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that expect exactly one entity and
// receive an empty list.
var ErrNotFound = errors.New("not found")

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP error! status: %d", e.Method, e.URL, e.Status)
}

// DecodeError is a 2xx response whose body is not the JSON the client
// expected. The server did handle the request.
type DecodeError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decoding %d response: %v", e.Method, e.URL, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusOf reports the upstream status code carried by err, if any.
func StatusOf(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status, true
	}
	return 0, false
}
