package console

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hkpass/console/internal/scoreapi"
	"github.com/hkpass/console/internal/store"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a precondition failure caught before any request is
// sent. Message is meant for the operator.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ActionError reports which step of a multi-step action failed. Result
// holds every step's outcome, including compensations.
type ActionError struct {
	Kind   string
	Seq    int
	Err    error
	Result ActionResult
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s failed at step %d: %v", e.Kind, e.Seq, e.Err)
	if e.Result.Status == store.StatusCompensated {
		msg += " (earlier steps rolled back)"
	}
	return msg
}

func (e *ActionError) Unwrap() error { return e.Err }

func isUpstreamNotFound(err error) bool {
	if errors.Is(err, scoreapi.ErrNotFound) {
		return true
	}
	status, ok := scoreapi.StatusOf(err)
	return ok && status == http.StatusNotFound
}
