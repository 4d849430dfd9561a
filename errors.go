package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrRouteNotFound is reported when no route matches and no fallback answered.
	ErrRouteNotFound = errors.New("relay: route not found")

	// ErrResponseAlreadySent is returned by every write after End.
	ErrResponseAlreadySent = errors.New("relay: response already sent")

	// ErrPathTraversal is returned by StaticLookup for paths outside the static root.
	ErrPathTraversal = errors.New("relay: path escapes static root")

	// ErrRequestTimeout is the cancellation cause of a request that ran out of time.
	ErrRequestTimeout = errors.New("relay: request timed out")

	// ErrContinuationUsed is returned when a stage calls Next or Fail twice.
	ErrContinuationUsed = errors.New("relay: continuation already used")

	// ErrRoutesFrozen is returned when registering after the engine started serving.
	ErrRoutesFrozen = errors.New("relay: routes are frozen once serving starts")

	// ErrInvalidHeader is returned by SetHeader for malformed names or values.
	ErrInvalidHeader = errors.New("relay: invalid header")
)

// DuplicateRouteError reports a second registration of the same method and pattern.
type DuplicateRouteError struct {
	Method  string
	Pattern string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("relay: route %s %s already registered", e.Method, e.Pattern)
}

// PatternError reports a route pattern that cannot be compiled.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("relay: invalid pattern %q: %s", e.Pattern, e.Reason)
}

// HandlerError wraps a panic raised by a middleware or handler.
type HandlerError struct {
	Value any
	Stack []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("relay: handler panic: %v", e.Value)
}

// Unwrap returns the panic value when it was itself an error.
func (e *HandlerError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
