package bus

import (
	"errors"
	"fmt"
)

// Bus errors.
var (
	// ErrNameTaken indicates the endpoint name is already registered.
	ErrNameTaken = errors.New("bus: endpoint name taken")

	// ErrEndpointNotFound indicates no endpoint is registered under the name.
	ErrEndpointNotFound = errors.New("bus: endpoint not found")

	// ErrRemoteHandler indicates the endpoint's handler failed.
	ErrRemoteHandler = errors.New("bus: remote handler failed")

	// ErrHandlerPanic indicates the endpoint's handler panicked.
	ErrHandlerPanic = errors.New("bus: remote handler panic")

	// ErrInvokeTimeout indicates the caller stopped waiting for the handler.
	ErrInvokeTimeout = errors.New("bus: invoke timed out")

	// ErrInvalidEndpoint indicates an empty name or nil handler.
	ErrInvalidEndpoint = errors.New("bus: invalid endpoint")
)

// RemoteError reports a failure raised by an endpoint's handler.
type RemoteError struct {
	Name string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bus: endpoint %q: %v", e.Name, e.Err)
}

// Unwrap exposes both ErrRemoteHandler and the handler's own error.
func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteHandler, e.Err}
}
