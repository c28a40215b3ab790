package server

import "fmt"

// StartError indicates a tool server failed to reach readiness within its
// start timeout. It is fatal to any invocation depending on the server and
// is never retried by the engine.
type StartError struct {
	Server string
	Err    error
}

// Error returns a formatted message including the server name.
func (e *StartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("server: %s failed to start: %v", e.Server, e.Err)
	}
	return fmt.Sprintf("server: %s failed to start", e.Server)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *StartError) Unwrap() error {
	return e.Err
}

// ErrStopped is returned when an operation is attempted on a stopped handle.
type ErrStopped struct {
	Server string
}

// Error returns a formatted message including the server name.
func (e *ErrStopped) Error() string {
	return fmt.Sprintf("server: %s is stopped", e.Server)
}
