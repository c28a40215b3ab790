package registry

import "fmt"

// ErrToolNotFound is returned when a dispatch names a tool not resolvable in
// the registry (stale or hallucinated name). It is fatal for the invocation
// that produced it.
type ErrToolNotFound struct {
	Name string
}

// Error returns a formatted error message including the tool name.
func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("registry: tool not found: %s", e.Name)
}

// ErrListTools wraps a failure to fetch a server's tool list during Build.
type ErrListTools struct {
	Server string
	Err    error
}

// Error returns a formatted error message including the server name and cause.
func (e *ErrListTools) Error() string {
	return fmt.Sprintf("registry: list tools from %s: %v", e.Server, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrListTools) Unwrap() error {
	return e.Err
}
