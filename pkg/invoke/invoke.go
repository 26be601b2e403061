// Package invoke defines the remote-call capability consumed by apicall
// steps and actions, plus a JSON-RPC subprocess invoker for wiring real
// service backends in.
package invoke

import (
	"context"
	"fmt"
)

// Invoker performs a named operation against a named service and returns
// the raw structured response.
type Invoker interface {
	Invoke(ctx context.Context, service, operation string, params map[string]any) (any, error)
}

// RemoteOperationError wraps a failure from an Invoker with the service
// and operation that failed, so callers can report which remote call
// broke without unwrapping transport details.
type RemoteOperationError struct {
	Service   string
	Operation string
	Err       error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("remote operation %s.%s: %v", e.Service, e.Operation, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

// Func adapts a plain function to the Invoker interface. Useful for tests
// and for embedding small in-process backends.
type Func func(ctx context.Context, service, operation string, params map[string]any) (any, error)

// Invoke implements Invoker.
func (f Func) Invoke(ctx context.Context, service, operation string, params map[string]any) (any, error) {
	return f(ctx, service, operation, params)
}
