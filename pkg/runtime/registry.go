package runtime

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/wizard/pkg/document"
)

// StepHandler resolves one value or action definition against the
// current bag. Implementations are registered per type tag; the engine
// performs no validation beyond dispatch, so callers can plug in custom
// handlers without touching the engine.
type StepHandler interface {
	RunStep(ctx context.Context, def *document.Map, bag *Bag) (any, error)
}

// HandlerFunc adapts a function to the StepHandler interface.
type HandlerFunc func(ctx context.Context, def *document.Map, bag *Bag) (any, error)

// RunStep implements StepHandler.
func (f HandlerFunc) RunStep(ctx context.Context, def *document.Map, bag *Bag) (any, error) {
	return f(ctx, def, bag)
}

// Registry maps type tags to their handlers.
type Registry struct {
	handlers map[string]StepHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]StepHandler{}}
}

// Register binds a handler to a type tag, replacing any previous one.
func (r *Registry) Register(tag string, handler StepHandler) {
	r.handlers[tag] = handler
}

// resolve returns the handler for a tag, or a SchemaError naming the
// step the unknown tag appeared in.
func (r *Registry) resolve(step, tag string) (StepHandler, error) {
	handler, ok := r.handlers[tag]
	if !ok {
		return nil, &SchemaError{Step: step, Detail: fmt.Sprintf("unknown type tag %q", tag)}
	}
	return handler, nil
}
