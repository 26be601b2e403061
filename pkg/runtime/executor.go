package runtime

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/wizard/pkg/document"
	"github.com/ormasoftchile/wizard/pkg/query"
	"github.com/ormasoftchile/wizard/pkg/schema"
)

// Executor runs an execute plan's action groups against a bag. Groups
// run unconditionally in declaration order; only individual actions can
// be skipped, via their condition.
type Executor struct {
	registry *Registry
}

// NewExecutor creates an executor over the given handler registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

// Run executes every group in order. A failing action stops the run
// immediately; the bag keeps all bindings made so far, and no pending
// action is attempted.
func (e *Executor) Run(ctx context.Context, plan *schema.ExecutePlan, bag *Bag) error {
	for _, group := range plan.Groups() {
		for i, action := range group.Actions {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.runAction(ctx, group.Name, i, action, bag); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Executor) runAction(ctx context.Context, group string, index int, action *schema.Action, bag *Bag) error {
	// A false condition skips the action entirely: no expansion, no
	// dispatch, no output binding.
	if action.Condition != nil && !EvaluateCondition(action.Condition, bag) {
		return nil
	}

	where := fmt.Sprintf("%s[%d]", group, index)
	handler, err := e.registry.resolve(where, action.Type)
	if err != nil {
		return err
	}
	result, err := handler.RunStep(ctx, action.Definition, bag)
	if err != nil {
		return fmt.Errorf("action %s: %w", where, err)
	}

	if action.OutputVar == "" {
		return nil
	}
	if action.Query != "" {
		projected, err := query.Search(action.Query, result)
		if err != nil {
			return fmt.Errorf("action %s: project %q: %w", where, action.Query, err)
		}
		result = document.FromPlain(projected)
	}
	bag.Set(action.OutputVar, result)
	return nil
}
