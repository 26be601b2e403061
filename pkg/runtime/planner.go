package runtime

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/wizard/pkg/schema"
)

// Planner walks the plan graph, resolving each step's values into the
// bag and following next_step transitions until it reaches DONE.
type Planner struct {
	registry *Registry
}

// NewPlanner creates a planner over the given handler registry.
func NewPlanner(registry *Registry) *Planner {
	return &Planner{registry: registry}
}

// Run plans the graph from its first declared step with a fresh bag and
// returns the bag at DONE.
func (p *Planner) Run(ctx context.Context, graph *schema.PlanGraph) (*Bag, error) {
	bag := NewBag()
	if err := p.RunWith(ctx, graph, bag); err != nil {
		return nil, err
	}
	return bag, nil
}

// RunWith plans the graph into an existing bag, so callers can seed
// variables before planning starts. The bag keeps every binding made up
// to the point of failure.
func (p *Planner) RunWith(ctx context.Context, graph *schema.PlanGraph, bag *Bag) error {
	step := graph.First()
	if step == nil {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.resolveValues(ctx, step, bag); err != nil {
			return err
		}
		next, err := p.nextStep(step, bag)
		if err != nil {
			return err
		}
		if next == schema.DoneStep {
			return nil
		}
		target, ok := graph.Step(next)
		if !ok {
			return &SchemaError{Step: step.Name,
				Detail: fmt.Sprintf("next_step target %q is not a declared step", next)}
		}
		step = target
	}
}

// resolveValues runs the step's value specs in declaration order,
// binding each result into the bag as soon as it resolves so later
// values in the same step can reference it.
func (p *Planner) resolveValues(ctx context.Context, step *schema.StepGroup, bag *Bag) error {
	for _, decl := range step.Values {
		tag, ok := decl.Spec.String("type")
		if !ok {
			return &SchemaError{Step: step.Name,
				Detail: fmt.Sprintf("value %q is missing its 'type' tag", decl.Name)}
		}
		handler, err := p.registry.resolve(step.Name, tag)
		if err != nil {
			return err
		}
		result, err := handler.RunStep(ctx, decl.Spec, bag)
		if err != nil {
			return fmt.Errorf("step %s, value %s: %w", step.Name, decl.Name, err)
		}
		bag.Set(decl.Name, result)
	}
	return nil
}

// nextStep selects the transition target. Absent next_step is DONE; a
// switch reads the named variable (unbound compares as null) and looks
// its rendered value up in the case mapping, failing on a miss.
func (p *Planner) nextStep(step *schema.StepGroup, bag *Bag) (string, error) {
	rule := step.Next
	if rule == nil {
		return schema.DoneStep, nil
	}
	if rule.Target != "" {
		return rule.Target, nil
	}

	key := formatValue(bag.Value(rule.Switch))
	target, ok := rule.Cases.Get(key)
	if !ok {
		return "", &SchemaError{Step: step.Name,
			Detail: fmt.Sprintf("switch on %q: no case matches %q", rule.Switch, key)}
	}
	name, ok := target.(string)
	if !ok {
		return "", &SchemaError{Step: step.Name,
			Detail: fmt.Sprintf("switch case %q must name a step", key)}
	}
	return name, nil
}
