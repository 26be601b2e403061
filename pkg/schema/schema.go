// Package schema defines the typed model for wizard YAML documents and
// provides strict, order-preserving parsing. A wizard document has a plan
// section (a graph of named steps that gather values) and an execute
// section (named groups of actions run with the gathered values).
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/wizard/pkg/document"
)

// DoneStep is the reserved terminal marker for plan transitions. It is not
// a real step name; declaring a step called DONE is a validation error.
const DoneStep = "DONE"

// Wizard is the top-level document.
type Wizard struct {
	Version     string
	Title       string
	Description string
	Plan        *PlanGraph
	Execute     *ExecutePlan

	// raw is the document as parsed, kept for JSON Schema validation.
	raw *document.Map
}

// PlanGraph holds the plan steps in declaration order. The first declared
// step is the entry point.
type PlanGraph struct {
	steps []*StepGroup
	index map[string]int
}

// StepGroup is one named node in the plan graph.
type StepGroup struct {
	Name   string
	Values []ValueDecl
	Next   *NextStepRule
}

// ValueDecl declares a single value to resolve, in declaration order.
// Spec is the full ordered definition including the type tag.
type ValueDecl struct {
	Name string
	Spec *document.Map
}

// NextStepRule selects the step to transition to after a step's values
// resolve. Exactly one of Target or Switch is set: a literal target step
// name, or the name of a variable whose value is looked up in Cases.
type NextStepRule struct {
	Target string
	Switch string
	Cases  *document.Map
}

// ExecutePlan holds the named action groups in declaration order.
type ExecutePlan struct {
	groups []*ActionGroup
}

// ActionGroup is a named, ordered sequence of actions.
type ActionGroup struct {
	Name    string
	Actions []*Action
}

// Action is a single execute-phase operation. Definition carries the full
// ordered action mapping, including type-specific fields such as params.
type Action struct {
	Type       string
	Condition  *Condition
	OutputVar  string
	Query      string
	Definition *document.Map
}

// Condition gates an action on a variable equalling an expected value.
// An absent variable compares as null, so Equals == nil matches both
// "unbound" and "explicitly bound to null".
type Condition struct {
	Variable string
	Equals   any
}

// First returns the entry step. Nil for an empty plan.
func (g *PlanGraph) First() *StepGroup {
	if len(g.steps) == 0 {
		return nil
	}
	return g.steps[0]
}

// Step looks up a step group by name.
func (g *PlanGraph) Step(name string) (*StepGroup, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.steps[i], true
}

// Steps returns the step groups in declaration order.
func (g *PlanGraph) Steps() []*StepGroup {
	return g.steps
}

// Len returns the number of declared steps.
func (g *PlanGraph) Len() int {
	return len(g.steps)
}

// Groups returns the action groups in declaration order.
func (p *ExecutePlan) Groups() []*ActionGroup {
	return p.groups
}

// Len returns the number of declared groups.
func (p *ExecutePlan) Len() int {
	return len(p.groups)
}

// UnmarshalYAML decodes a wizard document, preserving declaration order
// and rejecting unknown top-level and step-level keys.
func (w *Wizard) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := document.DecodeNode(node)
	if err != nil {
		return err
	}
	raw, ok := decoded.(*document.Map)
	if !ok {
		return fmt.Errorf("wizard document must be a mapping")
	}
	return w.fromRaw(raw)
}

func (w *Wizard) fromRaw(raw *document.Map) error {
	w.raw = raw
	for _, key := range raw.Keys() {
		val, _ := raw.Get(key)
		switch key {
		case "version":
			w.Version = scalarString(val)
		case "title":
			w.Title = scalarString(val)
		case "description":
			w.Description = scalarString(val)
		case "plan":
			m, ok := val.(*document.Map)
			if !ok {
				return fmt.Errorf("plan: expected a mapping of steps")
			}
			graph, err := parsePlan(m)
			if err != nil {
				return err
			}
			w.Plan = graph
		case "execute":
			m, ok := val.(*document.Map)
			if !ok {
				return fmt.Errorf("execute: expected a mapping of action groups")
			}
			plan, err := parseExecute(m)
			if err != nil {
				return err
			}
			w.Execute = plan
		default:
			return fmt.Errorf("unknown field %q in wizard document", key)
		}
	}
	if w.Plan == nil {
		w.Plan = &PlanGraph{index: map[string]int{}}
	}
	if w.Execute == nil {
		w.Execute = &ExecutePlan{}
	}
	return nil
}

func parsePlan(m *document.Map) (*PlanGraph, error) {
	graph := &PlanGraph{index: make(map[string]int, m.Len())}
	for _, name := range m.Keys() {
		val, _ := m.Get(name)
		stepMap, ok := val.(*document.Map)
		if !ok {
			return nil, fmt.Errorf("plan.%s: expected a mapping", name)
		}
		step := &StepGroup{Name: name}
		for _, key := range stepMap.Keys() {
			field, _ := stepMap.Get(key)
			switch key {
			case "values":
				values, ok := field.(*document.Map)
				if !ok {
					return nil, fmt.Errorf("plan.%s.values: expected a mapping", name)
				}
				for _, valueName := range values.Keys() {
					specVal, _ := values.Get(valueName)
					spec, ok := specVal.(*document.Map)
					if !ok {
						return nil, fmt.Errorf("plan.%s.values.%s: expected a mapping", name, valueName)
					}
					step.Values = append(step.Values, ValueDecl{Name: valueName, Spec: spec})
				}
			case "next_step":
				rule, err := parseNextStep(name, field)
				if err != nil {
					return nil, err
				}
				step.Next = rule
			default:
				return nil, fmt.Errorf("plan.%s: unknown field %q", name, key)
			}
		}
		graph.index[name] = len(graph.steps)
		graph.steps = append(graph.steps, step)
	}
	return graph, nil
}

func parseNextStep(stepName string, val any) (*NextStepRule, error) {
	switch v := val.(type) {
	case string:
		return &NextStepRule{Target: v}, nil
	case *document.Map:
		switchVar, ok := v.String("switch")
		if !ok {
			return nil, fmt.Errorf("plan.%s.next_step: switch form requires a 'switch' variable name", stepName)
		}
		cases := document.NewMap()
		v.Range(func(key string, caseVal any) bool {
			if key != "switch" {
				cases.Set(key, caseVal)
			}
			return true
		})
		if cases.Len() == 0 {
			return nil, fmt.Errorf("plan.%s.next_step: switch form requires at least one case", stepName)
		}
		return &NextStepRule{Switch: switchVar, Cases: cases}, nil
	default:
		return nil, fmt.Errorf("plan.%s.next_step: expected a step name or switch mapping", stepName)
	}
}

func parseExecute(m *document.Map) (*ExecutePlan, error) {
	plan := &ExecutePlan{}
	for _, name := range m.Keys() {
		val, _ := m.Get(name)
		seq, ok := val.([]any)
		if !ok {
			return nil, fmt.Errorf("execute.%s: expected a sequence of actions", name)
		}
		group := &ActionGroup{Name: name}
		for i, el := range seq {
			def, ok := el.(*document.Map)
			if !ok {
				return nil, fmt.Errorf("execute.%s[%d]: expected a mapping", name, i)
			}
			action, err := parseAction(name, i, def)
			if err != nil {
				return nil, err
			}
			group.Actions = append(group.Actions, action)
		}
		plan.groups = append(plan.groups, group)
	}
	return plan, nil
}

func parseAction(group string, index int, def *document.Map) (*Action, error) {
	action := &Action{Definition: def}
	typeTag, ok := def.String("type")
	if !ok {
		return nil, fmt.Errorf("execute.%s[%d]: missing 'type' tag", group, index)
	}
	action.Type = typeTag

	if condVal, ok := def.Get("condition"); ok {
		condMap, ok := condVal.(*document.Map)
		if !ok {
			return nil, fmt.Errorf("execute.%s[%d].condition: expected a mapping", group, index)
		}
		variable, ok := condMap.String("variable")
		if !ok {
			return nil, fmt.Errorf("execute.%s[%d].condition: missing 'variable'", group, index)
		}
		equals, _ := condMap.Get("equals")
		action.Condition = &Condition{Variable: variable, Equals: equals}
	}
	if raw, ok := def.Get("output_var"); ok {
		outputVar, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("execute.%s[%d]: output_var must be a string", group, index)
		}
		action.OutputVar = outputVar
	}
	if raw, ok := def.Get("query"); ok {
		query, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("execute.%s[%d]: query must be a string", group, index)
		}
		action.Query = query
	}
	return action, nil
}

// LoadFile reads and parses a wizard YAML document from disk.
func LoadFile(path string) (*Wizard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wizard: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a wizard document from an io.Reader.
func Load(r io.Reader) (*Wizard, error) {
	dec := yaml.NewDecoder(r)
	var w Wizard
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decode wizard: %w", err)
	}
	return &w, nil
}

// scalarString renders a scalar document value as a string. Non-string
// scalars (version: 2) are formatted with their natural representation.
func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
