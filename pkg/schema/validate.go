package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/wizard/pkg/document"
	"github.com/ormasoftchile/wizard/pkg/query"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "plan.start.values.role_name")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// builtinValueTypes are the value resolvers the engine registers by
// default. Other tags are allowed (callers may register custom handlers)
// but produce a warning so typos surface before a run.
var builtinValueTypes = map[string]bool{
	"static":       true,
	"prompt":       true,
	"fileprompt":   true,
	"template":     true,
	"apicall":      true,
	"sharedconfig": true,
}

// builtinActionTypes are the execute-phase action kinds wired by default.
var builtinActionTypes = map[string]bool{
	"apicall":      true,
	"sharedconfig": true,
}

// ValidateFile performs the full 3-phase validation pipeline on a wizard file.
// Phase 1: Structural (strict ordered YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Wizard, []*ValidationError) {
	w, err := LoadFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return w, Validate(w)
}

// Validate runs the semantic and domain phases on an already-parsed wizard.
func Validate(w *Wizard) []*ValidationError {
	var all []*ValidationError
	all = append(all, validateSemantic(w)...)
	all = append(all, ValidateDomain(w)...)
	return all
}

// validateSemantic validates the raw document against the generated JSON Schema.
func validateSemantic(w *Wizard) []*ValidationError {
	if w.raw == nil {
		return nil // constructed programmatically, nothing to check
	}
	data, err := json.Marshal(document.Plain(w.raw))
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("marshal for schema validation: %v", err),
			Severity: "error",
		}}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("generate schema: %v", err),
			Severity: "error",
		}}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal schema: %v", err),
			Severity: "error",
		}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("wizard-v1.json", schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("add schema resource: %v", err),
			Severity: "error",
		}}
	}
	sch, err := c.Compile("wizard-v1.json")
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("compile schema: %v", err),
			Severity: "error",
		}}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal document: %v", err),
			Severity: "error",
		}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(w *Wizard) []*ValidationError {
	var errs []*ValidationError

	if w.Plan == nil || w.Plan.Len() == 0 {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "plan",
			Message:  "wizard must declare at least one plan step",
			Severity: "error",
		})
		return errs
	}

	for _, step := range w.Plan.Steps() {
		if step.Name == DoneStep {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     "plan." + step.Name,
				Message:  fmt.Sprintf("%s is the reserved terminal marker and cannot be a step name", DoneStep),
				Severity: "error",
			})
		}
		for _, decl := range step.Values {
			path := fmt.Sprintf("plan.%s.values.%s", step.Name, decl.Name)
			errs = append(errs, validateValueSpec(path, decl.Spec)...)
		}
		errs = append(errs, validateNextStep(w.Plan, step)...)
	}

	for _, group := range w.Execute.Groups() {
		for i, action := range group.Actions {
			path := fmt.Sprintf("execute.%s[%d]", group.Name, i)
			errs = append(errs, validateAction(path, action)...)
		}
	}

	return errs
}

// validateValueSpec checks the type tag and type-specific required fields
// of a single value declaration.
func validateValueSpec(path string, spec *document.Map) []*ValidationError {
	var errs []*ValidationError

	typeTag, ok := spec.String("type")
	if !ok {
		return []*ValidationError{{
			Phase:    "domain",
			Path:     path,
			Message:  "value requires a 'type' tag",
			Severity: "error",
		}}
	}
	if !builtinValueTypes[typeTag] {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path + ".type",
			Message:  fmt.Sprintf("type %q is not a built-in value type — the run will fail unless a custom handler is registered", typeTag),
			Severity: "warning",
		})
	}

	requireField := func(field string) {
		if !spec.Has(field) {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  fmt.Sprintf("%s value requires %q", typeTag, field),
				Severity: "error",
			})
		}
	}

	switch typeTag {
	case "static", "template":
		requireField("value")
	case "prompt", "fileprompt":
		requireField("description")
	case "apicall":
		requireField("operation")
		requireField("params")
		if op, ok := spec.String("operation"); ok && !strings.Contains(op, ".") {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".operation",
				Message:  fmt.Sprintf("operation %q must have the form service.Operation", op),
				Severity: "error",
			})
		}
	case "sharedconfig":
		requireField("operation")
	}

	if raw, ok := spec.Get("query"); ok {
		q, isString := raw.(string)
		if !isString {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".query",
				Message:  "query must be a string",
				Severity: "error",
			})
		} else if err := query.Valid(q); err != nil {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".query",
				Message:  err.Error(),
				Severity: "error",
			})
		}
	}

	return errs
}

// validateNextStep checks that every reachable transition target is a
// declared step or the DONE marker.
func validateNextStep(graph *PlanGraph, step *StepGroup) []*ValidationError {
	if step.Next == nil {
		return nil
	}
	var errs []*ValidationError
	path := fmt.Sprintf("plan.%s.next_step", step.Name)

	checkTarget := func(target, at string) {
		if target == DoneStep {
			return
		}
		if _, ok := graph.Step(target); !ok {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     at,
				Message:  fmt.Sprintf("transition target %q is not a declared step", target),
				Severity: "error",
			})
		}
	}

	if step.Next.Target != "" {
		checkTarget(step.Next.Target, path)
		return errs
	}
	step.Next.Cases.Range(func(caseValue string, target any) bool {
		name, ok := target.(string)
		if !ok {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     fmt.Sprintf("%s.%s", path, caseValue),
				Message:  "switch case target must be a step name",
				Severity: "error",
			})
			return true
		}
		checkTarget(name, fmt.Sprintf("%s.%s", path, caseValue))
		return true
	})
	return errs
}

// validateAction checks an execute-phase action's type tag and fields.
func validateAction(path string, action *Action) []*ValidationError {
	var errs []*ValidationError

	if !builtinActionTypes[action.Type] {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     path + ".type",
			Message:  fmt.Sprintf("type %q is not a built-in action type — the run will fail unless a custom handler is registered", action.Type),
			Severity: "warning",
		})
	}

	switch action.Type {
	case "apicall":
		op, ok := action.Definition.String("operation")
		if !ok {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  "apicall action requires \"operation\"",
				Severity: "error",
			})
		} else if !strings.Contains(op, ".") {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".operation",
				Message:  fmt.Sprintf("operation %q must have the form service.Operation", op),
				Severity: "error",
			})
		}
		if !action.Definition.Has("params") {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  "apicall action requires \"params\"",
				Severity: "error",
			})
		}
	case "sharedconfig":
		if !action.Definition.Has("params") {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path,
				Message:  "sharedconfig action requires \"params\"",
				Severity: "error",
			})
		}
	}

	if action.Query != "" {
		if err := query.Valid(action.Query); err != nil {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".query",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		if action.OutputVar == "" {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".query",
				Message:  "query has no effect without output_var",
				Severity: "warning",
			})
		}
	}

	return errs
}
