package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ormasoftchile/wizard/pkg/document"
	"github.com/ormasoftchile/wizard/pkg/invoke"
	"github.com/ormasoftchile/wizard/pkg/prompt"
	"github.com/ormasoftchile/wizard/pkg/query"
	"github.com/ormasoftchile/wizard/pkg/sharedcfg"
)

// StaticHandler resolves a literal value. The result is a deep copy so
// later mutation of the bag cannot reach back into the document.
type StaticHandler struct{}

// RunStep implements StepHandler.
func (StaticHandler) RunStep(_ context.Context, def *document.Map, _ *Bag) (any, error) {
	value, ok := def.Get("value")
	if !ok {
		return nil, &SchemaError{Detail: "static value requires a 'value' field"}
	}
	return document.Copy(value), nil
}

// TemplateHandler expands the definition's value string against the bag.
type TemplateHandler struct{}

// RunStep implements StepHandler.
func (TemplateHandler) RunStep(_ context.Context, def *document.Map, bag *Bag) (any, error) {
	value, ok := def.String("value")
	if !ok {
		return nil, &SchemaError{Detail: "template value requires a string 'value' field"}
	}
	return ExpandString(value, bag)
}

// PromptHandler asks the user a question. Choices may be declared inline
// as {display, actual_value} pairs or named indirectly: a string choices
// field is the name of a bag variable holding the sequence.
type PromptHandler struct {
	Prompter prompt.Prompter
}

// RunStep implements StepHandler.
func (h *PromptHandler) RunStep(_ context.Context, def *document.Map, bag *Bag) (any, error) {
	description, ok := def.String("description")
	if !ok {
		return nil, &SchemaError{Detail: "prompt value requires a 'description' field"}
	}
	choices, err := h.choices(def, bag)
	if err != nil {
		return nil, err
	}
	return h.Prompter.Prompt(description, choices)
}

func (h *PromptHandler) choices(def *document.Map, bag *Bag) ([]prompt.Choice, error) {
	raw, ok := def.Get("choices")
	if !ok {
		return nil, nil
	}
	if name, ok := raw.(string); ok {
		resolved, ok := bag.Lookup(name)
		if !ok {
			return nil, &UnresolvedVariableError{Name: name, Template: name}
		}
		raw = resolved
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil, &SchemaError{Detail: "prompt choices must be a sequence or a variable name"}
	}
	choices := make([]prompt.Choice, 0, len(seq))
	for _, el := range seq {
		switch c := el.(type) {
		case *document.Map:
			display, _ := c.String("display")
			actual, _ := c.String("actual_value")
			if actual == "" {
				actual = display
			}
			choices = append(choices, prompt.Choice{Display: display, ActualValue: actual})
		case map[string]any:
			// Plain containers can still reach the bag through custom
			// handlers; accept the same pair shape.
			display, _ := c["display"].(string)
			actual, _ := c["actual_value"].(string)
			if actual == "" {
				actual = display
			}
			choices = append(choices, prompt.Choice{Display: display, ActualValue: actual})
		default:
			s := formatValue(c)
			choices = append(choices, prompt.Choice{Display: s, ActualValue: s})
		}
	}
	return choices, nil
}

// FilePromptHandler asks the user for a filesystem path and normalizes
// the answer to an absolute path, expanding a leading ~.
type FilePromptHandler struct {
	Files prompt.FilePrompter
}

// RunStep implements StepHandler.
func (h *FilePromptHandler) RunStep(_ context.Context, def *document.Map, _ *Bag) (any, error) {
	description, ok := def.String("description")
	if !ok {
		return nil, &SchemaError{Detail: "fileprompt value requires a 'description' field"}
	}
	path, err := h.Files.PromptFile(description)
	if err != nil {
		return nil, err
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}

// APICallHandler performs a remote operation. The operation field reads
// "Service.Operation"; params and optional_params are expanded against
// the bag, with optional entries merged in only when non-null and not
// already set. ApplyQuery controls whether the handler projects its own
// query field; the executor projects centrally, so only the planner's
// instance sets it.
type APICallHandler struct {
	Invoker    invoke.Invoker
	ApplyQuery bool
}

// RunStep implements StepHandler.
func (h *APICallHandler) RunStep(ctx context.Context, def *document.Map, bag *Bag) (any, error) {
	operation, ok := def.String("operation")
	if !ok {
		return nil, &SchemaError{Detail: "apicall requires an 'operation' field"}
	}
	service, opName, ok := strings.Cut(operation, ".")
	if !ok {
		return nil, &SchemaError{Detail: fmt.Sprintf("apicall operation %q must be Service.Operation", operation)}
	}

	params, err := h.resolveParams(def, bag)
	if err != nil {
		return nil, err
	}

	result, err := h.Invoker.Invoke(ctx, service, opName, params)
	if err != nil {
		var remoteErr *invoke.RemoteOperationError
		if errors.As(err, &remoteErr) {
			return nil, err
		}
		return nil, &invoke.RemoteOperationError{Service: service, Operation: opName, Err: err}
	}

	if h.ApplyQuery {
		if q, ok := def.String("query"); ok {
			projected, err := query.Search(q, result)
			if err != nil {
				return nil, err
			}
			result = projected
		}
	}
	// Invoker responses arrive as plain JSON containers; normalize them
	// into document values so downstream consumers (choice resolution,
	// template expansion) see one shape set.
	return document.FromPlain(result), nil
}

func (h *APICallHandler) resolveParams(def *document.Map, bag *Bag) (map[string]any, error) {
	params, err := expandParamMap(def, "params", bag)
	if err != nil {
		return nil, err
	}
	optional, err := expandParamMap(def, "optional_params", bag)
	if err != nil {
		return nil, err
	}

	merged := map[string]any{}
	if params != nil {
		merged = document.Plain(params).(map[string]any)
	}
	if optional != nil {
		optional.Range(func(key string, value any) bool {
			if _, exists := merged[key]; exists || value == nil {
				return true
			}
			merged[key] = document.Plain(value)
			return true
		})
	}
	return merged, nil
}

// expandParamMap expands a mapping-valued field against the bag. Returns
// nil when the field is absent.
func expandParamMap(def *document.Map, field string, bag *Bag) (*document.Map, error) {
	raw, ok := def.Get(field)
	if !ok {
		return nil, nil
	}
	m, ok := raw.(*document.Map)
	if !ok {
		return nil, &SchemaError{Detail: fmt.Sprintf("%s must be a mapping", field)}
	}
	expanded, err := Expand(m, bag)
	if err != nil {
		return nil, err
	}
	return expanded.(*document.Map), nil
}

// SharedConfigHandler serves the plan-phase sharedconfig operations:
// ListProfiles and GetValue.
type SharedConfigHandler struct {
	API sharedcfg.ConfigAPI
}

// RunStep implements StepHandler.
func (h *SharedConfigHandler) RunStep(_ context.Context, def *document.Map, _ *Bag) (any, error) {
	operation, _ := def.String("operation")
	switch operation {
	case "ListProfiles":
		profiles, err := h.API.ListProfiles()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(profiles))
		for i, p := range profiles {
			out[i] = p
		}
		return out, nil
	case "GetValue":
		params, ok := def.ChildMap("params")
		if !ok {
			return nil, &SchemaError{Detail: "sharedconfig GetValue requires 'params'"}
		}
		name, ok := params.String("value")
		if !ok {
			return nil, &SchemaError{Detail: "sharedconfig GetValue requires params.value"}
		}
		profile, _ := params.String("profile")
		return h.API.GetValue(profile, name)
	default:
		return nil, &SchemaError{Detail: fmt.Sprintf("unknown sharedconfig operation %q", operation)}
	}
}

// SharedConfigWriteHandler serves the execute-phase sharedconfig action:
// expand the profile and params fields, then write the params into the
// named profile.
type SharedConfigWriteHandler struct {
	API sharedcfg.ConfigAPI
}

// RunStep implements StepHandler.
func (h *SharedConfigWriteHandler) RunStep(_ context.Context, def *document.Map, bag *Bag) (any, error) {
	var profile string
	if raw, ok := def.Get("profile"); ok {
		expanded, err := Expand(raw, bag)
		if err != nil {
			return nil, err
		}
		profile = formatValue(expanded)
	}

	params, err := expandParamMap(def, "params", bag)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, &SchemaError{Detail: "sharedconfig action requires 'params'"}
	}
	values := make(map[string]string, params.Len())
	params.Range(func(key string, value any) bool {
		values[key] = formatValue(value)
		return true
	})

	if err := h.API.SetValues(profile, values); err != nil {
		return nil, err
	}
	return nil, nil
}
