package runtime

import "fmt"

// SchemaError reports a malformed step or action encountered mid-run:
// an unknown type tag, a missing required field, or a switch value with
// no matching case. Fatal; the run stops at the offending step.
type SchemaError struct {
	Step   string
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Step == "" {
		return "schema error: " + e.Detail
	}
	return fmt.Sprintf("schema error in %s: %s", e.Step, e.Detail)
}

// UnresolvedVariableError reports a template placeholder referencing a
// name that is not bound in the bag at expansion time.
type UnresolvedVariableError struct {
	Name     string
	Template string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("template %q references unbound variable %q", e.Template, e.Name)
}
