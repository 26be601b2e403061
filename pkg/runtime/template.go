package runtime

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/wizard/pkg/document"
)

// Expand substitutes {name} placeholders against the bag, anywhere in a
// nested value. Strings are expanded, sequences and mappings are rebuilt
// with every element expanded (keys are never templated), and other
// scalars pass through unchanged. Both the planner and the executor use
// this same transform.
func Expand(value any, bag *Bag) (any, error) {
	switch v := value.(type) {
	case string:
		return ExpandString(v, bag)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			expanded, err := Expand(el, bag)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	case *document.Map:
		out := document.NewMap()
		var expandErr error
		v.Range(func(key string, el any) bool {
			expanded, err := Expand(el, bag)
			if err != nil {
				expandErr = err
				return false
			}
			out.Set(key, expanded)
			return true
		})
		if expandErr != nil {
			return nil, expandErr
		}
		return out, nil
	default:
		return value, nil
	}
}

// ExpandString substitutes {name} placeholders in a single template
// string. Literal braces are written {{ and }}. Referencing an unbound
// name is an UnresolvedVariableError.
func ExpandString(template string, bag *Bag) (string, error) {
	var b strings.Builder
	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("template %q: unterminated placeholder", template)
			}
			name := template[i+1 : i+end]
			value, ok := bag.Lookup(name)
			if !ok {
				return "", &UnresolvedVariableError{Name: name, Template: template}
			}
			b.WriteString(formatValue(value))
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("template %q: unmatched '}'", template)
		default:
			b.WriteByte(template[i])
			i++
		}
	}
	return b.String(), nil
}

// formatValue renders a bag value for interpolation into a string and
// for switch-case key lookup. Strings pass through, null renders empty,
// everything else uses its natural representation.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
