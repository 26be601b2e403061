// Package document models the order-preserving nested values that wizard
// definitions and remote responses are made of: strings, numbers, booleans,
// null, sequences, and insertion-ordered mappings. Wizard documents are
// declaration-order sensitive (steps resolve top to bottom), so mappings
// must not lose the order they were written in.
package document

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is a string-keyed mapping that preserves insertion order.
// Values are one of: string, bool, int64, float64, nil, []any, *Map.
type Map struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{om: orderedmap.New[string, any]()}
}

// Set binds key to value, appending the key if it is new and keeping its
// original position if it already exists.
func (m *Map) Set(key string, value any) {
	m.om.Set(key, value)
}

// Get returns the value bound to key and whether it exists.
func (m *Map) Get(key string) (any, bool) {
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.om.Get(key)
	return ok
}

// String returns the value bound to key if it is a string.
func (m *Map) String(key string) (string, bool) {
	v, ok := m.om.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ChildMap returns the value bound to key if it is a mapping.
func (m *Map) ChildMap(key string) (*Map, bool) {
	v, ok := m.om.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Map)
	return child, ok
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return m.om.Len()
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.om.Len())
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Range calls fn for each key/value pair in insertion order until fn
// returns false.
func (m *Map) Range(fn func(key string, value any) bool) {
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// UnmarshalYAML decodes a YAML mapping node, preserving key order and
// rejecting duplicate keys.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := DecodeNode(node)
	if err != nil {
		return err
	}
	dm, ok := decoded.(*Map)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, nodeKind(node))
	}
	m.om = dm.om
	return nil
}

// MarshalYAML emits the map as a YAML mapping in insertion order.
func (m *Map) MarshalYAML() (any, error) {
	return encodeNode(m)
}

// DecodeNode converts a YAML node into the closed document value set:
// mappings become *Map, sequences []any, scalars their natural Go type
// (ints widened to int64).
func DecodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, fmt.Errorf("line %d: expected a single document", node.Line)
		}
		return DecodeNode(node.Content[0])
	case yaml.AliasNode:
		return DecodeNode(node.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			var key string
			if err := keyNode.Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping key: %w", keyNode.Line, err)
			}
			if m.Has(key) {
				return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
			}
			val, err := DecodeNode(valNode)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			val, err := DecodeNode(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: scalar: %w", node.Line, err)
		}
		if i, ok := v.(int); ok {
			return int64(i), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind", node.Line)
	}
}

// Copy returns a deep copy of a document value. Scalars are immutable and
// returned as-is.
func Copy(value any) any {
	switch v := value.(type) {
	case *Map:
		out := NewMap()
		v.Range(func(key string, val any) bool {
			out.Set(key, Copy(val))
			return true
		})
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = Copy(el)
		}
		return out
	default:
		return value
	}
}

// Plain converts a document value into plain Go containers
// (map[string]any, []any), losing key order. Used when handing values to
// order-insensitive consumers such as JSON marshaling and query evaluation.
func Plain(value any) any {
	switch v := value.(type) {
	case *Map:
		out := make(map[string]any, v.Len())
		v.Range(func(key string, val any) bool {
			out[key] = Plain(val)
			return true
		})
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = Plain(el)
		}
		return out
	default:
		return value
	}
}

// FromPlain converts plain Go containers (as produced by encoding/json)
// into document values. Map key order follows Go map iteration and is
// therefore unspecified; callers that need ordering must decode from YAML
// nodes instead.
func FromPlain(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := NewMap()
		for _, key := range sortedKeys(v) {
			out.Set(key, FromPlain(v[key]))
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = FromPlain(el)
		}
		return out
	case int:
		return int64(v)
	default:
		return value
	}
}

func encodeNode(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var rangeErr error
		v.Range(func(key string, val any) bool {
			keyNode := &yaml.Node{}
			if err := keyNode.Encode(key); err != nil {
				rangeErr = err
				return false
			}
			valNode, err := encodeNode(val)
			if err != nil {
				rangeErr = err
				return false
			}
			node.Content = append(node.Content, keyNode, valNode)
			return true
		})
		if rangeErr != nil {
			return nil, rangeErr
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, el := range v {
			child, err := encodeNode(el)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return node, nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "document"
	}
}
