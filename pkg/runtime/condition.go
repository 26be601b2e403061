package runtime

import (
	"reflect"

	"github.com/ormasoftchile/wizard/pkg/schema"
)

// EvaluateCondition reports whether the condition's variable equals its
// expected value. An unbound variable compares as null, so equals: null
// matches both "absent" and "explicitly bound to null". Equality is the
// only supported comparison.
func EvaluateCondition(cond *schema.Condition, bag *Bag) bool {
	return valuesEqual(bag.Value(cond.Variable), cond.Equals)
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
