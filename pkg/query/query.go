// Package query evaluates read-only projection expressions against
// structured responses: dotted field access (Role.Arn) and sequence
// projection with field extraction (Policies[].Name). The grammar is
// JMESPath; evaluation happens over plain containers, so ordered document
// maps are flattened first.
package query

import (
	"fmt"

	"github.com/jmespath/go-jmespath"

	"github.com/ormasoftchile/wizard/pkg/document"
)

// Search applies a projection expression to data and returns the
// extracted sub-value. Unmatched paths return nil, not an error.
func Search(expr string, data any) (any, error) {
	result, err := jmespath.Search(expr, document.Plain(data))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", expr, err)
	}
	return result, nil
}

// Valid reports whether expr parses as a projection expression. Used by
// document validation to reject malformed queries before a run starts.
func Valid(expr string) error {
	if _, err := jmespath.Compile(expr); err != nil {
		return fmt.Errorf("query %q: %w", expr, err)
	}
	return nil
}
