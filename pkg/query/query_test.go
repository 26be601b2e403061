package query

import (
	"testing"

	"github.com/ormasoftchile/wizard/pkg/document"
)

// TestSearchDottedAccess verifies plain field traversal.
func TestSearchDottedAccess(t *testing.T) {
	data := map[string]any{
		"Role": map[string]any{"Arn": "my-role-arn"},
	}
	got, err := Search("Role.Arn", data)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != "my-role-arn" {
		t.Errorf("got %v, want my-role-arn", got)
	}
}

// TestSearchSequenceProjection verifies the Name[].Field form collects
// one entry per element, in order.
func TestSearchSequenceProjection(t *testing.T) {
	data := map[string]any{
		"Policies": []any{
			map[string]any{"Name": "ReadOnly"},
			map[string]any{"Name": "Admin"},
		},
	}
	got, err := Search("Policies[].Name", data)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	names, ok := got.([]any)
	if !ok || len(names) != 2 || names[0] != "ReadOnly" || names[1] != "Admin" {
		t.Errorf("got %v", got)
	}
}

// TestSearchOrderedDocument verifies ordered maps are accepted as input
// by flattening them before evaluation.
func TestSearchOrderedDocument(t *testing.T) {
	role := document.NewMap()
	role.Set("Arn", "arn:123")
	data := document.NewMap()
	data.Set("Role", role)

	got, err := Search("Role.Arn", data)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != "arn:123" {
		t.Errorf("got %v", got)
	}
}

// TestSearchMissingPathYieldsNull verifies traversal through an absent
// field returns null rather than an error.
func TestSearchMissingPathYieldsNull(t *testing.T) {
	got, err := Search("Role.Arn", map[string]any{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

// TestValid distinguishes compilable from malformed expressions.
func TestValid(t *testing.T) {
	if err := Valid("Policies[].Name"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := Valid("Policies[."); err == nil {
		t.Error("malformed expression accepted")
	}
}
