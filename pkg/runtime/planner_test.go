package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ormasoftchile/wizard/pkg/prompt"
	"github.com/ormasoftchile/wizard/pkg/schema"
)

// loadWizard parses a wizard document from inline YAML.
func loadWizard(t *testing.T, src string) *schema.Wizard {
	t.Helper()
	w, err := schema.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load wizard: %v", err)
	}
	return w
}

func staticRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("static", StaticHandler{})
	reg.Register("template", TemplateHandler{})
	return reg
}

// TestSingleStepTerminates verifies a plan with one step and no
// next_step finishes after one pass with exactly the declared names
// bound, in declaration order.
func TestSingleStepTerminates(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      region:
        type: static
        value: us-west-2
      role_name:
        type: static
        value: admin
`)
	bag, err := NewPlanner(staticRegistry()).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	names := bag.Names()
	want := []string{"region", "role_name"}
	if len(names) != len(want) {
		t.Fatalf("bound names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if v := bag.Value("region"); v != "us-west-2" {
		t.Errorf("region = %v, want us-west-2", v)
	}
}

// TestPromptOrderMatchesDeclaration verifies prompts fire in value
// declaration order, observable through the recorded call sequence.
func TestPromptOrderMatchesDeclaration(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      first:
        type: prompt
        description: First question
      second:
        type: prompt
        description: Second question
`)
	scripted := prompt.NewScriptedPrompter("a", "b")
	reg := staticRegistry()
	reg.Register("prompt", &PromptHandler{Prompter: scripted})

	bag, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(scripted.Calls) != 2 {
		t.Fatalf("prompt calls = %d, want 2", len(scripted.Calls))
	}
	if scripted.Calls[0].Text != "First question" || scripted.Calls[1].Text != "Second question" {
		t.Errorf("prompt order = %q, %q", scripted.Calls[0].Text, scripted.Calls[1].Text)
	}
	if bag.Value("first") != "a" || bag.Value("second") != "b" {
		t.Errorf("bindings = %v, %v, want a, b", bag.Value("first"), bag.Value("second"))
	}
}

const switchWizard = `
plan:
  start:
    values:
      proceed:
        type: prompt
        description: Continue?
    next_step:
      switch: proceed
      "yes": DONE
      "no": next
  next:
    values:
      extra:
        type: static
        value: bound
`

// TestSwitchTakesMatchingBranch verifies a switch transition follows
// the case matching the bound value and executes the target step.
func TestSwitchTakesMatchingBranch(t *testing.T) {
	w := loadWizard(t, switchWizard)
	reg := staticRegistry()
	reg.Register("prompt", &PromptHandler{Prompter: prompt.NewScriptedPrompter("no")})

	bag, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if v := bag.Value("extra"); v != "bound" {
		t.Errorf("extra = %v, want bound (next step should have run)", v)
	}
}

// TestSwitchToDoneSkipsRemainingSteps verifies a case mapping straight
// to DONE terminates without touching later steps' values.
func TestSwitchToDoneSkipsRemainingSteps(t *testing.T) {
	w := loadWizard(t, switchWizard)
	reg := staticRegistry()
	reg.Register("prompt", &PromptHandler{Prompter: prompt.NewScriptedPrompter("yes")})

	bag, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, bound := bag.Lookup("extra"); bound {
		t.Error("extra was bound; the next step should never have run")
	}
}

// TestSwitchWithoutMatchingCaseFails verifies an unmatched switch value
// is a fatal SchemaError naming the step.
func TestSwitchWithoutMatchingCaseFails(t *testing.T) {
	w := loadWizard(t, switchWizard)
	reg := staticRegistry()
	reg.Register("prompt", &PromptHandler{Prompter: prompt.NewScriptedPrompter("maybe")})

	_, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	if schemaErr.Step != "start" {
		t.Errorf("SchemaError.Step = %q, want start", schemaErr.Step)
	}
}

// TestUnknownTypeTagFails verifies dispatch on an unregistered tag is a
// fatal SchemaError.
func TestUnknownTypeTagFails(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      v:
        type: quantum
        value: x
`)
	_, err := NewPlanner(staticRegistry()).Run(context.Background(), w.Plan)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}

// TestUndeclaredTargetFails verifies a literal next_step naming a step
// that does not exist is a fatal SchemaError.
func TestUndeclaredTargetFails(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      v:
        type: static
        value: x
    next_step: nowhere
`)
	_, err := NewPlanner(staticRegistry()).Run(context.Background(), w.Plan)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}

// TestChoicesResolvedFromVariable verifies a string choices field names
// a bag variable holding the choice sequence.
func TestChoicesResolvedFromVariable(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      available:
        type: static
        value:
          - display: Production
            actual_value: prod
          - display: Staging
            actual_value: stage
      environment:
        type: prompt
        description: Pick an environment
        choices: available
`)
	scripted := prompt.NewScriptedPrompter("stage")
	reg := staticRegistry()
	reg.Register("prompt", &PromptHandler{Prompter: scripted})

	bag, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	call := scripted.Calls[0]
	if len(call.Choices) != 2 {
		t.Fatalf("choices = %d, want 2", len(call.Choices))
	}
	if call.Choices[0].Display != "Production" || call.Choices[0].ActualValue != "prod" {
		t.Errorf("choice[0] = %+v", call.Choices[0])
	}
	if bag.Value("environment") != "stage" {
		t.Errorf("environment = %v, want stage", bag.Value("environment"))
	}
}

// TestChoicesFromRemoteLookup verifies a choice sequence produced by an
// apicall projection keeps its display/actual_value structure when a
// later prompt names it as choices.
func TestChoicesFromRemoteLookup(t *testing.T) {
	w := loadWizard(t, `
plan:
  choose_policy:
    values:
      policies:
        type: apicall
        operation: iam.ListPolicies
        params: {}
        query: "Policies[].{display: PolicyName, actual_value: Arn}"
      policy_arn:
        type: prompt
        description: Which policy?
        choices: policies
`)
	inv := &recordingInvoker{responses: map[string]any{
		"iam.ListPolicies": map[string]any{
			"Policies": []any{
				map[string]any{"PolicyName": "ReadOnly", "Arn": "arn:ro"},
				map[string]any{"PolicyName": "Admin", "Arn": "arn:admin"},
			},
		},
	}}
	scripted := prompt.NewScriptedPrompter("arn:admin")
	reg := staticRegistry()
	reg.Register("apicall", &APICallHandler{Invoker: inv, ApplyQuery: true})
	reg.Register("prompt", &PromptHandler{Prompter: scripted})

	bag, err := NewPlanner(reg).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	call := scripted.Calls[0]
	if len(call.Choices) != 2 {
		t.Fatalf("choices = %+v, want 2", call.Choices)
	}
	if call.Choices[0].Display != "ReadOnly" || call.Choices[0].ActualValue != "arn:ro" {
		t.Errorf("choice[0] = %+v, want Display=ReadOnly ActualValue=arn:ro", call.Choices[0])
	}
	if call.Choices[1].Display != "Admin" || call.Choices[1].ActualValue != "arn:admin" {
		t.Errorf("choice[1] = %+v", call.Choices[1])
	}
	if v := bag.Value("policy_arn"); v != "arn:admin" {
		t.Errorf("policy_arn = %v, want arn:admin", v)
	}
}

// TestTemplateSeesEarlierValuesInSameStep verifies a template value can
// reference a value declared above it in the same step.
func TestTemplateSeesEarlierValuesInSameStep(t *testing.T) {
	w := loadWizard(t, `
plan:
  start:
    values:
      name:
        type: static
        value: svc
      role_name:
        type: template
        value: "{name}-role"
`)
	bag, err := NewPlanner(staticRegistry()).Run(context.Background(), w.Plan)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if v := bag.Value("role_name"); v != "svc-role" {
		t.Errorf("role_name = %v, want svc-role", v)
	}
}
