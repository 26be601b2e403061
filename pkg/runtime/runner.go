package runtime

import (
	"context"
	"sort"

	"github.com/ormasoftchile/wizard/pkg/invoke"
	"github.com/ormasoftchile/wizard/pkg/prompt"
	"github.com/ormasoftchile/wizard/pkg/schema"
	"github.com/ormasoftchile/wizard/pkg/sharedcfg"
)

// Capabilities are the external collaborators a run needs. Any field
// may be nil when the wizard never exercises that capability; using a
// missing capability fails at the offending step.
type Capabilities struct {
	Prompter prompt.Prompter
	Files    prompt.FilePrompter
	Invoker  invoke.Invoker
	Config   sharedcfg.ConfigAPI
}

// Runner wires a planner and an executor over the default handler set.
type Runner struct {
	Planner  *Planner
	Executor *Executor
}

// NewRunner builds a runner with the built-in handlers bound to the
// given capabilities. The planner's apicall handler projects its own
// query; the executor's does not, because the executor projects
// centrally when binding output_var.
func NewRunner(caps Capabilities) *Runner {
	plan := NewRegistry()
	plan.Register("static", StaticHandler{})
	plan.Register("template", TemplateHandler{})
	plan.Register("prompt", &PromptHandler{Prompter: caps.Prompter})
	plan.Register("fileprompt", &FilePromptHandler{Files: caps.Files})
	plan.Register("apicall", &APICallHandler{Invoker: caps.Invoker, ApplyQuery: true})
	plan.Register("sharedconfig", &SharedConfigHandler{API: caps.Config})

	exec := NewRegistry()
	exec.Register("apicall", &APICallHandler{Invoker: caps.Invoker})
	exec.Register("sharedconfig", &SharedConfigWriteHandler{API: caps.Config})

	return &Runner{
		Planner:  NewPlanner(plan),
		Executor: NewExecutor(exec),
	}
}

// Run plans the wizard, folds in any caller-supplied extra variables,
// then executes. The returned bag reflects every binding made, even
// when the run fails partway.
func (r *Runner) Run(ctx context.Context, w *schema.Wizard, extra map[string]any) (*Bag, error) {
	bag := NewBag()
	if err := r.Planner.RunWith(ctx, w.Plan, bag); err != nil {
		return bag, err
	}
	seedExtras(bag, extra)
	if err := r.Executor.Run(ctx, w.Execute, bag); err != nil {
		return bag, err
	}
	return bag, nil
}

// Plan runs only the plan phase, seeding the bag with extras first so
// plan steps can reference them.
func (r *Runner) Plan(ctx context.Context, w *schema.Wizard, extra map[string]any) (*Bag, error) {
	bag := NewBag()
	seedExtras(bag, extra)
	if err := r.Planner.RunWith(ctx, w.Plan, bag); err != nil {
		return bag, err
	}
	return bag, nil
}

// seedExtras binds caller extras in sorted name order, since Go map
// iteration order would otherwise leak into the bag's binding order.
func seedExtras(bag *Bag, extra map[string]any) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		bag.Set(name, extra[name])
	}
}
