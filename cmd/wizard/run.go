package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/wizard/pkg/invoke"
	"github.com/ormasoftchile/wizard/pkg/prompt"
	"github.com/ormasoftchile/wizard/pkg/runtime"
	"github.com/ormasoftchile/wizard/pkg/schema"
	"github.com/ormasoftchile/wizard/pkg/sharedcfg"
)

var (
	runVars       []string
	runDryRun     bool
	runBackend    string
	runConfigFile string
	runNoMenu     bool
)

var runCmd = &cobra.Command{
	Use:   "run [wizard.yaml]",
	Short: "Run a wizard: plan interactively, then execute its actions",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

var planCmd = &cobra.Command{
	Use:   "plan [wizard.yaml]",
	Short: "Run only the plan phase and print the gathered values",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func runRun(cmd *cobra.Command, args []string) error {
	w, extra, err := loadForRun(args[0])
	if err != nil {
		return err
	}
	runner, cleanup, err := buildRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	printHeader(w)
	bag, err := runner.Run(context.Background(), w, extra)
	if err != nil {
		printBag(bag)
		return err
	}
	fmt.Println("✓ wizard complete")
	printBag(bag)
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	w, extra, err := loadForRun(args[0])
	if err != nil {
		return err
	}
	runner, cleanup, err := buildRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	printHeader(w)
	bag, err := runner.Plan(context.Background(), w, extra)
	if err != nil {
		return err
	}
	printBag(bag)
	return nil
}

// loadForRun validates the wizard file and parses --var overrides.
func loadForRun(path string) (*schema.Wizard, map[string]any, error) {
	w, errs := schema.ValidateFile(path)
	var fatal int
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
			continue
		}
		fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
		fatal++
	}
	if fatal > 0 {
		return nil, nil, fmt.Errorf("wizard validation failed with %d error(s)", fatal)
	}

	extra := make(map[string]any, len(runVars))
	for _, v := range runVars {
		key, value, ok := strings.Cut(v, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		extra[key] = value
	}
	return w, extra, nil
}

// buildRunner assembles the capability set behind the engine. Dry-run
// swaps the invoker and config store for side-effect-free stand-ins;
// prompting stays interactive either way.
func buildRunner() (*runtime.Runner, func(), error) {
	console := prompt.NewConsolePrompter()
	var prompter prompt.Prompter = console
	if !runNoMenu {
		prompter = prompt.NewMenuPrompter(console)
	}

	caps := runtime.Capabilities{
		Prompter: prompter,
		Files:    console,
	}

	cleanup := func() { console.Close() }

	if runDryRun {
		caps.Invoker = dryRunInvoker{}
		caps.Config = sharedcfg.NewMemory()
		return runtime.NewRunner(caps), cleanup, nil
	}

	if runBackend != "" {
		parts := strings.Fields(runBackend)
		rpc := invoke.NewRPCInvoker(parts[0], parts[1:]...)
		caps.Invoker = rpc
		prev := cleanup
		cleanup = func() {
			rpc.Shutdown()
			prev()
		}
	} else {
		caps.Invoker = invoke.Func(func(_ context.Context, service, operation string, _ map[string]any) (any, error) {
			return nil, fmt.Errorf("no backend configured for %s.%s (use --backend or --dry-run)", service, operation)
		})
	}

	configPath := runConfigFile
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, ".wizard", "config")
	}
	caps.Config = sharedcfg.NewFileAPI(configPath)

	return runtime.NewRunner(caps), cleanup, nil
}

// dryRunInvoker reports each remote call instead of performing it.
type dryRunInvoker struct{}

func (dryRunInvoker) Invoke(_ context.Context, service, operation string, params map[string]any) (any, error) {
	fmt.Printf("  [dry-run] %s.%s %v\n", service, operation, params)
	return map[string]any{}, nil
}

// printHeader renders the wizard's title and description as Markdown.
func printHeader(w *schema.Wizard) {
	if w.Title == "" && w.Description == "" {
		return
	}
	var md strings.Builder
	if w.Title != "" {
		md.WriteString("# " + w.Title + "\n")
	}
	if w.Description != "" {
		md.WriteString("\n" + w.Description + "\n")
	}
	fmt.Print(renderMarkdown(md.String()))
}

// renderMarkdown renders with glamour, falling back to the raw text if
// the renderer is unavailable.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// printBag emits the gathered values as YAML, in binding order.
func printBag(bag *runtime.Bag) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	out, err := yaml.Marshal(bag.Snapshot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "render values: %v\n", err)
		return
	}
	fmt.Println("---")
	fmt.Print(string(out))
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, planCmd} {
		cmd.Flags().StringArrayVar(&runVars, "var", nil, "Seed a variable (key=value), repeatable")
		cmd.Flags().StringVar(&runBackend, "backend", "", "JSON-RPC backend command for remote operations")
		cmd.Flags().StringVar(&runConfigFile, "config-file", "", "Path to the persisted config file (default ~/.wizard/config)")
		cmd.Flags().BoolVar(&runNoMenu, "no-menu", false, "Use plain numbered prompts instead of the selection menu")
	}
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Report remote calls and config writes without performing them")
}
