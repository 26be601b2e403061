// Package prompt defines the user-interaction capability consumed by the
// wizard engine, plus the built-in prompter implementations: a readline
// console prompter, a full-screen selection menu, and a scripted prompter
// for replay and tests.
package prompt

// Choice is one selectable option. Display is what the user sees;
// ActualValue is what the engine stores.
type Choice struct {
	Display     string
	ActualValue string
}

// Prompter asks the user a question and returns the raw answer. When
// choices are given the answer is the selected choice's ActualValue; the
// engine does not re-validate it.
type Prompter interface {
	Prompt(text string, choices []Choice) (string, error)
}

// FilePrompter asks the user for a filesystem path, with completion where
// the implementation supports it.
type FilePrompter interface {
	PromptFile(text string) (string, error)
}
