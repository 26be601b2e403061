package prompt

import "fmt"

// Call records one question as asked, for assertions on prompt order.
type Call struct {
	Text    string
	Choices []Choice
}

// ScriptedPrompter returns pre-recorded answers in order and records every
// question it is asked. Used in replay mode and in tests; an exhausted
// script is an error rather than a silent empty answer.
type ScriptedPrompter struct {
	Calls   []Call
	answers []string
	next    int
}

// NewScriptedPrompter creates a prompter that will return the given
// answers one per question.
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Prompt implements Prompter.
func (p *ScriptedPrompter) Prompt(text string, choices []Choice) (string, error) {
	p.Calls = append(p.Calls, Call{Text: text, Choices: choices})
	if p.next >= len(p.answers) {
		return "", fmt.Errorf("no scripted answer for prompt %q", text)
	}
	answer := p.answers[p.next]
	p.next++
	return answer, nil
}

// PromptFile implements FilePrompter using the same answer script.
func (p *ScriptedPrompter) PromptFile(text string) (string, error) {
	return p.Prompt(text, nil)
}
