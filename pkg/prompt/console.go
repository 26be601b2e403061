package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ConsolePrompter reads answers line by line from the terminal. Choice
// questions print a numbered list and accept either the number or the
// value itself.
type ConsolePrompter struct {
	rl *readline.Instance
}

// NewConsolePrompter creates a prompter over stdin/stdout. The readline
// instance is created lazily on first use.
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{}
}

// Close releases the underlying readline instance.
func (p *ConsolePrompter) Close() error {
	if p.rl == nil {
		return nil
	}
	return p.rl.Close()
}

func (p *ConsolePrompter) instance() (*readline.Instance, error) {
	if p.rl != nil {
		return p.rl, nil
	}
	rl, err := readline.New("")
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	p.rl = rl
	return rl, nil
}

// Prompt implements Prompter.
func (p *ConsolePrompter) Prompt(text string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		return p.readLine(text + ": ")
	}

	fmt.Println(text)
	for i, c := range choices {
		fmt.Printf("  %d. %s\n", i+1, c.Display)
	}
	for {
		answer, err := p.readLine("Select: ")
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1].ActualValue, nil
		}
		for _, c := range choices {
			if answer == c.ActualValue || answer == c.Display {
				return c.ActualValue, nil
			}
		}
		fmt.Printf("Enter a number between 1 and %d\n", len(choices))
	}
}

// PromptFile implements FilePrompter with filesystem path completion.
func (p *ConsolePrompter) PromptFile(text string) (string, error) {
	rl, err := p.instance()
	if err != nil {
		return "", err
	}
	completer := readline.NewPrefixCompleter(
		readline.PcItemDynamic(completePath),
	)
	rl.Config.AutoComplete = completer
	defer func() { rl.Config.AutoComplete = nil }()

	rl.SetPrompt(text + ": ")
	line, err := rl.Readline()
	if err != nil {
		return "", fmt.Errorf("read path: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *ConsolePrompter) readLine(promptText string) (string, error) {
	rl, err := p.instance()
	if err != nil {
		return "", err
	}
	rl.SetPrompt(promptText)
	line, err := rl.Readline()
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// completePath lists directory entries matching the partial path typed so
// far, for readline tab completion.
func completePath(line string) []string {
	dir, partial := filepath.Split(line)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, partial) {
			continue
		}
		full := dir + name
		if e.IsDir() {
			full += string(filepath.Separator)
		}
		out = append(out, full)
	}
	return out
}
