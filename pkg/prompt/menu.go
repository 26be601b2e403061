package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	menuTitleStyle  = lipgloss.NewStyle().Bold(true)
	menuCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	menuValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	menuHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// MenuPrompter renders choice questions as an interactive cursor menu.
// Free-text questions are delegated to Fallback.
type MenuPrompter struct {
	Fallback Prompter
}

// NewMenuPrompter creates a menu prompter that falls back to the given
// prompter for questions without choices.
func NewMenuPrompter(fallback Prompter) *MenuPrompter {
	return &MenuPrompter{Fallback: fallback}
}

// Prompt implements Prompter.
func (p *MenuPrompter) Prompt(text string, choices []Choice) (string, error) {
	if len(choices) == 0 {
		if p.Fallback == nil {
			return "", fmt.Errorf("menu prompter has no fallback for free-text question %q", text)
		}
		return p.Fallback.Prompt(text, nil)
	}

	model := menuModel{title: text, choices: choices}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", fmt.Errorf("run selection menu: %w", err)
	}
	m := final.(menuModel)
	if m.aborted {
		return "", fmt.Errorf("selection aborted")
	}
	return m.choices[m.cursor].ActualValue, nil
}

type menuModel struct {
	title   string
	choices []Choice
	cursor  int
	done    bool
	aborted bool
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(keyMsg.String()[0] - '1')
		if idx < len(m.choices) {
			m.cursor = idx
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m menuModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	// Align the dimmed actual values in one column past the widest display.
	widest := 0
	for _, c := range m.choices {
		if w := runewidth.StringWidth(c.Display); w > widest {
			widest = w
		}
	}

	var b strings.Builder
	b.WriteString(menuTitleStyle.Render(m.title))
	b.WriteString("\n\n")
	for i, c := range m.choices {
		cursor := "  "
		if i == m.cursor {
			cursor = menuCursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s%d. %s", cursor, i+1, runewidth.FillRight(c.Display, widest))
		if c.ActualValue != c.Display {
			line += "  " + menuValueStyle.Render(c.ActualValue)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(menuHelpStyle.Render("↑↓:select  Enter:choose  1-9:quick select"))
	b.WriteString("\n")
	return b.String()
}
