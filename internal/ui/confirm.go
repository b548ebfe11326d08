package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for the confirmation prompt
var (
	confirmTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("5")).
				MarginBottom(1).
				Width(80)

	confirmDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("7")).
				MarginBottom(1).
				Width(80)

	yesButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Background(lipgloss.Color("0")).
			Padding(0, 1).
			MarginRight(1)

	noButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Background(lipgloss.Color("0")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)

// ConfirmModel is a bubble tea model for yes/no confirmation prompts.
type ConfirmModel struct {
	Title    string
	Detail   string
	Approved bool
	Done     bool
}

// NewConfirmModel creates a confirmation prompt. Defaults to "no" so that
// hitting enter without reading does not confirm a destructive action.
func NewConfirmModel(title, detail string) ConfirmModel {
	return ConfirmModel{
		Title:  title,
		Detail: detail,
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"))):
			m.Done = true
			m.Approved = false
			return m, tea.Quit
		case key.Matches(msg, key.NewBinding(key.WithKeys("left", "h"))):
			m.Approved = true
			return m, nil
		case key.Matches(msg, key.NewBinding(key.WithKeys("right", "l"))):
			m.Approved = false
			return m, nil
		case key.Matches(msg, key.NewBinding(key.WithKeys("y"))):
			m.Done = true
			m.Approved = true
			return m, tea.Quit
		case key.Matches(msg, key.NewBinding(key.WithKeys("n"))):
			m.Done = true
			m.Approved = false
			return m, tea.Quit
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			m.Done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ConfirmModel) View() string {
	var sb strings.Builder

	sb.WriteString(confirmTitleStyle.Render(m.Title))
	sb.WriteString("\n")

	if m.Detail != "" {
		sb.WriteString(confirmDetailStyle.Render(m.Detail))
		sb.WriteString("\n")
	}

	yes := "Yes"
	no := "No"
	if m.Approved {
		yes = selectedStyle.Render(yes)
	} else {
		no = selectedStyle.Render(no)
	}

	sb.WriteString(fmt.Sprintf("%s %s", yesButtonStyle.Render(yes), noButtonStyle.Render(no)))
	sb.WriteString("\n\n")
	sb.WriteString("(Use arrow keys to select, Enter to confirm, Esc to cancel)")

	return sb.String()
}

// Confirm runs the confirmation prompt and returns the user's choice.
func Confirm(title, detail string) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(title, detail))
	result, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running confirmation prompt: %w", err)
	}

	final, ok := result.(ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type: %T", result)
	}

	return final.Approved, nil
}
