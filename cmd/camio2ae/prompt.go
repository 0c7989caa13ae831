package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	optionStyle   = lipgloss.NewStyle().Padding(0, 1)
	hintStyle     = lipgloss.NewStyle().Faint(true)
)

// versionPrompt asks whether a file newer than the supported CamIO version
// should be converted anyway. It defaults to No.
type versionPrompt struct {
	declared  int
	supported int
	accept    bool
	done      bool
}

func newVersionPrompt(declared, supported int) versionPrompt {
	return versionPrompt{declared: declared, supported: supported}
}

// Init implements tea.Model interface.
func (m versionPrompt) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model interface.
func (m versionPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.accept = false
		m.done = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyLeft, tea.KeyRight, tea.KeyTab:
		m.accept = !m.accept
	case tea.KeyRunes:
		switch strings.ToLower(string(key.Runes)) {
		case "y":
			m.accept = true
			m.done = true
			return m, tea.Quit
		case "n", "q":
			m.accept = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model interface.
func (m versionPrompt) View() string {
	if m.done {
		return ""
	}

	yes, no := optionStyle.Render("Yes"), selectedStyle.Render("No")
	if m.accept {
		yes, no = selectedStyle.Render("Yes"), optionStyle.Render("No")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("CamIO file is version %d", m.declared)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("camio2ae is designed for version %d and lower. Try importing the file anyway?\n\n", m.supported))
	b.WriteString(yes + " " + no + "\n\n")
	b.WriteString(hintStyle.Render("(y/n, ←/→ to choose, Enter to confirm, Esc to cancel)"))
	b.WriteString("\n")
	return b.String()
}

// askNewerVersion runs the prompt on the terminal.
func askNewerVersion(declared, supported int) (bool, error) {
	program := tea.NewProgram(newVersionPrompt(declared, supported),
		tea.WithInput(os.Stdin),
		tea.WithOutput(os.Stderr),
	)
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("version prompt failed: %w", err)
	}
	return final.(versionPrompt).accept, nil
}
