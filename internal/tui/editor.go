package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// descriptionEditor is a modal textarea for editing one description.
type descriptionEditor struct {
	textarea textarea.Model
}

func newDescriptionEditor(initial string) descriptionEditor {
	ta := textarea.New()
	ta.Placeholder = "Describe what this operation does"
	ta.SetValue(initial)
	ta.Focus()
	return descriptionEditor{textarea: ta}
}

func (m descriptionEditor) Update(msg tea.Msg) (descriptionEditor, tea.Cmd) {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			m.textarea.Blur()
		case tea.KeyCtrlC:
			return m, tea.Quit
		default:
			if !m.textarea.Focused() {
				cmds = append(cmds, m.textarea.Focus())
			}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m descriptionEditor) Value() string {
	return m.textarea.Value()
}

func (m descriptionEditor) View(title string) string {
	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n",
		editHeaderStyle.Render(title),
		m.textarea.View(),
		mutedStyle.Render("(ctrl+s to save)"),
	)
}
