package tui

import (
	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// newItemDelegate returns a list.DefaultDelegate that toggles removal of
// the selected operation.
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(operationItem)
		if !ok {
			return nil
		}

		if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.remove) {
			updated := item.toggleRemoved()
			m.SetItem(itemIndex(m, item.op), updated)
			if updated.removed {
				return m.NewStatusMessage(statusMessageStyle("Removed " + item.Title()))
			}
			return m.NewStatusMessage(statusMessageStyle("Restored " + item.Title()))
		}
		return nil
	}

	help := []key.Binding{keys.remove}
	d.ShortHelpFunc = func() []key.Binding { return help }
	d.FullHelpFunc = func() [][]key.Binding { return [][]key.Binding{help} }

	return d
}

// itemIndex returns the position of op in the unfiltered items, which is
// what SetItem expects.
func itemIndex(m *list.Model, op *catalog.Operation) int {
	for i, it := range m.Items() {
		if it.(operationItem).op == op {
			return i
		}
	}
	return -1
}

type delegateKeyMap struct {
	remove key.Binding
}

func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		remove: key.NewBinding(
			key.WithKeys("x", "backspace"),
			key.WithHelp("x", "Toggle removal"),
		),
	}
}
