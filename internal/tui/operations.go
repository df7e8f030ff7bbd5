package tui

import (
	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type listKeyMap struct {
	editDescription key.Binding
	save            key.Binding
	finish          key.Binding
	quit            key.Binding
}

// doneMsg moves the builder to the export page.
type doneMsg struct{}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		editDescription: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("e", "Edit description"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		finish: key.NewBinding(
			key.WithKeys("F", "f"),
			key.WithHelp("f", "Finish"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// OperationsModel lists catalog operations and lets the user drop them or
// rewrite their descriptions.
type OperationsModel struct {
	list      list.Model
	keys      *listKeyMap
	editing   bool
	editIndex int
	editor    descriptionEditor
}

// NewOperationsModel seeds the list from ops, marking the state already
// recorded in adjuster.
func NewOperationsModel(ops []*catalog.Operation, adjuster *catalog.Adjuster) OperationsModel {
	if adjuster == nil {
		adjuster = catalog.NewAdjuster()
	}
	keys := newListKeyMap()

	items := make([]list.Item, len(ops))
	for i, op := range ops {
		items[i] = operationItem{
			op:             op,
			newDescription: adjuster.GetDescription(op.Path, op.Method, ""),
			removed:        !adjuster.ExistsInCatalog(op.Path, op.Method),
		}
	}

	l := list.New(items, newItemDelegate(newDelegateKeyMap()), 0, 0)
	l.Title = titleStyle.Render("Catalog operations")
	l.SetShowFilter(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.editDescription, keys.finish, keys.quit}
	}

	return OperationsModel{list: l, keys: keys, editIndex: -1}
}

func (m OperationsModel) Init() tea.Cmd {
	return nil
}

func (m OperationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(size.Width-h, size.Height-v)
	}
	if m.editing {
		return m.updateEditing(msg)
	}
	return m.updateList(msg)
}

func (m OperationsModel) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.save) {
		m.editing = false
		item := m.list.Items()[m.editIndex].(operationItem)
		desc := m.editor.Value()
		if desc == item.op.Description {
			desc = ""
		}
		if desc != item.newDescription {
			m.list.SetItem(m.editIndex, item.withDescription(desc))
			return m, m.list.NewStatusMessage(statusMessageStyle("Updated description of " + item.Title()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m OperationsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.editDescription):
			item, ok := m.list.SelectedItem().(operationItem)
			if !ok {
				return m, nil
			}
			if item.removed {
				return m, m.list.NewStatusMessage(statusMessageStyle("Removed operations cannot be edited"))
			}
			m.editing = true
			m.editIndex = m.globalIndex()
			m.editor = newDescriptionEditor(item.Description())
			return m, nil
		case key.Matches(msg, m.keys.finish):
			return m, func() tea.Msg { return doneMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// globalIndex maps the selection to its position in the unfiltered items.
func (m OperationsModel) globalIndex() int {
	selected, ok := m.list.SelectedItem().(operationItem)
	if !ok {
		return -1
	}
	return itemIndex(&m.list, selected.op)
}

func (m OperationsModel) View() string {
	if m.editing {
		title := m.list.Items()[m.editIndex].(operationItem).Title()
		return docStyle.Render(m.editor.View(title))
	}
	return docStyle.Render(m.list.View())
}

// Adjustments returns the selections and description overrides made so far.
func (m OperationsModel) Adjustments() *catalog.Adjustments {
	items := make([]operationItem, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		items = append(items, it.(operationItem))
	}
	return buildAdjustments(items)
}

// Kept returns how many operations are still selected.
func (m OperationsModel) Kept() int {
	n := 0
	for _, it := range m.list.Items() {
		if !it.(operationItem).removed {
			n++
		}
	}
	return n
}
