// Package tui holds the terminal views of auto-xhr: the adjustments builder
// and the progress line shown while a request is pending.
package tui

import (
	"github.com/brizzai/auto-xhr/internal/catalog"
	tea "github.com/charmbracelet/bubbletea"
)

type page int

const (
	pageList page = iota
	pageExport
)

// AppModel switches between the operation list and the export page.
type AppModel struct {
	operations OperationsModel
	export     ExportView
	page       page
	size       tea.WindowSizeMsg
	filename   string
}

// NewAppModel creates the builder over ops. filename pre-fills the export
// prompt.
func NewAppModel(ops []*catalog.Operation, adjuster *catalog.Adjuster, filename string) AppModel {
	return AppModel{
		operations: NewOperationsModel(ops, adjuster),
		page:       pageList,
		filename:   filename,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.operations.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var tmp tea.Model
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case doneMsg:
		m.page = pageExport
		m.export = NewExportView(m.operations.Adjustments(), m.operations.Kept(), m.filename)
		tmp, _ = m.export.Update(m.size)
		m.export = tmp.(ExportView)
		return m, m.export.Init()

	case backMsg:
		m.page = pageList
		return m, nil

	case tea.WindowSizeMsg:
		m.size = msg
	}

	switch m.page {
	case pageExport:
		tmp, cmd = m.export.Update(msg)
		m.export = tmp.(ExportView)
	default:
		tmp, cmd = m.operations.Update(msg)
		m.operations = tmp.(OperationsModel)
	}
	return m, cmd
}

func (m AppModel) View() string {
	if m.page == pageExport {
		return m.export.View()
	}
	return m.operations.View()
}

// Adjustments returns the current selections and overrides.
func (m AppModel) Adjustments() *catalog.Adjustments {
	return m.operations.Adjustments()
}

// Kept returns how many operations remain selected.
func (m AppModel) Kept() int {
	return m.operations.Kept()
}

// IsFinished reports whether the adjustments were exported.
func (m AppModel) IsFinished() bool {
	return m.export.Success
}
