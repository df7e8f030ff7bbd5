package tui

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ErrNothingSelected is returned when every operation was removed. An
// adjustments file without route selections keeps everything, so that
// choice cannot be written.
var ErrNothingSelected = errors.New("no operations selected")

// backMsg returns from the export page to the list.
type backMsg struct{}

// ExportView prompts for a file name and writes the adjustments to it.
type ExportView struct {
	adjustments *catalog.Adjustments
	kept        int
	textInput   textinput.Model
	width       int
	height      int
	status      string
	Success     bool
}

// NewExportView creates an export view for adj. kept is the number of
// selected operations.
func NewExportView(adj *catalog.Adjustments, kept int, initial string) ExportView {
	ti := textinput.New()
	ti.Placeholder = "adjustments.yaml"
	ti.SetValue(initial)
	ti.Focus()
	ti.Width = 40

	return ExportView{adjustments: adj, kept: kept, textInput: ti}
}

func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return backMsg{} }
		case "enter":
			return m.export()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m ExportView) export() (tea.Model, tea.Cmd) {
	filename := strings.TrimSpace(m.textInput.Value())
	if filename == "" {
		m.status = "Please enter a filename"
		return m, nil
	}
	if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
		filename += ".yaml"
	}
	if m.kept == 0 {
		m.status = failedMessageStyle(ErrNothingSelected.Error())
		return m, nil
	}

	if err := WriteAdjustments(m.adjustments, filename); err != nil {
		m.status = failedMessageStyle(fmt.Sprintf("Error exporting: %v", err))
		return m, nil
	}

	m.Success = true
	m.status = completeMessageStyle("Exported to " + filename)
	return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tea.Quit()
	})
}

func (m ExportView) View() string {
	var sb strings.Builder

	for range max((m.height-6)/2, 0) {
		sb.WriteString("\n")
	}

	sb.WriteString(centerText(titleStyle.Render("Export adjustments"), m.width))
	sb.WriteString("\n\n")
	sb.WriteString(centerText("File to write:", m.width))
	sb.WriteString("\n")
	sb.WriteString(centerText(m.textInput.View(), m.width))
	sb.WriteString("\n\n")

	if m.status != "" {
		sb.WriteString(centerText(m.status, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText(mutedStyle.Render("(esc) Back | (enter) Export"), m.width))
	return sb.String()
}

// buildAdjustments groups selections and description overrides by path.
// Paths and methods are sorted so the output is stable.
func buildAdjustments(items []operationItem) *catalog.Adjustments {
	descriptions := make(map[string][]catalog.DescriptionUpdate)
	methods := make(map[string][]string)

	for _, it := range items {
		path, method := it.op.Path, it.op.Method
		if it.newDescription != "" && !it.removed {
			descriptions[path] = append(descriptions[path], catalog.DescriptionUpdate{
				Method:         method,
				NewDescription: it.newDescription,
			})
		}
		if !it.removed {
			methods[path] = append(methods[path], method)
		}
	}

	adj := &catalog.Adjustments{}
	for path, updates := range descriptions {
		slices.SortFunc(updates, func(a, b catalog.DescriptionUpdate) int {
			return cmp.Compare(a.Method, b.Method)
		})
		adj.Descriptions = append(adj.Descriptions, catalog.RouteDescription{Path: path, Updates: updates})
	}
	for path, ms := range methods {
		slices.Sort(ms)
		adj.Routes = append(adj.Routes, catalog.RouteSelection{Path: path, Methods: ms})
	}
	slices.SortFunc(adj.Descriptions, func(a, b catalog.RouteDescription) int {
		return cmp.Compare(a.Path, b.Path)
	})
	slices.SortFunc(adj.Routes, func(a, b catalog.RouteSelection) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return adj
}

// WriteAdjustments writes adj to filename as YAML.
func WriteAdjustments(adj *catalog.Adjustments, filename string) error {
	data, err := yaml.Marshal(adj)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}
