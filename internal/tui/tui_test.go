package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/brizzai/auto-xhr/internal/transport/transporttest"
	"github.com/brizzai/auto-xhr/internal/xhr"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOperations() []*catalog.Operation {
	return []*catalog.Operation{
		{ID: "listPets", Method: "GET", Path: "/pets", Description: "List pets"},
		{ID: "createPet", Method: "POST", Path: "/pets", Description: "Create a pet"},
		{ID: "getPet", Method: "GET", Path: "/pets/{id}", Description: "Get a pet"},
	}
}

func testAdjuster() *catalog.Adjuster {
	return catalog.NewAdjusterFrom(&catalog.Adjustments{
		Descriptions: []catalog.RouteDescription{
			{Path: "/pets", Updates: []catalog.DescriptionUpdate{{Method: "GET", NewDescription: "List all the pets"}}},
		},
		Routes: []catalog.RouteSelection{
			{Path: "/pets", Methods: []string{"GET", "POST"}},
		},
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m OperationsModel, msgs ...tea.Msg) OperationsModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(OperationsModel)
	}
	return m
}

func TestOperationsModel_SeedsFromAdjuster(t *testing.T) {
	m := NewOperationsModel(testOperations(), testAdjuster())

	want := &catalog.Adjustments{
		Descriptions: []catalog.RouteDescription{
			{Path: "/pets", Updates: []catalog.DescriptionUpdate{{Method: "GET", NewDescription: "List all the pets"}}},
		},
		Routes: []catalog.RouteSelection{
			{Path: "/pets", Methods: []string{"GET", "POST"}},
		},
	}
	if diff := cmp.Diff(want, m.Adjustments()); diff != "" {
		t.Errorf("adjustments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, m.Kept())
}

func TestOperationsModel_ToggleRemoval(t *testing.T) {
	m := NewOperationsModel(testOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 3, m.Kept())

	m = update(t, m, runes("x"))
	assert.Equal(t, 2, m.Kept())
	assert.Equal(t, []catalog.RouteSelection{
		{Path: "/pets", Methods: []string{"POST"}},
		{Path: "/pets/{id}", Methods: []string{"GET"}},
	}, m.Adjustments().Routes)

	m = update(t, m, runes("x"))
	assert.Equal(t, 3, m.Kept())
}

func TestOperationsModel_EditDescription(t *testing.T) {
	m := NewOperationsModel(testOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}, runes("e"))
	require.True(t, m.editing)
	assert.Contains(t, m.View(), "GET /pets")

	m = update(t, m, runes("!"), tea.KeyMsg{Type: tea.KeyCtrlS})
	require.False(t, m.editing)

	assert.Equal(t, []catalog.RouteDescription{
		{Path: "/pets", Updates: []catalog.DescriptionUpdate{{Method: "GET", NewDescription: "List pets!"}}},
	}, m.Adjustments().Descriptions)
}

func TestOperationsModel_RemovedCannotBeEdited(t *testing.T) {
	m := NewOperationsModel(testOperations(), nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40}, runes("x"), runes("e"))
	assert.False(t, m.editing)
}

func TestOperationsModel_FinishAndQuit(t *testing.T) {
	m := NewOperationsModel(testOperations(), nil)

	_, cmd := m.Update(runes("f"))
	require.NotNil(t, cmd)
	assert.Equal(t, doneMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWriteAdjustments_LoadsBack(t *testing.T) {
	m := NewOperationsModel(testOperations(), testAdjuster())
	file := filepath.Join(t.TempDir(), "adjustments.yaml")
	require.NoError(t, WriteAdjustments(m.Adjustments(), file))

	adj := catalog.NewAdjuster()
	require.NoError(t, adj.Load(file))
	assert.True(t, adj.ExistsInCatalog("/pets", "GET"))
	assert.True(t, adj.ExistsInCatalog("/pets", "POST"))
	assert.False(t, adj.ExistsInCatalog("/pets/{id}", "GET"))
	assert.Equal(t, "List all the pets", adj.GetDescription("/pets", "GET", "List pets"))
	assert.Equal(t, "Create a pet", adj.GetDescription("/pets", "POST", "Create a pet"))
}

func TestExportView(t *testing.T) {
	adj := &catalog.Adjustments{Routes: []catalog.RouteSelection{{Path: "/pets", Methods: []string{"GET"}}}}

	tests := []struct {
		name        string
		kept        int
		filename    string
		wantFile    string
		wantSuccess bool
		wantStatus  string
	}{
		{name: "adds extension", kept: 1, filename: "out", wantFile: "out.yaml", wantSuccess: true, wantStatus: "Exported to"},
		{name: "keeps yml", kept: 1, filename: "out.yml", wantFile: "out.yml", wantSuccess: true, wantStatus: "Exported to"},
		{name: "empty name", kept: 1, filename: "", wantStatus: "Please enter a filename"},
		{name: "nothing selected", kept: 0, filename: "out", wantStatus: "no operations selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			name := tt.filename
			if name != "" {
				name = filepath.Join(dir, name)
			}

			v := NewExportView(adj, tt.kept, name)
			next, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
			v = next.(ExportView)

			assert.Equal(t, tt.wantSuccess, v.Success)
			assert.Contains(t, v.View(), tt.wantStatus)
			if tt.wantSuccess {
				assert.NotNil(t, cmd)
				assert.FileExists(t, filepath.Join(dir, tt.wantFile))
			} else {
				entries, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.Empty(t, entries)
			}
		})
	}
}

func TestAppModel_Pages(t *testing.T) {
	var m tea.Model = NewAppModel(testOperations(), nil, "")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Contains(t, m.View(), "Catalog operations")

	m, _ = m.Update(doneMsg{})
	assert.Contains(t, m.View(), "Export adjustments")

	m, _ = m.Update(backMsg{})
	assert.Contains(t, m.View(), "Catalog operations")
	assert.False(t, m.(AppModel).IsFinished())
	assert.Equal(t, 3, m.(AppModel).Kept())
}

func TestProgressModel(t *testing.T) {
	tests := []struct {
		name    string
		mock    *transporttest.Mock
		wantErr bool
		want    []string
	}{
		{name: "resolved", mock: transporttest.OK(0), want: []string{"✓ GET /x", "200"}},
		{name: "rejected", mock: transporttest.Fail(0), wantErr: true, want: []string{"✗ GET /x", "unsuccessful status", "404 Bogus Failure"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := xhr.Send(context.Background(), "GET", "/x", nil, tt.mock)
			m := NewProgressModel("GET /x", f)
			assert.Contains(t, m.View(), "GET /x")

			msg := waitFor(f)()
			next, cmd := m.Update(msg)
			m = next.(ProgressModel)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())

			res, err := m.Outcome()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 200, res.Status)
			}
			for _, s := range tt.want {
				assert.Contains(t, m.View(), s)
			}
		})
	}
}

func TestProgressModel_Interrupt(t *testing.T) {
	f := xhr.Send(context.Background(), "GET", "/x", nil, transporttest.New(transporttest.Modern))
	m := NewProgressModel("GET /x", f)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(ProgressModel)
	require.NotNil(t, cmd)
	assert.True(t, m.Canceled())
	assert.Contains(t, m.View(), "interrupted")
	assert.False(t, f.Settled())
}
