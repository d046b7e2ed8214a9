package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/promptree/pkg/graph"
)

func testRows(n int) []nodeRow {
	rows := make([]nodeRow, n)
	for i := range rows {
		rows[i] = nodeRow{ID: "n" + string(rune('a'+i)), Kind: graph.KindCompletion}
	}
	return rows
}

func press(m NodeListModel, keys ...tea.Msg) NodeListModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(NodeListModel)
	}
	return m
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestNodeListModelStartsAtLastRow(t *testing.T) {
	m := NewNodeListModel(testRows(3))
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}
}

func TestNodeListModelSelect(t *testing.T) {
	m := press(NewNodeListModel(testRows(3)), keyUp, keyUp, keyUp, keyDown, keyEnter)
	if m.Selected == nil || m.Selected.ID != "nb" {
		t.Fatalf("Selected = %+v, want nb", m.Selected)
	}
}

func TestNodeListModelScroll(t *testing.T) {
	m := press(NewNodeListModel(testRows(20)), tea.WindowSizeMsg{Height: 11})
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	for range 10 {
		m = press(m, keyUp)
	}
	if m.Cursor != 9 {
		t.Fatalf("Cursor = %d, want 9", m.Cursor)
	}
	if m.Offset > m.Cursor || m.Cursor >= m.Offset+m.Height {
		t.Errorf("cursor %d outside window [%d, %d)", m.Cursor, m.Offset, m.Offset+m.Height)
	}
}

func TestNodeListModelQuit(t *testing.T) {
	m := NewNodeListModel(testRows(2))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Error("esc should quit")
	}
	if next.(NodeListModel).Selected != nil {
		t.Error("esc should not select")
	}
}

func TestNodeListModelView(t *testing.T) {
	view := NewNodeListModel(testRows(2)).View()
	for _, want := range []string{"Select Parent Node", "na", "nb", "[2/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"first\nsecond", 10, "first"},
		{"abcdefghij", 5, "abcd…"},
	}
	for _, tt := range tests {
		if got := preview(tt.in, tt.width); got != tt.want {
			t.Errorf("preview(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestNodeRows(t *testing.T) {
	g := graph.NewDefault()
	if err := g.AddNode(graph.Node{ID: "p", Kind: graph.KindPrompt, Content: "Hi"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(graph.Edge{ID: "e", Source: graph.DefaultSystemID, Target: "p"}); err != nil {
		t.Fatal(err)
	}

	rows := nodeRows(g, 0)
	if len(rows) != 2 || rows[1].Depth != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows := nodeRows(g, graph.KindPrompt); len(rows) != 1 || rows[0].ID != "p" {
		t.Errorf("prompt rows = %+v", rows)
	}
}
