package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/promptree/pkg/graph"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// previewWidth bounds the content column of node tables.
const previewWidth = 48

// =============================================================================
// Node Rows
// =============================================================================

// nodeRow is one node as shown in tables and the picker.
type nodeRow struct {
	ID      string
	Kind    graph.Kind
	Depth   int
	Preview string
}

// nodeRows lists the nodes of g in insertion order, optionally restricted
// to one kind.
func nodeRows(g *graph.Graph, kind graph.Kind) []nodeRow {
	var rows []nodeRow
	for _, n := range g.Nodes() {
		if kind.Valid() && n.Kind != kind {
			continue
		}
		depth, _ := g.Depth(n.ID)
		rows = append(rows, nodeRow{
			ID:      n.ID,
			Kind:    n.Kind,
			Depth:   depth,
			Preview: preview(n.Content, previewWidth),
		})
	}
	return rows
}

// preview returns the first line of s cut to width runes.
func preview(s string, width int) string {
	line, _, _ := strings.Cut(s, "\n")
	r := []rune(line)
	if len(r) <= width {
		return line
	}
	return string(r[:width-1]) + "…"
}

// nodeTable renders rows as a bordered table. The row at cursor, if any,
// is highlighted.
func nodeTable(rows []nodeRow, offset, cursor int) *table.Table {
	data := make([][]string, len(rows))
	for i, r := range rows {
		marker := "  "
		if offset+i == cursor {
			marker = "▸ "
		}
		data[i] = []string{marker, r.ID, renderKind(r.Kind), strconv.Itoa(r.Depth), r.Preview}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Kind", "Depth", "Content").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorDim)
			}
			if offset+row == cursor {
				return base.Bold(true)
			}
			return base
		})
}

// =============================================================================
// NodeListModel - Interactive parent selection
// =============================================================================

// NodeListModel is the bubbletea model for picking the parent of a prompt.
type NodeListModel struct {
	Rows     []nodeRow
	Cursor   int
	Selected *nodeRow
	Height   int
	Offset   int
}

// NewNodeListModel creates a picker over rows. The cursor starts on the
// last row, which is usually the newest completion.
func NewNodeListModel(rows []nodeRow) NodeListModel {
	m := NodeListModel{Rows: rows, Height: 15}
	if len(rows) > 0 {
		m.Cursor = len(rows) - 1
		m.Offset = max(0, m.Cursor-m.Height+1)
	}
	return m
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Rows) == 0 {
				return m, tea.Quit
			}
			row := m.Rows[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Parent Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	b.WriteString(nodeTable(m.Rows[m.Offset:end], m.Offset, m.Cursor).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
