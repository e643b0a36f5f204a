package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/schemaflow/pkg/diagram"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// IssueBrowserModel - Interactive validation issue review
// =============================================================================

// IssueBrowserModel is the bubbletea model for browsing validation issues.
// The table shows a windowed slice of the issues; the pane below it shows
// the full message of the selected issue, which the table truncates.
type IssueBrowserModel struct {
	Issues []diagram.Issue
	Cursor int
	Height int
	Offset int
}

// NewIssueBrowserModel creates a new issue browser over the given issues.
func NewIssueBrowserModel(issues []diagram.Issue) IssueBrowserModel {
	return IssueBrowserModel{
		Issues: issues,
		Height: 12,
	}
}

func (m IssueBrowserModel) Init() tea.Cmd {
	return nil
}

func (m IssueBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Issues)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g", "home":
			m.Cursor = 0
			m.Offset = 0
		case "G", "end":
			m.Cursor = len(m.Issues) - 1
			m.Offset = m.Cursor - m.Height + 1
			if m.Offset < 0 {
				m.Offset = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 4 {
			m.Height = 4
		}
	}
	return m, nil
}

func (m IssueBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Validation Issues"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Issues) == 0 {
		b.WriteString(StyleSuccess.Render("No issues found."))
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Issues) {
		end = len(m.Issues)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		issue := m.Issues[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			issue.Stage,
			issue.Kind,
			issue.Subject,
			truncate(issue.Message, 48),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Stage", "Kind", "Subject", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Issues) {
				return lipgloss.NewStyle()
			}
			issue := m.Issues[actualIdx]
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 2 {
				base = base.Foreground(kindColor(issue.Kind))
			}
			if isCurrent {
				return base.Bold(true)
			}
			if col != 2 {
				return base.Foreground(colorGray)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Issues))))
	b.WriteString("\n\n")
	b.WriteString(m.detailView())

	return b.String()
}

// detailView renders the selected issue in full.
func (m IssueBrowserModel) detailView() string {
	issue := m.Issues[m.Cursor]

	labelStyle := lipgloss.NewStyle().Foreground(colorGray).Width(9)
	var b strings.Builder
	b.WriteString(labelStyle.Render("stage") + StyleValue.Render(issue.Stage) + "\n")
	b.WriteString(labelStyle.Render("kind") + lipgloss.NewStyle().Foreground(kindColor(issue.Kind)).Render(issue.Kind) + "\n")
	b.WriteString(labelStyle.Render("subject") + StyleValue.Render(issue.Subject) + "\n")
	b.WriteString(labelStyle.Render("message") + StyleValue.Render(issue.Message) + "\n")
	return b.String()
}

// kindColor maps issue kinds to severity colors: conflicts and unknown
// targets point at contradictory inputs, the rest at missing coverage.
func kindColor(kind string) lipgloss.Color {
	switch kind {
	case "conflict", "unknown-target":
		return colorRed
	default:
		return colorYellow
	}
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
