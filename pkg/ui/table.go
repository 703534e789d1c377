package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"otwscraper/pkg/models"
)

// PreviewRows is how many profiles the result table shows
const PreviewRows = 20

var (
	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D9FF"))
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF006E")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
	tableFooter = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Italic(true)
)

// RenderProfiles renders the first PreviewRows records as a table, with a
// footer counting the rest.
func RenderProfiles(records []models.ProfileRecord) string {
	if len(records) == 0 {
		return tableFooter.Render("No profiles collected.")
	}

	shown := records
	if len(shown) > PreviewRows {
		shown = shown[:PreviewRows]
	}

	rows := make([][]string, 0, len(shown))
	for i, r := range shown {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncate(r.FullName(), 28),
			truncate(r.Headline, 40),
			truncate(r.CurrentCompany, 20),
			truncate(r.Location, 24),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers("#", "Name", "Headline", "Company", "Location").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})

	var b strings.Builder
	b.WriteString(t.String())
	if extra := len(records) - len(shown); extra > 0 {
		b.WriteString("\n")
		b.WriteString(tableFooter.Render(fmt.Sprintf("(%d more)", extra)))
	}
	return b.String()
}
