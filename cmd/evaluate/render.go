package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/autodesk-chris/experiment-evaluator-2.0/internal/models"
)

func renderReport(w io.Writer, report *models.AggregateReport, noColor bool) {
	table := newTable(w, []string{"Section", "Score", "Status", "Assessment"})
	for _, res := range report.Sections {
		_ = table.Append([]string{
			res.DisplayName,
			fmt.Sprintf("%g/%d", res.Score, res.MaxPoints),
			string(res.Status),
			res.Rationale,
		})
	}
	_ = table.Render()

	total := fmt.Sprintf("Overall Score: %d%% (%g/%d, rubric %s)",
		report.TotalPercentage, report.TotalScore, report.MaxScore, report.RubricVersion)
	fmt.Fprintln(w, stylize(total, noColor, totalColor(report.TotalPercentage)))
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

func totalColor(pct int) lipgloss.Color {
	switch {
	case pct >= 80:
		return lipgloss.Color("34")
	case pct >= 50:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("160")
	}
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(text)
}
