package tui

import (
	"fmt"
	"strings"

	"framer/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := DimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		line := fmt.Sprintf("%s | %s", LabelStyle.Render(padRight(row.Label, labelWidth)), valueStyle.Render(padRight(row.Value, valueWidth)))
		lines = append(lines, line)
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderOutcomes lists the files that did not come out cleanly, one per line.
// Plain skips are left out.
func RenderOutcomes(outcomes []processor.Outcome) string {
	var lines []string
	for _, o := range outcomes {
		switch {
		case o.Status == processor.StatusFailed:
			lines = append(lines, ErrorStyle.Render("✗ "+o.Name)+"  "+DimStyle.Render(o.String()))
		case o.Status == processor.StatusProcessed && o.Fitted && !o.InRange:
			lines = append(lines, WarnStyle.Render("! "+o.Name)+"  "+DimStyle.Render(o.String()))
		}
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
