package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"notes2blog/pipeline"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dc2626"))
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#444444")).
	Padding(0, 1)

// renderResult summarises a finished run for the terminal.
func renderResult(res pipeline.Result, paths []string) string {
	status := okStyle.Render("validated")
	if !res.Validated {
		status = warnStyle.Render("not validated")
	}

	var b strings.Builder
	title := res.Metadata.Title
	if title == "" {
		title = res.Theme
	}
	b.WriteString(headStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("component: %s\n", status))
	if res.Metadata.Summary != "" {
		b.WriteString(fmt.Sprintf("summary:   %s\n", res.Metadata.Summary))
	}
	if len(res.Metadata.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags:      %s\n", strings.Join(res.Metadata.Tags, ", ")))
	}
	b.WriteString(fmt.Sprintf("slug:      %s\n", res.Metadata.Slug))
	b.WriteString(fmt.Sprintf("reading:   %d min", res.Metadata.ReadingTime))
	for _, p := range paths {
		b.WriteString(fmt.Sprintf("\nwrote:     %s", p))
	}

	logs := dimStyle.Render(strings.Join(res.Logs, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(b.String()), logs)
}

func renderError(err error) string {
	return errStyle.Render("error: ") + err.Error()
}
