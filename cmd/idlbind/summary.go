package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"idlbind/internal/core/app"
	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func renderSummary(res *app.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("idlbind"))
	b.WriteString(" ")
	b.WriteString(statusStyle.Render(fmt.Sprintf("run %s | %s", res.RunID, res.Elapsed.Round(time.Millisecond))))
	b.WriteString("\n")

	b.WriteString(successStyle.Render("Resolved"))
	b.WriteString(fmt.Sprintf(" %d files | %d modules | %d symbols\n", res.Files, res.Modules, res.Symbols))
	b.WriteString(fmt.Sprintf("%d interfaces, %d boundary types\n", len(res.Interfaces), len(res.BoundaryTypes)))
	for _, bt := range res.BoundaryTypes {
		b.WriteString(fmt.Sprintf("  %3d  %s\n", bt.ID, bt.Key))
	}
	for _, path := range res.Outputs {
		b.WriteString(statusStyle.Render("wrote " + path))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFailure shows the error code first, then the message with its context.
func renderFailure(err error) string {
	return failureStyle.Render(string(errors.CodeOf(err))) + " " + err.Error()
}

func lookupPath(res *app.Result, path string) (string, error) {
	entry, err := res.Tree.LookupPath(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s -> %s (%s)", path, entry.CanonicalString(), symtab.KindOf(entry)), nil
}
