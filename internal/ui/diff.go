// Package ui renders change-sets for the terminal and provides the
// confirmation prompt used before destructive operations.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/editledger/editledger/internal/history"
)

// Styles for diff rendering
var (
	fileHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	diffAddedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2"))

	diffRemovedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("1"))

	diffContextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("8"))
)

// maximum unchanged lines shown around a hunk before eliding
const contextLines = 2

// RenderDiff produces a colored line diff between two file contents.
func RenderDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				sb.WriteString(diffAddedStyle.Render("+ "+line) + "\n")
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				sb.WriteString(diffRemovedStyle.Render("- "+line) + "\n")
			}
		case diffmatchpatch.DiffEqual:
			for _, line := range elideContext(lines) {
				sb.WriteString(diffContextStyle.Render("  "+line) + "\n")
			}
		}
	}
	return sb.String()
}

// RenderChangeSet renders a full change-set: per-file headers with stats,
// followed by each file's diff.
func RenderChangeSet(cs *history.ChangeSet) string {
	var sb strings.Builder

	header := cs.ID
	if cs.Description != "" {
		header = fmt.Sprintf("%s  %s", cs.ID, cs.Description)
	}
	sb.WriteString(fileHeaderStyle.Render(header) + "\n")
	sb.WriteString(statsStyle.Render(fmt.Sprintf("%d file(s), +%d -%d ~%d",
		len(cs.Files), cs.TotalStats.Added, cs.TotalStats.Removed, cs.TotalStats.Modified)) + "\n\n")

	for _, f := range cs.Files {
		label := f.Path
		if f.IsNewFile {
			label += " (new file)"
		}
		sb.WriteString(fileHeaderStyle.Render(label) + "\n")
		sb.WriteString(RenderDiff(f.Before, f.After))
		sb.WriteString("\n")
	}
	return sb.String()
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// elideContext keeps only the leading and trailing lines of a long
// unchanged run, replacing the middle with an ellipsis marker.
func elideContext(lines []string) []string {
	if len(lines) <= contextLines*2+1 {
		return lines
	}
	out := make([]string, 0, contextLines*2+1)
	out = append(out, lines[:contextLines]...)
	out = append(out, fmt.Sprintf("... (%d lines)", len(lines)-contextLines*2))
	out = append(out, lines[len(lines)-contextLines:]...)
	return out
}
