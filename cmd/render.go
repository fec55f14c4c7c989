package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/prdupe/internal/dedup"
	"github.com/Yates-Labs/prdupe/internal/orchestrator"
	"github.com/Yates-Labs/prdupe/internal/rag"
)

// LipGloss signature purple/pink palette
var (
	headerColor  = lipgloss.Color("#F780FF") // Bright pink/magenta
	itemColor    = lipgloss.Color("#BD93F9") // Purple
	numberColor  = lipgloss.Color("#FF79C6") // Pink
	textColor    = lipgloss.Color("#E9E9F4") // Light purple/white
	borderColor  = lipgloss.Color("#6272A4") // Muted purple
	summaryColor = lipgloss.Color("#8BE9FD") // Cyan accent
	errorColor   = lipgloss.Color("#FF5555") // Red
	successColor = lipgloss.Color("#50FA7B") // Green

	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(borderColor)
	textStyle    = lipgloss.NewStyle().Foreground(textColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(borderColor).Italic(true)
	summaryStyle = lipgloss.NewStyle().Foreground(summaryColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
)

// Column widths
const (
	kindWidth   = 8
	numberWidth = 8
	scoreWidth  = 8
	statusWidth = 10
	titleWidth  = 52
)

// renderReport prints a report as a styled table
func renderReport(w io.Writer, report *orchestrator.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Checked:"), textStyle.Render(itemLabel(report.Item)))
	if report.Item.Title != "" {
		fmt.Fprintln(w, summaryStyle.Render(report.Item.Title))
	}
	fmt.Fprintln(w)

	renderVerdict(w, report.Verdict)
	renderDiff(w, report.Diff)

	if len(report.References) > 0 {
		refs := make([]string, len(report.References))
		for i, n := range report.References {
			refs[i] = fmt.Sprintf("#%d", n)
		}
		fmt.Fprintln(w, headerStyle.Render("References:"), textStyle.Render(strings.Join(refs, ", ")))
		fmt.Fprintln(w)
	}

	if report.Explanation != nil {
		fmt.Fprintln(w, headerStyle.Render("Explanation:"))
		fmt.Fprintln(w, textStyle.Render(strings.TrimSpace(report.Explanation.Text)))
		fmt.Fprintln(w)
	}
}

func renderVerdict(w io.Writer, verdict dedup.Verdict) {
	switch top, ok := verdict.Top(); {
	case !ok:
		fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("✓ No similar items above %.2f", verdict.Threshold)))
		fmt.Fprintln(w)
		return
	case verdict.IsDuplicate:
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ Likely duplicate of %s #%d (%.2f)", top.Kind, top.Number, top.Similarity)))
	default:
		fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d similar items above %.2f", len(verdict.Candidates), verdict.Threshold)))
	}
	fmt.Fprintln(w)

	cell := lipgloss.NewStyle().Padding(0, 1)
	headers := []string{
		cell.Foreground(headerColor).Bold(true).Width(kindWidth).Render("KIND"),
		cell.Foreground(headerColor).Bold(true).Width(numberWidth).Render("NUMBER"),
		cell.Foreground(headerColor).Bold(true).Width(scoreWidth).Render("SCORE"),
		cell.Foreground(headerColor).Bold(true).Width(statusWidth).Render("STATUS"),
		cell.Foreground(headerColor).Bold(true).Width(titleWidth).Render("TITLE"),
	}
	fmt.Fprintln(w, strings.Join(headers, borderStyle.Render("│")))

	separatorParts := []string{
		strings.Repeat("─", kindWidth),
		strings.Repeat("─", numberWidth),
		strings.Repeat("─", scoreWidth),
		strings.Repeat("─", statusWidth),
		strings.Repeat("─", titleWidth),
	}
	fmt.Fprintln(w, borderStyle.Render(strings.Join(separatorParts, "┼")))

	for _, c := range verdict.Candidates {
		cells := []string{
			cell.Foreground(itemColor).Width(kindWidth).Render(string(c.Kind)),
			cell.Foreground(numberColor).Width(numberWidth).Align(lipgloss.Right).Render(fmt.Sprintf("#%d", c.Number)),
			cell.Foreground(numberColor).Width(scoreWidth).Align(lipgloss.Right).Render(fmt.Sprintf("%.2f", c.Similarity)),
			cell.Foreground(textColor).Width(statusWidth).Render(statusLabel(c.Status)),
			cell.Foreground(textColor).Width(titleWidth).Render(truncate(c.Title, titleWidth-2)),
		}
		fmt.Fprintln(w, strings.Join(cells, borderStyle.Render("│")))
		if c.URL != "" {
			fmt.Fprintln(w, mutedStyle.Render("  "+c.URL))
		}
	}
	fmt.Fprintln(w)
}

func renderDiff(w io.Writer, summary orchestrator.DiffSummary) {
	if len(summary.Files) == 0 {
		return
	}

	stats := fmt.Sprintf("%d files, +%d -%d", len(summary.Files), summary.Stats.Additions, summary.Stats.Deletions)
	if summary.Language != "" {
		stats += " (" + summary.Language + ")"
	}
	fmt.Fprintln(w, headerStyle.Render("Diff:"), textStyle.Render(stats))
	for _, change := range summary.Changes {
		fmt.Fprintln(w, mutedStyle.Render("  "+change))
	}
	fmt.Fprintln(w)
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func itemLabel(item dedup.Item) string {
	if item.Number <= 0 {
		return "local change"
	}
	if item.Kind == rag.KindIssue {
		return fmt.Sprintf("issue #%d", item.Number)
	}
	return fmt.Sprintf("pull request #%d", item.Number)
}

func statusLabel(s dedup.Status) string {
	if s == dedup.StatusUnknown {
		return "-"
	}
	return string(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
