package ui

import (
	"fmt"
	"time"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/core/report"
)

// Print functions for consistent output

func Error(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func Success(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func Info(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", InfoIcon, InfoStyle.Render(fmt.Sprintf(format, args...)))
}

func Warning(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, "%s %s\n", WarningIcon, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// OutputLine prints one unstyled line
func OutputLine(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// PrintRepositoryList displays configured repositories in file order
func PrintRepositoryList(descriptors []config.Descriptor) {
	if len(descriptors) == 0 {
		Info("No repositories configured")
		return
	}

	tbl := NewTable("TITLE", "UPSTREAM")
	for _, d := range descriptors {
		tbl.AddRow(d.Title, d.UpstreamURL)
	}

	PrintSectionHeader(RepositoryIcon, "Repositories", len(descriptors))
	tbl.Print()
	OutputLine("")
}

// PrintCloneList displays discovered clones with their branch and remotes
func PrintCloneList(infos []forks.CloneInfo) {
	if len(infos) == 0 {
		Info("No clones found")
		return
	}

	tbl := NewTable("NAME", "BRANCH", "ORIGIN", "UPSTREAM")
	for _, info := range infos {
		branch := info.Branch
		if info.Error != "" {
			branch = ErrorStyle.Render(info.Error)
		}
		tbl.AddRow(info.Name, orDash(branch), orDash(info.Origin), orDash(info.Upstream))
	}

	PrintSectionHeader(ForkIcon, "Clones", len(infos))
	tbl.Print()
	OutputLine("")
}

// PrintResults displays per-clone sync results followed by a summary line
func PrintResults(results []forks.Result) {
	if len(results) == 0 {
		Info("No clones to sync")
		return
	}

	tbl := NewTable("CLONE", "STATUS", "DETAIL")
	for _, r := range results {
		tbl.AddRow(r.Clone.Name, OutcomeStyle(r.Outcome).Render(string(r.Outcome)), r.Detail())
	}
	tbl.Print()
	OutputLine("")

	PrintSummary(forks.Summarize(results))
}

// PrintSummary distinguishes "all up to date" from "N of M need attention"
func PrintSummary(s forks.Summary) {
	switch {
	case s.Total == 0:
		Info("No clones to sync")
	case s.AllUpToDate():
		Success("All %d clones up to date (%d fast-forwarded)", s.Total, s.FastForwarded)
	case s.NeedsAttention() == 0:
		Info("%d of %d clones can be fast-forwarded", s.Behind, s.Total)
	default:
		Warning("%d of %d clones need attention (%d diverged, %d failed)", s.NeedsAttention(), s.Total, s.Diverged, s.Failed)
	}
}

// PrintReport displays a stored sync report
func PrintReport(r *report.Report) {
	mode := ""
	if r.DryRun {
		mode = DimStyle.Render(" (dry run)")
	}
	OutputLine("%s %s%s", BoldStyle.Render(r.Repository), DimStyle.Render(r.UpstreamURL), mode)
	OutputLine("   %s %s", DimStyle.Render("Run:"), r.ID.Short())
	OutputLine("   %s %s", DimStyle.Render("Root:"), r.Root)
	OutputLine("   %s %s (took %s)", DimStyle.Render("Finished:"), FormatTime(r.FinishedAt), r.Duration().Round(time.Millisecond))
	OutputLine("")

	tbl := NewTable("CLONE", "STATUS", "DETAIL")
	for _, rec := range r.Results {
		tbl.AddRow(rec.Clone, OutcomeStyle(rec.Outcome).Render(string(rec.Outcome)), rec.Detail)
	}
	tbl.Print()
	OutputLine("")

	PrintSummary(r.Summary)
}

// FormatTime formats a time relative to now for display
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		minutes := int(diff.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
