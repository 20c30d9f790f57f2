package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Purple
	Success = lipgloss.Color("#22C55E") // Green
	Warning = lipgloss.Color("#F97316") // Orange
	Error   = lipgloss.Color("#F43F5E") // Rose
	TextDim = lipgloss.Color("#94A3B8") // Slate
	Border  = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextDim)

	okStyle = lipgloss.NewStyle().
		Foreground(Success)

	failStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(Warning)

	dimStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)
)

const (
	nameWidth  = 28
	countWidth = 10
)

func cell(s lipgloss.Style, width int, text string) string {
	return s.Width(width).Render(text)
}

// Render writes a human-readable summary of the report.
func (r *Report) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Gap-fill run " + r.RunID))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("curriculum %s, %s",
		r.CurriculumVersion, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))))
	b.WriteString("\n\n")

	plain := lipgloss.NewStyle()
	b.WriteString(cell(headerStyle, nameWidth, "Section"))
	for _, h := range []string{"Generated", "Passages", "Failed", "Skipped", "Time"} {
		b.WriteString(cell(headerStyle, countWidth, h))
	}
	b.WriteString("\n")

	for _, name := range r.SectionNames() {
		s := r.Sections[name]
		b.WriteString(cell(plain, nameWidth, name))
		b.WriteString(cell(okStyle, countWidth, fmt.Sprint(s.QuestionsGenerated)))
		b.WriteString(cell(plain, countWidth, fmt.Sprint(s.PassagesGenerated)))
		fail := plain
		if s.Failed > 0 {
			fail = failStyle
		}
		b.WriteString(cell(fail, countWidth, fmt.Sprint(s.Failed)))
		skip := plain
		if s.Skipped > 0 {
			skip = warnStyle
		}
		b.WriteString(cell(skip, countWidth, fmt.Sprint(s.Skipped)))
		b.WriteString(cell(dimStyle, countWidth, s.Duration))
		b.WriteString("\n")

		for _, u := range s.Units {
			if u.Outcome != OutcomeFailed {
				continue
			}
			line := fmt.Sprintf("  ✗ %s after %d attempts", u.Task, u.Attempts)
			if len(u.Reasons) > 0 {
				line += ": " + strings.Join(u.Reasons, ", ")
			}
			b.WriteString(failStyle.Render(line))
			b.WriteString("\n")
		}
		for _, e := range s.Errors {
			b.WriteString(failStyle.Render("  error: " + e))
			b.WriteString("\n")
		}
		for _, warn := range s.Warnings {
			b.WriteString(warnStyle.Render("  warning: " + warn))
			b.WriteString("\n")
		}
	}

	if len(r.Sections) == 0 {
		b.WriteString(dimStyle.Render("Nothing to generate; every bucket is at target."))
		b.WriteString("\n")
	}

	for _, s := range r.Skipped {
		b.WriteString(warnStyle.Render("skipped: " + s))
		b.WriteString("\n")
	}
	if len(r.Surpluses) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d buckets over target (not deleted):", len(r.Surpluses))))
		b.WriteString("\n")
		for _, s := range r.Surpluses {
			note := ""
			if s.Orphan {
				note = " (not in curriculum)"
			}
			fmt.Fprintf(&b, "  %s: %d/%d%s\n", s.Bucket, s.Actual, s.Expected, note)
		}
	}

	t := r.Totals()
	status := okStyle.Render("complete")
	switch {
	case r.Cancelled:
		status = warnStyle.Render("cancelled")
	case !r.Complete():
		status = failStyle.Render("incomplete")
	}
	summary := fmt.Sprintf("%s  %d generated, %d passages, %d failed, %d skipped",
		status, t.Generated, t.Passages, t.Failed, t.Skipped)

	_, err := fmt.Fprintln(w, cardStyle.Render(strings.TrimRight(b.String(), "\n")+"\n\n"+summary))
	return err
}
