package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aalvaropc/readprep/internal/domain"
)

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func renderSummary(t Theme, run domain.RunArtifact, id string) string {
	var b strings.Builder

	status := string(run.Status)
	switch run.Status {
	case domain.RunSucceeded:
		status = t.Done.Render(status)
	case domain.RunFailed, domain.RunPartial:
		status = t.Failed.Render(status)
	}

	fmt.Fprintf(&b, "Status:   %s\n", status)
	if run.OutputDir != "" {
		fmt.Fprintf(&b, "Output:   %s\n", run.OutputDir)
	}
	if !run.StartedAt.IsZero() && !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if id != "" {
		fmt.Fprintf(&b, "Run ID:   %s\n", id)
	}

	var failed []string
	for _, s := range run.Samples {
		if s.Status == domain.SampleFailed && s.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", s.SampleID, s.Error.Kind))
		}
	}
	if len(failed) > 0 {
		b.WriteString("\nFailed samples:\n")
		for _, f := range failed {
			b.WriteString("  - ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}

	return t.Card.Render(strings.TrimRight(b.String(), "\n"))
}
