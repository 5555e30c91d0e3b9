package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"extractor-engine/internal/metrics"
)

const rule = "----------------------------------------------------------------------"

// Render produces the human-readable end-of-run summary, one section per
// category.
func Render(m metrics.RunMetrics) string {
	var b strings.Builder

	head := strings.ReplaceAll(rule, "-", "=")
	fmt.Fprintf(&b, "\n%s\nEXTRACTION RUN SUMMARY\n%s\n\n", head, head)

	fmt.Fprintf(&b, "Run ID:    %s\n", m.RunID)
	fmt.Fprintf(&b, "Candidate: %s\n", m.CandidateID)
	fmt.Fprintf(&b, "Duration:  %.2f minutes\n", m.Duration().Minutes())
	fmt.Fprintf(&b, "Started:   %s\n", m.StartedAt.Format("2006-01-02 15:04:05"))
	if m.EndedAt.IsZero() {
		fmt.Fprintf(&b, "Ended:     in progress\n")
	} else {
		fmt.Fprintf(&b, "Ended:     %s\n", m.EndedAt.Format("2006-01-02 15:04:05"))
	}
	if m.Cancelled {
		fmt.Fprintf(&b, "Note:      run cancelled\n")
	}

	fmt.Fprintf(&b, "\n%s\nSEARCH PARAMETERS\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Keywords:  %s\n", orNone(m.Keywords))
	fmt.Fprintf(&b, "Locations: %s\n", orNone(m.Locations))

	fmt.Fprintf(&b, "\n%s\nEXTRACTION RESULTS\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Items Found:          %6d\n", m.JobsFound)
	fmt.Fprintf(&b, "Items Saved:          %6d\n", m.JobsSaved)
	fmt.Fprintf(&b, "Skipped (duplicate):  %6d\n", m.SkippedDuplicate)
	fmt.Fprintf(&b, "Skipped (other):      %6d\n", m.SkippedOther)
	fmt.Fprintf(&b, "Failed to Save:       %6d\n", m.FailedToSave)

	fmt.Fprintf(&b, "\n%s\nNAVIGATION\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Pages Visited:        %6d\n", m.PagesVisited)
	fmt.Fprintf(&b, "Scroll Attempts:      %6d\n", m.ScrollAttempts)

	fmt.Fprintf(&b, "\n%s\nERRORS & RETRIES\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total Errors:         %6d\n", len(m.Errors))
	fmt.Fprintf(&b, "Total Warnings:       %6d\n", len(m.Warnings))

	if len(m.RetriesByStep) > 0 {
		fmt.Fprintf(&b, "\nRetries by step:\n")
		steps := make([]string, 0, len(m.RetriesByStep))
		for s := range m.RetriesByStep {
			steps = append(steps, s)
		}
		sort.Slice(steps, func(i, j int) bool {
			if m.RetriesByStep[steps[i]] != m.RetriesByStep[steps[j]] {
				return m.RetriesByStep[steps[i]] > m.RetriesByStep[steps[j]]
			}
			return steps[i] < steps[j]
		})
		for _, s := range steps {
			fmt.Fprintf(&b, "  %-30s %6d\n", s, m.RetriesByStep[s])
		}
	}

	if len(m.Errors) > 0 {
		fmt.Fprintf(&b, "\nRecent errors (last 5):\n")
		start := len(m.Errors) - 5
		if start < 0 {
			start = 0
		}
		for _, e := range m.Errors[start:] {
			fmt.Fprintf(&b, "  [%s] %s\n", e.Timestamp.Format(time.TimeOnly), truncate(e.Message, 100))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", head)
	return b.String()
}

func orNone(xs []string) string {
	if len(xs) == 0 {
		return "none"
	}
	return strings.Join(xs, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
