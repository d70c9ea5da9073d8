// internal/analysis/render.go
// Package: analysis
package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	groupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func rule(w io.Writer) { fmt.Fprintln(w, strings.Repeat("=", 60)) }

// RenderTokenStats prints the grouped and overall token statistics.
func RenderTokenStats(w io.Writer, by GroupBy, groups []TokenGroup, overall TokenGroup, ok bool) {
	rule(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("AVERAGE TOTAL_TOKENS BY %s", strings.ToUpper(string(by)))))
	rule(w)

	if len(groups) == 0 {
		fmt.Fprintln(w, "No data to compute averages.")
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w)
		fmt.Fprintln(w, groupStyle.Render(fmt.Sprintf("%s: %s", by, g.Label)))
		fmt.Fprintf(w, "  - Samples: %d\n", g.Count)
		fmt.Fprintf(w, "  - Average total_tokens: %.2f\n", g.Mean)
		fmt.Fprintf(w, "  - Minimum: %d\n", g.Min)
		fmt.Fprintf(w, "  - Maximum: %d\n", g.Max)
	}
	fmt.Fprintln(w)
	rule(w)

	if ok {
		fmt.Fprintln(w, titleStyle.Render("OVERALL"))
		fmt.Fprintf(w, "  - Total samples: %d\n", overall.Count)
		fmt.Fprintf(w, "  - Overall average: %.2f\n", overall.Mean)
		fmt.Fprintf(w, "  - Global minimum: %d\n", overall.Min)
		fmt.Fprintf(w, "  - Global maximum: %d\n", overall.Max)
	}
}

// RenderSummary prints the run report.
func RenderSummary(w io.Writer, s Summary) {
	if s.Total == 0 {
		fmt.Fprintln(w, "No results to display.")
		return
	}
	rule(w)
	fmt.Fprintln(w, titleStyle.Render("BENCHMARK SUMMARY"))
	rule(w)
	fmt.Fprintf(w, "Total requests: %d\n", s.Total)
	fmt.Fprintln(w, goodStyle.Render(fmt.Sprintf("Successful: %d", s.Successful)))
	failed := fmt.Sprintf("Failed: %d", s.Failed)
	if s.Failed > 0 {
		failed = badStyle.Render(failed)
	}
	fmt.Fprintln(w, failed)
	if s.Timeouts > 0 {
		fmt.Fprintf(w, "Timeouts: %d\n", s.Timeouts)
	}
	if s.Successful > 0 {
		fmt.Fprintf(w, "Average response time: %.2fs\n", s.AvgElapsedSeconds)
		fmt.Fprintf(w, "Average prompt length: %.0f characters\n", s.AvgPromptChars)
		fmt.Fprintf(w, "Average response length: %.0f characters\n", s.AvgResponseChars)
		if s.HasTokens {
			fmt.Fprintf(w, "Average total tokens: %.0f\n", s.AvgTotalTokens)
		}
	}
	rule(w)
}

// RenderModels prints per-model latency and throughput.
func RenderModels(w io.Writer, models []ModelSummary) {
	for _, m := range models {
		fmt.Fprintln(w, groupStyle.Render(fmt.Sprintf("MODEL: %s", m.Model)))
		fmt.Fprintf(w, "  Requests ok/total: %d / %d\n", m.Successful, m.Requests)
		fmt.Fprintf(w, "  Elapsed p50/p95: %.2f / %.2f s\n", m.ElapsedP50, m.ElapsedP95)
		fmt.Fprintf(w, "  Completion TPS mean±std: %.2f ± %.2f tok/s\n\n", m.TokensPerSecMean, m.TokensPerSecStd)
	}
}
