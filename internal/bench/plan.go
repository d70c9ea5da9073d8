// internal/bench/plan.go
// Package: bench
package bench

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/k0kubun/pp"
)

var planHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

// Plan previews m without contacting the server: the matrix itself, one
// example prompt per size for the first topic, and the request counts.
func Plan(w io.Writer, m Matrix) {
	fmt.Fprintln(w, planHeader.Render("=== Experiment configuration ==="))
	pp.Fprintln(w, m)

	fmt.Fprintln(w)
	fmt.Fprintln(w, planHeader.Render("=== Example prompts ==="))
	if len(m.Topics) > 0 {
		for _, s := range m.Sizes {
			fmt.Fprintf(w, "%s (%d words, max_tokens %d): %q\n", s.Name, s.Words, m.MaxTokens(s), m.Prompt(m.Topics[0], s))
		}
	} else {
		fmt.Fprintln(w, "  no topics configured")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, planHeader.Render("=== Statistics ==="))
	fmt.Fprintf(w, "Queries per model: %d\n", m.PerModel())
	fmt.Fprintf(w, "Total queries: %d\n", m.Total())
	fmt.Fprintf(w, "JSON files to generate: %d\n", len(m.Models))

	if err := m.Validate(); err != nil {
		fmt.Fprintf(w, "\nWarning: %v\n", err)
	}
}
