// internal/lmstudio/render.go
// Package: lmstudio
package lmstudio

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	modelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	loadedModelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	detailStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// RenderModels prints the served models. The first entry is marked as loaded
// in memory, following the LM Studio listing convention.
func RenderModels(w io.Writer, models []Model) {
	rule := strings.Repeat("-", 80)
	fmt.Fprintln(w, headerStyle.Render("Available models in LM Studio:"))
	fmt.Fprintln(w, rule)

	if len(models) == 0 {
		fmt.Fprintln(w, "  No models found.")
		return
	}

	for i, m := range models {
		name := fmt.Sprintf("  %d. %s", i+1, m.ID)
		if i == 0 {
			fmt.Fprintln(w, loadedModelStyle.Render(name))
		} else {
			fmt.Fprintln(w, modelStyle.Render(name))
		}
		fmt.Fprintln(w, detailStyle.Render(fmt.Sprintf("     Owner: %s", orNA(m.OwnedBy))))
		created := "N/A"
		if m.Created != 0 {
			created = fmt.Sprintf("%d", m.Created)
		}
		fmt.Fprintln(w, detailStyle.Render(fmt.Sprintf("     Created: %s", created)))
		if i == 0 {
			fmt.Fprintln(w, loadedModelStyle.Render("     Status: LOADED IN MEMORY"))
		}
	}
	fmt.Fprintln(w, rule)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
