// internal/bench/prompts.go
// Package: bench
package bench

import (
	"strconv"
	"strings"
)

// DefaultTemplate is used by `config init`.
const DefaultTemplate = "Write about {topic} in approximately {size} words."

// Prompt fills the template with topic and the size's word count.
func (m Matrix) Prompt(topic string, s Size) string {
	return strings.NewReplacer(
		"{topic}", topic,
		"{size}", strconv.Itoa(s.Words),
	).Replace(m.Template)
}
