// internal/bench/types.go
// Package: bench
package bench

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultDelay separates consecutive requests.
	DefaultDelay = time.Second
	// QuickDelay is the shorter delay of a quick test.
	QuickDelay = 500 * time.Millisecond
	// DefaultRepetitions is used when the configuration names none.
	DefaultRepetitions = 5
	// DefaultMaxTokensPerWord scales the requested size into max_tokens.
	DefaultMaxTokensPerWord = 2
	// DefaultTemperature is the sampling temperature when none is configured.
	DefaultTemperature = 0.7
	// DefaultCaseMaxTokens is the max_tokens of a test case that names none.
	DefaultCaseMaxTokens = 100
)

// ErrInvalidMatrix is returned when an experiment matrix cannot be run.
var ErrInvalidMatrix = errors.New("invalid experiment matrix")

// Size is one requested answer length, e.g. {Name: "short", Words: 50}.
type Size struct {
	Name  string `json:"name" yaml:"name"`
	Words int    `json:"words" yaml:"words"`
}

// Matrix is the cartesian product models × topics × sizes × repetitions.
type Matrix struct {
	Models      []string `json:"models"`
	Topics      []string `json:"topics"`
	Sizes       []Size   `json:"sizes"`
	Repetitions int      `json:"repetitions"`

	// Template is the prompt text with {topic} and {size} placeholders.
	Template    string  `json:"template"`
	Temperature float64 `json:"temperature"`

	// MaxTokensPerWord multiplies Size.Words into the max_tokens of a request.
	MaxTokensPerWord int `json:"max_tokens_per_word"`
}

// Validate reports why m cannot be run. The returned error wraps
// ErrInvalidMatrix.
func (m Matrix) Validate() error {
	switch {
	case len(m.Models) == 0:
		return fmt.Errorf("%w: no models", ErrInvalidMatrix)
	case len(m.Topics) == 0:
		return fmt.Errorf("%w: no topics", ErrInvalidMatrix)
	case len(m.Sizes) == 0:
		return fmt.Errorf("%w: no sizes", ErrInvalidMatrix)
	case m.Template == "":
		return fmt.Errorf("%w: empty template", ErrInvalidMatrix)
	case m.Repetitions <= 0:
		return fmt.Errorf("%w: repetitions must be positive, got %d", ErrInvalidMatrix, m.Repetitions)
	}
	for _, s := range m.Sizes {
		if s.Name == "" || s.Words <= 0 {
			return fmt.Errorf("%w: size %q needs a positive word count", ErrInvalidMatrix, s.Name)
		}
	}
	return nil
}

// PerModel returns the number of requests issued for each model.
func (m Matrix) PerModel() int {
	return len(m.Topics) * len(m.Sizes) * m.Repetitions
}

// Total returns the number of requests of the whole matrix.
func (m Matrix) Total() int {
	return len(m.Models) * m.PerModel()
}

// MaxTokens returns the max_tokens requested for size s.
func (m Matrix) MaxTokens(s Size) int {
	per := m.MaxTokensPerWord
	if per <= 0 {
		per = DefaultMaxTokensPerWord
	}
	return s.Words * per
}

// Quick reduces m to its first model, first two topics, first size and two
// repetitions.
func (m Matrix) Quick() Matrix {
	q := m
	q.Models = head(m.Models, 1)
	q.Topics = head(m.Topics, 2)
	q.Sizes = head(m.Sizes, 1)
	q.Repetitions = 2
	return q
}

func head[T any](s []T, n int) []T {
	if len(s) < n {
		n = len(s)
	}
	out := make([]T, n)
	copy(out, s[:n])
	return out
}

// Case is one entry of test-case mode.
type Case struct {
	Category    string   `json:"category"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

func (c Case) category() string {
	if c.Category == "" {
		return "unknown"
	}
	return c.Category
}

func (c Case) maxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultCaseMaxTokens
	}
	return c.MaxTokens
}

func (c Case) temperature() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// Options controls where and how a run is written.
type Options struct {
	// OutputDir receives the run files.
	OutputDir string
	// Delay separates consecutive requests. Zero means DefaultDelay; use a
	// negative value for no delay.
	Delay time.Duration
	// Test marks quick-test output files.
	Test bool
	// LoadModels asks the model manager to load each model before its cases.
	LoadModels bool
	// Model is the model identifier used in test-case mode.
	Model string
}

func (o Options) delay() time.Duration {
	switch {
	case o.Delay < 0:
		return 0
	case o.Delay == 0:
		return DefaultDelay
	default:
		return o.Delay
	}
}

// Output describes one written run file.
type Output struct {
	Model    string `json:"model"`
	Path     string `json:"path"`
	Requests int    `json:"requests"`
}
