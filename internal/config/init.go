// internal/config/init.go
// Package: config
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/telemetry"
)

type settingsFile struct {
	LMStudioURL     string  `yaml:"lm_studio_url"`
	OutputDirectory string  `yaml:"output_directory"`
	Delay           float64 `yaml:"delay_between_requests"`
	RequestTimeout  float64 `yaml:"request_timeout"`
	StatusTimeout   float64 `yaml:"status_timeout"`
	LoadTimeout     float64 `yaml:"load_timeout"`
	LoadSettle      float64 `yaml:"load_settle"`
}

type caseFile struct {
	Category    string  `yaml:"category"`
	Prompt      string  `yaml:"prompt"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type telemetryFile struct {
	Encoding   string   `yaml:"encoding"`
	Delimiter  string   `yaml:"delimiter"`
	Decimal    string   `yaml:"decimal"`
	Thousands  string   `yaml:"thousands"`
	DateColumn string   `yaml:"date_column"`
	TimeColumn string   `yaml:"time_column"`
	Layout     string   `yaml:"layout"`
	Metrics    []string `yaml:"metrics"`
}

type file struct {
	Settings         settingsFile     `yaml:"settings"`
	Repetitions      int              `yaml:"repetitions"`
	Template         string           `yaml:"template"`
	Models           []string         `yaml:"models"`
	Topics           []string         `yaml:"topics"`
	Sizes            []map[string]int `yaml:"sizes"`
	Temperature      float64          `yaml:"temperature"`
	MaxTokensPerWord int              `yaml:"max_tokens_per_word"`
	TestCases        []caseFile       `yaml:"test_cases"`
	Telemetry        telemetryFile    `yaml:"telemetry"`
}

var comments = map[string]string{
	"settings":    "Server and output settings. Durations are in seconds.",
	"repetitions": "Experiment mode: every model x topic x size is sent this many times.",
	"template":    "Prompt template; {topic} and {size} are substituted.",
	"models":      "Models are loaded in turn; one result file is written per model.",
	"sizes":       "Ordered list of name: word count. max_tokens = words * max_tokens_per_word.",
	"test_cases":  "Test-case mode (lmbench run cases): each case is sent once.",
	"telemetry":   "Power-monitor CSV format used by lmbench analyze correlate.",
}

func defaultFile() file {
	tf := telemetry.DefaultFormat()
	return file{
		Settings: settingsFile{
			LMStudioURL:     "http://localhost:1234/v1",
			OutputDirectory: "./benchmark_results",
			Delay:           1,
			RequestTimeout:  300,
			StatusTimeout:   5,
			LoadTimeout:     60,
			LoadSettle:      2,
		},
		Repetitions: bench.DefaultRepetitions,
		Template:    bench.DefaultTemplate,
		Models:      []string{"qwen/qwen3-4b"},
		Topics:      []string{"the history of Rome", "how photosynthesis works", "the rules of chess"},
		Sizes: []map[string]int{
			{"short": 50},
			{"medium": 200},
			{"long": 500},
		},
		Temperature:      bench.DefaultTemperature,
		MaxTokensPerWord: bench.DefaultMaxTokensPerWord,
		TestCases: []caseFile{
			{Category: "short_question", Prompt: "What is the capital of Italy?", MaxTokens: 50, Temperature: 0.7},
			{Category: "explanation", Prompt: "Explain how a transformer language model works.", MaxTokens: 300, Temperature: 0.7},
		},
		Telemetry: telemetryFile{
			Encoding:   tf.Encoding,
			Delimiter:  string(tf.Delimiter),
			Decimal:    tf.Decimal,
			Thousands:  tf.Thousands,
			DateColumn: tf.DateColumn,
			TimeColumn: tf.TimeColumn,
			Layout:     tf.Layout,
			Metrics:    tf.Metrics,
		},
	}
}

// WriteDefault writes a commented starter configuration to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	var doc yaml.Node
	if err := doc.Encode(defaultFile()); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if c := comments[doc.Content[i].Value]; c != "" {
			doc.Content[i].HeadComment = c
		}
	}
	doc.HeadComment = "lmbench configuration"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return enc.Close()
}
