// internal/config/config.go
// Package: config
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/lmstudio"
	"github.com/mwiater/lmbench/internal/telemetry"
)

// ErrConfigNotFound is returned when no configuration file can be located.
var ErrConfigNotFound = errors.New("configuration file not found")

// SearchNames are tried in order when no configuration path is given.
var SearchNames = []string{"lmbench.yaml", "lmbench.yml", "lmbench.json", "prompts_config.json"}

// DefaultExperimentsFile is merged in when present next to the working
// directory.
const DefaultExperimentsFile = "experiments.yaml"

// EnvPrefix prefixes environment overrides, e.g. LMBENCH_SETTINGS_LM_STUDIO_URL.
const EnvPrefix = "LMBENCH"

// Settings are the runtime options of the tool. Durations are configured in
// seconds.
type Settings struct {
	LMStudioURL     string        `json:"lm_studio_url"`
	OutputDirectory string        `json:"output_directory"`
	Delay           time.Duration `json:"delay_between_requests"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	StatusTimeout   time.Duration `json:"status_timeout"`
	LoadTimeout     time.Duration `json:"load_timeout"`
	LoadSettle      time.Duration `json:"load_settle"`
}

// Config is the merged configuration.
type Config struct {
	// Files lists the configuration files that were read, in merge order.
	Files []string

	Settings  Settings
	Matrix    bench.Matrix
	Cases     []bench.Case
	Telemetry telemetry.Format
}

// Options locates the configuration files.
type Options struct {
	// Path is the main configuration file. Empty means search SearchNames in
	// Dir.
	Path string
	// ExperimentsPath is merged over the main file. Empty means
	// DefaultExperimentsFile in Dir when it exists.
	ExperimentsPath string
	// Dir is the search directory, "." when empty.
	Dir string
}

type caseConfig struct {
	Category    string   `mapstructure:"category"`
	Prompt      string   `mapstructure:"prompt"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
}

type telemetryConfig struct {
	Encoding   string   `mapstructure:"encoding"`
	Delimiter  string   `mapstructure:"delimiter"`
	Decimal    string   `mapstructure:"decimal"`
	Thousands  string   `mapstructure:"thousands"`
	DateColumn string   `mapstructure:"date_column"`
	TimeColumn string   `mapstructure:"time_column"`
	Layout     string   `mapstructure:"layout"`
	Metrics    []string `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.lm_studio_url", lmstudio.DefaultBaseURL+"/v1")
	v.SetDefault("settings.output_directory", "./benchmark_results")
	v.SetDefault("settings.delay_between_requests", bench.DefaultDelay.Seconds())
	v.SetDefault("settings.request_timeout", lmstudio.DefaultRequestTimeout.Seconds())

	def := lmstudio.DefaultManagerConfig()
	v.SetDefault("settings.status_timeout", def.StatusTimeout.Seconds())
	v.SetDefault("settings.load_timeout", def.LoadTimeout.Seconds())
	v.SetDefault("settings.load_settle", def.Settle.Seconds())

	v.SetDefault("repetitions", bench.DefaultRepetitions)
	v.SetDefault("template", bench.DefaultTemplate)
	v.SetDefault("temperature", bench.DefaultTemperature)
	v.SetDefault("max_tokens_per_word", bench.DefaultMaxTokensPerWord)
}

// Load reads the main configuration and merges the experiments file over it.
// It fails with ErrConfigNotFound when an explicit path does not exist or when
// neither file can be found.
func Load(opts Options) (Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := loadDotEnv(dir); err != nil {
		return Config{}, err
	}

	v := newViper()
	var cfg Config

	mainPath, err := locate(opts.Path, dir, SearchNames)
	if err != nil {
		return Config{}, err
	}
	if mainPath != "" {
		v.SetConfigFile(mainPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", mainPath, err)
		}
		cfg.Files = append(cfg.Files, mainPath)
	}

	expPath, err := locate(opts.ExperimentsPath, dir, []string{DefaultExperimentsFile})
	if err != nil {
		return Config{}, err
	}
	if expPath != "" {
		v.SetConfigFile(expPath)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read experiments %s: %w", expPath, err)
		}
		cfg.Files = append(cfg.Files, expPath)
	}

	if len(cfg.Files) == 0 {
		return Config{}, fmt.Errorf("%w: looked for %s and %s in %s",
			ErrConfigNotFound, strings.Join(SearchNames, ", "), DefaultExperimentsFile, dir)
	}

	sizes, found, err := fileSizes(cfg.Files)
	if err != nil {
		return Config{}, err
	}
	if !found {
		sizes = v.Get("sizes")
	}
	if err := decode(v, &cfg, sizes); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the built-in configuration with environment overrides
// applied. Commands that only talk to the server use it when no file exists.
func Defaults() (Config, error) {
	var cfg Config
	v := newViper()
	if err := decode(v, &cfg, v.Get("sizes")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DotEnvFile in the search directory may hold LMBENCH_ overrides. Variables
// already set in the environment win.
const DotEnvFile = ".env"

func loadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, DotEnvFile))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read %s: %w", DotEnvFile, err)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// locate returns explicit when set (it must exist), otherwise the first of
// names found in dir, or "" when none is.
func locate(explicit, dir string, names []string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// fileSizes returns the raw sizes value of the last file that defines one.
// Viper lowercases map keys, and size names are labels that must keep their
// case, so they are read from the files directly.
func fileSizes(paths []string) (any, bool, error) {
	var (
		raw   any
		found bool
	)
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, false, fmt.Errorf("read sizes from %s: %w", p, err)
		}
		var doc map[string]any
		if strings.EqualFold(filepath.Ext(p), ".json") {
			err = json.Unmarshal(b, &doc)
		} else {
			err = yaml.Unmarshal(b, &doc)
		}
		if err != nil {
			return nil, false, fmt.Errorf("read sizes from %s: %w", p, err)
		}
		for k, val := range doc {
			if strings.EqualFold(k, "sizes") {
				raw, found = val, true
			}
		}
	}
	return raw, found, nil
}

func decode(v *viper.Viper, cfg *Config, rawSizes any) error {
	cfg.Settings = Settings{
		LMStudioURL:     v.GetString("settings.lm_studio_url"),
		OutputDirectory: v.GetString("settings.output_directory"),
		Delay:           seconds(v.GetFloat64("settings.delay_between_requests")),
		RequestTimeout:  seconds(v.GetFloat64("settings.request_timeout")),
		StatusTimeout:   seconds(v.GetFloat64("settings.status_timeout")),
		LoadTimeout:     seconds(v.GetFloat64("settings.load_timeout")),
		LoadSettle:      seconds(v.GetFloat64("settings.load_settle")),
	}

	sizes, err := parseSizes(rawSizes)
	if err != nil {
		return err
	}
	cfg.Matrix = bench.Matrix{
		Models:           v.GetStringSlice("models"),
		Topics:           v.GetStringSlice("topics"),
		Sizes:            sizes,
		Repetitions:      v.GetInt("repetitions"),
		Template:         v.GetString("template"),
		Temperature:      v.GetFloat64("temperature"),
		MaxTokensPerWord: v.GetInt("max_tokens_per_word"),
	}

	var cases []caseConfig
	if err := v.UnmarshalKey("test_cases", &cases); err != nil {
		return fmt.Errorf("decode test_cases: %w", err)
	}
	for _, c := range cases {
		cfg.Cases = append(cfg.Cases, bench.Case{
			Category:    c.Category,
			Prompt:      c.Prompt,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
		})
	}

	var tc telemetryConfig
	if err := v.UnmarshalKey("telemetry", &tc); err != nil {
		return fmt.Errorf("decode telemetry: %w", err)
	}
	cfg.Telemetry, err = tc.format()
	return err
}

func (tc telemetryConfig) format() (telemetry.Format, error) {
	f := telemetry.DefaultFormat()
	if tc.Encoding != "" {
		f.Encoding = tc.Encoding
	}
	if tc.Delimiter != "" {
		r := []rune(tc.Delimiter)
		if len(r) != 1 {
			return f, fmt.Errorf("telemetry delimiter must be one character, got %q", tc.Delimiter)
		}
		f.Delimiter = r[0]
	}
	if tc.Decimal != "" {
		f.Decimal = tc.Decimal
	}
	if tc.Thousands != "" {
		f.Thousands = tc.Thousands
	}
	if tc.DateColumn != "" {
		f.DateColumn = tc.DateColumn
	}
	if tc.TimeColumn != "" {
		f.TimeColumn = tc.TimeColumn
	}
	if tc.Layout != "" {
		f.Layout = tc.Layout
	}
	if len(tc.Metrics) > 0 {
		f.Metrics = tc.Metrics
	}
	return f, nil
}

// parseSizes accepts the ordered form, a list of single-entry maps such as
// [{short: 50}, {long: 500}], and also a plain mapping, which is ordered by
// word count since mappings carry no order.
func parseSizes(raw any) ([]bench.Size, error) {
	if raw == nil {
		return nil, nil
	}
	var out []bench.Size
	switch t := raw.(type) {
	case []any:
		for i, item := range t {
			m, err := cast.ToStringMapE(item)
			if err != nil {
				return nil, fmt.Errorf("sizes[%d]: expected a name: words entry", i)
			}
			entry, err := sizesFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("sizes[%d]: %w", i, err)
			}
			sort.Slice(entry, func(a, b int) bool { return entry[a].Name < entry[b].Name })
			out = append(out, entry...)
		}
	default:
		m, err := cast.ToStringMapE(raw)
		if err != nil {
			return nil, fmt.Errorf("sizes: unsupported value %T", raw)
		}
		out, err = sizesFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("sizes: %w", err)
		}
		sort.SliceStable(out, func(a, b int) bool {
			if out[a].Words != out[b].Words {
				return out[a].Words < out[b].Words
			}
			return out[a].Name < out[b].Name
		})
	}
	return out, nil
}

func sizesFromMap(m map[string]any) ([]bench.Size, error) {
	out := make([]bench.Size, 0, len(m))
	for name, val := range m {
		words, err := cast.ToIntE(val)
		if err != nil {
			return nil, fmt.Errorf("size %q: word count %v is not a number", name, val)
		}
		out = append(out, bench.Size{Name: name, Words: words})
	}
	return out, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ManagerConfig returns the model manager timeouts. A configured load_settle
// of 0 means no wait.
func (c Config) ManagerConfig() lmstudio.ManagerConfig {
	settle := c.Settings.LoadSettle
	if settle == 0 {
		settle = -1
	}
	return lmstudio.ManagerConfig{
		StatusTimeout: c.Settings.StatusTimeout,
		ListTimeout:   lmstudio.DefaultManagerConfig().ListTimeout,
		LoadTimeout:   c.Settings.LoadTimeout,
		Settle:        settle,
	}
}
