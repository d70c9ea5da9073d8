// internal/results/run.go
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Metadata is the header of a run file.
type Metadata struct {
	TotalRequests int       `json:"total_requests"`
	GeneratedAt   Timestamp `json:"generated_at"`
}

// Run is the persisted document: one per run, or one per model in experiment
// mode.
type Run struct {
	Metadata Metadata `json:"metadata"`
	Results  []Record `json:"results"`
}

// Collector accumulates records during a run. Records are appended by a single
// goroutine and serialised once at the end.
type Collector struct {
	Path    string
	records []Record
	now     func() time.Time
}

// NewCollector returns a collector that will save to path.
func NewCollector(path string) *Collector {
	return &Collector{Path: path, now: time.Now}
}

// Add appends r.
func (c *Collector) Add(r Record) {
	c.records = append(c.records, r)
}

// Records returns a copy of the collected records.
func (c *Collector) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of collected records.
func (c *Collector) Len() int { return len(c.records) }

// Run builds the document for the collected records.
func (c *Collector) Run() Run {
	return Run{
		Metadata: Metadata{
			TotalRequests: len(c.records),
			GeneratedAt:   NewTimestamp(c.now()),
		},
		Results: c.Records(),
	}
}

// Save writes the run document to c.Path, creating the parent directory.
func (c *Collector) Save() error {
	return Save(c.Path, c.Run())
}

// Save writes run to path as indented JSON.
func Save(path string, run Run) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", dir, err)
		}
	}
	if run.Results == nil {
		run.Results = []Record{}
	}
	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write run file %q: %w", path, err)
	}
	return nil
}

// Load reads a run file.
func Load(path string) (Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(b, &run); err != nil {
		return Run{}, fmt.Errorf("parse run file %q: %w", path, err)
	}
	return run, nil
}

// FileError reports a run file that could not be loaded.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// LoadDir reads every *.json file in dir, sorted by name. Files that fail to
// load are reported in the second return value and do not stop the scan.
func LoadDir(dir string) (map[string]Run, []FileError, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, fmt.Errorf("results directory: %w", err)
	}
	sort.Strings(paths)

	runs := make(map[string]Run, len(paths))
	var failed []FileError
	for _, p := range paths {
		run, err := Load(p)
		if err != nil {
			failed = append(failed, FileError{Path: p, Err: err})
			continue
		}
		runs[p] = run
	}
	return runs, failed, nil
}

// FileName returns the run file name for the given mode. model may be empty
// (test-case mode); test marks quick-test files.
func FileName(model string, stamp time.Time, test bool) string {
	parts := []string{"benchmark"}
	if test {
		parts = append(parts, "TEST")
	}
	if model != "" {
		parts = append(parts, SafeName(model))
	}
	parts = append(parts, stamp.Format("20060102_150405"))
	return strings.Join(parts, "_") + ".json"
}

// SafeName makes a model identifier usable in a file name.
func SafeName(model string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(model)
}
