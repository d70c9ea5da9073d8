package lmbench

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/results"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "m",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Rome was founded in 753 BC."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21}
}`

func newServer(t *testing.T, models string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(models))
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(completionBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, experimentsPath, serverURL = "", "", ""
	logLevel, logFormat = "error", "text"
	tokensBy, tokensArchive, tokensModel = "size_category", "", ""
	experimentFlags, caseFlags = runFlags{}, runFlags{}
	quickRun, planQuick, caseModel = false, false, ""
	archivePath = defaultArchive

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "lmbench.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRoot_SubcommandsPresent(t *testing.T) {
	have := map[string]*cobra.Command{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = c
	}
	for _, want := range []string{"list", "status", "load", "unload", "run", "plan", "analyze", "archive", "config"} {
		if have[want] == nil {
			t.Fatalf("missing subcommand %s", want)
		}
	}

	subs := map[string][]string{
		"list":    {"models", "commands"},
		"load":    {"model"},
		"unload":  {"model"},
		"run":     {"experiments", "cases"},
		"analyze": {"tokens", "summary", "correlate"},
		"archive": {"import", "list"},
		"config":  {"init", "show"},
	}
	for parent, names := range subs {
		sub := map[string]bool{}
		for _, sc := range have[parent].Commands() {
			sub[sc.Name()] = true
		}
		for _, n := range names {
			if !sub[n] {
				t.Fatalf("%s must have %s subcommand, got %v", parent, n, sub)
			}
		}
	}
}

func TestCommands_HaveDescriptions(t *testing.T) {
	var check func(*cobra.Command)
	check = func(cmd *cobra.Command) {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return
		}
		if cmd.Short == "" || cmd.Long == "" {
			t.Fatalf("command %s missing Short/Long", cmd.Name())
		}
		for _, sc := range cmd.Commands() {
			check(sc)
		}
	}
	check(rootCmd)
}

func TestListCommands_PrintsTree(t *testing.T) {
	var buf bytes.Buffer
	listAllCommands(&buf, rootCmd)
	out := buf.String()
	for _, want := range []string{"lmbench run experiments", "    lmbench analyze correlate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got: %s", want, out)
		}
	}
	if strings.Contains(out, "lmbench help") {
		t.Fatalf("help command should be hidden: %s", out)
	}
}

func TestStatus(t *testing.T) {
	srv := newServer(t, `{"object":"list","data":[{"id":"qwen/qwen3-4b","object":"model","owned_by":"organization_owner"}]}`)

	out, err := execute(t, "status", "--url", srv.URL)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Loaded model: qwen/qwen3-4b") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStatus_NoModelLoaded(t *testing.T) {
	srv := newServer(t, `{"data":[]}`)

	out, err := execute(t, "status", "--url", srv.URL)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No model loaded.") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestManagerCommands_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	for _, args := range [][]string{
		{"status", "--url", url},
		{"list", "models", "--url", url},
		{"load", "model", "m", "--url", url},
		{"unload", "model", "--url", url},
	} {
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("%v: expected error for unreachable server", args)
		}
	}
}

func TestListModels(t *testing.T) {
	srv := newServer(t, `{"data":[{"id":"a"},{"id":"b"}]}`)

	out, err := execute(t, "list", "models", "--url", srv.URL)
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if !strings.Contains(out, "1. a") || !strings.Contains(out, "2. b") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestUnloadModel_AlwaysFails(t *testing.T) {
	srv := newServer(t, `{"data":[{"id":"a"}]}`)
	if _, err := execute(t, "unload", "model", "--url", srv.URL); err == nil {
		t.Fatal("unload must fail")
	}
}

func TestPlan(t *testing.T) {
	cfg := writeConfig(t, `
models: [a, b]
topics: [Rome]
sizes:
  - short: 10
repetitions: 2
template: "{topic} in {size} words"
`)
	out, err := execute(t, "plan", "--config", cfg)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"Queries per model: 2", "Total queries: 4", "JSON files to generate: 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output: %s", want, out)
		}
	}
}

func TestPlan_MissingConfig(t *testing.T) {
	if _, err := execute(t, "plan", "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing config error")
	}
}

func TestRunExperiments_EndToEnd(t *testing.T) {
	srv := newServer(t, `{"data":[{"id":"m"}]}`)
	outDir := t.TempDir()
	cfg := writeConfig(t, `
settings:
  delay_between_requests: 0
  load_settle: 0
models: [m]
topics: [Rome]
sizes:
  - short: 10
repetitions: 2
`)

	out, err := execute(t, "run", "experiments", "--config", cfg, "--url", srv.URL, "--output-dir", outDir)
	if err != nil {
		t.Fatalf("run experiments: %v\n%s", err, out)
	}
	if !strings.Contains(out, "BENCHMARK SUMMARY") || !strings.Contains(out, "Total requests: 2") {
		t.Fatalf("unexpected output: %s", out)
	}

	runs, failed, err := results.LoadDir(outDir)
	if err != nil || len(failed) > 0 {
		t.Fatalf("load results: %v %v", err, failed)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run file, got %d", len(runs))
	}
	for path, run := range runs {
		if !strings.HasPrefix(filepath.Base(path), "benchmark_m_") {
			t.Fatalf("unexpected file name %s", path)
		}
		if len(run.Results) != 2 || run.Results[1].Repetition != 2 || run.Results[0].Topic != "Rome" {
			t.Fatalf("unexpected records: %+v", run.Results)
		}
	}
}

func TestRunCases_DetectsModel(t *testing.T) {
	srv := newServer(t, `{"data":[{"id":"detected"}]}`)
	outDir := t.TempDir()
	cfg := writeConfig(t, `
settings:
  delay_between_requests: 0
test_cases:
  - category: math
    prompt: "2+2?"
  - prompt: Hello
`)

	out, err := execute(t, "run", "cases", "--config", cfg, "--url", srv.URL, "--output-dir", outDir)
	if err != nil {
		t.Fatalf("run cases: %v\n%s", err, out)
	}
	runs, _, err := results.LoadDir(outDir)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run file: %v", err)
	}
	for _, run := range runs {
		if run.Results[0].Model != "detected" || run.Results[0].Category != "math" || run.Results[1].Category != "unknown" {
			t.Fatalf("unexpected records: %+v", run.Results)
		}
	}
}

func TestAnalyzeAndArchive(t *testing.T) {
	dir := t.TempDir()
	tokens, resp := 30, "ok"
	run := results.Run{Results: []results.Record{
		{Model: "m", Status: results.Success(), Response: &resp, SizeCategory: "short", SizeWords: 10, TotalTokens: &tokens, ElapsedSeconds: 1},
		{Model: "m", Status: results.Timeout(), SizeCategory: "short", SizeWords: 10, ElapsedSeconds: 2},
	}}
	runPath := filepath.Join(dir, "benchmark_m_20250102_030405.json")
	if err := results.Save(runPath, run); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "analyze", "tokens", dir)
	if err != nil {
		t.Fatalf("analyze tokens: %v", err)
	}
	if !strings.Contains(out, "size_category: short") || !strings.Contains(out, "Average total_tokens: 30.00") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = execute(t, "analyze", "summary", runPath)
	if err != nil {
		t.Fatalf("analyze summary: %v", err)
	}
	if !strings.Contains(out, "Total requests: 2") || !strings.Contains(out, "Timeouts: 1") {
		t.Fatalf("unexpected output: %s", out)
	}

	db := filepath.Join(dir, "archive.db")
	out, err = execute(t, "archive", "import", "--db", db, runPath)
	if err != nil {
		t.Fatalf("archive import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 records") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = execute(t, "archive", "list", "--db", db)
	if err != nil || !strings.Contains(out, "2 requests") {
		t.Fatalf("archive list: %v %s", err, out)
	}

	out, err = execute(t, "analyze", "tokens", "--archive", db, "--by", "size_words")
	if err != nil {
		t.Fatalf("analyze tokens from archive: %v", err)
	}
	if !strings.Contains(out, "size_words: 10") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lmbench.yaml")

	out, err := execute(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Configuration written to") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Fatal("existing file must not be overwritten")
	}

	out, err = execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "qwen/qwen3-4b") {
		t.Fatalf("unexpected output: %s", out)
	}
}
