// cmd/lmbench/run.go
package lmbench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/analysis"
	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/config"
	"github.com/mwiater/lmbench/internal/lmstudio"
	"github.com/mwiater/lmbench/internal/results"
	"github.com/mwiater/lmbench/internal/tui"
)

// runCmd represents the 'run' command group for benchmark runs.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Group commands for running benchmarks",
	Long:  `The 'run' command groups the benchmark modes: the experiment matrix and the fixed list of test cases.`,
}

// runFlags are shared by every run mode.
type runFlags struct {
	tui       bool
	outputDir string
	delay     float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.tui, "tui", false, "show an interactive progress screen")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for result files, overrides settings.output_directory")
	cmd.Flags().Float64Var(&f.delay, "delay", 0, "seconds between requests, overrides settings.delay_between_requests")
}

// options merges the flags over the configured settings.
func (f *runFlags) options(cmd *cobra.Command, s config.Settings) bench.Options {
	opts := bench.Options{OutputDir: s.OutputDirectory, Delay: s.Delay}
	if f.outputDir != "" {
		opts.OutputDir = f.outputDir
	}
	if cmd.Flags().Changed("delay") {
		opts.Delay = time.Duration(f.delay * float64(time.Second))
	}
	// A configured zero means no pause; bench treats zero as its default.
	if opts.Delay == 0 {
		opts.Delay = -1
	}
	return opts
}

// benchWork runs one benchmark mode on a prepared runner.
type benchWork func(ctx context.Context, r *bench.Runner, c *lmstudio.Client) ([]bench.Output, error)

// runBenchmark checks the server, runs work with either the log observer or
// the progress screen, and prints a summary of the files written.
func runBenchmark(cmd *cobra.Command, cfg config.Config, flags *runFlags, outputDir, title string, work benchWork) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logOut := cmd.ErrOrStderr()
	if flags.tui {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		f, err := tea.LogToFile(filepath.Join(outputDir, "lmbench.log"), "lmbench")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	client := newClient(cfg, logger)
	manager := lmstudio.NewManager(client, cfg.ManagerConfig())
	if !manager.CheckServer(ctx) {
		return fmt.Errorf("%w at %s; start the server and load a model", errServerUnreachable, cfg.Settings.LMStudioURL)
	}

	var outputs []bench.Output
	if flags.tui {
		err = tui.Run(ctx, title, func(ctx context.Context, obs bench.Observer) error {
			r := bench.NewRunner(client, manager,
				bench.WithLogger(logger),
				bench.WithObserver(bench.Observers(obs, bench.LogObserver{Logger: logger})),
			)
			var werr error
			outputs, werr = work(ctx, r, client)
			return werr
		})
	} else {
		r := bench.NewRunner(client, manager, bench.WithLogger(logger))
		outputs, err = work(ctx, r, client)
	}
	if err != nil {
		return err
	}
	return summarizeOutputs(out, outputs, logger)
}

// summarizeOutputs prints the per-run summary and per-model statistics of the
// files just written.
func summarizeOutputs(w io.Writer, outputs []bench.Output, logger *slog.Logger) error {
	var records []results.Record
	for _, o := range outputs {
		run, err := results.Load(o.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Results saved to: %s\n", o.Path)
		records = append(records, run.Results...)
	}
	if len(outputs) == 0 {
		logger.Warn("no result files were written")
	}
	analysis.RenderSummary(w, analysis.Summarize(records))
	if len(records) > 0 {
		analysis.RenderModels(w, analysis.ByModel(records))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
}
