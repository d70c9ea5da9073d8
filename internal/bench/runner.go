// internal/bench/runner.go
// Package: bench
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mwiater/lmbench/internal/logging"
	"github.com/mwiater/lmbench/internal/results"
)

// ErrNoCases is returned by RunCases when there is nothing to run.
var ErrNoCases = errors.New("no test cases configured")

// Sender performs one chat completion. Failures are reported in the record.
type Sender interface {
	Send(ctx context.Context, req results.Request) results.Record
}

// ModelLoader asks the server to load a model and reports success.
type ModelLoader interface {
	LoadModel(ctx context.Context, id string) bool
}

// Runner executes experiment matrices and test cases strictly sequentially.
type Runner struct {
	sender   Sender
	loader   ModelLoader
	observer Observer
	logger   *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver replaces the default log observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithLogger sets the logger used by the default observer.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner returns a runner sending through sender. loader may be nil, in
// which case models are never loaded explicitly.
func NewRunner(sender Sender, loader ModelLoader, opts ...RunnerOption) *Runner {
	r := &Runner{
		sender: sender,
		loader: loader,
		logger: logging.Discard(),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = LogObserver{Logger: r.logger}
	}
	return r
}

// RunExperiments iterates models, then topics, then sizes, then repetitions,
// and writes one run file per model. A model that fails to load is skipped.
// Cancelling ctx aborts the run; the model in progress is not saved.
func (r *Runner) RunExperiments(ctx context.Context, m Matrix, opts Options) ([]Output, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	stamp := r.now()
	total := m.Total()
	done := 0
	first := true
	outputs := []Output{}
	r.observer.RunStarted(total)

	for i, model := range m.Models {
		if err := ctx.Err(); err != nil {
			return r.abort(outputs, err)
		}
		r.observer.ModelStarted(model, i+1, len(m.Models))

		if opts.LoadModels && r.loader != nil && !r.loader.LoadModel(ctx, model) {
			if err := ctx.Err(); err != nil {
				return r.abort(outputs, err)
			}
			total -= m.PerModel()
			r.observer.ModelSkipped(model, "failed to load model")
			continue
		}

		col := results.NewCollector(filepath.Join(opts.OutputDir, results.FileName(model, stamp, opts.Test)))
		for _, topic := range m.Topics {
			for _, size := range m.Sizes {
				req := results.Request{
					Model:       model,
					Prompt:      m.Prompt(topic, size),
					MaxTokens:   m.MaxTokens(size),
					Temperature: m.Temperature,
				}
				for rep := 1; rep <= m.Repetitions; rep++ {
					if !first {
						if err := r.sleep(ctx, opts.delay()); err != nil {
							return r.abort(outputs, err)
						}
					}
					first = false

					rec := r.sender.Send(ctx, req)
					if err := ctx.Err(); err != nil {
						return r.abort(outputs, err)
					}
					rec = rec.WithExperiment(results.Experiment{
						Topic:        topic,
						SizeCategory: size.Name,
						SizeWords:    size.Words,
						Repetition:   rep,
					})
					col.Add(rec)
					done++
					r.observer.RequestDone(done, total, rec)
				}
			}
		}

		out, err := r.save(model, col)
		if err != nil {
			return r.abort(outputs, err)
		}
		outputs = append(outputs, out)
	}

	r.observer.RunFinished(outputs, nil)
	return outputs, nil
}

// RunCases sends every test case once, in order, as opts.Model and writes a
// single run file. The delay applies between cases only.
func (r *Runner) RunCases(ctx context.Context, cases []Case, opts Options) (Output, error) {
	if len(cases) == 0 {
		return Output{}, ErrNoCases
	}
	if opts.Model == "" {
		return Output{}, errors.New("test-case mode needs a model")
	}

	total := len(cases)
	r.observer.RunStarted(total)
	r.observer.ModelStarted(opts.Model, 1, 1)

	col := results.NewCollector(filepath.Join(opts.OutputDir, results.FileName("", r.now(), opts.Test)))
	for i, c := range cases {
		if i > 0 {
			if err := r.sleep(ctx, opts.delay()); err != nil {
				_, err = r.abort(nil, err)
				return Output{}, err
			}
		}
		rec := r.sender.Send(ctx, results.Request{
			Model:       opts.Model,
			Prompt:      c.Prompt,
			MaxTokens:   c.maxTokens(),
			Temperature: c.temperature(),
		})
		if err := ctx.Err(); err != nil {
			_, err = r.abort(nil, err)
			return Output{}, err
		}
		rec = rec.WithExperiment(results.Experiment{Category: c.category()})
		col.Add(rec)
		r.observer.RequestDone(i+1, total, rec)
	}

	out, err := r.save(opts.Model, col)
	if err != nil {
		_, err = r.abort(nil, err)
		return Output{}, err
	}
	r.observer.RunFinished([]Output{out}, nil)
	return out, nil
}

func (r *Runner) save(model string, col *results.Collector) (Output, error) {
	if err := col.Save(); err != nil {
		return Output{}, fmt.Errorf("save results for %s: %w", model, err)
	}
	out := Output{Model: model, Path: col.Path, Requests: col.Len()}
	r.observer.ModelSaved(out)
	return out, nil
}

func (r *Runner) abort(outputs []Output, err error) ([]Output, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("benchmark interrupted: %w", err)
	}
	r.observer.RunFinished(outputs, err)
	return outputs, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
