// internal/bench/observer.go
// Package: bench
package bench

import (
	"log/slog"
	"time"

	"github.com/mwiater/lmbench/internal/results"
)

// Observer receives progress from a run. Calls are made from the goroutine
// running the benchmark, in order.
type Observer interface {
	RunStarted(total int)
	ModelStarted(model string, index, count int)
	ModelSkipped(model, reason string)
	RequestDone(done, total int, rec results.Record)
	ModelSaved(out Output)
	RunFinished(outputs []Output, err error)
}

// LogObserver reports progress through a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) RunStarted(total int) {
	o.Logger.Info("benchmark started", "requests", total)
}

func (o LogObserver) ModelStarted(model string, index, count int) {
	o.Logger.Info("model started", "model", model, "index", index, "count", count)
}

func (o LogObserver) ModelSkipped(model, reason string) {
	o.Logger.Warn("model skipped", "model", model, "reason", reason)
}

func (o LogObserver) RequestDone(done, total int, rec results.Record) {
	attrs := []any{
		"progress", done,
		"total", total,
		"model", rec.Model,
		"status", rec.Status.String(),
		"elapsed", rec.Elapsed().Round(time.Millisecond),
	}
	if rec.Topic != "" {
		attrs = append(attrs, "topic", rec.Topic, "size", rec.SizeCategory, "rep", rec.Repetition)
	}
	if rec.Category != "" {
		attrs = append(attrs, "category", rec.Category)
	}
	o.Logger.Info("request done", attrs...)
}

func (o LogObserver) ModelSaved(out Output) {
	o.Logger.Info("results saved", "model", out.Model, "path", out.Path, "requests", out.Requests)
}

func (o LogObserver) RunFinished(outputs []Output, err error) {
	if err != nil {
		o.Logger.Error("benchmark aborted", "error", err, "files", len(outputs))
		return
	}
	o.Logger.Info("benchmark completed", "files", len(outputs))
}

// multiObserver fans events out to several observers.
type multiObserver []Observer

// Observers combines obs into one Observer. Nil entries are dropped.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) RunStarted(total int) {
	for _, o := range m {
		o.RunStarted(total)
	}
}

func (m multiObserver) ModelStarted(model string, index, count int) {
	for _, o := range m {
		o.ModelStarted(model, index, count)
	}
}

func (m multiObserver) ModelSkipped(model, reason string) {
	for _, o := range m {
		o.ModelSkipped(model, reason)
	}
}

func (m multiObserver) RequestDone(done, total int, rec results.Record) {
	for _, o := range m {
		o.RequestDone(done, total, rec)
	}
}

func (m multiObserver) ModelSaved(out Output) {
	for _, o := range m {
		o.ModelSaved(out)
	}
}

func (m multiObserver) RunFinished(outputs []Output, err error) {
	for _, o := range m {
		o.RunFinished(outputs, err)
	}
}
