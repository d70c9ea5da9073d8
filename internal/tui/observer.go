// internal/tui/observer.go
// Package: tui
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/results"
)

// Observer forwards runner progress to a bubbletea program.
type Observer struct {
	send func(tea.Msg)
}

func (o Observer) RunStarted(total int) { o.send(runStartedMsg{total: total}) }

func (o Observer) ModelStarted(model string, index, count int) {
	o.send(modelStartedMsg{model: model, index: index, count: count})
}

func (o Observer) ModelSkipped(model, reason string) {
	o.send(modelSkippedMsg{model: model, reason: reason})
}

func (o Observer) RequestDone(done, total int, rec results.Record) {
	o.send(requestDoneMsg{
		done:    done,
		total:   total,
		status:  rec.Status,
		elapsed: rec.Elapsed(),
		label:   label(rec),
	})
}

func (o Observer) ModelSaved(out bench.Output) { o.send(modelSavedMsg{out: out}) }

func (o Observer) RunFinished(outputs []bench.Output, err error) {
	o.send(runFinishedMsg{outputs: outputs, err: err})
}

func label(rec results.Record) string {
	switch {
	case rec.Topic != "":
		return fmt.Sprintf("%s/%s #%d", rec.SizeCategory, rec.Topic, rec.Repetition)
	case rec.Category != "":
		return rec.Category
	default:
		return rec.Model
	}
}

// Run shows the progress screen while work runs in the background. work gets
// an observer wired to the screen and a context that is cancelled when the
// user quits. Run returns work's error once it has returned.
func Run(ctx context.Context, title string, work func(ctx context.Context, obs bench.Observer) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title, cancel), opts...)
	obs := Observer{send: p.Send}

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, obs)
		p.Send(workDoneMsg{err: err})
		errc <- err
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress display: %w", err)
	}
	return <-errc
}
