package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"keel/internal/buildpipeline"
	"keel/internal/driver"
	"keel/internal/ui"
)

type dirOutcome struct {
	units []driver.Unit
	err   error
}

// runDirWithUI compiles dir while a progress view renders its events.
func runDirWithUI(ctx context.Context, title, dir string, files []string, opts driver.Options, cache *driver.DiskCache) ([]driver.Unit, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		opts.Sink = buildpipeline.ChannelSink{Ch: events}
		units, err := driver.CompileDir(ctx, dir, opts, cache)
		close(events)
		outcomeCh <- dirOutcome{units: units, err: err}
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// вью могла закрыться раньше (ctrl+c); дочитываем события, чтобы не встал компилятор
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.units, uiErr
	}
	return outcome.units, outcome.err
}
