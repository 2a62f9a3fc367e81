// Package ui implements the terminal front-end of the shell using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

type shellProvider interface {
	Execute(line string) (string, error)
	Prompt() string
	Scribing() bool
	Complete(input string) (string, []string)
}

type autosaveProvider interface {
	Poll() (bool, error)
}

type regionProvider interface {
	Usage() float64
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler] driving sh,
// polling autosaver on a timer and gauging the fill of region, with banner
// printed on start.
func NewHandler(ctx context.Context, cancel context.CancelFunc, sh shellProvider, autosaver autosaveProvider, region regionProvider, banner []string) *Handler {
	handler := &Handler{}

	model := NewTeaModel(handler, sh, autosaver, region, banner, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the terminal front-end (the [tea.Program]) and blocks until
// it exits.
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
