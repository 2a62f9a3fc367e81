package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestHandler(ctx context.Context, cancel context.CancelFunc, in, out *bytes.Buffer) (*Handler, *fakeShell) {
	sh := &fakeShell{}
	handler := &Handler{}

	model := NewTeaModel(handler, sh, &fakeAutosaver{}, &fakeRegion{}, []string{"kfs v0.1"}, cancel)
	handler.program = tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler, sh
}

// TestTeaUI is an integration test for the terminal front-end. A session
// runs a command, receives logs and ends with halt.
func TestTeaUI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler, sh := newTestHandler(ctx, cancel, &in, &buf)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				handler.program.Send(LogMsg("log1"))
				time.Sleep(time.Millisecond)

				_, _ = handler.LogWriter.Write([]byte("log2"))
				time.Sleep(time.Millisecond)

				handler.program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("peek")})
				handler.program.Send(tea.KeyMsg{Type: tea.KeyEnter})
				time.Sleep(500 * time.Millisecond)

				handler.program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("halt")})
				handler.program.Send(tea.KeyMsg{Type: tea.KeyEnter})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	go func() {
		for !handler.Ready.Load() && !handler.Failed.Load() {
			handler.program.Send(tea.WindowSizeMsg{Width: 200, Height: 60})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	if err := handler.Launch(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}

	by := buf.Bytes()

	if !bytes.Contains(by, []byte("log1")) {
		t.Fatal("UI did not show the first log message sent (via program.Send)")
	}

	if !bytes.Contains(by, []byte("log2")) {
		t.Fatal("UI did not show the second log message sent (via LogWriter)")
	}

	if !bytes.Contains(by, []byte("ran: peek")) {
		t.Fatal("UI did not show the command output")
	}

	sh.Lock()
	defer sh.Unlock()

	if len(sh.executed) != 2 || sh.executed[1] != "halt" {
		t.Fatalf("Expected [peek halt], got %v", sh.executed)
	}
}

// TestTeaUI_Ctrl_C is an integration test for the terminal front-end. A
// Ctrl+C keypress is simulated, which should trigger upstream Context
// cancellation for signalling application teardown.
func TestTeaUI_Ctrl_C(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler, _ := newTestHandler(ctx, cancel, &in, &buf)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				handler.program.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

				return
			}
			if handler.Failed.Load() {
				return
			}
			handler.program.Send(tea.WindowSizeMsg{Width: 120, Height: 40})
		}
	}()

	err := handler.Launch()

	if err == nil {
		t.Fatalf("Expected %v, got nil", context.Canceled)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected %v, got %v", context.Canceled, err)
	}

	if buf.Len() == 0 {
		t.Fatal("UI generated no output at all")
	}
}
