package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

const logBufferSize = 1000

type teaProgramProvider interface {
	Send(msg tea.Msg)
}

// LogMsg is a log line on its way to the log panel.
type LogMsg string

// TeaLogWriter is an [io.Writer] for a [slog.Handler] that forwards every
// record to a [tea.Program] as a [LogMsg].
//
// Writes never block the caller: when the buffer is full, for instance while
// the program is not yet running, the record is dropped and counted. Logging
// from inside a disk transfer must not stall on the terminal.
type TeaLogWriter struct {
	program  teaProgramProvider
	doneChan chan struct{}
	logChan  chan LogMsg
	dropped  atomic.Uint64
}

// NewTeaLogWriter returns a pointer to a new [TeaLogWriter] and starts its
// forwarding goroutine, which is ended with [TeaLogWriter.Stop].
func NewTeaLogWriter(program teaProgramProvider) *TeaLogWriter {
	wr := &TeaLogWriter{
		program:  program,
		doneChan: make(chan struct{}),
		logChan:  make(chan LogMsg, logBufferSize),
	}

	go wr.forward()

	return wr
}

// Stop ends forwarding. Records written afterwards are discarded.
func (wr *TeaLogWriter) Stop() {
	close(wr.doneChan)
}

// Dropped returns the number of records discarded on a full buffer.
func (wr *TeaLogWriter) Dropped() uint64 {
	return wr.dropped.Load()
}

func (wr *TeaLogWriter) forward() {
	for {
		select {
		case <-wr.doneChan:
			return
		case msg := <-wr.logChan:
			wr.program.Send(msg)
		}
	}
}

// Write queues one record for the program.
func (wr *TeaLogWriter) Write(p []byte) (int, error) {
	select {
	case <-wr.doneChan:
		return len(p), nil
	default:
	}

	select {
	case wr.logChan <- LogMsg(p):
	default:
		wr.dropped.Add(1)
	}

	return len(p), nil
}
