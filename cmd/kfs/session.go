package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/desertwitch/kfs/internal/persist"
	"github.com/desertwitch/kfs/internal/shell"
	"github.com/dustin/go-humanize"
)

// syncWriter serializes writes from the prompt loop and the autosaver.
type syncWriter struct {
	sync.Mutex
	w io.Writer
}

func (sw *syncWriter) Printf(format string, args ...any) {
	sw.Lock()
	defer sw.Unlock()

	fmt.Fprintf(sw.w, format, args...)
}

// RunLines runs the shell on line-oriented input until end of input, halt or
// ctx is done. Autosave runs in the background for the duration.
func (app *App) RunLines(ctx context.Context, in io.Reader, out io.Writer, banner []string) error {
	sw := &syncWriter{w: out}

	for _, line := range banner {
		sw.Printf("%s\n", line)
	}

	saveCtx, stopSaving := context.WithCancel(ctx)
	defer stopSaving()

	app.autosaver.OnResult = func(err error) {
		if err != nil {
			sw.Printf("[auto] save failed\n")

			return
		}
		sw.Printf("[auto] saved\n")
	}
	go app.autosaver.Run(saveCtx, autosavePeriod)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-saveCtx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		sw.Printf("%s", app.interpreter.Prompt())

		var line string
		var ok bool

		select {
		case <-ctx.Done():
			sw.Printf("\n")

			return nil
		case line, ok = <-lines:
		}

		if !ok {
			sw.Printf("\n")

			select {
			case err := <-scanErr:
				if err != nil {
					return fmt.Errorf("(app-lines) %w", err)
				}
			default:
			}

			return nil
		}

		output, err := app.interpreter.Execute(line)

		switch {
		case errors.Is(err, shell.ErrHalt):
			sw.Printf("%s\n", output)

			return nil
		case errors.Is(err, shell.ErrWipe):
			sw.Printf("\033[H\033[2J")
		case err != nil:
			if output != "" {
				sw.Printf("%s\n", output)
			}
			sw.Printf("Error: %v\n", err)
		case output != "":
			sw.Printf("%s\n", output)
		}
	}
}

// Exec runs each line through the shell and returns how many failed. A halt
// ends the run early.
func (app *App) Exec(lines []string, out, errOut io.Writer) int {
	var failed int

	for _, line := range lines {
		output, err := app.interpreter.Execute(line)
		if output != "" {
			fmt.Fprintln(out, output)
		}

		switch {
		case errors.Is(err, shell.ErrHalt):
			return failed
		case errors.Is(err, shell.ErrWipe):
			continue
		case err != nil:
			fmt.Fprintf(errOut, "%s: %v\n", line, err)
			failed++
		}
	}

	if app.interpreter.Scribing() {
		fmt.Fprintf(errOut, "input ended before '%s'\n", shell.ScribeEnd)
		failed++
	}

	return failed
}

// Inspect prints the framing of the snapshot on disk and a summary of the
// tree it holds.
func (app *App) Inspect(out io.Writer) error {
	header, err := app.manager.ReadHeader()
	if err != nil {
		return fmt.Errorf("(app-inspect) %w", err)
	}

	fmt.Fprintf(out, "region:   LBA %d, %d sectors reserved\n", app.config.Persist.StartLBA, app.config.Persist.RegionSectors)
	fmt.Fprintf(out, "magic:    0x%08X\n", header.Magic)
	fmt.Fprintf(out, "payload:  %s (%d bytes)\n", humanize.Bytes(uint64(header.Length)), header.Length)
	fmt.Fprintf(out, "sectors:  %d\n", header.Sectors())

	if err := app.manager.Load(); err != nil {
		if errors.Is(err, persist.ErrCorruptPayload) {
			fmt.Fprintf(out, "payload:  corrupt\n")
		}

		return fmt.Errorf("(app-inspect) %w", err)
	}

	stats := app.manager.Stats()
	fs := app.root.Stats()

	fmt.Fprintf(out, "digest:   %s\n", stats.Digest)
	fmt.Fprintf(out, "root:     %s\n", app.root.Name())
	fmt.Fprintf(out, "tree:     %d dirs, %d files, %s\n", fs.Dirs, fs.Files, humanize.Bytes(fs.Bytes))

	return nil
}
