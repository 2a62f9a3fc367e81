package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/desertwitch/kfs/internal/ata"
	"github.com/desertwitch/kfs/internal/clock"
	"github.com/desertwitch/kfs/internal/configuration"
	"github.com/desertwitch/kfs/internal/machine"
	"github.com/desertwitch/kfs/internal/persist"
	"github.com/desertwitch/kfs/internal/shell"
	"github.com/desertwitch/kfs/internal/tree"
	"github.com/desertwitch/kfs/internal/ui"
)

const (
	clockResolution = 10 * time.Millisecond
	autosavePeriod  = 250 * time.Millisecond
)

type backingProvider interface {
	Sync() error
	Close() error
}

type portProvider interface {
	Inb(port uint16) uint8
	Outb(port uint16, value uint8)
	Inw(port uint16) uint16
	Outw(port uint16, value uint16)
}

// attachment selects what sits on the disk channel.
type attachment struct {
	image    string
	memory   bool
	detached bool
}

type App struct {
	config *configuration.AppConfiguration

	backing backingProvider
	ports   portProvider
	disk    *ata.Handler
	root    *tree.Root
	uptime  *clock.Uptime

	manager     *persist.Manager
	autosaver   *persist.Autosaver
	interpreter *shell.Interpreter
	uiHandler   *ui.Handler
}

// NewApp assembles the machine and the storage engine on top of it.
func NewApp(config *configuration.AppConfiguration, attach attachment) (*App, error) {
	app := &App{
		config: config,
		root:   tree.NewRoot(config.RootName, config.InitialDirs),
		uptime: clock.NewUptime(),
	}

	image := config.Image
	if attach.image != "" {
		image = attach.image
	}

	switch {
	case attach.detached:
		app.ports = &machine.FloatingBus{}
		slog.Warn("Booting without a drive on the channel.")

	case attach.memory || image == "":
		store := machine.NewMemoryStore(config.ImageSectors)
		app.ports = machine.NewDevice(store, config.Disk.Drive)
		slog.Info("Attached in-memory disk.",
			"drive", config.Disk.Drive,
			"sectors", config.ImageSectors,
		)

	default:
		store, err := machine.OpenImage(image, config.ImageSectors)
		if err != nil {
			return nil, fmt.Errorf("(app) %w", err)
		}
		app.backing = store
		app.ports = machine.NewDevice(store, config.Disk.Drive)
		slog.Info("Attached disk image.",
			"path", image,
			"drive", config.Disk.Drive,
			"sectors", store.Sectors(),
		)
	}

	app.disk = ata.NewHandler(app.ports, machine.NewInterrupts(), config.Disk)
	app.manager = persist.NewManager(app.disk, app.root, app.uptime, config.Persist)
	app.autosaver = persist.NewAutosaver(app.manager, app.uptime, clock.SecondsToTicks(config.AutosaveSeconds))
	app.interpreter = shell.NewInterpreter(app.root, app.manager, app.uptime)

	return app, nil
}

// Start runs the uptime counter until ctx is done.
func (app *App) Start(ctx context.Context) {
	go app.uptime.Run(ctx, clockResolution)
}

// Boot restores the tree from disk.
func (app *App) Boot() string {
	if !app.disk.Present() {
		slog.Warn("No drive detected, snapshots are unavailable.",
			"drive", app.config.Disk.Drive,
		)
	}

	return app.interpreter.Boot()
}

// Shutdown saves the tree when a drive is attached and releases the disk
// backing.
func (app *App) Shutdown() error {
	var saveErr error

	if app.disk.Present() {
		if saveErr = app.manager.Save(); saveErr != nil {
			slog.Error("Final save failed.",
				"err", saveErr,
			)
		} else {
			slog.Info("Saved snapshot on shutdown.")
			saveErr = app.sync()
		}
	} else {
		slog.Warn("Skipped final save, no drive detected.")
	}

	if err := app.Close(); err != nil {
		return fmt.Errorf("(app-shutdown) %w", err)
	}

	if saveErr != nil {
		return fmt.Errorf("(app-shutdown) %w", saveErr)
	}

	return nil
}

// sync flushes the disk backing, if there is one.
func (app *App) sync() error {
	if app.backing == nil {
		return nil
	}

	if err := app.backing.Sync(); err != nil {
		slog.Error("Flushing the disk image failed.",
			"err", err,
		)

		return fmt.Errorf("(app-sync) %w", err)
	}

	return nil
}

// Close releases the disk backing without saving.
func (app *App) Close() error {
	if app.backing == nil {
		return nil
	}

	if err := app.backing.Close(); err != nil {
		return fmt.Errorf("(app-close) %w", err)
	}

	return nil
}

// LaunchUI runs the terminal front-end until it exits.
func (app *App) LaunchUI(ctx context.Context, cancel context.CancelFunc, logs *SlogManager, banner []string) error {
	app.uiHandler = ui.NewHandler(ctx, cancel, app.interpreter, app.autosaver, app.manager, banner)

	logs.RemoveHandler(logSinkTerminal)
	logs.AddHandler(logSinkUI, newTintHandler(app.uiHandler.LogWriter, true))

	defer func() {
		logs.RemoveHandler(logSinkUI)
		logs.AddHandler(logSinkTerminal, newTintHandler(logOutput, false))
	}()

	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}
