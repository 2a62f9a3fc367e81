package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/desertwitch/kfs/internal/configuration"
	"github.com/spf13/cobra"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string
)

type options struct {
	envFiles   []string
	image      string
	memory     bool
	detached   bool
	ui         bool
	debug      bool
	cpuprofile string
	memprofile string

	logs *SlogManager
}

func (o *options) attachment() (attachment, error) {
	if o.memory && o.detached {
		return attachment{}, fmt.Errorf("%w: --memory and --detached", ErrConflictingDisks)
	}
	if o.image != "" && (o.memory || o.detached) {
		return attachment{}, fmt.Errorf("%w: --image with --memory or --detached", ErrConflictingDisks)
	}

	return attachment{image: o.image, memory: o.memory, detached: o.detached}, nil
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()

	sigChan3 := make(chan os.Signal, 1)
	signal.Notify(sigChan3, syscall.SIGUSR2)
	go func() {
		for range sigChan3 {
			runtime.GC()
		}
	}()
}

func banner() []string {
	version := Version
	if version == "" {
		version = "dev"
	}

	return []string{
		"kfs " + version,
		"Type 'help' for commands.",
	}
}

// prepare reads the configuration and assembles a started [App].
func prepare(ctx context.Context, opts *options) (*App, error) {
	attach, err := opts.attachment()
	if err != nil {
		return nil, err
	}

	configHandler := configuration.NewHandler(&configuration.GodotenvProvider{})

	config, err := configHandler.LoadAppConfiguration(opts.envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	app, err := NewApp(config, attach)
	if err != nil {
		return nil, fmt.Errorf("failed to attach disk: %w", err)
	}
	app.Start(ctx)

	return app, nil
}

func runShell(ctx context.Context, cancel context.CancelFunc, opts *options, stdin io.Reader, stdout io.Writer) error {
	memObserver := newMemoryObserver(ctx)
	defer memObserver.Stop()

	cpuProfiler := newCPUProfiler(ctx, opts.cpuprofile)
	defer cpuProfiler.Stop()
	defer writeHeapProfile(opts.memprofile)

	app, err := prepare(ctx, opts)
	if err != nil {
		return err
	}

	lines := append(banner(), app.Boot())

	if opts.ui {
		err := app.LaunchUI(ctx, cancel, opts.logs, lines)
		if err == nil || errors.Is(err, context.Canceled) {
			return app.Shutdown()
		}
		slog.Error("UI failure: falling back to terminal.", "err", err)
	}

	if err := app.RunLines(ctx, stdin, stdout, lines); err != nil {
		slog.Error("Terminal session failed.", "err", err)
	}

	return app.Shutdown()
}

func runExec(ctx context.Context, opts *options, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	lines := args
	if len(lines) == 0 {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read commands: %w", err)
		}
	}

	app, err := prepare(ctx, opts)
	if err != nil {
		return err
	}

	slog.Debug(app.Boot())

	failed := app.Exec(lines, stdout, stderr)

	if err := app.Shutdown(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCommandsFailed, failed, len(lines))
	}

	return nil
}

func runInspect(ctx context.Context, opts *options, stdout io.Writer) error {
	app, err := prepare(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Inspect(stdout)
}

func newRootCommand(ctx context.Context, cancel context.CancelFunc) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "kfs",
		Short:         "In-memory hierarchical store persisted to an ATA disk",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			opts.logs = setupLogging(opts.debug)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(ctx, cancel, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&opts.envFiles, "env", []string{"kfs.env"}, "configuration files to read")
	flags.StringVar(&opts.image, "image", "", "disk image to attach (overrides KFS_IMAGE)")
	flags.BoolVar(&opts.memory, "memory", false, "attach a volatile in-memory disk")
	flags.BoolVar(&opts.detached, "detached", false, "boot with no drive on the channel")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&opts.ui, "ui", true, "enable the UI")
	rootCmd.Flags().StringVar(&opts.cpuprofile, "cpuprofile", "", "write cpu profile to file")
	rootCmd.Flags().StringVar(&opts.memprofile, "memprofile", "", "write memory profile to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(ctx, cancel, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	runCmd.Flags().AddFlagSet(rootCmd.Flags())

	execCmd := &cobra.Command{
		Use:   "exec [command]...",
		Short: "Run commands without the UI, reading them from stdin if none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(ctx, opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the snapshot stored on disk without changing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(ctx, opts, cmd.OutOrStdout())
		},
	}

	rootCmd.AddCommand(runCmd, execCmd, inspectCmd)

	return rootCmd
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandlers(cancel)

	if err := newRootCommand(ctx, cancel).ExecuteContext(ctx); err != nil {
		slog.Error("kfs failed.", "err", err)
		ExitCode = 1
	}
}
