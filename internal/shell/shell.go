// Package shell implements the line interface to the live tree: a small
// command interpreter with a working directory, multi-line input for
// writing files, tab completion and the system report.
package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/desertwitch/kfs/internal/persist"
	"github.com/desertwitch/kfs/internal/tree"
	"github.com/kballard/go-shellquote"
)

// ScribeEnd is the line that ends multi-line input.
const ScribeEnd = "::end"

type persistProvider interface {
	Save() error
	Load() error
	Stats() persist.Stats
}

type clockProvider interface {
	Ticks() uint64
}

type command func(i *Interpreter, args []string) (string, error)

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   (*Interpreter).help,
		"wipe":   (*Interpreter).wipe,
		"wp":     (*Interpreter).wipe,
		"halt":   (*Interpreter).halt,
		"reboot": (*Interpreter).reboot,
		"spark":  (*Interpreter).spark,
		"core":   (*Interpreter).core,
		"save":   (*Interpreter).save,
		"load":   (*Interpreter).load,
		"here":   (*Interpreter).here,
		"make":   (*Interpreter).makeEntry,
		"del":    (*Interpreter).deleteEntry,
		"peek":   (*Interpreter).peek,
		"void":   (*Interpreter).void,
		"scribe": (*Interpreter).scribe,
		"seek":   (*Interpreter).seek,
		"->":     (*Interpreter).enter,
		"<-":     (*Interpreter).leave,
	}
}

// Commands returns the sorted command names.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

type scribeState struct {
	name  string
	lines []string
}

// Interpreter is the principal implementation of the line interface. It
// holds the working directory and the pending multi-line input.
type Interpreter struct {
	sync.Mutex
	root    *tree.Root
	persist persistProvider
	clock   clockProvider
	cwd     []string
	pending *scribeState
}

// NewInterpreter returns a pointer to a new [Interpreter] at the root.
func NewInterpreter(root *tree.Root, persist persistProvider, clock clockProvider) *Interpreter {
	return &Interpreter{
		root:    root,
		persist: persist,
		clock:   clock,
	}
}

// Execute runs one line of input. While multi-line input is pending, lines
// are collected instead until [ScribeEnd].
//
// The returned output has no trailing newline. [ErrHalt] and [ErrWipe] are
// requests to the front-end rather than failures.
func (i *Interpreter) Execute(line string) (string, error) {
	i.Lock()
	defer i.Unlock()

	if i.pending != nil {
		return i.collect(line)
	}

	words, err := shellquote.Split(line)
	if err != nil {
		return "", fmt.Errorf("(shell) %w: %w", ErrSyntax, err)
	}

	if len(words) == 0 {
		return "", nil
	}

	cmd, ok := commands[words[0]]
	if !ok {
		return "", fmt.Errorf("(shell) %w: %q", ErrUnknownCommand, words[0])
	}

	return cmd(i, words[1:])
}

// Boot restores the tree from the snapshot region. Without a usable snapshot
// the tree keeps its initial shape.
func (i *Interpreter) Boot() string {
	i.Lock()
	defer i.Unlock()

	return i.boot()
}

// Prompt returns the prompt for the current state.
func (i *Interpreter) Prompt() string {
	i.Lock()
	defer i.Unlock()

	if i.pending != nil {
		return "... "
	}

	return "kfs@" + i.path() + "=> "
}

// Scribing reports whether multi-line input is pending.
func (i *Interpreter) Scribing() bool {
	i.Lock()
	defer i.Unlock()

	return i.pending != nil
}

// Cwd returns a copy of the working directory below the root.
func (i *Interpreter) Cwd() []string {
	i.Lock()
	defer i.Unlock()

	return slices.Clone(i.cwd)
}

// Complete completes the last word of input against the command names and
// the entries of the working directory. It returns the completed input when
// exactly one candidate matches, and all matching candidates.
func (i *Interpreter) Complete(input string) (string, []string) {
	i.Lock()
	defer i.Unlock()

	if i.pending != nil {
		return input, nil
	}

	prefix, token := input, ""
	if !strings.HasSuffix(input, " ") {
		if idx := strings.LastIndex(input, " "); idx >= 0 {
			prefix, token = input[:idx+1], input[idx+1:]
		} else {
			prefix, token = "", input
		}
	}

	var candidates []string
	if strings.TrimSpace(prefix) == "" {
		for _, name := range Commands() {
			if strings.HasPrefix(name, token) {
				candidates = append(candidates, name)
			}
		}
	}

	dirs, files, err := i.root.Names(i.cwd)
	if err == nil {
		for _, name := range slices.Concat(dirs, files) {
			if strings.HasPrefix(name, token) {
				candidates = append(candidates, name)
			}
		}
	}

	if len(candidates) != 1 {
		return input, candidates
	}

	return prefix + candidates[0], candidates
}

func (i *Interpreter) path() string {
	return strings.Join(append([]string{i.root.Name()}, i.cwd...), "/")
}

func (i *Interpreter) boot() string {
	if err := i.persist.Load(); err != nil {
		slog.Warn("No snapshot restored, starting with a fresh tree.",
			"err", err,
		)

		return "Load failed, starting fresh"
	}

	i.validateCwd()

	return "Loaded from disk"
}

// validateCwd returns to the root when the working directory vanished, such
// as after a load.
func (i *Interpreter) validateCwd() {
	if _, _, err := i.root.Names(i.cwd); err != nil {
		i.cwd = nil
	}
}

func (i *Interpreter) collect(line string) (string, error) {
	if strings.TrimSpace(line) != ScribeEnd {
		i.pending.lines = append(i.pending.lines, line)

		return "", nil
	}

	p := i.pending
	i.pending = nil

	var content strings.Builder
	for _, l := range p.lines {
		content.WriteString(l)
		content.WriteByte('\n')
	}

	if err := i.root.Write(i.cwd, p.name, []byte(content.String())); err != nil {
		return "", fmt.Errorf("(shell-scribe) %w", err)
	}

	return fmt.Sprintf("Wrote %d bytes to '%s'", content.Len(), p.name), nil
}

func (i *Interpreter) help([]string) (string, error) {
	return strings.Join([]string{
		"System: core, halt, reboot, spark, save, load, wipe",
		"Navigation: here, -> <dir>, <-",
		"Files: make <name>, del <name>, peek [file|dir], void <file>",
		"Edit/search: scribe <file>, seek <pattern>",
	}, "\n"), nil
}

func (i *Interpreter) wipe([]string) (string, error) {
	return "", ErrWipe
}

func (i *Interpreter) spark([]string) (string, error) {
	return "System spark initiated.", nil
}

func (i *Interpreter) halt([]string) (string, error) {
	return i.autosave() + "\nSystem halted.", ErrHalt
}

func (i *Interpreter) reboot([]string) (string, error) {
	out := i.autosave() + "\nSystem rebooting..."

	i.root.Reset()
	i.cwd = nil

	return out + "\n" + i.boot(), nil
}

// autosave saves before a halt or reboot and describes the outcome.
func (i *Interpreter) autosave() string {
	if err := i.persist.Save(); err != nil {
		slog.Warn("Save before shutdown failed.",
			"err", err,
		)

		return "Auto-save failed."
	}

	return "Auto-saved."
}

func (i *Interpreter) save([]string) (string, error) {
	if err := i.persist.Save(); err != nil {
		return "", fmt.Errorf("(shell-save) %w: %w", ErrSaveFailed, err)
	}

	return "Saved to disk", nil
}

func (i *Interpreter) load([]string) (string, error) {
	if err := i.persist.Load(); err != nil {
		return "", fmt.Errorf("(shell-load) %w: %w", ErrLoadFailed, err)
	}

	i.validateCwd()

	return "Loaded from disk", nil
}

func (i *Interpreter) here([]string) (string, error) {
	return "Current directory: " + i.path(), nil
}

func (i *Interpreter) makeEntry(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("(shell-make) %w: make <name>", ErrUsage)
	}

	kind, err := i.root.Make(i.cwd, args[0])
	if err != nil {
		return "", fmt.Errorf("(shell-make) %w", err)
	}

	return fmt.Sprintf("Created %s '%s'", kind, args[0]), nil
}

func (i *Interpreter) deleteEntry(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("(shell-del) %w: del <name>", ErrUsage)
	}

	if _, err := i.root.Delete(i.cwd, args[0]); err != nil {
		return "", fmt.Errorf("(shell-del) %w", err)
	}

	return fmt.Sprintf("Deleted '%s'", args[0]), nil
}

func (i *Interpreter) peek(args []string) (string, error) {
	var name string
	if len(args) > 0 {
		name = args[0]
	}

	if name != "" {
		content, err := i.root.Read(i.cwd, name)
		if err == nil {
			if !utf8.Valid(content) {
				return "<binary>", nil
			}

			return strings.TrimSuffix(string(content), "\n"), nil
		}
		if !errors.Is(err, tree.ErrNotFound) {
			return "", fmt.Errorf("(shell-peek) %w", err)
		}
	}

	entries, err := i.root.List(i.cwd, name)
	if err != nil {
		return "", fmt.Errorf("(shell-peek) %w", err)
	}

	if len(entries) == 0 {
		return "(empty)", nil
	}

	return strings.Join(entries, " "), nil
}

func (i *Interpreter) void(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("(shell-void) %w: void <file>", ErrUsage)
	}

	if err := i.root.Void(i.cwd, args[0]); err != nil {
		return "", fmt.Errorf("(shell-void) %w", err)
	}

	return "Cleared", nil
}

func (i *Interpreter) scribe(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("(shell-scribe) %w: scribe <file>", ErrUsage)
	}

	i.pending = &scribeState{name: args[0]}

	return fmt.Sprintf("Enter text. End with a single line '%s'", ScribeEnd), nil
}

func (i *Interpreter) seek(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("(shell-seek) %w: seek <pattern>", ErrUsage)
	}

	matches, err := i.root.Seek(i.cwd, []byte(args[0]))
	if err != nil {
		return "", fmt.Errorf("(shell-seek) %w", err)
	}

	return strings.Join(matches, " "), nil
}

func (i *Interpreter) enter(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("(shell-enter) %w: -> <dir>", ErrUsage)
	}

	cwd, err := i.root.Enter(args[0])
	if err != nil {
		return "", fmt.Errorf("(shell-enter) %w", err)
	}
	i.cwd = cwd

	return "", nil
}

func (i *Interpreter) leave([]string) (string, error) {
	cwd, err := tree.Leave(i.cwd)
	if err != nil {
		return "", fmt.Errorf("(shell-leave) %w", err)
	}
	i.cwd = cwd

	return "", nil
}
