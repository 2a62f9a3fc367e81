package shell

import (
	"testing"

	"github.com/desertwitch/kfs/internal/ata"
	"github.com/desertwitch/kfs/internal/clock"
	"github.com/desertwitch/kfs/internal/machine"
	"github.com/desertwitch/kfs/internal/persist"
	"github.com/desertwitch/kfs/internal/shell/mocks"
	"github.com/desertwitch/kfs/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *tree.Root, *mocks.PersistProvider, *clock.Uptime) {
	t.Helper()

	root := tree.NewRoot("main", nil)
	persistMock := mocks.NewPersistProvider(t)
	uptime := clock.NewUptime()

	return NewInterpreter(root, persistMock, uptime), root, persistMock, uptime
}

func mustExecute(t *testing.T, i *Interpreter, line string) string {
	t.Helper()

	out, err := i.Execute(line)
	require.NoError(t, err, line)

	return out
}

// TestExecute_Success_Session walks through a typical session.
func TestExecute_Success_Session(t *testing.T) {
	t.Parallel()

	i, root, _, _ := newTestInterpreter(t)

	assert.Equal(t, "kfs@main=> ", i.Prompt())
	assert.Equal(t, "Created folder 'docs'", mustExecute(t, i, "make docs"))
	assert.Empty(t, mustExecute(t, i, "-> docs"))
	assert.Equal(t, "kfs@main/docs=> ", i.Prompt())
	assert.Equal(t, "Current directory: main/docs", mustExecute(t, i, "here"))
	assert.Equal(t, "Created file 'a.txt'", mustExecute(t, i, "make a.txt"))

	assert.Equal(t, "Enter text. End with a single line '::end'", mustExecute(t, i, "scribe a.txt"))
	assert.True(t, i.Scribing())
	assert.Equal(t, "... ", i.Prompt())
	assert.Empty(t, mustExecute(t, i, "hello"))
	assert.Empty(t, mustExecute(t, i, "make not-a-command"))
	assert.Equal(t, "Wrote 25 bytes to 'a.txt'", mustExecute(t, i, " ::end "))
	assert.False(t, i.Scribing())

	content, err := root.Read([]string{"docs"}, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nmake not-a-command\n", string(content))

	assert.Equal(t, "hello\nmake not-a-command", mustExecute(t, i, "peek a.txt"))
	assert.Equal(t, "a.txt", mustExecute(t, i, "seek hell"))
	assert.Empty(t, mustExecute(t, i, "seek absent"))
	assert.Equal(t, "Cleared", mustExecute(t, i, "void a.txt"))
	assert.Empty(t, mustExecute(t, i, "peek a.txt"))

	assert.Empty(t, mustExecute(t, i, "<-"))
	assert.Equal(t, "docs/", mustExecute(t, i, "peek"))
	assert.Equal(t, "a.txt", mustExecute(t, i, "peek docs"))
	assert.Equal(t, "Deleted 'docs'", mustExecute(t, i, "del docs"))
	assert.Equal(t, "(empty)", mustExecute(t, i, "peek"))

	assert.Empty(t, mustExecute(t, i, "   "))
	assert.Equal(t, "System spark initiated.", mustExecute(t, i, "spark"))
	assert.Contains(t, mustExecute(t, i, "help"), "scribe <file>")
}

// TestExecute_Success_AbsoluteEnter verifies -> resolves from the root.
func TestExecute_Success_AbsoluteEnter(t *testing.T) {
	t.Parallel()

	i, _, _, _ := newTestInterpreter(t)

	mustExecute(t, i, "make a")
	mustExecute(t, i, "make b")
	mustExecute(t, i, "-> a")
	mustExecute(t, i, "make c")
	mustExecute(t, i, "-> b")
	assert.Equal(t, []string{"b"}, i.Cwd())

	mustExecute(t, i, "-> /a/c/")
	assert.Equal(t, []string{"a", "c"}, i.Cwd())
}

// TestExecute_Success_QuotedNames verifies words are split shell-style.
func TestExecute_Success_QuotedNames(t *testing.T) {
	t.Parallel()

	i, root, _, _ := newTestInterpreter(t)

	assert.Equal(t, "Created file 'my notes.txt'", mustExecute(t, i, `make "my notes.txt"`))
	require.NoError(t, root.Write(nil, "my notes.txt", []byte("two words")))
	assert.Equal(t, "my notes.txt", mustExecute(t, i, `seek 'two words'`))
}

// TestExecute_Success_BinaryPeek verifies non-UTF-8 content is not printed.
func TestExecute_Success_BinaryPeek(t *testing.T) {
	t.Parallel()

	i, root, _, _ := newTestInterpreter(t)
	require.NoError(t, root.Write(nil, "blob.bin", []byte{0xFF, 0xFE, 0x00}))

	assert.Equal(t, "<binary>", mustExecute(t, i, "peek blob.bin"))
}

// TestExecute_Fail_Table verifies the failure paths leave the state alone.
func TestExecute_Fail_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		line string
		want error
	}{
		{"Fail_Unknown", "format c:", ErrUnknownCommand},
		{"Fail_Syntax", `make "half`, ErrSyntax},
		{"Fail_MakeUsage", "make", ErrUsage},
		{"Fail_DelUsage", "del", ErrUsage},
		{"Fail_VoidUsage", "void", ErrUsage},
		{"Fail_ScribeUsage", "scribe", ErrUsage},
		{"Fail_SeekUsage", "seek", ErrUsage},
		{"Fail_EnterUsage", "->", ErrUsage},
		{"Fail_MakeEmpty", `make ""`, tree.ErrEmptyName},
		{"Fail_MakeExists", "make docs", tree.ErrExists},
		{"Fail_DelMissing", "del ghost.txt", tree.ErrNotFound},
		{"Fail_VoidMissing", "void ghost.txt", tree.ErrNotFound},
		{"Fail_PeekMissing", "peek ghost", tree.ErrNotFound},
		{"Fail_EnterMissing", "-> docs/ghost", tree.ErrNotFound},
		{"Fail_EnterEmpty", "-> /", tree.ErrEmptyName},
		{"Fail_LeaveRoot", "<-", tree.ErrAtRoot},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			i, _, _, _ := newTestInterpreter(t)
			mustExecute(t, i, "make docs")

			_, err := i.Execute(tc.line)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, i.Cwd())
			assert.False(t, i.Scribing())
		})
	}
}

// TestExecute_Success_SaveLoad verifies the persistence commands.
func TestExecute_Success_SaveLoad(t *testing.T) {
	t.Parallel()

	i, _, persistMock, _ := newTestInterpreter(t)
	persistMock.On("Save").Return(nil).Once()
	persistMock.On("Load").Return(nil).Once()

	assert.Equal(t, "Saved to disk", mustExecute(t, i, "save"))
	assert.Equal(t, "Loaded from disk", mustExecute(t, i, "load"))
}

// TestExecute_Fail_SaveLoad verifies driver failures are reported with their
// cause.
func TestExecute_Fail_SaveLoad(t *testing.T) {
	t.Parallel()

	i, _, persistMock, _ := newTestInterpreter(t)
	persistMock.On("Save").Return(ata.ErrNotPresent).Once()
	persistMock.On("Load").Return(persist.ErrBadMagic).Once()

	_, err := i.Execute("save")
	require.ErrorIs(t, err, ErrSaveFailed)
	require.ErrorIs(t, err, ata.ErrNotPresent)

	_, err = i.Execute("load")
	require.ErrorIs(t, err, ErrLoadFailed)
	require.ErrorIs(t, err, persist.ErrBadMagic)
}

// TestExecute_Success_LoadResetsCwd verifies a working directory missing
// from the loaded tree falls back to the root.
func TestExecute_Success_LoadResetsCwd(t *testing.T) {
	t.Parallel()

	i, root, persistMock, _ := newTestInterpreter(t)
	persistMock.On("Load").Return(nil).Run(func(mock.Arguments) {
		root.Replace(tree.NewDirectory("main"))
	}).Once()

	mustExecute(t, i, "make docs")
	mustExecute(t, i, "-> docs")
	mustExecute(t, i, "load")

	assert.Empty(t, i.Cwd())
}

// TestExecute_Success_Halt verifies halt saves first and asks for exit even
// when the save fails.
func TestExecute_Success_Halt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		saveErr error
		want    string
	}{
		{"Success_Saved", nil, "Auto-saved.\nSystem halted."},
		{"Success_SaveFailed", ata.ErrTimeout, "Auto-save failed.\nSystem halted."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			i, _, persistMock, _ := newTestInterpreter(t)
			persistMock.On("Save").Return(tc.saveErr).Once()

			out, err := i.Execute("halt")
			require.ErrorIs(t, err, ErrHalt)
			assert.Equal(t, tc.want, out)
		})
	}
}

// TestExecute_Success_Wipe verifies wipe and its alias request a clear
// screen.
func TestExecute_Success_Wipe(t *testing.T) {
	t.Parallel()

	i, _, _, _ := newTestInterpreter(t)

	_, err := i.Execute("wipe")
	require.ErrorIs(t, err, ErrWipe)

	_, err = i.Execute("wp")
	require.ErrorIs(t, err, ErrWipe)
}

// TestExecute_Success_Reboot saves, discards and restores the tree through
// the emulated drive.
func TestExecute_Success_Reboot(t *testing.T) {
	t.Parallel()

	store := machine.NewMemoryStore(persist.DefaultStartLBA + 1024)
	dev := machine.NewDevice(store, ata.DriveSlave)
	disk := ata.NewHandler(dev, machine.NewInterrupts(), ata.DefaultConfig())

	root := tree.NewRoot("main", []string{"home"})
	uptime := clock.NewUptime()
	manager := persist.NewManager(disk, root, uptime, persist.Config{
		StartLBA:      persist.DefaultStartLBA,
		RegionSectors: 1024,
	})

	i := NewInterpreter(root, manager, uptime)
	assert.Equal(t, "Load failed, starting fresh", i.Boot())

	mustExecute(t, i, "make docs")
	mustExecute(t, i, "-> docs")
	mustExecute(t, i, "scribe a.txt")
	mustExecute(t, i, "hello")
	mustExecute(t, i, "::end")

	out := mustExecute(t, i, "reboot")
	assert.Equal(t, "Auto-saved.\nSystem rebooting...\nLoaded from disk", out)
	assert.Empty(t, i.Cwd())

	mustExecute(t, i, "-> docs")
	assert.Equal(t, "hello", mustExecute(t, i, "peek a.txt"))
	mustExecute(t, i, "<-")
	assert.Equal(t, "docs/ home/", mustExecute(t, i, "peek"))
}

// TestComplete_Table verifies tab completion.
func TestComplete_Table(t *testing.T) {
	t.Parallel()

	i, root, _, _ := newTestInterpreter(t)
	_, err := root.Make(nil, "docs")
	require.NoError(t, err)
	require.NoError(t, root.Write(nil, "notes.txt", nil))
	require.NoError(t, root.Write(nil, "new.txt", nil))

	testCases := []struct {
		name       string
		input      string
		want       string
		candidates []string
	}{
		{"Success_Command", "hel", "help", []string{"help"}},
		{"Success_Arrow", "-", "->", []string{"->"}},
		{"Success_Argument", "peek do", "peek docs", []string{"docs"}},
		{"Success_ArgumentNoCommands", "peek h", "peek h", nil},
		{"Success_Ambiguous", "he", "he", []string{"help", "here"}},
		{"Success_AmbiguousEntries", "peek n", "peek n", []string{"new.txt", "notes.txt"}},
		{"Success_AllEntries", "del ", "del ", []string{"docs", "new.txt", "notes.txt"}},
		{"Success_None", "xyz", "xyz", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, candidates := i.Complete(tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.candidates, candidates)
		})
	}
}

// TestComplete_Success_Scribing verifies completion is off during
// multi-line input.
func TestComplete_Success_Scribing(t *testing.T) {
	t.Parallel()

	i, _, _, _ := newTestInterpreter(t)
	mustExecute(t, i, "scribe a.txt")

	got, candidates := i.Complete("hel")
	assert.Equal(t, "hel", got)
	assert.Nil(t, candidates)
}

// TestReport_Success verifies the diagnostics report.
func TestReport_Success(t *testing.T) {
	t.Parallel()

	i, root, persistMock, uptime := newTestInterpreter(t)
	persistMock.On("Stats").Return(persist.Stats{
		TicksSinceSnapshot: 5_400,
		SnapshotBytes:      1234,
		Digest:             "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		DrivePresent:       true,
	})

	_, err := root.Make(nil, "docs")
	require.NoError(t, err)
	require.NoError(t, root.Write([]string{"docs"}, "a.txt", []byte("hello")))
	uptime.Advance(3_723_000)

	out := mustExecute(t, i, "core")
	assert.Contains(t, out, "Uptime: 01:02:03\n")
	assert.Contains(t, out, "Disk: attached\n")
	assert.Contains(t, out, "Snapshot: 1.2 kB (1234 bytes), age: 5s, digest: 0123456789abcdef\n")
	assert.Contains(t, out, "FS: 2 dirs, 1 files, 5 B\n")
}

// TestReport_Success_NoDisk verifies the report on a machine without a
// drive.
func TestReport_Success_NoDisk(t *testing.T) {
	t.Parallel()

	i, _, persistMock, _ := newTestInterpreter(t)
	persistMock.On("Stats").Return(persist.Stats{})

	out := i.Report()
	assert.Contains(t, out, "Disk: not detected\n")
	assert.Contains(t, out, "Snapshot: 0 B (0 bytes), age: 0s, digest: none\n")
}
