package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/kfs/internal/shell"
)

const (
	maxOutputLines = 1000
	maxLogLines    = 100
	maxHistory     = 500

	autosavePollInterval = time.Second

	regionLabel = "Snapshot region "
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// promptStyle defines the style for echoed prompts.
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	// errorStyle defines the style for failed commands.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// AutosaveTickMsg is a [tea.Msg] asking the model to poll the autosaver.
type AutosaveTickMsg time.Time

// TeaModel is the principal [tea.Model] for the terminal front-end.
type TeaModel struct {
	width  int
	height int
	cancel context.CancelFunc

	uiHandler *Handler
	shell     shellProvider
	autosaver autosaveProvider
	region    regionProvider

	fullWidthWithBorders int

	input          textinput.Model
	regionGauge    progress.Model
	outputViewport viewport.Model
	logsViewport   viewport.Model

	output  []string
	logs    []string
	history []string
	histPos int

	ready bool
}

// NewTeaModel returns an initial new [TeaModel], greeting with banner.
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, sh shellProvider, autosaver autosaveProvider, region regionProvider, banner []string, cancel context.CancelFunc) TeaModel {
	input := textinput.New()
	input.Prompt = sh.Prompt()
	input.PromptStyle = promptStyle
	input.Focus()

	return TeaModel{
		uiHandler:      uiHandler,
		shell:          sh,
		autosaver:      autosaver,
		region:         region,
		input:          input,
		regionGauge: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		outputViewport: viewport.New(80, 20),
		logsViewport:   viewport.New(80, 5),
		output:         append(make([]string, 0, 100), banner...),
		logs:           make([]string, 0, maxLogLines),
		histPos:        -1,
		cancel:         cancel,
		ready:          false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
		autosaveTick(),
	)
}

// autosaveTick produces a [tea.Cmd] that yields an [AutosaveTickMsg] after
// the poll interval.
func autosaveTick() tea.Cmd {
	return tea.Tick(autosavePollInterval, func(t time.Time) tea.Msg {
		return AutosaveTickMsg(t)
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,funlen,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type { //nolint:exhaustive
		case tea.KeyCtrlC:
			m.cancel()

			return m, tea.Quit

		case tea.KeyEnter:
			if quit := m.run(m.input.Value()); quit {
				return m, tea.Quit
			}

			return m, nil

		case tea.KeyTab:
			completed, candidates := m.shell.Complete(m.input.Value())
			if len(candidates) > 1 {
				m.appendOutput(strings.Join(candidates, "  "))
			}
			m.input.SetValue(completed)
			m.input.CursorEnd()

			return m, nil

		case tea.KeyUp:
			m.historyPrev()

			return m, nil

		case tea.KeyDown:
			m.historyNext()

			return m, nil

		case tea.KeyPgUp:
			m.outputViewport.ViewUp()

			return m, nil

		case tea.KeyPgDown:
			m.outputViewport.ViewDown()

			return m, nil
		}

		m.input, cmd = m.input.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.fullWidthWithBorders = m.width - 2

		// The log panel takes about a quarter of the height.
		logsHeight := max(m.height/4, 3)

		// Borders, titles, the input line, the gauge and the help line.
		outputHeight := max(m.height-logsHeight-10, 1)

		m.outputViewport.Width = m.fullWidthWithBorders
		m.outputViewport.Height = outputHeight
		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = logsHeight
		m.input.Width = max(m.fullWidthWithBorders-len(m.input.Prompt)-1, 1)
		m.regionGauge.Width = max(m.fullWidthWithBorders-len(regionLabel)-2, 10)

		m.refreshOutput()
		m.refreshLogs()

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case AutosaveTickMsg:
		if saved, err := m.autosaver.Poll(); saved {
			if err != nil {
				m.appendOutput(errorStyle.Render("[auto] save failed"))
			} else {
				m.appendOutput("[auto] saved")
			}
		}
		cmds = append(cmds, autosaveTick())

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, string(msg))
		m.refreshLogs()
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// run executes one input line and reports whether the program should quit.
func (m *TeaModel) run(line string) bool {
	m.appendOutput(promptStyle.Render(m.input.Prompt) + line)

	if !m.shell.Scribing() && strings.TrimSpace(line) != "" {
		m.pushHistory(line)
	}

	out, err := m.shell.Execute(line)

	switch {
	case errors.Is(err, shell.ErrWipe):
		m.output = m.output[:0]
	case errors.Is(err, shell.ErrHalt):
		m.appendOutput(out)

		return true
	case err != nil:
		if out != "" {
			m.appendOutput(out)
		}
		m.appendOutput(errorStyle.Render("Error: " + err.Error()))
	case out != "":
		m.appendOutput(out)
	}

	m.input.Reset()
	m.input.Prompt = m.shell.Prompt()
	m.histPos = -1
	m.refreshOutput()

	return false
}

func (m *TeaModel) pushHistory(line string) {
	if len(m.history) >= maxHistory {
		m.history = m.history[1:]
	}
	m.history = append(m.history, line)
}

func (m *TeaModel) historyPrev() {
	if len(m.history) == 0 {
		return
	}

	switch {
	case m.histPos < 0:
		m.histPos = len(m.history) - 1
	case m.histPos > 0:
		m.histPos--
	}

	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *TeaModel) historyNext() {
	if m.histPos < 0 {
		return
	}

	if m.histPos+1 < len(m.history) {
		m.histPos++
		m.input.SetValue(m.history[m.histPos])
		m.input.CursorEnd()

		return
	}

	m.histPos = -1
	m.input.SetValue("")
}

func (m *TeaModel) appendOutput(text string) {
	m.output = append(m.output, strings.Split(text, "\n")...)
	if over := len(m.output) - maxOutputLines; over > 0 {
		m.output = m.output[over:]
	}
	m.refreshOutput()
}

func (m *TeaModel) refreshOutput() {
	content := lipgloss.NewStyle().
		Width(m.outputViewport.Width).
		Render(strings.Join(m.output, "\n"))
	m.outputViewport.SetContent(content)
	m.outputViewport.GotoBottom()
}

func (m *TeaModel) refreshLogs() {
	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))
	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	var s strings.Builder

	shellSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Terminal"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.outputViewport.View()),
				m.input.View(),
			),
		)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("System Log"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	regionSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render(regionLabel + m.regionGauge.ViewAs(m.region.Usage()))

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("enter: run • tab: complete • up/down: history • pgup/pgdown: scroll • ctrl+c: quit")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		shellSection,
		logsSection,
		regionSection,
		helpSection,
	))

	return s.String()
}
