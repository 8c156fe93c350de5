// Package tui renders the runner dashboard. It is strictly a consumer of
// the worker's published snapshots: every tick it drains the response
// channel without blocking and pushes fire-and-forget requests; no probe
// or control subprocess ever runs on the UI goroutine.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/axondata/runnerdash"
	"github.com/axondata/runnerdash/internal/sysstat"
)

type mode int

const (
	modeNormal mode = iota
	modeLogs
	modeHelp
)

// App wires a Model to a bubbletea program
type App struct {
	model Model
}

// Options configures the dashboard
type Options struct {
	// Requests is the worker's inbound channel
	Requests chan<- runnerdash.Request

	// Responses is the worker's outbound channel
	Responses <-chan runnerdash.Response

	// Logs serves the log view
	Logs runnerdash.LogSource

	// LogLines is how many lines the log view tails
	LogLines int

	// RefreshInterval is the periodic refresh cadence
	RefreshInterval time.Duration

	// Runners seeds the table until the first snapshot arrives
	Runners []runnerdash.Runner
}

// New creates the dashboard application
func New(opts Options) *App {
	if opts.LogLines <= 0 {
		opts.LogLines = 100
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Second
	}

	vp := viewport.New(80, 20)

	return &App{model: Model{
		requests:  opts.Requests,
		responses: opts.Responses,
		logSource: opts.Logs,
		logLines:  opts.LogLines,
		interval:  opts.RefreshInterval,
		runners:   opts.Runners,
		viewport:  vp,
	}}
}

// Run starts the dashboard and blocks until the operator quits
func (a *App) Run() error {
	p := tea.NewProgram(a.model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Model is the dashboard state
type Model struct {
	requests  chan<- runnerdash.Request
	responses <-chan runnerdash.Response
	logSource runnerdash.LogSource
	logLines  int
	interval  time.Duration

	runners   []runnerdash.Runner
	selected  int
	mode      mode
	statusMsg string
	stale     bool
	stats     sysstat.Stats
	logs      []string
	viewport  viewport.Model

	width  int
	height int
}

type tickMsg time.Time

type statsMsg sysstat.Stats

type logsMsg struct {
	lines []string
	err   error
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func sampleStats() tea.Msg {
	return statsMsg(sysstat.Sample(context.Background()))
}

// Init requests the first refresh and schedules the periodic tick
func (m Model) Init() tea.Cmd {
	m.send(runnerdash.Refresh{})
	return tea.Batch(m.tick(), sampleStats)
}

// send pushes a request without ever blocking the UI; a full queue means
// the worker is busy and the next tick will catch up.
func (m Model) send(req runnerdash.Request) {
	select {
	case m.requests <- req:
	default:
	}
}

// drain applies every pending worker response, in receive order. Updates
// always precede their action's completion message, so the table is never
// stale next to a "done" line. A closed channel means the worker died;
// the persistent warning replaces silent staleness.
func (m *Model) drain() {
	for {
		select {
		case resp, ok := <-m.responses:
			if !ok {
				m.stale = true
				m.statusMsg = "ERROR: background worker stopped. Data may be stale."
				return
			}
			switch r := resp.(type) {
			case runnerdash.RunnersUpdated:
				m.runners = r.Runners
				if m.selected >= len(m.runners) && len(m.runners) > 0 {
					m.selected = len(m.runners) - 1
				}
			case runnerdash.ActionDone:
				m.statusMsg = r.Message
			}
		default:
			return
		}
	}
}

// Update handles input and worker/timer messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		return m, nil

	case tickMsg:
		m.drain()
		if !m.stale {
			m.send(runnerdash.Refresh{})
		}
		return m, tea.Batch(m.tick(), sampleStats)

	case statsMsg:
		m.stats = sysstat.Stats(msg)
		return m, nil

	case logsMsg:
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, nil
		}
		m.logs = msg.lines
		m.viewport.SetContent(joinLines(msg.lines))
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key clears a transient status message
	m.statusMsg = ""

	if msg.String() == "ctrl+c" || msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeHelp:
		m.mode = modeNormal
		return m, nil
	case modeLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if len(m.runners) > 0 {
			m.selected = (m.selected - 1 + len(m.runners)) % len(m.runners)
		}
	case "down", "j":
		if len(m.runners) > 0 {
			m.selected = (m.selected + 1) % len(m.runners)
		}
	case "s":
		return m.control(runnerdash.ActionStart)
	case "x":
		return m.control(runnerdash.ActionStop)
	case "r":
		return m.control(runnerdash.ActionRestart)
	case "l":
		if len(m.runners) > 0 {
			m.mode = modeLogs
			return m, m.fetchLogs()
		}
	case "?", "h":
		m.mode = modeHelp
	}
	return m, nil
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "l", "esc":
		m.mode = modeNormal
		m.logs = nil
		return m, nil
	case "?", "h":
		m.mode = modeHelp
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) control(a runnerdash.Action) (tea.Model, tea.Cmd) {
	if len(m.runners) == 0 {
		return m, nil
	}
	m.send(runnerdash.Control{Index: m.selected, Action: a})
	m.statusMsg = progressive(a) + " " + m.runners[m.selected].DisplayName() + "..."
	return m, nil
}

func progressive(a runnerdash.Action) string {
	switch a {
	case runnerdash.ActionStop:
		return "Stopping"
	case runnerdash.ActionRestart:
		return "Restarting"
	default:
		return "Starting"
	}
}

func (m Model) fetchLogs() tea.Cmd {
	r := m.runners[m.selected]
	src := m.logSource
	lines := m.logLines
	return func() tea.Msg {
		out, err := src.Tail(context.Background(), r, lines)
		return logsMsg{lines: out, err: err}
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
