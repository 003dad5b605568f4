package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/flowgate/internal/logtail"
	"github.com/five82/flowgate/internal/prefs"
	"github.com/five82/flowgate/internal/state"
)

// Source is what the status view needs from the flow engine.
type Source interface {
	Snapshot() state.Snapshot
	ReportObservedURL(rawURL string)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Source    Source
	Prompter  *Prompter
	LogPath   string
	PollTick  time.Duration
	ThemeName string
	ShowLogs  bool
	PrefsPath string
	Logger    *zap.Logger
}

const logTailLines = 200

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	source    Source
	prompter  *Prompter
	logPath   string
	prefsPath string
	pollTick  time.Duration
	log       *zap.Logger

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	input    textinput.Model
	logView  viewport.Model
	width    int
	height   int
	ready    bool
	showHelp bool
	showLogs bool
	editing  bool
	rating   bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	lastReport  string
	logEntries  []logtail.Entry
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 250 * time.Millisecond
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "https://..."
	input.Prompt = "observed url> "
	input.CharLimit = 2048

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		source:    opts.Source,
		prompter:  opts.Prompter,
		logPath:   opts.LogPath,
		prefsPath: opts.PrefsPath,
		pollTick:  pollTick,
		log:       log,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		input:     input,
		showLogs:  opts.ShowLogs,
		snapshot:  state.Snapshot{Mode: state.ModePreparing, Loading: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.source != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.source))
	}
	if cmd := waitPromptCmd(m.ctx, m.prompter); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.showLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-20, 10)
		if !m.ready {
			m.logView = viewport.New(msg.Width, m.logHeight())
		} else {
			m.logView.Width = msg.Width
			m.logView.Height = m.logHeight()
		}
		m.ready = true
		m.refreshLogView()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case logEntriesMsg:
		m.logEntries = msg
		m.refreshLogView()
		return m, nil

	case promptMsg:
		m.rating = true
		return m, waitPromptCmd(m.ctx, m.prompter)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// The rating banner swallows one key press.
	if m.rating {
		m.rating = false
		return m, nil
	}

	if m.editing {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.submitReport()
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.editing = false
			m.input.Blur()
			m.input.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.ShowAll = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Report):
		m.editing = true
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.savePrefs()
		if m.showLogs {
			return m, readLogsCmd(m.logPath)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) submitReport() {
	value := strings.TrimSpace(m.input.Value())
	m.editing = false
	m.input.Blur()
	m.input.SetValue("")
	if value == "" || m.source == nil {
		return
	}
	m.source.ReportObservedURL(value)
	m.lastReport = value
	m.log.Debug("observed url submitted")
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, ShowLogs: m.showLogs}); err != nil {
		m.log.Warn("save prefs failed", zap.Error(err))
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.source != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.source))
	}
	if m.showLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m Model) logHeight() int {
	// header, status panel, input line, footer
	return max(m.height-12, 3)
}

func (m *Model) refreshLogView() {
	if !m.ready {
		return
	}
	m.logView.SetContent(m.renderLogEntries())
	m.logView.GotoBottom()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logEntriesMsg []logtail.Entry

type promptMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(source.Snapshot())
	}
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, logTailLines)
		if err != nil {
			return logEntriesMsg{{Level: "ERROR", Message: err.Error()}}
		}
		return logEntriesMsg(entries)
	}
}

func waitPromptCmd(ctx context.Context, p *Prompter) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-p.requests:
			return promptMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
