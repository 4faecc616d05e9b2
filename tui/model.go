// ABOUTME: Terminal UI model and core state management
// ABOUTME: Bubble Tea model wiring the playback controller, timers and file watcher

// Package tui provides the retro terminal front-end for the radio.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"retro-radio/history"
	"retro-radio/player"
	"retro-radio/station"
)

// Timing constants
const (
	pollInterval          = 500 * time.Millisecond // Title sampling cadence while playing
	animInterval          = 80 * time.Millisecond  // Equalizer redraw cadence
	openTimeout           = 20 * time.Second       // Upper bound for connecting to a stream
	historyTimeout        = 2 * time.Second
	statusMessageDuration = 5 * time.Second // How long to show transient status messages
)

// Layout constants for UI dimensions
const (
	defaultWidth     = 60
	equalizerBars    = 28
	equalizerHeight  = 4
	volumeStep       = 5
	historyLimit     = 8
	minListHeight    = 3
	maxListHeight    = 10
	minProgressWidth = 10

	// Lines used by everything except the station list
	totalUIChrome = 16 + equalizerHeight
)

// pollTickMsg samples the engine for the session identified by epoch
type pollTickMsg struct {
	epoch int
	at    time.Time
}

// animTickMsg advances the equalizer animation
type animTickMsg struct{}

// autoplayMsg starts the restored station once the program is running
type autoplayMsg struct{}

// catalogReloadedMsg carries a re-read station file
type catalogReloadedMsg struct {
	catalog *station.Catalog
	err     error
}

// historyLoadedMsg carries recent history entries
type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

// model holds the TUI state
type model struct {
	// Dependencies (concrete types following Go philosophy)
	ctrl         *player.Controller
	history      HistoryReader
	loadCatalog  CatalogLoader
	saveSettings SettingsSaver

	// Configuration
	stationsPath string
	settingsPath string
	autoplay     bool

	// Playback lifecycle
	// Framework exception: the cancel func is stored in the struct because Bubble Tea owns
	// the model lifecycle and a pending open must be abandoned when the user moves on.
	openCancel context.CancelFunc
	display    player.Display
	watcher    *fsnotify.Watcher

	// Widgets
	eq        *equalizer
	volumeBar progress.Model
	help      help.Model

	// UI state
	width        int
	height       int
	quitting     bool
	listCursor   int // Highlighted row in the station list
	showHistory  bool
	recent       []history.Entry
	statusMsg    string    // Temporary status message (e.g., "Station list reloaded")
	statusMsgAge time.Time // When status message was set
}

// Key bindings
type keyMap struct {
	Play     key.Binding
	Next     key.Binding
	Previous key.Binding
	Up       key.Binding
	Down     key.Binding
	Tune     key.Binding
	VolUp    key.Binding
	VolDown  key.Binding
	Mute     key.Binding
	History  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Play: key.NewBinding(
		key.WithKeys(" ", "space", "p"),
		key.WithHelp("space/p", "play/stop"),
	),
	Next: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n/→", "next"),
	),
	Previous: key.NewBinding(
		key.WithKeys("b", "left"),
		key.WithHelp("b/←", "previous"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse"),
	),
	Tune: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "tune"),
	),
	VolUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "louder"),
	),
	VolDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "quieter"),
	),
	Mute: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "mute"),
	),
	History: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "history"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the help line
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Previous, k.Next, k.Tune, k.VolDown, k.VolUp, k.Mute, k.History, k.Quit}
}

// FullHelp returns all bindings grouped by column
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Previous, k.Next},
		{k.Up, k.Down, k.Tune},
		{k.VolUp, k.VolDown, k.Mute},
		{k.History, k.Quit},
	}
}

// Styles
var (
	neonGreen  = lipgloss.Color("#39ff14")
	neonPink   = lipgloss.Color("#ff2bd6")
	neonCyan   = lipgloss.Color("#00e5ff")
	dimGrey    = lipgloss.Color("#9aa4b2")
	brightText = lipgloss.Color("#e6f1ff")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(neonPink)

	stationStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(neonCyan)

	nowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brightText)

	sideTitleStyle = lipgloss.NewStyle().
			Foreground(dimGrey)

	eqOnStyle = lipgloss.NewStyle().
			Foreground(neonGreen)

	eqOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0b1f0b"))

	mutedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Foreground(lipgloss.Color("15"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	errorStatusStyle = statusStyle.
				Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Run starts the TUI with injected dependencies and blocks until the user quits
func Run(opts Options, deps Dependencies) error {
	if deps.Controller == nil {
		return errors.New("tui: no playback controller")
	}

	m := initModel(opts, deps)

	if opts.StationsPath != "" && deps.LoadCatalog != nil {
		watcher, err := newCatalogWatcher(opts.StationsPath)
		if err != nil {
			log.Warn().Err(err).Msg("Station file will not be watched")
		} else {
			m.watcher = watcher

			defer func() {
				if err := watcher.Close(); err != nil {
					log.Debug().Err(err).Msg("Failed to close file watcher")
				}
			}()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// initModel creates the initial model with injected dependencies
func initModel(opts Options, deps Dependencies) model {
	bar := progress.New(
		progress.WithGradient(string(neonCyan), string(neonPink)),
		progress.WithoutPercentage(),
	)

	m := model{
		ctrl:         deps.Controller,
		history:      deps.History,
		loadCatalog:  deps.LoadCatalog,
		saveSettings: deps.SaveSettings,

		stationsPath: opts.StationsPath,
		settingsPath: opts.SettingsPath,
		autoplay:     opts.Autoplay,

		eq:        newEqualizer(equalizerBars, time.Now().UnixNano()),
		volumeBar: bar,
		help:      help.New(),
		width:     defaultWidth,
	}

	m.display = m.ctrl.Display()
	m.listCursor = m.display.Index
	m.resize(defaultWidth, 0)

	if opts.StartupMsg != "" {
		m.setStatusMsg(opts.StartupMsg)
	}

	return m
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{animTick()}

	if m.watcher != nil {
		cmds = append(cmds, waitForFileChange(m.watcher, m.stationsPath))
	}

	if m.autoplay {
		cmds = append(cmds, func() tea.Msg { return autoplayMsg{} })
	}

	return tea.Batch(cmds...)
}

// ========== Commands ==========

// pollTick schedules the next title sample for epoch
func pollTick(epoch int) tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg{epoch: epoch, at: t}
	})
}

// animTick schedules the next equalizer frame
func animTick() tea.Cmd {
	return tea.Tick(animInterval, func(time.Time) tea.Msg {
		return animTickMsg{}
	})
}

// reloadCatalog re-reads the station file in the background
func reloadCatalog(load CatalogLoader, path string) tea.Cmd {
	return func() tea.Msg {
		catalog, err := load(path)
		return catalogReloadedMsg{catalog: catalog, err: err}
	}
}

// loadHistory reads recent history in the background
func loadHistory(reader HistoryReader) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()

		entries, err := reader.Recent(ctx, historyLimit)

		return historyLoadedMsg{entries: entries, err: err}
	}
}

// ========== Helper Methods ==========

// startConnect runs a pending stream open off the event loop and starts polling its session
func (m *model) startConnect(conn player.Connect) tea.Cmd {
	m.cancelOpen()

	if !conn.Pending() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	m.openCancel = cancel

	open := func() tea.Msg {
		defer cancel()
		return conn.Run(ctx)
	}

	return tea.Batch(open, pollTick(conn.Epoch))
}

// cancelOpen abandons an open that is still connecting
func (m *model) cancelOpen() {
	if m.openCancel != nil {
		m.openCancel()
		m.openCancel = nil
	}
}

// act runs a controller command that may start a stream
func (m *model) act(conn player.Connect, err error) tea.Cmd {
	m.report(err)

	cmd := m.startConnect(conn)
	m.refresh()

	return cmd
}

// report turns an action error into a status message and a log line
func (m *model) report(err error) {
	if err == nil {
		return
	}

	log.Warn().Err(err).Msg("Action failed")
	m.setStatusMsg(err.Error())
}

// refresh re-reads the display state after the controller changed
func (m *model) refresh() {
	m.display = m.ctrl.Display()

	if m.listCursor >= m.display.Count {
		m.listCursor = max(m.display.Count-1, 0)
	}
}

// setStatusMsg sets a transient status message with current timestamp
func (m *model) setStatusMsg(msg string) {
	m.statusMsg = msg
	m.statusMsgAge = time.Now()
}

// resize recomputes widget sizes for the terminal dimensions
func (m *model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.volumeBar.Width = max(width-20, minProgressWidth)
}

// listHeight is how many station rows fit on screen
func (m model) listHeight() int {
	if m.height == 0 {
		return maxListHeight
	}

	h := m.height - totalUIChrome
	if m.showHistory {
		h -= historyLimit + 2
	}

	return min(max(h, minListHeight), maxListHeight)
}

// ========== Helpers ==========

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return string(r[:maxLen])
	}

	return string(r[:maxLen-3]) + "..."
}

// formatElapsed renders a duration as HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mins := d / time.Minute
	d -= mins * time.Minute

	return fmt.Sprintf("%02d:%02d:%02d", h, mins, d/time.Second)
}
