// ABOUTME: Unit tests for TUI model behavior
// ABOUTME: Drives the model with key presses and timer messages against a fake engine

package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"retro-radio/config"
	"retro-radio/engine"
	"retro-radio/history"
	"retro-radio/player"
	"retro-radio/station"
)

// fakeEngine serves a scripted title and records mixer changes
type fakeEngine struct {
	title  string
	volume int
	muted  bool
	stops  int
}

func (f *fakeEngine) Open(context.Context, string) error { return nil }
func (f *fakeEngine) Stop() error                         { f.stops++; return nil }
func (f *fakeEngine) SetVolume(p int) error               { f.volume = p; return nil }
func (f *fakeEngine) SetMute(m bool) error                { f.muted = m; return nil }
func (f *fakeEngine) CurrentTitle() string                { return f.title }
func (f *fakeEngine) Status() engine.Status               { return engine.Status{Playing: true} }
func (f *fakeEngine) Close() error                        { return nil }

// fakeHistory returns fixed entries
type fakeHistory struct {
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Recent(context.Context, int) ([]history.Entry, error) {
	return f.entries, f.err
}

func createTestStations(count int) []station.Station {
	stations := make([]station.Station, count)
	for i := range stations {
		stations[i] = station.Station{
			Name:     "Station " + string(rune('A'+i)),
			Address:  "http://radio.example/" + string(rune('a'+i)),
			Debounce: station.DefaultDebounce,
		}
	}

	return stations
}

// createTestModel creates a model with mock dependencies for testing
func createTestModel(stations []station.Station, settings config.Settings) (model, *fakeEngine) {
	eng := &fakeEngine{}
	ctrl := player.New(eng, stations, settings)

	m := initModel(Options{SettingsPath: "/tmp/test_settings.toml"}, Dependencies{
		Controller:   ctrl,
		LoadCatalog:  station.Load,
		SaveSettings: func(string, config.Settings) error { return nil },
	})

	return m, eng
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)

	updated, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}

	return updated, cmd
}

// playAndOpen presses play and delivers a successful open for the new session
func playAndOpen(t *testing.T, m model) model {
	t.Helper()

	m, cmd := update(t, m, runes("p"))
	if cmd == nil {
		t.Fatal("expected a command after pressing play")
	}

	m, _ = update(t, m, player.OpenResult{Epoch: m.ctrl.Epoch()})

	return m
}

func TestModelInitialization(t *testing.T) {
	stations := createTestStations(3)
	m, _ := createTestModel(stations, config.Settings{LastStation: stations[2].Address, Volume: 40})

	if m.listCursor != 2 || m.display.Index != 2 {
		t.Errorf("cursor = %d/%d, want restored station 2", m.listCursor, m.display.Index)
	}

	if m.display.Volume != 40 {
		t.Errorf("volume = %d, want 40", m.display.Volume)
	}

	if !strings.Contains(m.View(), idleLabel) {
		t.Errorf("expected %q in idle view", idleLabel)
	}
}

func TestPlayPollAndCommit(t *testing.T) {
	m, eng := createTestModel(createTestStations(2), config.DefaultSettings())

	m = playAndOpen(t, m)

	if !m.display.Playing {
		t.Fatal("expected playing after open")
	}

	if !strings.Contains(m.View(), tuningLabel) {
		t.Errorf("expected %q while waiting for a title", tuningLabel)
	}

	if eng.volume != config.DefaultVolume {
		t.Errorf("engine volume = %d, want %d", eng.volume, config.DefaultVolume)
	}

	eng.title = "Artist - Song"
	start := time.Unix(1000, 0)
	epoch := m.ctrl.Epoch()

	m, cmd := update(t, m, pollTickMsg{epoch: epoch, at: start})
	if cmd == nil {
		t.Error("expected the poll tick to be rescheduled while playing")
	}

	if m.display.Next != "Artist - Song" {
		t.Errorf("Next = %q", m.display.Next)
	}

	m, _ = update(t, m, pollTickMsg{epoch: epoch, at: start.Add(station.DefaultDebounce)})

	if m.display.Now != "Artist - Song" {
		t.Errorf("Now = %q after debounce interval", m.display.Now)
	}

	if !strings.Contains(m.View(), "Artist - Song") {
		t.Error("committed title missing from view")
	}
}

func TestStalePollTickIsDropped(t *testing.T) {
	m, eng := createTestModel(createTestStations(2), config.DefaultSettings())

	m = playAndOpen(t, m)
	stale := m.ctrl.Epoch()

	m, _ = update(t, m, runes("n"))
	m, _ = update(t, m, player.OpenResult{Epoch: m.ctrl.Epoch()})

	eng.title = "Old"

	m, cmd := update(t, m, pollTickMsg{epoch: stale, at: time.Unix(1000, 0)})
	if cmd != nil {
		t.Error("stale tick should not be rescheduled")
	}

	if m.display.Next != "" {
		t.Errorf("stale tick fed the debouncer: %+v", m.display)
	}
}

func TestStopHaltsPolling(t *testing.T) {
	m, _ := createTestModel(createTestStations(2), config.DefaultSettings())

	m = playAndOpen(t, m)
	epoch := m.ctrl.Epoch()

	m, _ = update(t, m, runes("p"))
	if m.display.Playing {
		t.Fatal("expected stopped after second press")
	}

	_, cmd := update(t, m, pollTickMsg{epoch: epoch, at: time.Unix(1000, 0)})
	if cmd != nil {
		t.Error("poll tick after stop should not be rescheduled")
	}
}

func TestNavigationKeys(t *testing.T) {
	m, _ := createTestModel(createTestStations(3), config.DefaultSettings())

	m, _ = update(t, m, runes("b"))
	if m.display.Index != 2 || m.listCursor != 2 {
		t.Errorf("previous from first: index %d cursor %d, want 2", m.display.Index, m.listCursor)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.display.Index != 0 {
		t.Errorf("next from last: index %d, want 0", m.display.Index)
	}

	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))

	if m.listCursor != 2 {
		t.Errorf("list cursor = %d, want 2 (clamped)", m.listCursor)
	}

	if m.display.Index != 0 {
		t.Error("browsing should not change the tuned station")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.display.Index != 2 || !m.display.Playing {
		t.Errorf("enter should tune to the highlighted station: %+v", m.display)
	}
}

func TestVolumeAndMuteKeys(t *testing.T) {
	m, eng := createTestModel(createTestStations(1), config.Settings{Volume: 50})

	m, _ = update(t, m, runes("+"))
	m, _ = update(t, m, runes("="))

	if m.display.Volume != 60 || eng.volume != 60 {
		t.Errorf("volume = %d (engine %d), want 60", m.display.Volume, eng.volume)
	}

	m, _ = update(t, m, runes("-"))
	if m.display.Volume != 55 {
		t.Errorf("volume = %d, want 55", m.display.Volume)
	}

	m, _ = update(t, m, runes("m"))
	if !m.display.Muted || !eng.muted {
		t.Error("expected muted")
	}

	if !strings.Contains(m.View(), "MUTED") {
		t.Error("mute marker missing from view")
	}
}

func TestEmptyCatalogReportsError(t *testing.T) {
	m, _ := createTestModel(nil, config.DefaultSettings())

	m, cmd := update(t, m, runes("p"))
	if cmd != nil {
		t.Error("play with no stations should not start anything")
	}

	if !strings.Contains(m.statusMsg, player.ErrNoStation.Error()) {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestQuitSavesSettings(t *testing.T) {
	stations := createTestStations(2)
	eng := &fakeEngine{}
	ctrl := player.New(eng, stations, config.Settings{Volume: 30})

	var saved config.Settings

	var savedPath string

	m := initModel(Options{SettingsPath: "settings.toml"}, Dependencies{
		Controller: ctrl,
		SaveSettings: func(path string, s config.Settings) error {
			savedPath = path
			saved = s

			return errors.New("disk full")
		},
	})

	m = playAndOpen(t, m)
	m, _ = update(t, m, runes("n"))

	m, cmd := update(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	if !m.quitting {
		t.Error("expected quitting flag")
	}

	if savedPath != "settings.toml" {
		t.Errorf("saved to %q", savedPath)
	}

	want := config.Settings{LastStation: stations[1].Address, Volume: 30}
	if saved != want {
		t.Errorf("saved %+v, want %+v", saved, want)
	}

	if eng.stops == 0 {
		t.Error("engine not stopped on quit")
	}
}

func TestCatalogReload(t *testing.T) {
	stations := createTestStations(3)
	m, _ := createTestModel(stations, config.Settings{LastStation: stations[1].Address})

	reloaded := &station.Catalog{
		Stations: []station.Station{stations[1], {Name: "New", Address: "http://new.example"}},
		Warnings: []station.Warning{{Line: 4, Reason: "missing url"}},
	}

	m, _ = update(t, m, catalogReloadedMsg{catalog: reloaded})

	if m.display.Count != 2 || m.display.Index != 0 {
		t.Errorf("after reload count %d index %d, want 2 and 0", m.display.Count, m.display.Index)
	}

	if !strings.Contains(m.statusMsg, "Reloaded 2 stations") {
		t.Errorf("status = %q", m.statusMsg)
	}

	m, _ = update(t, m, catalogReloadedMsg{catalog: &station.Catalog{}, err: station.ErrNoStations})

	if m.display.Count != 2 {
		t.Error("an empty reload should keep the current list")
	}

	if !strings.Contains(m.statusMsg, "not reloaded") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestHistoryPanel(t *testing.T) {
	stations := createTestStations(1)
	hist := &fakeHistory{entries: []history.Entry{
		{Title: "Remembered Song", StationName: "Station A", PlayedAt: time.Now()},
	}}

	m := initModel(Options{}, Dependencies{
		Controller: player.New(&fakeEngine{}, stations, config.DefaultSettings()),
		History:    hist,
	})

	m, cmd := update(t, m, runes("h"))
	if !m.showHistory || cmd == nil {
		t.Fatal("expected history panel to open and load")
	}

	m, _ = update(t, m, cmd())

	if !strings.Contains(m.View(), "Remembered Song") {
		t.Error("history entry missing from view")
	}

	m, _ = update(t, m, runes("h"))
	if m.showHistory {
		t.Error("expected history panel to close")
	}
}

func TestHistoryDisabled(t *testing.T) {
	m, _ := createTestModel(createTestStations(1), config.DefaultSettings())

	m, cmd := update(t, m, runes("h"))
	if cmd != nil || m.showHistory {
		t.Error("history should stay closed when disabled")
	}
}

func TestAnimationTickKeepsRunning(t *testing.T) {
	m, _ := createTestModel(createTestStations(1), config.DefaultSettings())

	_, cmd := update(t, m, animTickMsg{})
	if cmd == nil {
		t.Error("animation tick should reschedule itself")
	}
}

func TestEqualizer(t *testing.T) {
	eq := newEqualizer(16, 42)

	for range 50 {
		eq.step(true, 0.5)
	}

	for i, level := range eq.levels {
		if level <= 0 || level > 0.5 {
			t.Errorf("bar %d level %v outside (0, 0.5]", i, level)
		}
	}

	if !eq.lit() {
		t.Error("expected lit equalizer while active")
	}

	for range 100 {
		eq.step(false, 0.5)
	}

	if eq.lit() {
		t.Error("expected bars to decay while inactive")
	}

	rendered := eq.render(3)
	if rows := strings.Split(rendered, "\n"); len(rows) != 3 {
		t.Errorf("render produced %d rows, want 3", len(rows))
	}
}

func TestIsCatalogEvent(t *testing.T) {
	path := "/home/user/.config/retro-radio/streams.csv"

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/home/user/.config/retro-radio/settings.toml", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCatalogEvent(tt.event, path); got != tt.want {
				t.Errorf("isCatalogEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title", 8, "a lon..."},
		{"abc", 2, "ab"},
		{"Café del Mar", 7, "Café..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3*time.Hour + 4*time.Minute + 5*time.Second); got != "03:04:05" {
		t.Errorf("formatElapsed() = %q", got)
	}

	if got := formatElapsed(1500 * time.Millisecond); got != "00:00:02" {
		t.Errorf("formatElapsed() = %q", got)
	}
}
