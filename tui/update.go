// ABOUTME: Event handling and state updates for the TUI
// ABOUTME: Implements the Bubble Tea Update() function and message handlers

package tui

import (
	"fmt"
	"runtime/debug"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"retro-radio/player"
	"retro-radio/station"
)

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("Update panic")
			panic(r) // Re-panic so Bubble Tea can restore the terminal
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case autoplayMsg:
		return m, m.act(m.ctrl.Play())

	case player.OpenResult:
		m.report(m.ctrl.HandleOpen(msg))
		m.refresh()

		return m, nil

	case pollTickMsg:
		return m, m.handlePollTick(msg)

	case animTickMsg:
		level := float64(m.display.Volume) / 100
		m.eq.step(m.display.Playing && !m.display.Muted, level)

		return m, animTick()

	case fileChangeMsg:
		log.Debug().Str("path", m.stationsPath).Msg("Station file changed")

		return m, tea.Batch(
			reloadCatalog(m.loadCatalog, m.stationsPath),
			waitForFileChange(m.watcher, m.stationsPath), // Continue watching
		)

	case catalogReloadedMsg:
		m.handleCatalogReload(msg)
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.report(fmt.Errorf("failed to load history: %w", msg.err))
			return m, nil
		}

		m.recent = msg.entries

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey dispatches a key press
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.handleQuitKey()

	case key.Matches(msg, keys.Play):
		return m, m.act(m.ctrl.Toggle())

	case key.Matches(msg, keys.Next):
		cmd := m.act(m.ctrl.Next())
		m.listCursor = m.display.Index

		return m, cmd

	case key.Matches(msg, keys.Previous):
		cmd := m.act(m.ctrl.Previous())
		m.listCursor = m.display.Index

		return m, cmd

	case key.Matches(msg, keys.Up):
		if m.listCursor > 0 {
			m.listCursor--
		}

	case key.Matches(msg, keys.Down):
		if m.listCursor < m.display.Count-1 {
			m.listCursor++
		}

	case key.Matches(msg, keys.Tune):
		return m, m.act(m.ctrl.Select(m.listCursor))

	case key.Matches(msg, keys.VolUp):
		m.report(m.ctrl.AdjustVolume(volumeStep))
		m.refresh()

	case key.Matches(msg, keys.VolDown):
		m.report(m.ctrl.AdjustVolume(-volumeStep))
		m.refresh()

	case key.Matches(msg, keys.Mute):
		m.report(m.ctrl.ToggleMute())
		m.refresh()

	case key.Matches(msg, keys.History):
		return m, m.toggleHistory()
	}

	return m, nil
}

// handlePollTick samples the engine; ticks from an older session are dropped and not rescheduled
func (m *model) handlePollTick(msg pollTickMsg) tea.Cmd {
	if msg.epoch != m.ctrl.Epoch() {
		log.Debug().Int("epoch", msg.epoch).Int("current", m.ctrl.Epoch()).Msg("Ignoring stale poll tick")
		return nil
	}

	previous := m.display.Now

	display, err := m.ctrl.Poll(msg.epoch, msg.at)
	m.display = display
	m.report(err)

	if !display.Playing {
		return nil
	}

	var cmds []tea.Cmd

	if m.showHistory && m.history != nil && display.Now != previous && display.Now != "" {
		cmds = append(cmds, loadHistory(m.history))
	}

	cmds = append(cmds, pollTick(msg.epoch))

	return tea.Batch(cmds...)
}

// handleCatalogReload swaps in a re-read station list.
// An unreadable or empty file keeps the current list so a half-written save does not stop playback.
func (m *model) handleCatalogReload(msg catalogReloadedMsg) {
	if msg.catalog == nil || msg.catalog.Len() == 0 {
		err := msg.err
		if err == nil {
			err = station.ErrNoStations
		}

		m.report(fmt.Errorf("station list not reloaded: %w", err))

		return
	}

	for _, w := range msg.catalog.Warnings {
		log.Warn().Int("line", w.Line).Str("reason", w.Reason).Msg("Station file")
	}

	m.report(m.ctrl.ReplaceStations(msg.catalog.Stations))
	m.refresh()

	status := fmt.Sprintf("Reloaded %d stations", msg.catalog.Len())
	if n := len(msg.catalog.Warnings); n > 0 {
		status += fmt.Sprintf(" (%d rows skipped or defaulted)", n)
	}

	m.setStatusMsg(status)
}

// toggleHistory shows or hides the history panel
func (m *model) toggleHistory() tea.Cmd {
	if m.history == nil {
		m.setStatusMsg("History is disabled")
		return nil
	}

	m.showHistory = !m.showHistory
	if !m.showHistory {
		return nil
	}

	return loadHistory(m.history)
}

// handleQuitKey stops playback, saves settings and exits
func (m model) handleQuitKey() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancelOpen()

	if err := m.ctrl.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("Failed to stop playback on quit")
	}

	// Save settings on quit; failures never block quitting
	if m.saveSettings != nil && m.settingsPath != "" {
		if err := m.saveSettings(m.settingsPath, m.ctrl.Settings()); err != nil {
			log.Warn().Err(err).Str("path", m.settingsPath).Msg("Failed to save settings on quit")
		}
	}

	return m, tea.Quit
}
