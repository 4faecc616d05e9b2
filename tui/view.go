// ABOUTME: Top-level frame layout for the TUI
// ABOUTME: Implements the Bubble Tea View() function

package tui

import (
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
)

// View renders the TUI
func (m model) View() string {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("View panic")
			panic(r) // Re-panic so Bubble Tea can restore the terminal
		}
	}()

	if m.quitting {
		return "Saving settings and signing off...\n"
	}

	sections := []string{
		m.renderHeader(),
		m.renderMetadata(),
		m.renderEqualizer(),
		m.renderVolume(),
		m.renderStations(),
	}

	if m.showHistory {
		sections = append(sections, m.renderHistory())
	}

	sections = append(sections, m.renderStatus(), m.renderHelp())

	return strings.Join(sections, "\n\n")
}
