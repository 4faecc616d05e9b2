// ABOUTME: TUI configuration and injected dependencies
// ABOUTME: Defines input parameters for running the TUI

package tui

import (
	"retro-radio/player"
)

// Options contains configuration for running the TUI
type Options struct {
	StationsPath string // Station file to watch for changes ("" disables watching)
	SettingsPath string // Where preferences are written on quit
	Autoplay     bool   // Start the restored station immediately
	StartupMsg   string // Shown in the status bar on launch (e.g. catalog warnings)
}

// Dependencies holds all external dependencies for the TUI
// This allows for clean dependency injection and easy testing
type Dependencies struct {
	Controller   *player.Controller
	History      HistoryReader // nil when history is disabled
	LoadCatalog  CatalogLoader
	SaveSettings SettingsSaver
}
