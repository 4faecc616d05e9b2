// ABOUTME: Interfaces defining dependencies for the TUI package
// ABOUTME: Allows clean separation and easy testing with mocks

package tui

import (
	"context"

	"retro-radio/config"
	"retro-radio/history"
	"retro-radio/station"
)

// HistoryReader lists recently confirmed titles
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// CatalogLoader reads the station file; the catalog is returned even alongside an error
type CatalogLoader func(path string) (*station.Catalog, error)

// SettingsSaver persists preferences on quit
type SettingsSaver func(path string, s config.Settings) error
