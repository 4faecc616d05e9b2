// ABOUTME: Persisted user preferences (last station and volume)
// ABOUTME: Handles loading/saving the TOML settings file with fallback to defaults

// Package config stores the listener's preferences between runs and
// resolves the default locations of the settings and station files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultVolume is the volume used on first run or when the settings file is unusable
const DefaultVolume = 70

// Default file names, looked up in the working directory first
const (
	settingsFileName = "settings.toml"
	stationsFileName = "streams.csv"
	appDirName       = "retro-radio"
)

// Settings holds the preferences restored at startup and written on exit
type Settings struct {
	LastStation string `toml:"last_station,omitempty"` // Address of the last played station
	Volume      int    `toml:"volume"`                 // 0-100
}

// DefaultSettings returns the settings used when nothing has been saved yet
func DefaultSettings() Settings {
	return Settings{
		LastStation: "",
		Volume:      DefaultVolume,
	}
}

// ClampVolume limits v to the 0-100 range
func ClampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// LoadSettings loads settings from a TOML file.
// The returned settings are always usable: a missing file yields defaults and no error,
// an unreadable or corrupt file yields defaults plus an error for logging only.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}

		return DefaultSettings(), fmt.Errorf("failed to read settings file: %w", err)
	}

	// Decode over the defaults so missing keys keep their default value
	settings := DefaultSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file: %w", err)
	}

	settings.Volume = ClampVolume(settings.Volume)

	return settings, nil
}

// SaveSettings writes settings to a TOML file, replacing any previous content
func SaveSettings(path string, settings Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	settings.Volume = ClampVolume(settings.Volume)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(settings); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}

	return nil
}

// GetSettingsPath returns the default settings file path
// First tries current directory, then falls back to ~/.config/retro-radio/settings.toml
func GetSettingsPath() string {
	return lookupPath(settingsFileName)
}

// GetStationsPath returns the default station list path
// First tries current directory, then falls back to ~/.config/retro-radio/streams.csv
func GetStationsPath() string {
	return lookupPath(stationsFileName)
}

// GetDataPath returns the path of a file kept in the application's config directory
func GetDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./" + name
	}

	return filepath.Join(home, ".config", appDirName, name)
}

func lookupPath(name string) string {
	local := "./" + name
	if _, err := os.Stat(local); err == nil {
		return local
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return local
	}

	return filepath.Join(home, ".config", appDirName, name)
}
