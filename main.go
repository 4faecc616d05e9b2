// ABOUTME: Entry point for retro-radio
// ABOUTME: Handles command-line parsing, engine startup and hands control to the TUI

// Package main provides the entry point for retro-radio, a terminal internet radio player.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/rs/zerolog/log"

	"retro-radio/config"
	"retro-radio/engine"
	"retro-radio/history"
	"retro-radio/player"
	"retro-radio/station"
	"retro-radio/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	stationsPath := flag.String("stations", config.GetStationsPath(), "station list (CSV with name,url,debounce columns)")
	settingsPath := flag.String("settings", config.GetSettingsPath(), "settings file written on exit")
	engineKind := flag.String("engine", string(engine.KindNative), "playback engine: native or mpd")
	mpdAddr := flag.String("mpd-addr", engine.DefaultMPDAddress, "MPD address (host:port or socket path)")
	mpdNetwork := flag.String("mpd-network", engine.DefaultMPDNetwork, "MPD network: tcp or unix")
	mpdPass := flag.String("mpd-password", "", "MPD password")
	historyPath := flag.String("history", config.GetDataPath(history.DefaultFileName), "listening history database (empty disables history)")
	autoplay := flag.Bool("autoplay", false, "start the last station on launch")
	debug := flag.Bool("debug", false, "enable debug logging to "+defaultDebugLog)
	debugLog := flag.String("debug-log", defaultDebugLog, "debug log file")
	logLevel := flag.String("log-level", "debug", "log level when debug logging is enabled")
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Println("Usage: retro-radio [flags]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()

		return 1
	}

	closeLog, err := SetupLogging(*debug, *debugLog, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup debug log: %v\n", err)

		return 1
	}
	defer closeLog()

	eng, err := engine.New(engine.Options{
		Kind:       engine.Kind(*engineKind),
		MPDNetwork: *mpdNetwork,
		MPDAddress: *mpdAddr,
		MPDPass:    *mpdPass,
		UserAgent:  engine.DefaultUserAgent,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, engineHint(*engineKind, *mpdAddr, err))
		log.Error().Err(err).Str("engine", *engineKind).Msg("Playback engine unavailable")

		return 1
	}

	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close playback engine")
		}
	}()

	stations, startupMsg := loadStations(*stationsPath)

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *settingsPath).Msg("Using default settings")
	}

	var opts []player.Option

	deps := tui.Dependencies{
		LoadCatalog:  station.Load,
		SaveSettings: config.SaveSettings,
	}

	if recorder := openHistory(*historyPath); recorder != nil {
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close history")
			}
		}()

		opts = append(opts, player.WithCommitHook(recorder.Record))
		deps.History = recorder
	}

	deps.Controller = player.New(eng, stations, settings, opts...)

	if err := tui.Run(tui.Options{
		StationsPath: *stationsPath,
		SettingsPath: *settingsPath,
		Autoplay:     *autoplay,
		StartupMsg:   startupMsg,
	}, deps); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		log.Error().Err(err).Msg("TUI failed")

		return 1
	}

	return 0
}

// loadStations reads the station list. Problems never stop startup; they are
// turned into a status line for the UI.
func loadStations(path string) ([]station.Station, string) {
	catalog, err := station.Load(path)

	if catalog != nil {
		for _, w := range catalog.Warnings {
			log.Warn().Int("line", w.Line).Str("reason", w.Reason).Msg("Station file")
		}
	}

	switch {
	case err != nil && errors.Is(err, station.ErrNoStations):
		log.Warn().Str("path", path).Msg("No stations loaded")
		return nil, fmt.Sprintf("No valid stations in %s", path)
	case err != nil:
		log.Error().Err(err).Str("path", path).Msg("Failed to load stations")
		return nil, err.Error()
	case len(catalog.Warnings) > 0:
		return catalog.Stations, fmt.Sprintf("Loaded %d stations (%d rows skipped or defaulted)",
			catalog.Len(), len(catalog.Warnings))
	default:
		log.Info().Int("stations", catalog.Len()).Str("path", path).Msg("Stations loaded")
		return catalog.Stations, ""
	}
}

// openHistory opens the history database; nil means history is disabled
func openHistory(path string) *history.Recorder {
	if path == "" {
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("History disabled")
		return nil
	}

	recorder := history.NewRecorder(store)
	log.Debug().Str("session", recorder.Session()).Str("path", path).Msg("History enabled")

	return recorder
}

// engineHint explains how to get the chosen engine working
func engineHint(kind, mpdAddr string, err error) string {
	var hint string

	switch {
	case errors.Is(err, engine.ErrUnknownKind):
		hint = "Use --engine native or --engine mpd."
	case strings.EqualFold(kind, string(engine.KindMPD)):
		hint = fmt.Sprintf("Start MPD (listening on %s) or run with --engine native.", mpdAddr)
	default:
		hint = "Check that an audio output device is available, or run with --engine mpd."
	}

	return fmt.Sprintf("Cannot start %s playback engine: %v\n%s", kind, err, hint)
}
