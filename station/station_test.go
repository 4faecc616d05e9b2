// ABOUTME: Tests for station list parsing
// ABOUTME: Verifies defaults, skipped rows, warnings and file order

package station

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantStations []Station
		wantWarnings int
		wantErr      error
	}{
		{
			name: "full rows keep file order",
			content: `name,url,debounce
Groove Salad,http://ice1.somafm.com/groovesalad-128-mp3,2.5
Drone Zone,http://ice1.somafm.com/dronezone-128-mp3,4`,
			wantStations: []Station{
				{Name: "Groove Salad", Address: "http://ice1.somafm.com/groovesalad-128-mp3", Debounce: 2500 * time.Millisecond},
				{Name: "Drone Zone", Address: "http://ice1.somafm.com/dronezone-128-mp3", Debounce: 4 * time.Second},
			},
		},
		{
			name: "empty debounce uses default",
			content: `name,url,debounce
Radio,http://radio.example/stream,`,
			wantStations: []Station{
				{Name: "Radio", Address: "http://radio.example/stream", Debounce: DefaultDebounce},
			},
		},
		{
			name: "non-numeric debounce uses default with warning",
			content: `name,url,debounce
Radio,http://radio.example/stream,soon`,
			wantStations: []Station{
				{Name: "Radio", Address: "http://radio.example/stream", Debounce: DefaultDebounce},
			},
			wantWarnings: 1,
		},
		{
			name: "non-positive debounce uses default with warning",
			content: `name,url,debounce
Radio,http://radio.example/stream,-1
Other,http://other.example/stream,0`,
			wantStations: []Station{
				{Name: "Radio", Address: "http://radio.example/stream", Debounce: DefaultDebounce},
				{Name: "Other", Address: "http://other.example/stream", Debounce: DefaultDebounce},
			},
			wantWarnings: 2,
		},
		{
			name: "missing url row is dropped",
			content: `name,url,debounce
Broken,,3
Radio,http://radio.example/stream,1`,
			wantStations: []Station{
				{Name: "Radio", Address: "http://radio.example/stream", Debounce: time.Second},
			},
			wantWarnings: 1,
		},
		{
			name: "empty name falls back to address",
			content: `name,url,debounce
,http://radio.example/stream,3`,
			wantStations: []Station{
				{Name: "http://radio.example/stream", Address: "http://radio.example/stream", Debounce: 3 * time.Second},
			},
		},
		{
			name: "columns in any order and without debounce",
			content: `URL,Name
http://radio.example/stream,Radio`,
			wantStations: []Station{
				{Name: "Radio", Address: "http://radio.example/stream", Debounce: DefaultDebounce},
			},
		},
		{
			name: "short rows and comments",
			content: `name,url,debounce
# commented out,http://old.example/stream,1
Short,http://short.example/stream`,
			wantStations: []Station{
				{Name: "Short", Address: "http://short.example/stream", Debounce: DefaultDebounce},
			},
		},
		{
			name: "all rows invalid",
			content: `name,url,debounce
One,,1
Two,,2`,
			wantWarnings: 2,
			wantErr:      ErrNoStations,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: ErrNoStations,
		},
		{
			name: "header without url column",
			content: `name,debounce
Radio,3`,
			wantErr: ErrMissingURLColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := Parse(strings.NewReader(tt.content))

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
			}

			if catalog == nil {
				t.Fatal("Parse() returned nil catalog")
			}

			if len(catalog.Stations) != len(tt.wantStations) {
				t.Fatalf("got %d stations, want %d: %+v", len(catalog.Stations), len(tt.wantStations), catalog.Stations)
			}

			for i, want := range tt.wantStations {
				if catalog.Stations[i] != want {
					t.Errorf("station %d = %+v, want %+v", i, catalog.Stations[i], want)
				}
			}

			if len(catalog.Warnings) != tt.wantWarnings {
				t.Errorf("got %d warnings, want %d: %v", len(catalog.Warnings), tt.wantWarnings, catalog.Warnings)
			}
		})
	}
}

func TestWarningLineNumbers(t *testing.T) {
	content := `name,url,debounce
Good,http://good.example/stream,1
Broken,,1`

	catalog, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(catalog.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", catalog.Warnings)
	}

	if catalog.Warnings[0].Line != 3 {
		t.Errorf("warning line = %d, want 3", catalog.Warnings[0].Line)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.csv")
	content := "name,url,debounce\nRadio,http://radio.example/stream,2\n"

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if catalog.Len() != 1 {
		t.Fatalf("expected 1 station, got %d", catalog.Len())
	}

	if catalog.IndexOf("http://radio.example/stream") != 0 {
		t.Error("IndexOf did not find the loaded station")
	}

	if catalog.IndexOf("http://missing.example") != -1 {
		t.Error("IndexOf found a station that does not exist")
	}
}

func TestLoadMissingFile(t *testing.T) {
	catalog, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	if catalog == nil || catalog.Len() != 0 {
		t.Error("expected an empty catalog alongside the error")
	}
}
