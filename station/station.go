// ABOUTME: Reads the comma-separated station list into an ordered catalog
// ABOUTME: Invalid rows are skipped with warnings so one bad line never hides the rest

// Package station loads the radio station catalog from a CSV file with the
// header "name,url,debounce". File order is preserved because next/previous
// navigation walks the catalog in that order.
package station

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultDebounce is the metadata debounce interval for stations that do not set one
const DefaultDebounce = 3 * time.Second

// Column names recognised in the header row
const (
	columnName     = "name"
	columnURL      = "url"
	columnDebounce = "debounce"
)

var (
	// ErrNoStations is returned when the source holds no valid station rows
	ErrNoStations = errors.New("no valid stations found")

	// ErrMissingURLColumn is returned when the header has no url column
	ErrMissingURLColumn = errors.New("station list header has no url column")
)

// Station is one playable stream. Stations are never mutated after loading.
type Station struct {
	Name     string        // Display name (defaults to Address)
	Address  string        // Stream URL or local file path
	Debounce time.Duration // How long a new title must hold before it is shown as Now
}

// String returns the display name
func (s Station) String() string {
	return s.Name
}

// Warning describes a row that was skipped or repaired while loading
type Warning struct {
	Line   int
	Reason string
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// Catalog is the ordered list of stations plus anything worth telling the user
type Catalog struct {
	Stations []Station
	Warnings []Warning
}

// Len returns the number of stations
func (c *Catalog) Len() int {
	return len(c.Stations)
}

// IndexOf returns the index of the station with the given address, or -1
func (c *Catalog) IndexOf(address string) int {
	return IndexOf(c.Stations, address)
}

// IndexOf returns the index of the station with the given address, or -1
func IndexOf(stations []Station, address string) int {
	if address == "" {
		return -1
	}

	for i, s := range stations {
		if s.Address == address {
			return i
		}
	}

	return -1
}

// Load reads the station list at path.
// When no row is valid the (empty) catalog is returned together with ErrNoStations.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return &Catalog{}, fmt.Errorf("failed to open station list: %w", err)
	}

	defer func() {
		_ = file.Close() // Read-only file
	}()

	return Parse(file)
}

// Parse reads a station list from r
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Short and long rows are handled per field
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	catalog := &Catalog{}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return catalog, ErrNoStations
	}

	if err != nil {
		return catalog, fmt.Errorf("failed to read station list header: %w", err)
	}

	columns := indexColumns(header)
	if _, ok := columns[columnURL]; !ok {
		return catalog, ErrMissingURLColumn
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				catalog.Warnings = append(catalog.Warnings, Warning{Line: parseErr.Line, Reason: parseErr.Err.Error()})

				continue
			}

			return catalog, fmt.Errorf("failed to read station list: %w", err)
		}

		line, _ := reader.FieldPos(0)

		station, warning, ok := parseRow(record, columns, line)
		if warning != nil {
			catalog.Warnings = append(catalog.Warnings, *warning)
		}

		if ok {
			catalog.Stations = append(catalog.Stations, station)
		}
	}

	if len(catalog.Stations) == 0 {
		return catalog, ErrNoStations
	}

	return catalog, nil
}

// indexColumns maps lower-cased header names to their column index
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))

	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	return columns
}

// parseRow converts one record into a Station.
// ok is false when the row must be skipped; warning is set whenever the row was not clean.
func parseRow(record []string, columns map[string]int, line int) (Station, *Warning, bool) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[i])
	}

	address := field(columnURL)
	if address == "" {
		return Station{}, &Warning{Line: line, Reason: "missing url, row skipped"}, false
	}

	name := field(columnName)
	if name == "" {
		name = address
	}

	debounce, warning := parseDebounce(field(columnDebounce), line)

	return Station{Name: name, Address: address, Debounce: debounce}, warning, true
}

// parseDebounce converts a seconds value into a duration, falling back to the default
func parseDebounce(raw string, line int) (time.Duration, *Warning) {
	if raw == "" {
		return DefaultDebounce, nil
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return DefaultDebounce, &Warning{
			Line:   line,
			Reason: fmt.Sprintf("invalid debounce %q, using %.1fs", raw, DefaultDebounce.Seconds()),
		}
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
