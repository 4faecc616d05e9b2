// ABOUTME: Rendering functions for TUI components
// ABOUTME: Handles all visual formatting and display logic

package tui

import (
	"fmt"
	"strings"
	"time"

	"retro-radio/player"
)

// Labels shown in place of a committed title
const (
	tuningLabel = "Tuning…"
	idleLabel   = "Tuned to station"
)

// renderHeader renders the title bar and current station
func (m model) renderHeader() string {
	title := titleStyle.Render("▌▌ RETRO RADIO")

	d := m.display
	if !d.HasStation {
		return title + "\n" + sideTitleStyle.Render("No stations loaded")
	}

	state := "■ STOPPED"
	if d.Playing {
		state = "▶ ON AIR"
		if d.Elapsed > 0 {
			state += " " + formatElapsed(d.Elapsed)
		}
	}

	line := fmt.Sprintf("%s  %s  %s",
		stationStyle.Render(truncate(d.Station.Name, max(m.width-30, 10))),
		sideTitleStyle.Render(fmt.Sprintf("[%d/%d]", d.Index+1, d.Count)),
		sideTitleStyle.Render(state),
	)

	return title + "\n" + line
}

// nowLabel is the text of the main title line
func nowLabel(d player.Display) string {
	switch {
	case d.Now != "":
		return d.Now
	case d.Tuning:
		return tuningLabel
	default:
		return idleLabel
	}
}

// renderMetadata renders the Last/Now/Next lines
func (m model) renderMetadata() string {
	d := m.display
	width := max(m.width-8, 10)

	last := ""
	if d.Last != "" {
		last = "Last: " + truncate(d.Last, width)
	}

	next := ""
	if d.Next != "" {
		next = "Next: " + truncate(d.Next, width)
	}

	return strings.Join([]string{
		sideTitleStyle.Render(last),
		nowStyle.Render(truncate(nowLabel(d), width)),
		sideTitleStyle.Render(next),
	}, "\n")
}

// renderEqualizer renders the decorative bars
func (m model) renderEqualizer() string {
	bars := m.eq.render(equalizerHeight)
	if m.eq.lit() {
		return eqOnStyle.Render(bars)
	}

	return eqOffStyle.Render(bars)
}

// renderVolume renders the volume bar and mute marker
func (m model) renderVolume() string {
	d := m.display

	line := fmt.Sprintf("VOL %s %3d%%", m.volumeBar.ViewAs(float64(d.Volume)/100), d.Volume)
	if d.Muted {
		line += " " + mutedStyle.Render("MUTED")
	}

	return line
}

// renderStations renders the scrolling station list
func (m model) renderStations() string {
	d := m.display
	if d.Count == 0 {
		return listHeaderStyle.Render("Stations") + "\n" + sideTitleStyle.Render("  (empty)")
	}

	stations := m.ctrl.State().Stations
	start, end := listWindow(m.listHeight(), m.listCursor, len(stations))

	var s strings.Builder

	s.WriteString(listHeaderStyle.Render("Stations"))

	for i := start; i < end; i++ {
		marker := "  "
		if i == d.Index {
			marker = "♪ "
		}

		line := fmt.Sprintf("%s%-3d %s", marker, i+1, truncate(stations[i].Name, max(m.width-10, 10)))
		if i == m.listCursor {
			line = cursorStyle.Render(line)
		}

		s.WriteString("\n" + line)
	}

	return s.String()
}

// renderHistory renders recently confirmed titles
func (m model) renderHistory() string {
	var s strings.Builder

	s.WriteString(listHeaderStyle.Render("Recently played"))

	if len(m.recent) == 0 {
		s.WriteString("\n" + sideTitleStyle.Render("  nothing yet"))
		return s.String()
	}

	for _, e := range m.recent {
		line := fmt.Sprintf("  %s  %s  %s",
			e.PlayedAt.Local().Format("15:04"),
			truncate(e.Title, max(m.width-30, 10)),
			sideTitleStyle.Render(truncate(e.StationName, 16)),
		)
		s.WriteString("\n" + line)
	}

	return s.String()
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	// Show status message if recent
	if m.statusMsg != "" && time.Since(m.statusMsgAge) < statusMessageDuration {
		return statusStyle.Width(m.width).Render(m.statusMsg)
	}

	d := m.display
	if d.Err != nil {
		return errorStatusStyle.Width(m.width).Render(d.Err.Error())
	}

	state := "Stopped"
	if d.Playing {
		state = "Playing"
	}

	return statusStyle.Width(m.width).Render(fmt.Sprintf("%s | %d stations", state, d.Count))
}

// renderHelp renders the key help line
func (m model) renderHelp() string {
	return helpStyle.Render(m.help.View(keys))
}
