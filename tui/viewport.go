// ABOUTME: Scrolling window for the station list
// ABOUTME: Keeps the highlighted row centred once the list is longer than the screen

package tui

// listWindow returns the half-open range [start, end) of rows to draw so the
// cursor stays visible. The cursor moves freely near either end of the list and
// is held at the middle row in between.
func listWindow(height, cursor, total int) (start, end int) {
	if total == 0 || height < 1 {
		return 0, 0
	}

	if total <= height {
		return 0, total
	}

	middle := height / 2
	maxOffset := total - height

	switch {
	case cursor < middle:
		start = 0
	case cursor-middle > maxOffset:
		start = maxOffset
	default:
		start = cursor - middle
	}

	return start, start + height
}
