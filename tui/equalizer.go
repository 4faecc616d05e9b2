// ABOUTME: Decorative neon equalizer animation
// ABOUTME: Random bar levels scaled by volume; not driven by the audio itself

package tui

import (
	"math/rand/v2"
	"strings"
)

// Animation tuning
const (
	eqMinTarget = 0.25 // Quietest random target while playing
	eqFollow    = 0.4  // Fraction of the gap to the target closed per frame
	eqDecay     = 0.85 // Per-frame falloff while stopped or muted
)

// eqBlocks are the partial cells used to draw bar tops
var eqBlocks = []rune(" ▁▂▃▄▅▆▇█")

type equalizer struct {
	levels []float64 // 0..1 per bar
	rng    *rand.Rand
}

func newEqualizer(bars int, seed int64) *equalizer {
	return &equalizer{
		levels: make([]float64, bars),
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1)),
	}
}

// step advances one frame; volume is 0..1
func (e *equalizer) step(active bool, volume float64) {
	volume = min(max(volume, 0), 1)

	for i := range e.levels {
		if !active {
			e.levels[i] *= eqDecay
			continue
		}

		target := (eqMinTarget + e.rng.Float64()*(1-eqMinTarget)) * volume
		e.levels[i] += (target - e.levels[i]) * eqFollow
	}
}

// render draws the bars height rows tall, top row first
func (e *equalizer) render(height int) string {
	if height < 1 {
		return ""
	}

	steps := len(eqBlocks) - 1
	rows := make([]string, height)

	for row := range height {
		// Rows count down from the top; floor is the number of full cells below this row
		floor := height - 1 - row

		var line strings.Builder

		for _, level := range e.levels {
			fill := int(level*float64(height*steps)) - floor*steps
			fill = min(max(fill, 0), steps)

			line.WriteRune(eqBlocks[fill])
		}

		rows[row] = line.String()
	}

	return strings.Join(rows, "\n")
}

// lit reports whether any bar is visibly raised
func (e *equalizer) lit() bool {
	for _, level := range e.levels {
		if level > 0.05 {
			return true
		}
	}

	return false
}
