package game

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// lineWalker animates the indicator line during the running phase. It starts
// at the midpoint and converges on the display result as progress reaches 1,
// with seed-derived noise so every round draws a different path but the same
// seed replays the same one.
type lineWalker struct {
	rng    *rand.Rand
	target float64
}

func newLineWalker(serverSeed string, target float64) *lineWalker {
	sum := sha256.Sum256([]byte(serverSeed + ":line"))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return &lineWalker{
		rng:    rand.New(rand.NewSource(seed)),
		target: target,
	}
}

// at returns the line position for progress in [0, 1].
func (w *lineWalker) at(progress float64) float64 {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	base := 50 + (w.target-50)*progress
	noise := (w.rng.Float64()*2 - 1) * 8 * (1 - progress)
	pos := base + noise

	if pos < MIN_RESULT {
		pos = MIN_RESULT
	}
	if pos > MAX_RESULT {
		pos = MAX_RESULT
	}
	return pos
}
