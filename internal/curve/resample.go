package curve

import (
	"fmt"
	"math"

	"curvetour/internal/mathutil"
)

// DefaultNeighbors is the number of folded samples averaged per grid point.
const DefaultNeighbors = 3

// PhaseGrid returns the resolution points 0, 1/(resolution-1), ..., 1.
func PhaseGrid(resolution int) []float64 {
	return mathutil.Linspace(0, 1, resolution)
}

type neighbor struct {
	dist float64
	idx  int
}

func (a neighbor) less(b neighbor) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.idx < b.idx
}

// Resample regresses the folded curve onto PhaseGrid(resolution) by averaging
// the magnitudes of the k samples closest in phase to each grid point.
// Distance is the plain absolute phase difference; equal distances prefer the
// earlier sample. k <= 0 selects DefaultNeighbors.
func Resample(f Folded, resolution, k int) (Vector, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrResolution, resolution)
	}
	if k <= 0 {
		k = DefaultNeighbors
	}
	if f.Len() < k {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientSamples, f.Len(), k)
	}

	grid := PhaseGrid(resolution)
	out := make(Vector, resolution)
	best := make([]neighbor, 0, k)

	for g, q := range grid {
		best = best[:0]
		for i, s := range f.Samples {
			cand := neighbor{dist: math.Abs(s.Phase - q), idx: i}
			if len(best) == k && !cand.less(best[k-1]) {
				continue
			}
			if len(best) < k {
				best = append(best, cand)
			} else {
				best[k-1] = cand
			}
			// insertion step keeps best sorted
			for j := len(best) - 1; j > 0 && best[j].less(best[j-1]); j-- {
				best[j], best[j-1] = best[j-1], best[j]
			}
		}

		var sum float64
		for _, nb := range best {
			sum += f.Samples[nb.idx].Magnitude
		}
		out[g] = sum / float64(len(best))
	}
	return out, nil
}
