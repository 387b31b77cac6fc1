package dataset

import "curvetour/internal/curve"

// Series keys understood by the curve plotting front end.
const (
	SeriesOriginal  = "original"
	SeriesRegressed = "regressed"
)

// Point is one plotted (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named list of points.
type Series struct {
	Key    string  `json:"key"`
	Values []Point `json:"values"`
}

// DisplayPayload is the record consumed by presentation layers. Field names
// are fixed by existing consumers.
type DisplayPayload struct {
	Name string   `json:"name"`
	Data []Series `json:"data"`
}

// ToDisplayPayload renders a result as the folded samples (phase, magnitude)
// followed by the regressed vector on its uniform phase grid.
func ToDisplayPayload(r Result) DisplayPayload {
	original := make([]Point, len(r.Folded.Samples))
	for i, s := range r.Folded.Samples {
		original[i] = Point{X: s.Phase, Y: s.Magnitude}
	}

	grid := curve.PhaseGrid(len(r.Vector))
	regressed := make([]Point, len(r.Vector))
	for i, m := range r.Vector {
		regressed[i] = Point{X: grid[i], Y: m}
	}

	return DisplayPayload{
		Name: r.File,
		Data: []Series{
			{Key: SeriesOriginal, Values: original},
			{Key: SeriesRegressed, Values: regressed},
		},
	}
}
