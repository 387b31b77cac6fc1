// Package curve turns raw light-curve files into comparable fixed-length vectors:
// it discovers and parses sample tables, folds them by their dominant period and
// resamples the folded shape onto a uniform phase grid.
package curve

// Sample is one brightness measurement.
type Sample struct {
	Time      float64
	Magnitude float64
	Error     float64
}

// Raw is a light curve as read from disk, in file order.
type Raw []Sample

// Times returns the time column.
func (r Raw) Times() []float64 {
	out := make([]float64, len(r))
	for i, s := range r {
		out[i] = s.Time
	}
	return out
}

// Magnitudes returns the magnitude column.
func (r Raw) Magnitudes() []float64 {
	out := make([]float64, len(r))
	for i, s := range r {
		out[i] = s.Magnitude
	}
	return out
}

// Errors returns the error column.
func (r Raw) Errors() []float64 {
	out := make([]float64, len(r))
	for i, s := range r {
		out[i] = s.Error
	}
	return out
}

// PhaseSample is a Sample whose time has been replaced by its phase in [0, 1).
type PhaseSample struct {
	Phase     float64
	Magnitude float64
	Error     float64
}

// Folded is a light curve in phase space. Samples keep the order of the Raw
// curve they were folded from.
type Folded struct {
	Period  float64
	Samples []PhaseSample
}

// Len returns the number of samples.
func (f Folded) Len() int { return len(f.Samples) }

// Vector is a folded curve regressed onto a uniform phase grid; element i is
// the magnitude at phase i/(len-1).
type Vector []float64
