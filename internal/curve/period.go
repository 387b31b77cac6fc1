package curve

import (
	"fmt"
	"math"

	"curvetour/internal/mathutil"
)

const minPeriodSamples = 3

// PeriodOptions tunes the Lomb-Scargle period search.
type PeriodOptions struct {
	// Oversampling is the frequency grid density relative to 1/span.
	Oversampling float64
	// HighFrequencyFactor bounds the highest frequency searched as a multiple
	// of the average Nyquist frequency.
	HighFrequencyFactor float64
	// MaxFrequencies caps the grid size; 0 means no cap.
	MaxFrequencies int
	// Clean drops outliers before the search.
	Clean bool
}

// DefaultPeriodOptions returns the search parameters used for MACHO curves.
func DefaultPeriodOptions() PeriodOptions {
	return PeriodOptions{
		Oversampling:        6,
		HighFrequencyFactor: 100,
		MaxFrequencies:      200000,
		Clean:               true,
	}
}

func (o PeriodOptions) withDefaults() PeriodOptions {
	d := DefaultPeriodOptions()
	if o.Oversampling <= 0 {
		o.Oversampling = d.Oversampling
	}
	if o.HighFrequencyFactor <= 0 {
		o.HighFrequencyFactor = d.HighFrequencyFactor
	}
	if o.MaxFrequencies < 0 {
		o.MaxFrequencies = 0
	}
	return o
}

// Clean removes samples whose error is at least three times the mean error or
// whose magnitude lies five or more standard deviations from the mean.
// The criteria that cannot be evaluated (zero mean error, zero spread) are skipped.
func Clean(raw Raw) Raw {
	if len(raw) == 0 {
		return raw
	}
	mags := raw.Magnitudes()
	mean := mathutil.Mean(mags)
	std := mathutil.StdDev(mags)
	errMean := mathutil.Mean(raw.Errors())

	out := make(Raw, 0, len(raw))
	for _, s := range raw {
		if errMean > 0 && s.Error >= 3*errMean {
			continue
		}
		if std > 0 && math.Abs(s.Magnitude-mean)/std >= 5 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// EstimatePeriod returns the period with the highest normalised Lomb-Scargle
// power. The grid runs from 1/(ofac*span) in steps of the same size up to
// hifac times the average Nyquist frequency. Ties keep the lower frequency.
func EstimatePeriod(raw Raw, opts PeriodOptions) (float64, error) {
	opts = opts.withDefaults()

	samples := raw
	if opts.Clean {
		samples = Clean(raw)
	}
	n := len(samples)
	if n < minPeriodSamples {
		return 0, fmt.Errorf("%w: %d usable samples", ErrPeriodEstimation, n)
	}

	x := samples.Times()
	y := samples.Magnitudes()

	xmin, xmax := x[0], x[0]
	for _, t := range x[1:] {
		xmin = math.Min(xmin, t)
		xmax = math.Max(xmax, t)
	}
	span := xmax - xmin
	if span <= 0 {
		return 0, fmt.Errorf("%w: zero time span", ErrPeriodEstimation)
	}

	ave := mathutil.Mean(y)
	variance := mathutil.Variance(y) * float64(n) / float64(n-1)
	if variance <= 0 {
		return 0, fmt.Errorf("%w: constant magnitude", ErrPeriodEstimation)
	}

	nfreq := int(0.5 * opts.Oversampling * opts.HighFrequencyFactor * float64(n))
	if opts.MaxFrequencies > 0 && nfreq > opts.MaxFrequencies {
		nfreq = opts.MaxFrequencies
	}
	if nfreq < 1 {
		nfreq = 1
	}

	step := 1 / (opts.Oversampling * span)
	xmid := 0.5 * (xmin + xmax)

	// Trigonometric recurrences: (wr, wi) hold cos/sin of the current angular
	// frequency times (t - xmid); (wpr, wpi) rotate them by one grid step.
	wr := make([]float64, n)
	wi := make([]float64, n)
	wpr := make([]float64, n)
	wpi := make([]float64, n)
	for j := range x {
		arg := 2 * math.Pi * (x[j] - xmid) * step
		half := math.Sin(0.5 * arg)
		wpr[j] = -2 * half * half
		wpi[j] = math.Sin(arg)
		wr[j] = math.Cos(arg)
		wi[j] = wpi[j]
	}

	bestPower := 0.0
	bestFreq := 0.0
	freq := step
	for i := 0; i < nfreq; i++ {
		var sumsh, sumc float64
		for j := range x {
			c, s := wr[j], wi[j]
			sumsh += s * c
			sumc += (c - s) * (c + s)
		}
		wtau := 0.5 * math.Atan2(2*sumsh, sumc)
		swtau, cwtau := math.Sin(wtau), math.Cos(wtau)

		var sums, sumcc, sumsy, sumcy float64
		for j := range x {
			s, c := wi[j], wr[j]
			ss := s*cwtau - c*swtau
			cc := c*cwtau + s*swtau
			sums += ss * ss
			sumcc += cc * cc
			yy := y[j] - ave
			sumsy += yy * ss
			sumcy += yy * cc

			wtemp := wr[j]
			wr[j] = (wtemp*wpr[j] - wi[j]*wpi[j]) + wr[j]
			wi[j] = (wi[j]*wpr[j] + wtemp*wpi[j]) + wi[j]
		}

		var power float64
		if sumcc > 0 {
			power += sumcy * sumcy / sumcc
		}
		if sums > 0 {
			power += sumsy * sumsy / sums
		}
		power = 0.5 * power / variance

		if power > bestPower {
			bestPower = power
			bestFreq = freq
		}
		freq += step
	}

	if bestFreq <= 0 || math.IsNaN(bestPower) {
		return 0, fmt.Errorf("%w: no periodogram peak", ErrPeriodEstimation)
	}
	return 1 / bestFreq, nil
}

// Fold estimates the period of raw and folds it.
func Fold(raw Raw, opts PeriodOptions) (Folded, error) {
	period, err := EstimatePeriod(raw, opts)
	if err != nil {
		return Folded{}, err
	}
	return FoldWithPeriod(raw, period)
}

// FoldWithPeriod maps every sample time t to (t mod period) / period.
func FoldWithPeriod(raw Raw, period float64) (Folded, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return Folded{}, fmt.Errorf("%w: invalid period %v", ErrPeriodEstimation, period)
	}

	samples := make([]PhaseSample, len(raw))
	for i, s := range raw {
		samples[i] = PhaseSample{
			Phase:     phaseOf(s.Time, period),
			Magnitude: s.Magnitude,
			Error:     s.Error,
		}
	}
	return Folded{Period: period, Samples: samples}, nil
}

func phaseOf(t, period float64) float64 {
	p := math.Mod(t, period) / period
	if p < 0 {
		p++
	}
	if p >= 1 {
		p = 0
	}
	return p
}
