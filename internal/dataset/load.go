package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync/atomic"

	"curvetour/internal/curve"
	"curvetour/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Options configures Load.
type Options struct {
	Root        string
	Extension   string // default curve.DefaultExtension
	HeaderLines int    // default curve.DefaultHeaderLines; negative means none
	Resolution  int
	SampleSize  int    // 0 loads every discovered file
	Seed        uint64 // sampling seed, 0 picks a random one
	Workers     int    // default GOMAXPROCS
	Neighbors   int    // regression neighbours, default curve.DefaultNeighbors
	Period      curve.PeriodOptions

	// OnProgress, when set, is called from the worker goroutines after each
	// selected file has been processed, successfully or not.
	OnProgress func(done, total int)
}

// Fingerprint identifies the settings that shape the loaded curves. Root is
// left out because callers compare it on its own; Workers and OnProgress do
// not change results. Options that differ only in spelled-out defaults share
// a fingerprint.
func (o Options) Fingerprint() string {
	o = o.normalized()
	h := sha256.New()
	fmt.Fprintf(h, "ext=%s header=%d resolution=%d sample=%d seed=%d neighbors=%d",
		o.Extension, o.HeaderLines, o.Resolution, o.SampleSize, o.Seed, o.Neighbors)
	fmt.Fprintf(h, " ofac=%g hifac=%g maxfreq=%d clean=%t",
		o.Period.Oversampling, o.Period.HighFrequencyFactor, o.Period.MaxFrequencies, o.Period.Clean)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

// normalized resolves defaults. It must be applied exactly once: a
// normalized HeaderLines of 0 means no header.
func (o Options) normalized() Options {
	if o.Extension == "" {
		o.Extension = curve.DefaultExtension
	}
	if !strings.HasPrefix(o.Extension, ".") {
		o.Extension = "." + o.Extension
	}
	switch {
	case o.HeaderLines == 0:
		o.HeaderLines = curve.DefaultHeaderLines
	case o.HeaderLines < 0:
		o.HeaderLines = 0
	}
	if o.SampleSize < 0 {
		o.SampleSize = 0
	}
	if o.Neighbors <= 0 {
		o.Neighbors = curve.DefaultNeighbors
	}
	d := curve.DefaultPeriodOptions()
	if o.Period.Oversampling <= 0 {
		o.Period.Oversampling = d.Oversampling
	}
	if o.Period.HighFrequencyFactor <= 0 {
		o.Period.HighFrequencyFactor = d.HighFrequencyFactor
	}
	if o.Period.MaxFrequencies < 0 {
		o.Period.MaxFrequencies = 0
	}
	return o
}

// LoadStats counts what happened to each discovered file.
type LoadStats struct {
	Discovered   int  `json:"discovered"`
	Selected     int  `json:"selected"`
	Loaded       int  `json:"loaded"`
	ParseErrors  int  `json:"parse_errors"`
	PeriodErrors int  `json:"period_errors"`
	SampleErrors int  `json:"sample_errors"`
	Cancelled    bool `json:"cancelled"`
}

// Skipped is the number of selected files that did not make it into the dataset.
func (s LoadStats) Skipped() int {
	return s.ParseErrors + s.PeriodErrors + s.SampleErrors
}

type slot struct {
	done   bool
	err    error
	raw    curve.Raw
	folded curve.Folded
	vector curve.Vector
}

// Load discovers, parses, folds and resamples every curve under opts.Root.
// Curves that fail any stage are logged and dropped. Cancelling ctx abandons
// files not yet processed; curves already finished are kept and
// Stats().Cancelled is set. A cancellation that lands after every file has
// been processed does not mark the dataset. ErrEmpty is returned when nothing
// survives.
func Load(ctx context.Context, opts Options) (*Dataset, error) {
	if opts.Resolution < 2 {
		return nil, fmt.Errorf("dataset: %w: got %d", curve.ErrResolution, opts.Resolution)
	}
	fingerprint := opts.Fingerprint()
	opts = opts.normalized()
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	found, err := curve.Discover(opts.Root, opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	paths := curve.SamplePaths(found, opts.SampleSize, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

	logger.Info("loading curves", "root", opts.Root, "discovered", len(found), "selected", len(paths), "workers", workers)

	slots := make([]slot, len(paths))
	var finished atomic.Int64
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = normalize(path, opts)
			if opts.OnProgress != nil {
				opts.OnProgress(int(finished.Add(1)), len(paths))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := LoadStats{Discovered: len(found), Selected: len(paths)}

	var (
		files   []string
		raws    []curve.Raw
		foldeds []curve.Folded
		vectors []curve.Vector
	)
	for i, s := range slots {
		if !s.done {
			stats.Cancelled = true
			continue
		}
		if s.err != nil {
			switch {
			case errors.Is(s.err, curve.ErrParse):
				stats.ParseErrors++
			case errors.Is(s.err, curve.ErrPeriodEstimation):
				stats.PeriodErrors++
			default:
				stats.SampleErrors++
			}
			logger.Warn("skipping curve", "path", paths[i], "err", s.err)
			continue
		}
		files = append(files, paths[i])
		raws = append(raws, s.raw)
		foldeds = append(foldeds, s.folded)
		vectors = append(vectors, s.vector)
	}
	stats.Loaded = len(files)

	if stats.Cancelled {
		logger.Warn("curve loading cancelled", "loaded", stats.Loaded, "selected", stats.Selected)
	}
	if len(files) == 0 {
		if stats.Cancelled {
			return nil, fmt.Errorf("%w: %w", ErrEmpty, ctx.Err())
		}
		return nil, ErrEmpty
	}

	ds, err := New(files, raws, foldeds, vectors)
	if err != nil {
		return nil, err
	}
	ds.stats = stats
	ds.fingerprint = fingerprint

	logger.Info("curves loaded", "loaded", stats.Loaded, "skipped", stats.Skipped(), "resolution", ds.Resolution())
	return ds, nil
}

// normalize runs one file through parse, fold and resample. Nothing is kept
// from a file that fails part way.
func normalize(path string, opts Options) slot {
	raw, err := curve.ParseFile(path, opts.HeaderLines)
	if err != nil {
		return slot{done: true, err: err}
	}
	folded, err := curve.Fold(raw, opts.Period)
	if err != nil {
		return slot{done: true, err: err}
	}
	vector, err := curve.Resample(folded, opts.Resolution, opts.Neighbors)
	if err != nil {
		return slot{done: true, err: err}
	}
	return slot{done: true, raw: raw, folded: folded, vector: vector}
}
