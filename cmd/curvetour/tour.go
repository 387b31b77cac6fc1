package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"curvetour/internal/dataset"
	"curvetour/internal/mathutil"
	"curvetour/internal/tour"

	"github.com/spf13/cobra"
)

var (
	tourSeed    int
	tourSteps   int
	tourJSON    bool
	tourRebuild bool
)

// tourCmd walks the archive from a seed curve.
var tourCmd = &cobra.Command{
	Use:   "tour",
	Short: "Walk from a seed curve to ever more similar curves",
	Long: `Start at a seed curve and repeatedly step to the nearest curve that has
not been shown yet. With --json every curve is printed as a display payload,
one JSON object per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(cfg, dataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		cat, err := prepare(ctx, cfg, store, tourRebuild)
		if err != nil {
			return err
		}

		reg, err := tour.NewRegistry(cat.idx, cat.ds, cfg.SessionIdleTimeout())
		if err != nil {
			return err
		}

		seed := tourSeed
		if seed < 0 {
			seed = rand.IntN(cat.ds.Len())
		}
		results, err := walk(reg, seed, tourSteps)
		if err != nil {
			return err
		}

		if tourJSON {
			return writePayloads(cmd.OutOrStdout(), results)
		}
		writeTable(cmd.OutOrStdout(), cat.root, results)
		return nil
	},
}

func init() {
	tourCmd.Flags().IntVarP(&tourSeed, "seed", "s", -1, "index of the starting curve (random when negative)")
	tourCmd.Flags().IntVarP(&tourSteps, "steps", "n", 20, "number of curves to show after the seed")
	tourCmd.Flags().BoolVar(&tourJSON, "json", false, "print display payloads as JSON lines")
	tourCmd.Flags().BoolVar(&tourRebuild, "rebuild", false, "ignore the dataset cache")
}

// walk opens a session at seed and advances it up to steps times. The seed
// curve is the first result. Running out of curves ends the walk early.
func walk(reg *tour.Registry, seed, steps int) ([]dataset.Result, error) {
	id, first, err := reg.Open(seed)
	if err != nil {
		return nil, err
	}
	defer reg.Close(id)

	results := []dataset.Result{first}
	for i := 0; i < steps; i++ {
		res, err := reg.Next(id)
		if errors.Is(err, tour.ErrExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func writePayloads(w io.Writer, results []dataset.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(dataset.ToDisplayPayload(r)); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, root string, results []dataset.Result) {
	rows := make([][]string, len(results))
	for i, r := range results {
		step := "seed"
		dist := "-"
		if i > 0 {
			step = strconv.Itoa(i)
			dist = strconv.FormatFloat(mathutil.Euclidean(results[i-1].Vector, r.Vector), 'f', 4, 64)
		}
		name := r.File
		if rel, err := filepath.Rel(root, r.File); err == nil {
			name = rel
		}
		rows[i] = []string{
			step,
			strconv.Itoa(r.Index),
			name,
			strconv.FormatFloat(r.Folded.Period, 'g', 6, 64),
			strconv.Itoa(len(r.Raw)),
			dist,
		}
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Tour of %d curves", len(results))))
	fmt.Fprintln(w, renderTable([]string{"step", "index", "file", "period", "samples", "distance"}, rows, true))
	if len(results) > 0 && len(results)-1 < tourSteps {
		fmt.Fprintln(w, mutedStyle.Render("every curve has been visited"))
	}
}
