package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

var indexJSON bool

// indexCmd rebuilds the dataset and index and refreshes the cache.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load, fold and resample every curve and cache the result",
	Long: `Discover light curves under the curve directory, estimate each period,
fold and resample onto the phase grid, build the similarity index and store
everything in the dataset cache for later tours.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(cfg, dataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		cat, err := prepare(ctx, cfg, store, true)
		if err != nil {
			return err
		}

		stats := cat.ds.Stats()
		out := cmd.OutOrStdout()
		if indexJSON {
			return json.NewEncoder(out).Encode(struct {
				Root       string `json:"root"`
				Resolution int    `json:"resolution"`
				Index      string `json:"index"`
				Stats      any    `json:"stats"`
			}{cat.root, cat.ds.Resolution(), cfg.Index.Kind, stats})
		}

		fmt.Fprintln(out, titleStyle.Render("Indexed "+cat.root))
		rows := [][]string{
			{"discovered", strconv.Itoa(stats.Discovered)},
			{"selected", strconv.Itoa(stats.Selected)},
			{"loaded", strconv.Itoa(stats.Loaded)},
			{"parse errors", strconv.Itoa(stats.ParseErrors)},
			{"period errors", strconv.Itoa(stats.PeriodErrors)},
			{"too few samples", strconv.Itoa(stats.SampleErrors)},
			{"resolution", strconv.Itoa(cat.ds.Resolution())},
			{"index", cfg.Index.Kind},
		}
		fmt.Fprintln(out, renderTable([]string{"", "count"}, rows, false))
		if stats.Cancelled {
			fmt.Fprintln(out, warnStyle.Render("interrupted: partial dataset was not cached"))
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "print load statistics as JSON")
}
