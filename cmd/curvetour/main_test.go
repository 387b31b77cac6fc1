package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curvetour/internal/config"
	"curvetour/internal/datadir"
	"curvetour/internal/dataset"
	"curvetour/internal/storage"
	"curvetour/internal/tour"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewPCG(uint64(i+1), 5))
		period := 0.5 + float64(i)*0.37

		var b strings.Builder
		b.WriteString("# field tile seq\n# mjd mag err\n")
		for j := 0; j < 60; j++ {
			ts := rng.Float64() * 40
			fmt.Fprintf(&b, "%.5f %.5f 0.02\n", ts, 17+0.3*math.Sin(2*math.Pi*ts/period))
		}
		dir := filepath.Join(root, fmt.Sprintf("F_%d", i%3))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("lc%02d.mjd", i)), []byte(b.String()), 0o644))
	}
	return root
}

func testConfig(root string) *config.Config {
	c := config.Default()
	c.CurveDir = root
	c.Resolution = 12
	c.Seed = 1
	return c
}

func TestPrepareUsesCache(t *testing.T) {
	root := writeArchive(t, 6)
	c := testConfig(root)

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	first, err := prepare(ctx, c, store, false)
	require.NoError(t, err)
	assert.False(t, first.fromCache)
	assert.Equal(t, 6, first.ds.Len())

	second, err := prepare(ctx, c, store, false)
	require.NoError(t, err)
	assert.True(t, second.fromCache)
	assert.Equal(t, first.ds.Files(), second.ds.Files())
	assert.Equal(t, first.ds.Matrix(), second.ds.Matrix())
	assert.Equal(t, first.idx.Len(), second.idx.Len())

	c.Resolution = 16
	third, err := prepare(ctx, c, store, false)
	require.NoError(t, err)
	assert.False(t, third.fromCache, "resolution change invalidates the cache")
	assert.Equal(t, 16, third.ds.Resolution())

	rebuilt, err := prepare(ctx, c, store, true)
	require.NoError(t, err)
	assert.False(t, rebuilt.fromCache)
}

func TestPrepareRejectsCacheBuiltWithOtherSettings(t *testing.T) {
	root := writeArchive(t, 6)
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	sampled := testConfig(root)
	sampled.SampleSize = 2
	cat, err := prepare(ctx, sampled, store, false)
	require.NoError(t, err)
	require.Equal(t, 2, cat.ds.Len())

	full := testConfig(root)
	full.Regression.Neighbors = 5
	cat, err = prepare(ctx, full, store, false)
	require.NoError(t, err)
	assert.False(t, cat.fromCache)
	assert.Equal(t, 6, cat.ds.Len())

	changes := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"seed", func(c *config.Config) { c.Seed = 2 }},
		{"header lines", func(c *config.Config) { c.HeaderLines = 3 }},
		{"neighbours", func(c *config.Config) { c.Regression.Neighbors = 4 }},
		{"oversampling", func(c *config.Config) { c.Period.Oversampling = 4 }},
		{"outlier cleaning", func(c *config.Config) { c.Period.CleanOutliers = false }},
	}
	for _, tt := range changes {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(root)
			tt.mutate(c)

			cat, err := prepare(ctx, c, store, false)
			require.NoError(t, err)
			assert.False(t, cat.fromCache, "cache built with other settings must not be reused")

			again, err := prepare(ctx, c, store, false)
			require.NoError(t, err)
			assert.True(t, again.fromCache)
		})
	}

	workers := testConfig(root)
	workers.Period.CleanOutliers = false
	workers.Workers = 3
	cat, err = prepare(ctx, workers, store, false)
	require.NoError(t, err)
	assert.True(t, cat.fromCache, "worker count does not change the dataset")
}

// cancelAfter makes prepare cancel ctx once n files have been processed;
// n < 0 cancels after the last file.
func cancelAfter(t *testing.T, cancel context.CancelFunc, n int) {
	t.Helper()
	prev := onProgress
	onProgress = func(done, total int) {
		if done == n || (n < 0 && done == total) {
			cancel()
		}
	}
	t.Cleanup(func() { onProgress = prev })
}

func TestPrepareDoesNotCachePartialDataset(t *testing.T) {
	root := writeArchive(t, 6)
	c := testConfig(root)
	c.Workers = 1

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelAfter(t, cancel, 1)

	cat, err := prepare(ctx, c, store, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.ds.Len())
	assert.True(t, cat.ds.Stats().Cancelled)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)
}

func TestPrepareCachesDatasetFinishedBeforeSignal(t *testing.T) {
	root := writeArchive(t, 4)
	c := testConfig(root)
	c.Workers = 1

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelAfter(t, cancel, -1)

	cat, err := prepare(ctx, c, store, false)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.ds.Len())
	assert.False(t, cat.ds.Stats().Cancelled)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Curves, 4)
	assert.Equal(t, c.DatasetOptions().Fingerprint(), snap.Fingerprint)
}

func TestPrepareWithoutCache(t *testing.T) {
	root := writeArchive(t, 4)
	c := testConfig(root)
	c.Cache.Enabled = false

	dd, err := datadir.New(t.TempDir())
	require.NoError(t, err)
	store, err := openStore(c, dd)
	require.NoError(t, err)
	_, ok := store.(*storage.Memory)
	assert.True(t, ok)

	cat, err := prepare(context.Background(), c, store, false)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.ds.Len())
}

func TestOpenStoreCreatesCacheDir(t *testing.T) {
	t.Setenv(datadir.EnvVar, "")
	c := testConfig(t.TempDir())

	dd, err := datadir.New(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	store, err := openStore(c, dd)
	require.NoError(t, err)
	defer store.Close()

	sq, ok := store.(*storage.SQLite)
	require.True(t, ok)
	assert.Equal(t, dd.CachePath(), sq.Path())

	c.Cache.Path = filepath.Join(t.TempDir(), "a", "b", "custom.db")
	custom, err := openStore(c, dd)
	require.NoError(t, err)
	defer custom.Close()
	_, err = os.Stat(filepath.Dir(c.Cache.Path))
	assert.NoError(t, err)
}

func TestPrepareEmptyArchive(t *testing.T) {
	c := testConfig(t.TempDir())
	_, err := prepare(context.Background(), c, storage.NewMemory(), false)
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestWalkAndPayloads(t *testing.T) {
	root := writeArchive(t, 5)
	c := testConfig(root)

	cat, err := prepare(context.Background(), c, storage.NewMemory(), false)
	require.NoError(t, err)
	reg, err := tour.NewRegistry(cat.idx, cat.ds, 0)
	require.NoError(t, err)

	results, err := walk(reg, 2, 20)
	require.NoError(t, err)
	require.Len(t, results, 5, "walk stops once every curve is visited")
	assert.Equal(t, 2, results[0].Index)
	assert.Equal(t, 0, reg.Len(), "walk closes its session")

	seen := map[int]bool{}
	for _, r := range results {
		assert.False(t, seen[r.Index])
		seen[r.Index] = true
	}

	var buf bytes.Buffer
	require.NoError(t, writePayloads(&buf, results))

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var p dataset.DisplayPayload
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &p))
		require.Len(t, p.Data, 2)
		assert.Equal(t, "original", p.Data[0].Key)
		assert.Equal(t, "regressed", p.Data[1].Key)
		assert.Len(t, p.Data[1].Values, 12)
		lines++
	}
	assert.Equal(t, 5, lines)

	_, err = walk(reg, 99, 1)
	assert.ErrorIs(t, err, tour.ErrIndexOutOfRange)
}

func TestWriteTable(t *testing.T) {
	root := writeArchive(t, 3)
	cat, err := prepare(context.Background(), testConfig(root), storage.NewMemory(), false)
	require.NoError(t, err)
	reg, err := tour.NewRegistry(cat.idx, cat.ds, 0)
	require.NoError(t, err)

	results, err := walk(reg, 0, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeTable(&buf, cat.root, results)
	out := buf.String()
	assert.Contains(t, out, "Tour of 3 curves")
	assert.Contains(t, out, "seed")
	assert.Contains(t, out, filepath.Join("F_0", "lc00.mjd"))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	require.NoError(t, versionCmd.RunE(versionCmd, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "curvetour "))
	assert.Contains(t, buf.String(), "Go version:")
}
