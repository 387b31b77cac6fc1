package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"curvetour/internal/config"
	"curvetour/internal/datadir"
	"curvetour/internal/dataset"
	"curvetour/internal/index"
	"curvetour/internal/logger"
	"curvetour/internal/storage"
)

// catalog is a loaded dataset with its index.
type catalog struct {
	ds        *dataset.Dataset
	idx       index.Index
	root      string
	fromCache bool
}

// openStore returns the SQLite cache, or an in-memory store when caching is
// disabled.
func openStore(c *config.Config, dd *datadir.DataDir) (storage.Storage, error) {
	if !c.Cache.Enabled {
		return storage.NewMemory(), nil
	}
	path := c.Cache.Path
	if path == "" {
		if err := dd.EnsureDirs(); err != nil {
			return nil, err
		}
		path = dd.CachePath()
	} else if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	store, err := storage.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// onProgress receives per-file load progress.
var onProgress = func(done, total int) {
	logger.Debug("curve processed", "done", done, "total", total)
}

// prepare returns the catalog for c. A cached snapshot is reused when it was
// built from the same curve directory with the same load settings, unless
// rebuild is set. Freshly computed catalogs are written back to store unless
// loading was interrupted.
func prepare(ctx context.Context, c *config.Config, store storage.Storage, rebuild bool) (*catalog, error) {
	root, err := filepath.Abs(c.CurveDir)
	if err != nil {
		return nil, fmt.Errorf("resolve curve dir: %w", err)
	}

	if !rebuild {
		cat, err := fromCache(ctx, c, store, root)
		switch {
		case err == nil:
			return cat, nil
		case errors.Is(err, storage.ErrNoSnapshot), errors.Is(err, errStale):
			logger.Debug("dataset cache miss", "reason", err)
		default:
			logger.Warn("ignoring unreadable dataset cache", "err", err)
		}
	}

	opts := c.DatasetOptions()
	opts.Root = root
	opts.OnProgress = onProgress
	ds, err := dataset.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	idx, err := dataset.BuildIndex(ds, c.IndexOptions())
	if err != nil {
		return nil, err
	}

	if ds.Stats().Cancelled {
		logger.Warn("not caching partial dataset", "loaded", ds.Len())
		return &catalog{ds: ds, idx: idx, root: root}, nil
	}
	// a complete dataset is cached even if a signal arrived after the last file
	if err := persist(context.WithoutCancel(ctx), store, ds, idx, root); err != nil {
		logger.Warn("failed to write dataset cache", "err", err)
	}
	return &catalog{ds: ds, idx: idx, root: root}, nil
}

var errStale = errors.New("cache built from different settings")

func fromCache(ctx context.Context, c *config.Config, store storage.Storage, root string) (*catalog, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Root != root || snap.Resolution != c.Resolution {
		return nil, fmt.Errorf("%w: root %s resolution %d", errStale, snap.Root, snap.Resolution)
	}
	if want := c.DatasetOptions().Fingerprint(); snap.Fingerprint != want {
		return nil, fmt.Errorf("%w: settings %s, want %s", errStale, snap.Fingerprint, want)
	}

	ds, err := dataset.FromSnapshot(snap)
	if err != nil {
		return nil, err
	}

	idx, err := restoreIndex(ctx, c, store, ds)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded from cache", "curves", ds.Len(), "resolution", ds.Resolution())
	return &catalog{ds: ds, idx: idx, root: root, fromCache: true}, nil
}

// restoreIndex reuses a stored k-d tree snapshot when it matches the dataset
// and rebuilds the index otherwise.
func restoreIndex(ctx context.Context, c *config.Config, store storage.Storage, ds *dataset.Dataset) (index.Index, error) {
	opts := c.IndexOptions()
	if opts.Kind == index.KindKDTree {
		data, err := store.LoadIndex(ctx)
		if err != nil {
			return nil, err
		}
		if data != nil {
			tree, err := index.Restore(data)
			if err == nil && tree.Len() == ds.Len() && tree.Dim() == ds.Resolution() {
				return tree, nil
			}
			logger.Debug("rebuilding stale index snapshot", "err", err)
		}
	}
	return dataset.BuildIndex(ds, opts)
}

func persist(ctx context.Context, store storage.Storage, ds *dataset.Dataset, idx index.Index, root string) error {
	if err := store.Save(ctx, ds.Snapshot(root)); err != nil {
		return err
	}
	tree, ok := idx.(*index.KDTree)
	if !ok {
		return nil
	}
	data, err := tree.Marshal()
	if err != nil {
		return err
	}
	return store.SaveIndex(ctx, data)
}
