package dataset

import (
	"fmt"

	"curvetour/internal/curve"
	"curvetour/internal/storage"
)

// Snapshot converts the dataset into its storage form.
func (d *Dataset) Snapshot(root string) *storage.Snapshot {
	snap := &storage.Snapshot{
		Root:        root,
		Resolution:  d.resolution,
		Fingerprint: d.fingerprint,
		Curves:      make([]storage.Curve, d.Len()),
	}
	for i := range d.files {
		snap.Curves[i] = storage.Curve{
			File:   d.files[i],
			Raw:    d.raw[i],
			Folded: d.folded[i],
			Vector: curve.Vector(d.vectors[i]),
		}
	}
	return snap
}

// FromSnapshot rebuilds a dataset from storage, keeping the stored order.
func FromSnapshot(snap *storage.Snapshot) (*Dataset, error) {
	if snap == nil || len(snap.Curves) == 0 {
		return nil, ErrEmpty
	}

	n := len(snap.Curves)
	files := make([]string, n)
	raws := make([]curve.Raw, n)
	foldeds := make([]curve.Folded, n)
	vectors := make([]curve.Vector, n)
	for i, c := range snap.Curves {
		files[i] = c.File
		raws[i] = c.Raw
		foldeds[i] = c.Folded
		vectors[i] = c.Vector
	}

	ds, err := New(files, raws, foldeds, vectors)
	if err != nil {
		return nil, err
	}
	if snap.Resolution != 0 && ds.Resolution() != snap.Resolution {
		return nil, fmt.Errorf("%w: snapshot resolution %d, vectors have %d",
			ErrInconsistent, snap.Resolution, ds.Resolution())
	}
	ds.fingerprint = snap.Fingerprint
	return ds, nil
}
