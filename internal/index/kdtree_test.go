package index

import (
	"math/rand/v2"
	"sort"
	"testing"

	"curvetour/internal/mathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoints(n, dim int, seed uint64, grid bool) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed*31+1))
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = make([]float64, dim)
		for d := range pts[i] {
			if grid {
				// coarse integer grid produces plenty of exact distance ties
				pts[i][d] = float64(rng.IntN(4))
			} else {
				pts[i][d] = rng.NormFloat64()
			}
		}
	}
	return pts
}

// bruteForce ranks every point by (distance, index).
func bruteForce(points [][]float64, query []float64) []Neighbor {
	type scored struct {
		idx int
		sq  float64
	}
	all := make([]scored, len(points))
	for i, p := range points {
		all[i] = scored{idx: i, sq: mathutil.SquaredEuclidean(query, p)}
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].sq != all[b].sq {
			return all[a].sq < all[b].sq
		}
		return all[a].idx < all[b].idx
	})
	out := make([]Neighbor, len(all))
	for i, s := range all {
		out[i] = Neighbor{Index: s.idx, Distance: mathutil.Euclidean(query, points[s.idx])}
	}
	return out
}

func indices(ns []Neighbor) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Index
	}
	return out
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dim  int
		leaf int
		grid bool
	}{
		{"gaussian small leaves", 300, 10, 2, false},
		{"gaussian default leaves", 500, 20, 0, false},
		{"integer grid with ties", 200, 3, 1, true},
		{"single point", 1, 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := randomPoints(tt.n, tt.dim, uint64(tt.n+tt.dim), tt.grid)
			tree, err := Build(pts, Config{LeafSize: tt.leaf})
			require.NoError(t, err)
			require.Equal(t, tt.n, tree.Len())
			require.Equal(t, tt.dim, tree.Dim())

			for _, i := range []int{0, tt.n / 2, tt.n - 1} {
				want := bruteForce(pts, pts[i])
				for _, k := range []int{1, 5, tt.n} {
					got, err := tree.Neighbors(i, k)
					require.NoError(t, err)
					exp := want[:min(k, tt.n)]
					require.Equal(t, indices(exp), indices(got), "point %d k %d", i, k)
					for j := range got {
						assert.InDelta(t, exp[j].Distance, got[j].Distance, 1e-9)
					}
				}
			}
		})
	}
}

func TestSearchTieBreakLowestIndexWins(t *testing.T) {
	pts := [][]float64{
		{1, 0},
		{0, 1},
		{-1, 0},
		{0, -1},
		{0, 0},
	}
	tree, err := Build(pts, Config{LeafSize: 1})
	require.NoError(t, err)

	got, err := tree.Search([]float64{0, 0}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 0, 1, 2, 3}, indices(got))
}

func TestTopKIsPrefixOfFullRanking(t *testing.T) {
	pts := randomPoints(120, 4, 5, true)
	tree, err := Build(pts, Config{LeafSize: 3})
	require.NoError(t, err)

	full, err := tree.Neighbors(7, tree.Len())
	require.NoError(t, err)
	for k := 1; k < tree.Len(); k += 17 {
		part, err := tree.Neighbors(7, k)
		require.NoError(t, err)
		assert.Equal(t, indices(full[:k]), indices(part))
	}
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil, Config{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Build([][]float64{{1, 2}, {3}}, Config{})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = Build([][]float64{{}}, Config{})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestQueryErrors(t *testing.T) {
	tree, err := Build([][]float64{{1, 2}, {3, 4}}, Config{})
	require.NoError(t, err)

	_, err = tree.Neighbors(2, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = tree.Neighbors(-1, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = tree.Search([]float64{1}, 1)
	assert.ErrorIs(t, err, ErrDimension)

	res, err := tree.Search([]float64{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = tree.Search([]float64{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestBuildCopiesInput(t *testing.T) {
	pts := [][]float64{{0, 0}, {5, 5}}
	tree, err := Build(pts, Config{})
	require.NoError(t, err)
	pts[1][0] = -100

	p, err := tree.Point(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, p)
}

func TestMarshalRestore(t *testing.T) {
	pts := randomPoints(150, 6, 42, false)
	tree, err := Build(pts, Config{LeafSize: 4})
	require.NoError(t, err)

	data, err := tree.Marshal()
	require.NoError(t, err)

	restored, err := Restore(data)
	require.NoError(t, err)
	assert.Equal(t, tree.Len(), restored.Len())
	assert.Equal(t, tree.Dim(), restored.Dim())

	for _, i := range []int{0, 75, 149} {
		a, err := tree.Neighbors(i, 10)
		require.NoError(t, err)
		b, err := restored.Neighbors(i, 10)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}

	_, err = Restore([]byte("not gob"))
	assert.Error(t, err)
}

func TestNewSelectsKind(t *testing.T) {
	pts := randomPoints(60, 3, 9, false)

	tree, err := New(pts, Config{})
	require.NoError(t, err)
	assert.IsType(t, &KDTree{}, tree)

	flat, err := New(pts, Config{Kind: KindFlat})
	require.NoError(t, err)
	assert.IsType(t, &Flat{}, flat)

	for i := 0; i < len(pts); i += 13 {
		a, err := tree.Neighbors(i, len(pts))
		require.NoError(t, err)
		b, err := flat.Neighbors(i, len(pts))
		require.NoError(t, err)
		assert.Equal(t, indices(b), indices(a))
	}

	_, err = New(pts, Config{Kind: "ball"})
	assert.Error(t, err)
}
