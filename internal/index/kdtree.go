package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"curvetour/internal/mathutil"
)

// kdNode is a k-d tree node. Fields are exported for gob serialization.
type kdNode struct {
	Lo, Hi      int // point range in KDTree.order
	Dim         int
	Split       float64
	Left, Right int // child node ids, -1 for leaves
}

func (n *kdNode) leaf() bool { return n.Left < 0 }

// KDTree is a balanced k-d tree. It is immutable after Build and safe for
// concurrent queries.
type KDTree struct {
	points [][]float64
	order  []int
	nodes  []kdNode
	dim    int
	cfg    Config
}

// Build constructs a k-d tree over a copy of points. Each internal node splits
// its range at the median of the dimension with the widest spread.
func Build(points [][]float64, cfg Config) (*KDTree, error) {
	cfg = cfg.withDefaults()
	dim, err := validate(points)
	if err != nil {
		return nil, err
	}

	t := &KDTree{
		points: copyPoints(points),
		order:  make([]int, len(points)),
		dim:    dim,
		cfg:    cfg,
	}
	for i := range t.order {
		t.order[i] = i
	}
	t.build(0, len(points))
	return t, nil
}

func (t *KDTree) build(lo, hi int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, kdNode{Lo: lo, Hi: hi, Left: -1, Right: -1})
	if hi-lo <= t.cfg.LeafSize {
		return id
	}

	dim := t.widestDim(lo, hi)
	seg := t.order[lo:hi]
	sort.Slice(seg, func(a, b int) bool {
		va, vb := t.points[seg[a]][dim], t.points[seg[b]][dim]
		if va != vb {
			return va < vb
		}
		return seg[a] < seg[b]
	})
	mid := lo + (hi-lo)/2

	left := t.build(lo, mid)
	right := t.build(mid, hi)

	n := &t.nodes[id]
	n.Dim = dim
	n.Split = t.points[t.order[mid]][dim]
	n.Left = left
	n.Right = right
	return id
}

func (t *KDTree) widestDim(lo, hi int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < t.dim; d++ {
		minV, maxV := t.points[t.order[lo]][d], t.points[t.order[lo]][d]
		for _, idx := range t.order[lo+1 : hi] {
			v := t.points[idx][d]
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		if spread := maxV - minV; spread > bestSpread {
			best, bestSpread = d, spread
		}
	}
	return best
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int { return len(t.points) }

// Dim returns the point dimension.
func (t *KDTree) Dim() int { return t.dim }

// Point returns a copy of point i.
func (t *KDTree) Point(i int) ([]float64, error) {
	if i < 0 || i >= len(t.points) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return append([]float64(nil), t.points[i]...), nil
}

// Neighbors returns the k points nearest to point i, i included.
func (t *KDTree) Neighbors(i, k int) ([]Neighbor, error) {
	if i < 0 || i >= len(t.points) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return t.Search(t.points[i], k)
}

// Search returns the k points nearest to query. k is clamped to Len.
func (t *KDTree) Search(query []float64, k int) ([]Neighbor, error) {
	if len(query) != t.dim {
		return nil, fmt.Errorf("%w: query has %d values, want %d", ErrDimension, len(query), t.dim)
	}
	if k > len(t.points) {
		k = len(t.points)
	}
	if k <= 0 {
		return nil, nil
	}

	h := newBoundedHeap(k)
	t.search(0, query, h)
	return h.sorted(), nil
}

func (t *KDTree) search(id int, query []float64, h *boundedHeap) {
	n := &t.nodes[id]
	if n.leaf() {
		for _, idx := range t.order[n.Lo:n.Hi] {
			h.offer(candidate{idx: idx, dist: mathutil.SquaredEuclidean(query, t.points[idx])})
		}
		return
	}

	diff := query[n.Dim] - n.Split
	near, far := n.Left, n.Right
	if diff >= 0 {
		near, far = n.Right, n.Left
	}

	t.search(near, query, h)
	// Equal bounds are still visited: a tied point with a lower index may live there.
	if diff*diff <= h.bound() {
		t.search(far, query, h)
	}
}

// kdData is the serializable representation of a KDTree.
type kdData struct {
	Points [][]float64
	Order  []int
	Nodes  []kdNode
	Dim    int
	Cfg    Config
}

// Marshal serializes the tree.
func (t *KDTree) Marshal() ([]byte, error) {
	data := kdData{
		Points: t.points,
		Order:  t.order,
		Nodes:  t.nodes,
		Dim:    t.dim,
		Cfg:    t.cfg,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("index: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore rebuilds a tree from Marshal output.
func Restore(data []byte) (*KDTree, error) {
	var d kdData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return nil, fmt.Errorf("index: decode: %w", err)
	}
	if len(d.Points) == 0 || len(d.Nodes) == 0 || len(d.Order) != len(d.Points) {
		return nil, fmt.Errorf("index: decode: %w", ErrEmpty)
	}
	if _, err := validate(d.Points); err != nil {
		return nil, err
	}

	return &KDTree{
		points: d.Points,
		order:  d.Order,
		nodes:  d.Nodes,
		dim:    d.Dim,
		cfg:    d.Cfg,
	}, nil
}
