package index

import "math"

// candidate is a squared distance plus point index.
type candidate struct {
	idx  int
	dist float64
}

// worse reports whether a ranks after b.
func (a candidate) worse(b candidate) bool {
	if a.dist != b.dist {
		return a.dist > b.dist
	}
	return a.idx > b.idx
}

// boundedHeap keeps the k best candidates seen so far with the worst on top.
type boundedHeap struct {
	k     int
	items []candidate
}

func newBoundedHeap(k int) *boundedHeap {
	return &boundedHeap{k: k, items: make([]candidate, 0, k)}
}

func (h *boundedHeap) full() bool { return len(h.items) >= h.k }

// bound is the squared distance a point must not exceed to still qualify.
func (h *boundedHeap) bound() float64 {
	if !h.full() {
		return math.Inf(1)
	}
	return h.items[0].dist
}

func (h *boundedHeap) offer(c candidate) {
	if !h.full() {
		h.items = append(h.items, c)
		h.bubbleUp(len(h.items) - 1)
		return
	}
	if !h.items[0].worse(c) {
		return
	}
	h.items[0] = c
	h.bubbleDown(0)
}

func (h *boundedHeap) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].worse(h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *boundedHeap) bubbleDown(i int) {
	for {
		left := 2*i + 1
		right := 2*i + 2
		largest := i

		if left < len(h.items) && h.items[left].worse(h.items[largest]) {
			largest = left
		}
		if right < len(h.items) && h.items[right].worse(h.items[largest]) {
			largest = right
		}
		if largest == i {
			break
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}

// sorted drains the heap into best-first order.
func (h *boundedHeap) sorted() []Neighbor {
	out := make([]Neighbor, len(h.items))
	for i := len(h.items) - 1; i >= 0; i-- {
		top := h.items[0]
		last := len(h.items) - 1
		h.items[0] = h.items[last]
		h.items = h.items[:last]
		h.bubbleDown(0)
		out[i] = Neighbor{Index: top.idx, Distance: math.Sqrt(top.dist)}
	}
	return out
}
