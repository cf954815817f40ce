package nav

// openNode is an entry of the A* open set.
type openNode struct {
	id    NodeID
	f     float32
	h     float32
	seq   uint64
	index int
}

// openHeap orders entries by f, then h, then insertion order, which keeps
// search results reproducible when scores tie.
type openHeap []*openNode

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openHeap) Push(x any) {
	item := x.(*openNode)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
