package nav

import "slices"

type tarjanRecord struct {
	index   int32
	lowLink int32
	onStack bool
	next    int // next sibling to inspect
}

// Partitioner splits node sets into strongly connected components, following
// only the links whose targets are inside the set.
type Partitioner struct {
	graph *Graph
}

func NewPartitioner(graph *Graph) *Partitioner {
	return &Partitioner{graph: graph}
}

// Components returns the strongly connected components of nodes in the
// order Tarjan's algorithm completes them. Members of each component are
// sorted by id. The traversal keeps an explicit call stack, so component
// size is not bounded by goroutine stack depth.
func (p *Partitioner) Components(nodes []NodeID) [][]NodeID {
	scratch := NewScratch[tarjanRecord]()
	for _, id := range nodes {
		scratch.Create(id).index = -1
	}

	var (
		components [][]NodeID
		stack      []NodeID
		callStack  []NodeID
		counter    int32
	)

	visit := func(id NodeID) {
		rec := scratch.Get(id)
		rec.index = counter
		rec.lowLink = counter
		rec.onStack = true
		counter++
		stack = append(stack, id)
		callStack = append(callStack, id)
	}

	for _, root := range nodes {
		if scratch.Get(root).index >= 0 {
			continue
		}
		visit(root)

		for len(callStack) > 0 {
			v := callStack[len(callStack)-1]
			rv := scratch.Get(v)
			links := p.graph.Node(v).Siblings()

			if rv.next < len(links) {
				w := links[rv.next].Target
				rv.next++
				if !scratch.Has(w) {
					continue
				}
				rw := scratch.Get(w)
				if rw.index < 0 {
					visit(w)
				} else if rw.onStack {
					rv.lowLink = min(rv.lowLink, rw.index)
				}
				continue
			}

			callStack = callStack[:len(callStack)-1]
			if rv.lowLink == rv.index {
				var component []NodeID
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					scratch.Get(w).onStack = false
					component = append(component, w)
					if w == v {
						break
					}
				}
				slices.Sort(component)
				components = append(components, component)
			}
			if len(callStack) > 0 {
				parent := scratch.Get(callStack[len(callStack)-1])
				parent.lowLink = min(parent.lowLink, rv.lowLink)
			}
		}
	}

	return components
}
