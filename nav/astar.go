package nav

import "container/heap"

// AStarFuncs parameterizes an AStar search.
type AStarFuncs struct {
	// Distance is the cost of moving between two linked nodes.
	Distance func(from, to NodeID) float32
	// Heuristic estimates the remaining cost to the goal. It must not
	// overestimate.
	Heuristic func(from, goal NodeID) float32
	// Traversable gates the linkIndex-th sibling link of from. Nil allows
	// every link.
	Traversable func(from NodeID, linkIndex int) bool
	// Visit observes the search: popped is false when a node enters or is
	// updated in the open set, true when it is expanded. Optional.
	Visit func(id NodeID, popped bool)
}

type searchRecord struct {
	g      float32
	parent NodeID
	open   *openNode
	closed bool
}

// AStar is a best-first search over the sibling links of one graph level.
// An AStar is not safe for concurrent use; create one per goroutine.
type AStar struct {
	graph   *Graph
	funcs   AStarFuncs
	scratch *Scratch[searchRecord]
	open    openHeap
	seq     uint64
	goal    NodeID
}

// NewAStar creates a search over graph. Missing Distance and Heuristic
// default to ManhattanDistance and EuclideanHeuristic.
func NewAStar(graph *Graph, funcs AStarFuncs) *AStar {
	if funcs.Distance == nil {
		funcs.Distance = ManhattanDistance(graph)
	}
	if funcs.Heuristic == nil {
		funcs.Heuristic = EuclideanHeuristic(graph)
	}
	return &AStar{
		graph:   graph,
		funcs:   funcs,
		scratch: NewScratch[searchRecord](),
	}
}

// FindPath returns the node sequence from start to goal, both inclusive, or
// nil when the goal cannot be reached.
func (a *AStar) FindPath(start, goal NodeID) []NodeID {
	a.reset()
	a.goal = goal
	if start == goal {
		return []NodeID{start}
	}

	rec := a.scratch.Create(start)
	rec.parent = NoNode
	a.push(start, rec, 0)

	for a.open.Len() > 0 {
		current := heap.Pop(&a.open).(*openNode)
		cur := a.scratch.Get(current.id)
		cur.open = nil
		cur.closed = true
		a.visit(current.id, true)

		if current.id == goal {
			return a.reconstruct(goal)
		}

		for i, link := range a.graph.Node(current.id).Siblings() {
			if a.funcs.Traversable != nil && !a.funcs.Traversable(current.id, i) {
				continue
			}

			g := cur.g + a.funcs.Distance(current.id, link.Target)
			if !a.scratch.Has(link.Target) {
				next := a.scratch.Create(link.Target)
				next.parent = current.id
				a.push(link.Target, next, g)
				continue
			}

			next := a.scratch.Get(link.Target)
			if next.closed || g >= next.g {
				continue
			}
			next.parent = current.id
			next.g = g
			next.open.f = g + next.open.h
			heap.Fix(&a.open, next.open.index)
			a.visit(link.Target, false)
		}
	}

	return nil
}

func (a *AStar) push(id NodeID, rec *searchRecord, g float32) {
	h := a.funcs.Heuristic(id, a.goal)
	rec.g = g
	rec.open = &openNode{id: id, f: g + h, h: h, seq: a.seq}
	a.seq++
	heap.Push(&a.open, rec.open)
	a.visit(id, false)
}

func (a *AStar) visit(id NodeID, popped bool) {
	if a.funcs.Visit != nil {
		a.funcs.Visit(id, popped)
	}
}

func (a *AStar) reconstruct(goal NodeID) []NodeID {
	var path []NodeID
	for id := goal; id != NoNode; id = a.scratch.Get(id).parent {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (a *AStar) reset() {
	a.scratch.Clear()
	clear(a.open)
	a.open = a.open[:0]
	a.seq = 0
}

// Touched returns how many nodes the last search attached state to.
func (a *AStar) Touched() int {
	return a.scratch.Len()
}

// Release drops all search state. The AStar may be reused afterwards.
func (a *AStar) Release() {
	a.reset()
	a.open = nil
}
