// Package nav provides the hierarchical navigation graph and the algorithms
// that run over it.
//
// # Arena
//
// Every node lives in a single slice owned by Graph and is addressed by its
// NodeID. Parent, child and sibling references are NodeIDs, so dropping the
// Graph drops the whole hierarchy at once.
//
// # Levels
//
// Level 0 holds one node per walkable voxel. Each cell of a level's grid
// lists its nodes in insertion order; for level 0 a cell is a voxel column
// and its nodes are ordered top to bottom. A cell of level L covers
// 2^L x 2^L voxel columns.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use during building. After Freeze() it is
// read-only and may be shared by any number of goroutines. Algorithms keep
// their working state in a Scratch table of their own, never in the nodes.
package nav

import (
	"fmt"

	"github.com/o0olele/voxnav-go/geometry"
)

// LevelGrid maps the cells of one hierarchy level to their nodes.
type LevelGrid struct {
	Level  uint8
	Width  int
	Height int

	cells [][]NodeID
	count int
}

// CellSize returns the number of voxel columns along one side of a cell.
func (l *LevelGrid) CellSize() int32 {
	return 1 << l.Level
}

// Cell returns the nodes of cell (x, y), or nil when the cell is out of range.
func (l *LevelGrid) Cell(x, y int) []NodeID {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return nil
	}
	return l.cells[y*l.Width+x]
}

// Len returns the number of nodes on this level.
func (l *LevelGrid) Len() int {
	return l.count
}

// Nodes returns every node of the level in cell order.
func (l *LevelGrid) Nodes() []NodeID {
	out := make([]NodeID, 0, l.count)
	for _, cell := range l.cells {
		out = append(out, cell...)
	}
	return out
}

// Graph is the navigation hierarchy.
type Graph struct {
	nodes  []Node
	levels []*LevelGrid
	links  int
	frozen bool
}

// NewGraph creates an empty, unfrozen graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddLevel appends the next hierarchy level with a grid of width x height cells.
func (g *Graph) AddLevel(width, height int) (*LevelGrid, error) {
	if g.frozen {
		return nil, ErrGraphFrozen
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: level grid %dx%d", ErrInvalidGraph, width, height)
	}
	if len(g.levels) > 255 {
		return nil, fmt.Errorf("%w: too many levels", ErrInvalidGraph)
	}

	l := &LevelGrid{
		Level:  uint8(len(g.levels)),
		Width:  width,
		Height: height,
		cells:  make([][]NodeID, width*height),
	}
	g.levels = append(g.levels, l)
	return l, nil
}

// AddNode creates a node on the given level. Its cell is derived from the
// minimum corner of bounds.
func (g *Graph) AddNode(level uint8, bounds geometry.IntBox) (NodeID, error) {
	if g.frozen {
		return NoNode, ErrGraphFrozen
	}
	if int(level) >= len(g.levels) {
		return NoNode, fmt.Errorf("%w: level %d does not exist", ErrInvalidGraph, level)
	}
	if !bounds.IsValid() {
		return NoNode, fmt.Errorf("%w: bounds %s", ErrInvalidGraph, bounds)
	}

	l := g.levels[level]
	cx, cy := int(bounds.Min.X>>level), int(bounds.Min.Y>>level)
	if bounds.Min.X < 0 || bounds.Min.Y < 0 || cx >= l.Width || cy >= l.Height {
		return NoNode, fmt.Errorf("%w: bounds %s outside level %d grid", ErrInvalidGraph, bounds, level)
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{
		ID:     id,
		Bounds: bounds,
		Level:  level,
		Parent: NoNode,
	})

	cell := cy*l.Width + cx
	l.cells[cell] = append(l.cells[cell], id)
	l.count++
	return id, nil
}

// LinkSibling adds a directed link from -> to. If a link to the same target
// already exists the permissions are merged into it. Linking a node to
// itself is a programming error and panics.
func (g *Graph) LinkSibling(from, to NodeID, perms LinkPermissions) error {
	if from == to {
		panic(fmt.Sprintf("nav: node %d cannot be its own sibling", from))
	}
	if g.frozen {
		return ErrGraphFrozen
	}
	if !g.valid(from) || !g.valid(to) {
		return fmt.Errorf("%w: link %d -> %d references an unknown node", ErrInvalidGraph, from, to)
	}

	src := &g.nodes[from]
	if src.Level != g.nodes[to].Level {
		return fmt.Errorf("%w: link %d -> %d crosses levels", ErrInvalidGraph, from, to)
	}
	for i := range src.siblings {
		if src.siblings[i].Target == to {
			src.siblings[i].Permissions |= perms
			return nil
		}
	}
	src.siblings = append(src.siblings, Link{Target: to, Permissions: perms})
	g.links++
	return nil
}

// SetParent attaches child to parent. The parent must be exactly one level
// above the child, and a child can only be attached once.
func (g *Graph) SetParent(child, parent NodeID) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if !g.valid(child) || !g.valid(parent) {
		return fmt.Errorf("%w: parent %d of %d references an unknown node", ErrInvalidGraph, parent, child)
	}

	c, p := &g.nodes[child], &g.nodes[parent]
	if p.Level != c.Level+1 {
		return fmt.Errorf("%w: node %d at level %d cannot parent level %d", ErrInvalidGraph, parent, p.Level, c.Level)
	}
	if c.Parent != NoNode {
		return fmt.Errorf("%w: node %d already has parent %d", ErrInvalidGraph, child, c.Parent)
	}

	c.Parent = parent
	p.Children = append(p.Children, child)
	return nil
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.frozen = true
}

// IsFrozen reports whether Freeze has been called.
func (g *Graph) IsFrozen() bool {
	return g.frozen
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node with the given id and panics when it does not exist.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Contains reports whether id addresses a node of this graph.
func (g *Graph) Contains(id NodeID) bool {
	return g.valid(id)
}

// NodeCount returns the total number of nodes on all levels.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// LinkCount returns the total number of directed sibling links.
func (g *Graph) LinkCount() int {
	return g.links
}

// Levels returns the number of hierarchy levels.
func (g *Graph) Levels() int {
	return len(g.levels)
}

// Level returns the grid of level l, or nil when it does not exist.
func (g *Graph) Level(l int) *LevelGrid {
	if l < 0 || l >= len(g.levels) {
		return nil
	}
	return g.levels[l]
}

// TopLevel returns the coarsest level, or nil for an empty graph.
func (g *Graph) TopLevel() *LevelGrid {
	if len(g.levels) == 0 {
		return nil
	}
	return g.levels[len(g.levels)-1]
}

// Ancestors returns id followed by its parent chain up to a node without a parent.
func (g *Graph) Ancestors(id NodeID) []NodeID {
	chain := make([]NodeID, 0, len(g.levels))
	for cur := id; cur != NoNode; cur = g.nodes[cur].Parent {
		chain = append(chain, cur)
	}
	return chain
}

// Root returns the last node of id's parent chain.
func (g *Graph) Root(id NodeID) NodeID {
	for g.nodes[id].Parent != NoNode {
		id = g.nodes[id].Parent
	}
	return id
}

// Validate checks the structural invariants of the hierarchy: parent and
// child references agree, parent bounds are the union of their children's
// bounds, and links stay on one level and never point back at their source.
func (g *Graph) Validate() error {
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.ID != NodeID(i) {
			return fmt.Errorf("%w: node at %d has id %d", ErrInvalidGraph, i, n.ID)
		}
		if int(n.Level) >= len(g.levels) {
			return fmt.Errorf("%w: node %d on missing level %d", ErrInvalidGraph, n.ID, n.Level)
		}

		if n.Parent != NoNode {
			if !g.valid(n.Parent) {
				return fmt.Errorf("%w: node %d has unknown parent %d", ErrInvalidGraph, n.ID, n.Parent)
			}
			if g.nodes[n.Parent].Level != n.Level+1 {
				return fmt.Errorf("%w: node %d parent level mismatch", ErrInvalidGraph, n.ID)
			}
		}

		if n.Level > 0 {
			if len(n.Children) == 0 {
				return fmt.Errorf("%w: node %d at level %d has no children", ErrInvalidGraph, n.ID, n.Level)
			}
			union := g.nodes[n.Children[0]].Bounds
			for _, c := range n.Children {
				if !g.valid(c) || g.nodes[c].Parent != n.ID {
					return fmt.Errorf("%w: node %d lists child %d that does not point back", ErrInvalidGraph, n.ID, c)
				}
				union = union.Union(g.nodes[c].Bounds)
			}
			if union != n.Bounds {
				return fmt.Errorf("%w: node %d bounds %s differ from children union %s", ErrInvalidGraph, n.ID, n.Bounds, union)
			}
		} else if len(n.Children) != 0 {
			return fmt.Errorf("%w: leaf %d has children", ErrInvalidGraph, n.ID)
		}

		for _, l := range n.siblings {
			if l.Target == n.ID {
				return fmt.Errorf("%w: node %d links to itself", ErrInvalidGraph, n.ID)
			}
			if !g.valid(l.Target) || g.nodes[l.Target].Level != n.Level {
				return fmt.Errorf("%w: node %d has bad link to %d", ErrInvalidGraph, n.ID, l.Target)
			}
			if l.Permissions == 0 {
				return fmt.Errorf("%w: node %d has empty link to %d", ErrInvalidGraph, n.ID, l.Target)
			}
		}
	}
	return nil
}

// LevelLinkCount returns the number of directed sibling links on level l.
func (g *Graph) LevelLinkCount(l int) int {
	level := g.Level(l)
	if level == nil {
		return 0
	}
	n := 0
	for _, cell := range level.cells {
		for _, id := range cell {
			n += len(g.nodes[id].siblings)
		}
	}
	return n
}
