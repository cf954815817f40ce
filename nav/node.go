package nav

import "github.com/o0olele/voxnav-go/geometry"

// NodeID addresses a node in the graph arena.
type NodeID int32

// NoNode marks an absent parent or a failed lookup.
const NoNode NodeID = -1

// Link is a directed sibling edge. The reverse direction, if any, is stored
// on the target node with its own permissions.
type Link struct {
	Target      NodeID          `json:"target"`
	Permissions LinkPermissions `json:"permissions"`
}

// Node is one walkable region at a hierarchy level. Level 0 nodes cover a
// single voxel; higher level nodes cover the union of their children.
type Node struct {
	ID       NodeID          `json:"id"`
	Bounds   geometry.IntBox `json:"bounds"`
	Level    uint8           `json:"level"`
	Parent   NodeID          `json:"parent"`
	Children []NodeID        `json:"children,omitempty"`

	siblings []Link
}

// IsLeaf reports whether the node is a level 0 node.
func (n *Node) IsLeaf() bool {
	return n.Level == 0
}

// Siblings returns the node's outgoing links in insertion order. The slice
// must not be modified.
func (n *Node) Siblings() []Link {
	return n.siblings
}

// Sibling returns the i-th outgoing link and panics when i is out of range.
func (n *Node) Sibling(i int) Link {
	return n.siblings[i]
}

// LinkTo returns the link towards target, if any.
func (n *Node) LinkTo(target NodeID) (Link, bool) {
	for _, l := range n.siblings {
		if l.Target == target {
			return l, true
		}
	}
	return Link{}, false
}
