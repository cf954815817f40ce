package nav

import (
	"math"

	"github.com/o0olele/voxnav-go/math32"
)

// ManhattanDistance returns an edge cost function measuring the Manhattan
// distance between node box centers.
func ManhattanDistance(graph *Graph) func(from, to NodeID) float32 {
	return func(from, to NodeID) float32 {
		return centerOf(graph, from).ManhattanDistance(centerOf(graph, to))
	}
}

// EuclideanHeuristic returns a heuristic measuring the straight-line
// distance between node box centers.
func EuclideanHeuristic(graph *Graph) func(from, goal NodeID) float32 {
	return func(from, goal NodeID) float32 {
		return centerOf(graph, from).Distance(centerOf(graph, goal))
	}
}

// PermissionFilter returns a traversability predicate that accepts flat
// links and links carrying any of the allowed jump styles.
func PermissionFilter(graph *Graph, allowed LinkPermissions) func(from NodeID, linkIndex int) bool {
	return func(from NodeID, linkIndex int) bool {
		return graph.Node(from).Sibling(linkIndex).Permissions.AllowedBy(allowed)
	}
}

func centerOf(graph *Graph, id NodeID) math32.Vector3 {
	return graph.Node(id).Bounds.Center()
}

// PathCost sums distance over consecutive path entries. It returns +Inf for
// a path with a missing link.
func PathCost(graph *Graph, path []NodeID, distance func(from, to NodeID) float32) float32 {
	var total float32
	for i := 1; i < len(path); i++ {
		if _, ok := graph.Node(path[i-1]).LinkTo(path[i]); !ok {
			return float32(math.Inf(1))
		}
		total += distance(path[i-1], path[i])
	}
	return total
}
