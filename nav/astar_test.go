package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAStar_FlatGrid(t *testing.T) {
	g := flatGrid(t, 4, 4)
	g.Freeze()
	astar := NewAStar(g, AStarFuncs{})
	defer astar.Release()

	path := astar.FindPath(0, 15)
	require.Len(t, path, 7)
	assert.Equal(t, NodeID(0), path[0])
	assert.Equal(t, NodeID(15), path[len(path)-1])
	for i := 1; i < len(path); i++ {
		_, ok := g.Node(path[i-1]).LinkTo(path[i])
		assert.True(t, ok, "consecutive path nodes must be linked")
	}
	assert.Equal(t, float32(6), PathCost(g, path, ManhattanDistance(g)))
}

func TestAStar_SelfPath(t *testing.T) {
	g := flatGrid(t, 2, 2)
	assert.Equal(t, []NodeID{3}, NewAStar(g, AStarFuncs{}).FindPath(3, 3))
}

func TestAStar_Deterministic(t *testing.T) {
	g := flatGrid(t, 5, 5)
	first := NewAStar(g, AStarFuncs{}).FindPath(0, 24)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NewAStar(g, AStarFuncs{}).FindPath(0, 24))
	}

	// reuse of one search object gives the same answer
	astar := NewAStar(g, AStarFuncs{})
	assert.Equal(t, first, astar.FindPath(0, 24))
	assert.Equal(t, first, astar.FindPath(0, 24))
}

func TestAStar_PermissionFilter(t *testing.T) {
	g := NewGraph()
	_, err := g.AddLevel(3, 1)
	require.NoError(t, err)
	a, _ := g.AddNode(0, voxelBox(0, 0, 1))
	b, _ := g.AddNode(0, voxelBox(1, 0, 0))
	c, _ := g.AddNode(0, voxelBox(2, 0, 1))
	require.NoError(t, g.LinkSibling(a, b, LinkJumpDown))
	require.NoError(t, g.LinkSibling(b, a, LinkJumpUp))
	require.NoError(t, g.LinkSibling(b, c, LinkJumpUp))
	require.NoError(t, g.LinkSibling(c, b, LinkJumpDown))
	g.Freeze()

	tests := []struct {
		name    string
		allowed LinkPermissions
		want    []NodeID
	}{
		{"flat only", LinkNone, nil},
		{"down only", LinkJumpDown, nil},
		{"up and down", LinkJumpUp | LinkJumpDown, []NodeID{a, b, c}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			astar := NewAStar(g, AStarFuncs{Traversable: PermissionFilter(g, tt.allowed)})
			assert.Equal(t, tt.want, astar.FindPath(a, c))
		})
	}
}

func TestAStar_Visit(t *testing.T) {
	g := flatGrid(t, 3, 1)
	var popped []NodeID
	astar := NewAStar(g, AStarFuncs{
		Visit: func(id NodeID, isPopped bool) {
			if isPopped {
				popped = append(popped, id)
			}
		},
	})

	assert.Equal(t, []NodeID{0, 1, 2}, astar.FindPath(0, 2))
	assert.Equal(t, []NodeID{0, 1, 2}, popped)
	assert.Equal(t, 3, astar.Touched())

	astar.Release()
	assert.Zero(t, astar.Touched())
}

func TestAStar_PrefersCheaperRoute(t *testing.T) {
	// 0 -> 1 -> 3 is cheap, 0 -> 2 -> 3 goes through a far node.
	g := NewGraph()
	_, err := g.AddLevel(8, 2)
	require.NoError(t, err)
	n0, _ := g.AddNode(0, voxelBox(0, 0, 0))
	n1, _ := g.AddNode(0, voxelBox(1, 0, 0))
	n2, _ := g.AddNode(0, voxelBox(7, 1, 0))
	n3, _ := g.AddNode(0, voxelBox(2, 0, 0))
	require.NoError(t, g.LinkSibling(n0, n2, LinkNone))
	require.NoError(t, g.LinkSibling(n2, n3, LinkNone))
	require.NoError(t, g.LinkSibling(n0, n1, LinkNone))
	require.NoError(t, g.LinkSibling(n1, n3, LinkNone))

	assert.Equal(t, []NodeID{n0, n1, n3}, NewAStar(g, AStarFuncs{}).FindPath(n0, n3))
}

func TestAStar_Unreachable(t *testing.T) {
	g := NewGraph()
	_, err := g.AddLevel(2, 1)
	require.NoError(t, err)
	a, _ := g.AddNode(0, voxelBox(0, 0, 0))
	b, _ := g.AddNode(0, voxelBox(1, 0, 0))
	assert.Nil(t, NewAStar(g, AStarFuncs{}).FindPath(a, b))
}
