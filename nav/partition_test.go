package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitioner_Components(t *testing.T) {
	t.Run("flat grid is one component", func(t *testing.T) {
		g := flatGrid(t, 3, 3)
		comps := NewPartitioner(g).Components(g.Level(0).Nodes())
		require.Len(t, comps, 1)
		assert.Equal(t, []NodeID{0, 1, 2, 3, 4, 5, 6, 7, 8}, comps[0])
	})

	t.Run("links outside the set are ignored", func(t *testing.T) {
		g := flatGrid(t, 3, 1) // 0 - 1 - 2
		comps := NewPartitioner(g).Components([]NodeID{0, 2})
		assert.Equal(t, [][]NodeID{{0}, {2}}, comps)
	})

	t.Run("one-way links split components", func(t *testing.T) {
		g := NewGraph()
		_, err := g.AddLevel(4, 1)
		require.NoError(t, err)
		for x := int32(0); x < 4; x++ {
			_, err := g.AddNode(0, voxelBox(x, 0, 0))
			require.NoError(t, err)
		}
		// 0 <-> 1 -> 2 <-> 3
		require.NoError(t, g.LinkSibling(0, 1, LinkNone))
		require.NoError(t, g.LinkSibling(1, 0, LinkNone))
		require.NoError(t, g.LinkSibling(1, 2, LinkJumpDown))
		require.NoError(t, g.LinkSibling(2, 3, LinkNone))
		require.NoError(t, g.LinkSibling(3, 2, LinkNone))

		comps := NewPartitioner(g).Components(g.Level(0).Nodes())
		assert.Equal(t, [][]NodeID{{2, 3}, {0, 1}}, comps)
	})

	t.Run("long chain does not recurse", func(t *testing.T) {
		const n = 50_000
		g := flatGrid(t, n, 1)
		comps := NewPartitioner(g).Components(g.Level(0).Nodes())
		require.Len(t, comps, 1)
		assert.Len(t, comps[0], n)
	})

	t.Run("empty input", func(t *testing.T) {
		g := flatGrid(t, 1, 1)
		assert.Empty(t, NewPartitioner(g).Components(nil))
	})
}
