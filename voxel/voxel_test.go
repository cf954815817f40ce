package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
)

func vec(x, y, z int32) math32.Vector3i { return math32.Vector3i{X: x, Y: y, Z: z} }

func TestNewGrid_Invalid(t *testing.T) {
	_, err := NewGrid(vec(0, 1, 1), 1, math32.Vector3{})
	assert.Error(t, err)
	_, err = NewGrid(vec(1, 1, 1), 0, math32.Vector3{})
	assert.Error(t, err)
	_, err = NewGrid(vec(math32.MaxPackedAxis+1, 1, 1), 1, math32.Vector3{})
	assert.Error(t, err)
	_, err = NewGrid(vec(1<<16, 1<<16, 2), 1, math32.Vector3{})
	assert.Error(t, err)
}

func TestGrid_IndexLargeWorld(t *testing.T) {
	// index arithmetic only, no bitmap is allocated
	g := &Grid{Size: vec(2048, 2048, 1024)}
	require.NoError(t, CheckSize(g.Size))
	assert.Equal(t, MaxVoxels-1, g.GetIndex(vec(2047, 2047, 1023)))
	assert.Equal(t, 2048*2048*512, g.GetIndex(vec(0, 0, 512)))

	far := vec(math32.MaxPackedAxis-1, 0, 0)
	assert.NotEqual(t, far.Pack(), vec(0, 0, 0).Pack())
}

func TestGrid_Walkable(t *testing.T) {
	g, err := NewGrid(vec(3, 3, 4), 1, math32.Vector3{})
	require.NoError(t, err)

	// floor slab at z=0 and an overhang at z=2 above (0,0)
	g.FillBox(geometry.IntBox{Min: vec(0, 0, 0), Max: vec(2, 2, 0)}, true)
	g.SetSolid(vec(0, 0, 2), true)

	tests := []struct {
		name   string
		coord  math32.Vector3i
		height int32
		want   bool
	}{
		{"floor is solid", vec(1, 1, 0), 2, false},
		{"standing on the slab", vec(1, 1, 1), 2, true},
		{"floating above the slab", vec(1, 1, 2), 1, false},
		{"head hits overhang", vec(0, 0, 1), 2, false},
		{"short agent fits under overhang", vec(0, 0, 1), 1, true},
		{"standing on the overhang, head above world top", vec(0, 0, 3), 3, true},
		{"outside the grid", vec(5, 0, 1), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Walkable(tt.coord, tt.height))
		})
	}
}

func TestGrid_WorldFloorSupports(t *testing.T) {
	g, err := NewGrid(vec(2, 2, 1), 1, math32.Vector3{})
	require.NoError(t, err)
	assert.True(t, g.Walkable(vec(0, 0, 0), 2))
}

func TestGrid_Transforms(t *testing.T) {
	g, err := NewGrid(vec(4, 4, 4), 0.5, math32.Vector3{X: -1})
	require.NoError(t, err)

	c := vec(1, 2, 3)
	world := g.VoxelToWorld(c)
	assert.Equal(t, math32.Vector3{X: -0.25, Y: 1.25, Z: 1.75}, world)
	assert.Equal(t, c, g.WorldToVoxel(world))
	assert.Equal(t, vec(-1, 0, 0), g.WorldToVoxel(math32.Vector3{X: -1.1}))

	bounds := g.Bounds()
	assert.Equal(t, math32.Vector3{X: -1}, bounds.Min)
	assert.Equal(t, math32.Vector3{X: 1, Y: 2, Z: 2}, bounds.Max)
	assert.True(t, bounds.Contains(world))
	assert.False(t, bounds.Contains(math32.Vector3{X: 1, Y: 1, Z: 1}))
}

func TestGrid_FillBoxClamps(t *testing.T) {
	g, err := NewGrid(vec(2, 2, 2), 1, math32.Vector3{})
	require.NoError(t, err)

	n := g.FillBox(geometry.IntBox{Min: vec(-3, -3, 1), Max: vec(5, 5, 5)}, true)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, g.SolidCount())

	assert.True(t, g.SetSolid(vec(0, 0, 1), false))
	assert.False(t, g.SetSolid(vec(0, 0, 9), true))
	assert.Equal(t, 3, g.SolidCount())
}
