// Package voxel provides the in-memory voxel volume the navigation graph is
// built from.
package voxel

import (
	"fmt"

	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
)

// Grid represents a 3D grid of voxels. Every voxel is either solid or empty.
// Z is the vertical axis, z == 0 is the world floor.
type Grid struct {
	Size      math32.Vector3i `json:"size"`       // Grid dimensions (width, depth, height)
	VoxelSize float32         `json:"voxel_size"` // Size of each voxel in world units
	Origin    math32.Vector3  `json:"origin"`     // World position of grid origin (0,0,0)

	solid math32.Bitmap
}

// MaxVoxels is the largest voxel count a grid can index.
const MaxVoxels = 1 << 32

// CheckSize reports whether size is a positive grid size whose voxels can be
// indexed and cached by coordinate.
func CheckSize(size math32.Vector3i) error {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return fmt.Errorf("voxel: invalid grid size %s", size)
	}
	if size.X > math32.MaxPackedAxis || size.Y > math32.MaxPackedAxis || size.Z > math32.MaxPackedAxis {
		return fmt.Errorf("voxel: grid size %s exceeds %d voxels per axis", size, math32.MaxPackedAxis)
	}
	if int64(size.X)*int64(size.Y)*int64(size.Z) > MaxVoxels {
		return fmt.Errorf("voxel: grid size %s exceeds %d voxels", size, int64(MaxVoxels))
	}
	return nil
}

// NewGrid creates an empty grid.
func NewGrid(size math32.Vector3i, voxelSize float32, origin math32.Vector3) (*Grid, error) {
	if err := CheckSize(size); err != nil {
		return nil, err
	}
	if voxelSize <= 0 {
		return nil, fmt.Errorf("voxel: invalid voxel size %v", voxelSize)
	}

	g := &Grid{
		Size:      size,
		VoxelSize: voxelSize,
		Origin:    origin,
	}
	g.solid.Grow(uint32(g.VoxelCount() - 1))
	return g, nil
}

// GetIndex converts 3D coordinates to 1D bit index
func (g *Grid) GetIndex(coord math32.Vector3i) int {
	if !g.IsValidCoordinate(coord) {
		return -1
	}
	return (int(coord.Z)*int(g.Size.Y)+int(coord.Y))*int(g.Size.X) + int(coord.X)
}

// IsValidCoordinate checks if the coordinate is within grid bounds
func (g *Grid) IsValidCoordinate(coord math32.Vector3i) bool {
	return coord.X >= 0 && coord.X < g.Size.X &&
		coord.Y >= 0 && coord.Y < g.Size.Y &&
		coord.Z >= 0 && coord.Z < g.Size.Z
}

// WorldSize returns the voxel extents of the grid.
func (g *Grid) WorldSize() math32.Vector3i {
	return g.Size
}

// VoxelCount returns the total number of voxels
func (g *Grid) VoxelCount() int {
	return int(g.Size.X) * int(g.Size.Y) * int(g.Size.Z)
}

// IsSolid reports whether the voxel is solid. Coordinates outside the grid
// are reported as empty.
func (g *Grid) IsSolid(coord math32.Vector3i) bool {
	index := g.GetIndex(coord)
	if index == -1 {
		return false
	}
	return g.solid.Contains(uint32(index))
}

// SetSolid sets the voxel at the given coordinate, returns false when the
// coordinate is outside the grid.
func (g *Grid) SetSolid(coord math32.Vector3i, solid bool) bool {
	index := g.GetIndex(coord)
	if index == -1 {
		return false
	}
	if solid {
		g.solid.Set(uint32(index))
	} else {
		g.solid.Remove(uint32(index))
	}
	return true
}

// FillBox sets every voxel of box that lies inside the grid and returns how
// many voxels were written.
func (g *Grid) FillBox(box geometry.IntBox, solid bool) int {
	lo := box.Min.Max(math32.Vector3i{})
	hi := box.Max.Min(g.Size.Sub(math32.Vector3i{X: 1, Y: 1, Z: 1}))

	n := 0
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				if g.SetSolid(math32.Vector3i{X: x, Y: y, Z: z}, solid) {
					n++
				}
			}
		}
	}
	return n
}

// SolidCount returns the number of solid voxels.
func (g *Grid) SolidCount() int {
	return g.solid.Count()
}

// Walkable reports whether an agent of the given height can stand in coord:
// the voxel and the agentHeight-1 voxels above it are empty, and the voxel
// rests on a solid voxel or on the world floor. Voxels above the top of the
// grid count as empty.
func (g *Grid) Walkable(coord math32.Vector3i, agentHeight int32) bool {
	if !g.IsValidCoordinate(coord) {
		return false
	}
	if coord.Z > 0 && !g.IsSolid(math32.Vector3i{X: coord.X, Y: coord.Y, Z: coord.Z - 1}) {
		return false
	}
	for dz := int32(0); dz < agentHeight; dz++ {
		if g.IsSolid(math32.Vector3i{X: coord.X, Y: coord.Y, Z: coord.Z + dz}) {
			return false
		}
	}
	return true
}

// WorldToVoxel converts world coordinates to voxel coordinates
func (g *Grid) WorldToVoxel(worldPos math32.Vector3) math32.Vector3i {
	return worldPos.Sub(g.Origin).Scale(1 / g.VoxelSize).Floor()
}

// VoxelToWorld converts voxel coordinates to world coordinates (center of voxel)
func (g *Grid) VoxelToWorld(voxelCoord math32.Vector3i) math32.Vector3 {
	return g.Origin.Add(math32.Vector3{
		X: (float32(voxelCoord.X) + 0.5) * g.VoxelSize,
		Y: (float32(voxelCoord.Y) + 0.5) * g.VoxelSize,
		Z: (float32(voxelCoord.Z) + 0.5) * g.VoxelSize,
	})
}

// Bounds returns the world-space bounding box of the grid
func (g *Grid) Bounds() geometry.AABB {
	box := geometry.IntBox{Max: g.Size.Sub(math32.Vector3i{X: 1, Y: 1, Z: 1})}
	return box.ToAABB(g.Origin, g.VoxelSize)
}
