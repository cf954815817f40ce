package geometry

import (
	"fmt"

	"github.com/o0olele/voxnav-go/math32"
)

// IntBox is an axis-aligned box of voxels. Min and Max are both inclusive,
// so a single voxel has Min == Max.
type IntBox struct {
	Min math32.Vector3i `json:"min"`
	Max math32.Vector3i `json:"max"`
}

// VoxelBox returns the box covering exactly one voxel.
func VoxelBox(coord math32.Vector3i) IntBox {
	return IntBox{Min: coord, Max: coord}
}

// IsValid reports whether Min <= Max on every axis.
func (b IntBox) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// Union returns the smallest box containing both boxes.
func (b IntBox) Union(other IntBox) IntBox {
	return IntBox{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Contains reports whether other lies entirely inside b.
func (b IntBox) Contains(other IntBox) bool {
	return b.Min.X <= other.Min.X && other.Max.X <= b.Max.X &&
		b.Min.Y <= other.Min.Y && other.Max.Y <= b.Max.Y &&
		b.Min.Z <= other.Min.Z && other.Max.Z <= b.Max.Z
}

// ContainsVoxel reports whether the voxel lies inside b.
func (b IntBox) ContainsVoxel(coord math32.Vector3i) bool {
	return b.Contains(VoxelBox(coord))
}

// Intersects reports whether the two boxes share at least one voxel.
func (b IntBox) Intersects(other IntBox) bool {
	if b.Min.X > other.Max.X || other.Min.X > b.Max.X {
		return false
	}
	if b.Min.Y > other.Max.Y || other.Min.Y > b.Max.Y {
		return false
	}
	return b.Min.Z <= other.Max.Z && other.Min.Z <= b.Max.Z
}

// Size returns the number of voxels along each axis.
func (b IntBox) Size() math32.Vector3i {
	return b.Max.Sub(b.Min).Add(math32.Vector3i{X: 1, Y: 1, Z: 1})
}

// Volume returns the number of voxels covered.
func (b IntBox) Volume() int64 {
	s := b.Size()
	return int64(s.X) * int64(s.Y) * int64(s.Z)
}

// Center returns the center of the box in voxel units, where voxel (0,0,0)
// spans [0,1) on every axis.
func (b IntBox) Center() math32.Vector3 {
	return math32.Vector3{
		X: float32(b.Min.X+b.Max.X+1) / 2,
		Y: float32(b.Min.Y+b.Max.Y+1) / 2,
		Z: float32(b.Min.Z+b.Max.Z+1) / 2,
	}
}

// ToAABB converts the box to world space.
func (b IntBox) ToAABB(origin math32.Vector3, voxelSize float32) AABB {
	return AABB{
		Min: origin.Add(b.Min.ToVector3().Scale(voxelSize)),
		Max: origin.Add(b.Max.Add(math32.Vector3i{X: 1, Y: 1, Z: 1}).ToVector3().Scale(voxelSize)),
	}
}

func (b IntBox) String() string {
	return fmt.Sprintf("%s-%s", b.Min, b.Max)
}
