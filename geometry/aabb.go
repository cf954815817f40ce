package geometry

import (
	"fmt"

	"github.com/o0olele/voxnav-go/math32"
)

// AABB is a world-space box. Min is inclusive, Max exclusive, so adjacent
// voxel boxes never share a point.
type AABB struct {
	Min math32.Vector3 `json:"min"`
	Max math32.Vector3 `json:"max"`
}

// Contains reports whether point lies inside the box.
func (b AABB) Contains(point math32.Vector3) bool {
	return point.X >= b.Min.X && point.X < b.Max.X &&
		point.Y >= b.Min.Y && point.Y < b.Max.Y &&
		point.Z >= b.Min.Z && point.Z < b.Max.Z
}

func (b AABB) Center() math32.Vector3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b AABB) Size() math32.Vector3 {
	return b.Max.Sub(b.Min)
}

func (b AABB) String() string {
	return fmt.Sprintf("%s-%s", b.Min, b.Max)
}
