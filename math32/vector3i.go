package math32

import "fmt"

// Vector3i is an integer voxel coordinate.
type Vector3i struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
	Z int32 `json:"z" yaml:"z"`
}

// CardinalXY lists the four horizontal neighbour offsets in a fixed order.
var CardinalXY = [4]Vector3i{
	{X: 1},
	{X: -1},
	{Y: 1},
	{Y: -1},
}

func (v Vector3i) Add(other Vector3i) Vector3i {
	return Vector3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vector3i) Sub(other Vector3i) Vector3i {
	return Vector3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vector3i) Max(other Vector3i) Vector3i {
	return Vector3i{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

func (v Vector3i) Min(other Vector3i) Vector3i {
	return Vector3i{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}

// ToVector3 converts the coordinate to float components.
func (v Vector3i) ToVector3() Vector3 {
	return Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// MaxPackedAxis bounds each component Pack keeps distinct: coordinates in
// [0, MaxPackedAxis) never collide.
const MaxPackedAxis = 1 << 21

// Pack folds the coordinate into a single key, 21 bits per axis.
func (v Vector3i) Pack() uint64 {
	const mask = MaxPackedAxis - 1
	return uint64(uint32(v.X)&mask)<<42 | uint64(uint32(v.Y)&mask)<<21 | uint64(uint32(v.Z)&mask)
}

func (v Vector3i) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}
