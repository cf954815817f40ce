package builder

import (
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/nav"
)

// File format constants
const (
	NavigationFileMagic   = 0x564E4156 // "VNAV"
	NavigationFileVersion = 1
)

// FileHeader is the snapshot file header
type FileHeader struct {
	Magic   uint32
	Version uint32
}

type compactLevel struct {
	Width  uint32
	Height uint32
}

// compactNode is the fixed-size part of a node record. Children are not
// stored, they are rebuilt from the parent references.
type compactNode struct {
	Level     uint8
	_         [3]byte
	Min       [3]int32
	Max       [3]int32
	Parent    int32
	LinkCount uint32
}

type compactLink struct {
	Target      int32
	Permissions uint8
	_           [3]byte
}

func toCompactNode(n *nav.Node) compactNode {
	return compactNode{
		Level:     n.Level,
		Min:       [3]int32{n.Bounds.Min.X, n.Bounds.Min.Y, n.Bounds.Min.Z},
		Max:       [3]int32{n.Bounds.Max.X, n.Bounds.Max.Y, n.Bounds.Max.Z},
		Parent:    int32(n.Parent),
		LinkCount: uint32(len(n.Siblings())),
	}
}

func (c compactNode) bounds() geometry.IntBox {
	return geometry.IntBox{
		Min: math32.Vector3i{X: c.Min[0], Y: c.Min[1], Z: c.Min[2]},
		Max: math32.Vector3i{X: c.Max[0], Y: c.Max[1], Z: c.Max[2]},
	}
}
