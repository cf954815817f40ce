package query

import (
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
)

// Waypoints converts a leaf path into world positions at the centers of the
// voxels the agent stands in. Interior points of straight runs on one height
// are dropped, so only turns and height changes remain.
func (m *NavigationManager) Waypoints(path []geometry.IntBox) []math32.Vector3 {
	if len(path) == 0 {
		return nil
	}

	points := make([]math32.Vector3, 0, len(path))
	points = append(points, m.volume.VoxelToWorld(path[0].Min))
	for i := 1; i < len(path)-1; i++ {
		if isStraight(path[i-1].Min, path[i].Min, path[i+1].Min) {
			continue
		}
		points = append(points, m.volume.VoxelToWorld(path[i].Min))
	}
	if len(path) > 1 {
		points = append(points, m.volume.VoxelToWorld(path[len(path)-1].Min))
	}
	return points
}

// isStraight reports whether b continues the step from a in the same
// direction without changing height.
func isStraight(a, b, c math32.Vector3i) bool {
	return b.Sub(a) == c.Sub(b) && a.Z == b.Z
}
