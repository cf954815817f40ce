package query

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/math32"
)

var (
	// ErrNilVolume is returned when a manager is created without a volume.
	ErrNilVolume = errors.New("navigation manager requires a volume")

	// ErrInvalidOptions is returned for options that break a contract.
	ErrInvalidOptions = errors.New("invalid navigation options")
)

// Volume is the voxel world a NavigationManager builds its graph from.
type Volume interface {
	builder.Volume
	IsValidCoordinate(coord math32.Vector3i) bool
	VoxelToWorld(coord math32.Vector3i) math32.Vector3
	WorldToVoxel(pos math32.Vector3) math32.Vector3i
}

// Options configures a NavigationManager.
type Options struct {
	Builder builder.Options
	// ProjectionCacheSize bounds the number of cached voxel to leaf lookups.
	ProjectionCacheSize int
	Logger              *slog.Logger
}

// DefaultOptions returns the default builder profile with a 4096 entry
// projection cache.
func DefaultOptions() Options {
	return Options{
		Builder:             builder.DefaultOptions(),
		ProjectionCacheSize: 4096,
	}
}

func (o Options) validate() error {
	if err := o.Builder.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if o.ProjectionCacheSize <= 0 {
		return fmt.Errorf("%w: projection cache size must be positive, got %d", ErrInvalidOptions, o.ProjectionCacheSize)
	}
	return nil
}
