package builder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/o0olele/voxnav-go/math32"
)

// ErrInvalidOptions is returned when builder options break a contract.
var ErrInvalidOptions = errors.New("invalid builder options")

// Volume is the part of the voxel world the builder reads.
type Volume interface {
	// Walkable reports whether an agent of agentHeight voxels can stand in coord.
	Walkable(coord math32.Vector3i, agentHeight int32) bool
	// WorldSize returns the voxel extents of the world.
	WorldSize() math32.Vector3i
	// IsSolid reports whether coord is solid. Coordinates outside the world
	// are not.
	IsSolid(coord math32.Vector3i) bool
}

// Options describes the agent profile and hierarchy depth of a build.
type Options struct {
	// Levels is the number of hierarchy levels including level 0.
	Levels int
	// MaxJumpHeight is how many voxels an agent can climb in one step.
	MaxJumpHeight int32
	// MaxFallHeight is how many voxels an agent can drop in one step.
	MaxFallHeight int32
	// AgentHeight is the agent's height in voxels.
	AgentHeight int32

	Logger *slog.Logger
}

// DefaultOptions returns options for a two voxel tall agent that can climb
// one voxel and drop two.
func DefaultOptions() Options {
	return Options{
		Levels:        4,
		MaxJumpHeight: 1,
		MaxFallHeight: 2,
		AgentHeight:   2,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	switch {
	case o.Levels < 1:
		return fmt.Errorf("%w: levels must be at least 1, got %d", ErrInvalidOptions, o.Levels)
	case o.Levels > 32:
		return fmt.Errorf("%w: levels must be at most 32, got %d", ErrInvalidOptions, o.Levels)
	case o.AgentHeight < 1:
		return fmt.Errorf("%w: agent height must be positive, got %d", ErrInvalidOptions, o.AgentHeight)
	case o.MaxJumpHeight < 0:
		return fmt.Errorf("%w: max jump height must not be negative, got %d", ErrInvalidOptions, o.MaxJumpHeight)
	case o.MaxFallHeight < 0:
		return fmt.Errorf("%w: max fall height must not be negative, got %d", ErrInvalidOptions, o.MaxFallHeight)
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
