// Package builder turns a voxel volume into a hierarchical navigation graph.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/nav"
)

// Builder builds navigation graphs for one agent profile.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a builder, the options are validated here.
func NewBuilder(opts Options) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		opts:   opts,
		logger: opts.logger(),
	}, nil
}

// Options returns the builder options.
func (b *Builder) Options() Options {
	return b.opts
}

// Build creates a frozen graph from volume: one leaf per walkable voxel,
// sibling links between leaves, then up to Levels-1 clustered levels.
// The context is checked between columns and between levels.
func (b *Builder) Build(ctx context.Context, volume Volume) (g *nav.Graph, err error) {
	if volume == nil {
		return nil, fmt.Errorf("%w: nil volume", ErrInvalidOptions)
	}

	size := volume.WorldSize()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("%w: world size %s", ErrInvalidOptions, size)
	}

	ctx, span := startBuildSpan(ctx, b.opts, [3]int32{size.X, size.Y, size.Z})
	defer span.End()

	startTime := time.Now()
	defer func() {
		nodes, links := 0, 0
		if g != nil {
			nodes, links = g.NodeCount(), g.LinkCount()
		}
		recordBuildMetrics(ctx, time.Since(startTime), nodes, links, err == nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	graph := nav.NewGraph()

	levelStart := time.Now()
	if err := b.buildLevelZero(ctx, graph, volume); err != nil {
		return nil, err
	}
	if err := b.linkLevelZero(ctx, graph, volume); err != nil {
		return nil, err
	}
	b.logLevel(graph, 0, time.Since(levelStart))

	for l := 1; l < b.opts.Levels; l++ {
		prev := graph.TopLevel()
		if prev.Len() == 0 || (prev.Width == 1 && prev.Height == 1) {
			b.logger.Debug("hierarchy complete",
				slog.Int("levels", graph.Levels()),
				slog.Int("requested", b.opts.Levels))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		levelStart = time.Now()
		if err := b.buildLevel(ctx, graph, prev); err != nil {
			return nil, err
		}
		b.logLevel(graph, l, time.Since(levelStart))
	}

	graph.Freeze()
	setBuildSpanResult(span, graph.NodeCount(), graph.LinkCount(), graph.Levels())
	b.logger.Info("navigation graph built",
		slog.Int("nodes", graph.NodeCount()),
		slog.Int("links", graph.LinkCount()),
		slog.Int("levels", graph.Levels()),
		slog.Duration("took", time.Since(startTime)))

	return graph, nil
}

func (b *Builder) logLevel(graph *nav.Graph, level int, took time.Duration) {
	b.logger.Debug("navigation level built",
		slog.Int("level", level),
		slog.Int("nodes", graph.Level(level).Len()),
		slog.Int("links", graph.LevelLinkCount(level)),
		slog.Duration("took", took))
}

// buildLevelZero creates one leaf per walkable voxel. Columns are scanned
// top to bottom so each level 0 cell lists its leaves from highest to lowest,
// which linkToColumn depends on.
func (b *Builder) buildLevelZero(ctx context.Context, graph *nav.Graph, volume Volume) error {
	_, span := startLevelSpan(ctx, 0)
	defer span.End()

	size := volume.WorldSize()
	if _, err := graph.AddLevel(int(size.X), int(size.Y)); err != nil {
		return err
	}

	for y := int32(0); y < size.Y; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := int32(0); x < size.X; x++ {
			for z := size.Z - 1; z >= 0; z-- {
				coord := math32.Vector3i{X: x, Y: y, Z: z}
				if !volume.Walkable(coord, b.opts.AgentHeight) {
					continue
				}
				if _, err := graph.AddNode(0, geometry.VoxelBox(coord)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// linkLevelZero links every leaf to the leaves of its four neighbour columns.
func (b *Builder) linkLevelZero(ctx context.Context, graph *nav.Graph, volume Volume) error {
	level := graph.Level(0)
	for y := 0; y < level.Height; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < level.Width; x++ {
			for _, id := range level.Cell(x, y) {
				z := graph.Node(id).Bounds.Min.Z
				for _, d := range math32.CardinalXY {
					nx, ny := int32(x)+d.X, int32(y)+d.Y
					column := level.Cell(int(nx), int(ny))
					passable := func(lo, hi int32) bool { return spanClear(volume, nx, ny, lo, hi) }
					if err := b.linkToColumn(graph, id, z, column, passable); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// linkToColumn links the leaf from, standing at height z, to the reachable
// leaves of a neighbour column. column must be ordered top to bottom.
//
// Every leaf seen in the column rests on a solid voxel just below it, which
// bounds the head room of anything lower. A drop is allowed only if the
// nearest such surface above the target leaves agentHeight voxels of room
// starting at z, and passable reports the column empty from just above the
// target up to the top of the agent at z. The leaves alone miss thick
// overhangs and walls with no leaf on top.
func (b *Builder) linkToColumn(graph *nav.Graph, from nav.NodeID, z int32, column []nav.NodeID, passable func(lo, hi int32) bool) error {
	minZ := z - b.opts.MaxFallHeight
	maxZ := z + b.opts.MaxJumpHeight
	obstruction := int32(math.MaxInt32)

	for _, id := range column {
		nz := graph.Node(id).Bounds.Min.Z
		if nz < minZ {
			break
		}
		if nz <= maxZ {
			var perms nav.LinkPermissions
			switch {
			case nz == z:
				perms = nav.LinkNone
			case nz > z:
				perms = nav.LinkJumpUp
			case int64(obstruction)-int64(z) >= int64(b.opts.AgentHeight) &&
				passable(nz+b.opts.AgentHeight, z+b.opts.AgentHeight-1):
				perms = nav.LinkJumpDown
			}
			if perms != 0 {
				if err := graph.LinkSibling(from, id, perms); err != nil {
					return err
				}
			}
		}
		obstruction = nz - 1
	}
	return nil
}

// spanClear reports whether no voxel of column (x, y) in [lo, hi] is solid.
func spanClear(volume Volume, x, y, lo, hi int32) bool {
	for z := lo; z <= hi; z++ {
		if volume.IsSolid(math32.Vector3i{X: x, Y: y, Z: z}) {
			return false
		}
	}
	return true
}

// buildLevel clusters the nodes of prev in 2x2 blocks of cells. Each
// strongly connected component of a block becomes one node of the new level,
// then the children's links are lifted to their parents.
func (b *Builder) buildLevel(ctx context.Context, graph *nav.Graph, prev *nav.LevelGrid) error {
	_, span := startLevelSpan(ctx, int(prev.Level)+1)
	defer span.End()

	level, err := graph.AddLevel(math32.CeilDiv(prev.Width, 2), math32.CeilDiv(prev.Height, 2))
	if err != nil {
		return err
	}

	partitioner := nav.NewPartitioner(graph)
	var members []nav.NodeID
	for y := 0; y < level.Height; y++ {
		for x := 0; x < level.Width; x++ {
			members = members[:0]
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					members = append(members, prev.Cell(2*x+dx, 2*y+dy)...)
				}
			}
			if len(members) == 0 {
				continue
			}

			for _, component := range partitioner.Components(members) {
				bounds := graph.Node(component[0]).Bounds
				for _, id := range component[1:] {
					bounds = bounds.Union(graph.Node(id).Bounds)
				}

				parent, err := graph.AddNode(level.Level, bounds)
				if err != nil {
					return err
				}
				for _, id := range component {
					if err := graph.SetParent(id, parent); err != nil {
						return err
					}
				}
			}
		}
	}

	for _, id := range level.Nodes() {
		for _, child := range graph.Node(id).Children {
			for _, link := range graph.Node(child).Siblings() {
				target := graph.Node(link.Target).Parent
				if target == id || target == nav.NoNode {
					continue
				}
				if err := graph.LinkSibling(id, target, link.Permissions); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
