// Package query answers navigation queries over a voxel volume.
//
// A NavigationManager owns the current navigation graph of one volume. It
// rebuilds the graph on request and answers projection, reachability and
// path queries against it. Queries may run concurrently with each other and
// with a rebuild; the new graph replaces the old one only once it is
// complete, and no query observes the swap half way.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/nav"
)

// NavigationManager owns the navigation graph of one volume.
type NavigationManager struct {
	volume  Volume
	builder *builder.Builder
	opts    Options
	logger  *slog.Logger

	// volumeMu serializes reads of the volume during a build with writes
	// made through UpdateVolume.
	volumeMu sync.Mutex

	mu          sync.RWMutex
	graph       *nav.Graph
	generation  uint64
	projections *math32.Cache[uint64, nav.NodeID]

	stale atomic.Bool
	group singleflight.Group
}

// NewNavigationManager creates a manager for volume. No graph exists until
// Generate or Install is called.
func NewNavigationManager(volume Volume, opts Options) (*NavigationManager, error) {
	if volume == nil {
		return nil, ErrNilVolume
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Builder.Logger == nil {
		opts.Builder.Logger = logger
	}

	b, err := builder.NewBuilder(opts.Builder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return &NavigationManager{
		volume:      volume,
		builder:     b,
		opts:        opts,
		logger:      logger,
		projections: math32.NewCache[uint64, nav.NodeID](opts.ProjectionCacheSize),
	}, nil
}

// Generate rebuilds the whole graph from the current volume and replaces the
// previous graph. On error the previous graph stays in place.
func (m *NavigationManager) Generate(ctx context.Context) error {
	m.volumeMu.Lock()
	defer m.volumeMu.Unlock()

	start := time.Now()
	graph, err := m.builder.Build(ctx, m.volume)
	if err != nil {
		generateDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		m.logger.Error("navigation graph generation failed", slog.String("error", err.Error()))
		return fmt.Errorf("generate navigation graph: %w", err)
	}
	generateDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	m.install(graph)
	return nil
}

// GenerateAsync starts a rebuild in the background and returns a channel
// that receives its result and is then closed. Requests made while a
// rebuild is running share that rebuild and its context.
func (m *NavigationManager) GenerateAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err, _ := m.group.Do("generate", func() (any, error) {
			return nil, m.Generate(ctx)
		})
		done <- err
	}()
	return done
}

// Install replaces the current graph with a prebuilt one, for example a
// snapshot read with builder.Load. The graph must be frozen and its level 0
// grid must match the volume.
func (m *NavigationManager) Install(graph *nav.Graph) error {
	if graph == nil || !graph.IsFrozen() || graph.Levels() == 0 {
		return fmt.Errorf("%w: graph must be built and frozen", ErrInvalidOptions)
	}
	size := m.volume.WorldSize()
	if l0 := graph.Level(0); l0.Width != int(size.X) || l0.Height != int(size.Y) {
		return fmt.Errorf("%w: graph grid %dx%d does not match world %s", ErrInvalidOptions, l0.Width, l0.Height, size)
	}

	m.volumeMu.Lock()
	defer m.volumeMu.Unlock()
	m.install(graph)
	return nil
}

// install swaps in graph. Callers hold volumeMu.
func (m *NavigationManager) install(graph *nav.Graph) {
	m.mu.Lock()
	m.graph = graph
	m.generation++
	m.projections.Clear()
	m.stale.Store(false)
	generation := m.generation
	m.mu.Unlock()

	graphNodes.Reset()
	for l := 0; l < graph.Levels(); l++ {
		graphNodes.WithLabelValues(strconv.Itoa(l)).Set(float64(graph.Level(l).Len()))
	}
	m.logger.Info("navigation graph installed",
		slog.Uint64("generation", generation),
		slog.Int("nodes", graph.NodeCount()),
		slog.Int("levels", graph.Levels()))
}

// UpdateVolume runs fn with exclusive access to the volume, then reports each
// changed coordinate to OnVoxelChanged.
func (m *NavigationManager) UpdateVolume(fn func(), changed ...math32.Vector3i) {
	m.volumeMu.Lock()
	fn()
	m.volumeMu.Unlock()

	for _, coord := range changed {
		m.OnVoxelChanged(coord)
	}
}

// OnVoxelChanged records that a voxel was edited. The graph is not repaired;
// it is flagged stale until the next Generate.
func (m *NavigationManager) OnVoxelChanged(coord math32.Vector3i) {
	if !m.volume.IsValidCoordinate(coord) {
		return
	}
	voxelChanges.Inc()
	if !m.stale.Swap(true) {
		m.logger.Debug("navigation graph is stale", slog.String("voxel", coord.String()))
	}
}

// Stale reports whether a voxel changed since the current graph was built.
func (m *NavigationManager) Stale() bool {
	return m.stale.Load()
}

// Graph returns the current graph, nil before the first generation. The
// returned graph is frozen and stays valid after a regeneration, it is just
// no longer current.
func (m *NavigationManager) Graph() *nav.Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph
}

// ProjectOntoNode maps a world position to the leaf whose column and agent
// span contain it.
func (m *NavigationManager) ProjectOntoNode(pos math32.Vector3) (nav.NodeID, bool) {
	return m.ProjectVoxel(m.volume.WorldToVoxel(pos))
}

// ProjectVoxel maps a voxel coordinate to a leaf: the leaf standing in that
// voxel, otherwise the highest leaf of the column whose agent span
// [z, z+agentHeight) contains the voxel.
func (m *NavigationManager) ProjectVoxel(coord math32.Vector3i) (nav.NodeID, bool) {
	start := time.Now()
	defer func() { queryDuration.WithLabelValues("project").Observe(time.Since(start).Seconds()) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.project(coord)
	countQuery("project", m.graph != nil, ok)
	return id, ok
}

// ProjectBounds is ProjectOntoNode that also returns the leaf's voxel
// bounds. The id and the bounds come from the same graph generation.
func (m *NavigationManager) ProjectBounds(pos math32.Vector3) (nav.NodeID, geometry.IntBox, bool) {
	start := time.Now()
	defer func() { queryDuration.WithLabelValues("project").Observe(time.Since(start).Seconds()) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.project(m.volume.WorldToVoxel(pos))
	countQuery("project", m.graph != nil, ok)
	if !ok {
		return nav.NoNode, geometry.IntBox{}, false
	}
	return id, m.graph.Node(id).Bounds, true
}

// project resolves coord against the current graph. Callers hold mu.
func (m *NavigationManager) project(coord math32.Vector3i) (nav.NodeID, bool) {
	if m.graph == nil || !m.volume.IsValidCoordinate(coord) {
		return nav.NoNode, false
	}

	key := coord.Pack()
	if id, ok := m.projections.Get(key); ok {
		return id, id != nav.NoNode
	}

	id := nav.NoNode
	for _, leaf := range m.graph.Level(0).Cell(int(coord.X), int(coord.Y)) {
		z := m.graph.Node(leaf).Bounds.Min.Z
		if z > coord.Z {
			continue
		}
		if coord.Z < z+m.opts.Builder.AgentHeight {
			id = leaf
		}
		break
	}

	m.projections.Put(key, id)
	return id, id != nav.NoNode
}

// PathExists is a coarse reachability check. It climbs the parent chains of
// both projected leaves looking for a common ancestor. When the chains end
// in different top level nodes, a search over the top level links that the
// allowed permissions admit decides.
//
// A missing common ancestor is therefore not reported as false on its own;
// this keeps PathExists true whenever FindPath finds a path.
func (m *NavigationManager) PathExists(from, to math32.Vector3, allowed nav.LinkPermissions) bool {
	start := time.Now()
	defer func() { queryDuration.WithLabelValues("path_exists").Observe(time.Since(start).Seconds()) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	a, okA := m.project(m.volume.WorldToVoxel(from))
	b, okB := m.project(m.volume.WorldToVoxel(to))
	if !okA || !okB {
		countQuery("path_exists", m.graph != nil, false)
		return false
	}

	exists := m.connected(a, b, allowed)
	countQuery("path_exists", true, exists)
	return exists
}

func (m *NavigationManager) connected(a, b nav.NodeID, allowed nav.LinkPermissions) bool {
	chainA := m.graph.Ancestors(a)
	chainB := m.graph.Ancestors(b)
	for i := 0; i < len(chainA) && i < len(chainB); i++ {
		if chainA[i] == chainB[i] {
			return true
		}
	}

	topA, topB := chainA[len(chainA)-1], chainB[len(chainB)-1]
	astar := nav.NewAStar(m.graph, nav.AStarFuncs{
		Traversable: nav.PermissionFilter(m.graph, allowed),
	})
	defer astar.Release()
	return astar.FindPath(topA, topB) != nil
}

// PathResult is a leaf path with the search trace that produced it.
type PathResult struct {
	Found   bool              `json:"found"`
	Path    []geometry.IntBox `json:"path"`
	Nodes   []nav.NodeID      `json:"nodes"`
	Visited []nav.NodeID      `json:"visited"`
	Cost    float32           `json:"cost"`
}

// FindPath returns the bounds of the leaves on a path between the projected
// endpoints, start and goal included, or nil when there is none.
func (m *NavigationManager) FindPath(from, to math32.Vector3, allowed nav.LinkPermissions) []geometry.IntBox {
	return m.findPath(from, to, allowed, false).Path
}

// FindPathDebug is FindPath that also reports the leaf ids, the order in
// which leaves were expanded and the path cost.
func (m *NavigationManager) FindPathDebug(from, to math32.Vector3, allowed nav.LinkPermissions) PathResult {
	return m.findPath(from, to, allowed, true)
}

func (m *NavigationManager) findPath(from, to math32.Vector3, allowed nav.LinkPermissions, trace bool) PathResult {
	start := time.Now()
	defer func() { queryDuration.WithLabelValues("find_path").Observe(time.Since(start).Seconds()) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result PathResult
	a, okA := m.project(m.volume.WorldToVoxel(from))
	b, okB := m.project(m.volume.WorldToVoxel(to))
	if !okA || !okB {
		countQuery("find_path", m.graph != nil, false)
		return result
	}

	funcs := nav.AStarFuncs{
		Distance:    nav.ManhattanDistance(m.graph),
		Heuristic:   nav.EuclideanHeuristic(m.graph),
		Traversable: nav.PermissionFilter(m.graph, allowed),
	}
	if trace {
		funcs.Visit = func(id nav.NodeID, popped bool) {
			if popped {
				result.Visited = append(result.Visited, id)
			}
		}
	}

	astar := nav.NewAStar(m.graph, funcs)
	defer astar.Release()

	nodes := astar.FindPath(a, b)
	countQuery("find_path", true, nodes != nil)
	if nodes == nil {
		return result
	}

	result.Found = true
	result.Nodes = nodes
	result.Path = make([]geometry.IntBox, len(nodes))
	for i, id := range nodes {
		result.Path[i] = m.graph.Node(id).Bounds
	}
	result.Cost = nav.PathCost(m.graph, nodes, funcs.Distance)
	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		m.logger.Debug("path found",
			slog.Int("length", len(nodes)),
			slog.Int("touched", astar.Touched()),
			slog.Duration("took", time.Since(start)))
	}
	return result
}

func countQuery(query string, hasGraph, found bool) {
	result := "not_found"
	switch {
	case !hasGraph:
		result = "no_graph"
	case found:
		result = "found"
	}
	queriesTotal.WithLabelValues(query, result).Inc()
}

// LevelStats describes one level of the graph.
type LevelStats struct {
	Level  int `json:"level"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Nodes  int `json:"nodes"`
	Links  int `json:"links"`
}

// Stats describes the current graph.
type Stats struct {
	Generation      uint64            `json:"generation"`
	Stale           bool              `json:"stale"`
	Nodes           int               `json:"nodes"`
	Links           int               `json:"links"`
	Levels          []LevelStats      `json:"levels"`
	ProjectionCache math32.CacheStats `json:"projection_cache"`
}

// Stats returns counts for the current graph, zero values before the first
// generation.
func (m *NavigationManager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Generation:      m.generation,
		Stale:           m.stale.Load(),
		ProjectionCache: m.projections.Stats(),
	}
	if m.graph == nil {
		return stats
	}

	stats.Nodes = m.graph.NodeCount()
	stats.Links = m.graph.LinkCount()
	for l := 0; l < m.graph.Levels(); l++ {
		level := m.graph.Level(l)
		stats.Levels = append(stats.Levels, LevelStats{
			Level:  l,
			Width:  level.Width,
			Height: level.Height,
			Nodes:  level.Len(),
			Links:  m.graph.LevelLinkCount(l),
		})
	}
	return stats
}
