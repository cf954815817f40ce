package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/query"
	"github.com/o0olele/voxnav-go/voxel"
)

func newTestServer(t *testing.T) (*Server, *voxel.Grid) {
	t.Helper()

	grid, err := voxel.NewGrid(math32.Vector3i{X: 3, Y: 3, Z: 2}, 1, math32.Vector3{})
	require.NoError(t, err)
	grid.FillBox(geometry.IntBox{Max: math32.Vector3i{X: 2, Y: 2}}, true)
	grid.SetSolid(math32.Vector3i{X: 1, Y: 1}, false)

	opts := query.DefaultOptions()
	opts.Builder = builder.Options{Levels: 3, MaxJumpHeight: 1, MaxFallHeight: 1, AgentHeight: 2}
	m, err := query.NewNavigationManager(grid, opts)
	require.NoError(t, err)

	return New(m, grid, nil), grid
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestServer_Flow(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/pathfind", PathRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code, "no graph yet")

	rec = do(t, s, http.MethodPost, "/api/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	gen := decode[struct {
		Status string      `json:"status"`
		Stats  query.Stats `json:"stats"`
	}](t, rec)
	assert.Equal(t, "generated", gen.Status)
	assert.Equal(t, 9, gen.Stats.Levels[0].Nodes)

	platform := math32.Vector3{X: 1.5, Y: 0.5, Z: 1.5}
	pit := math32.Vector3{X: 1.5, Y: 1.5, Z: 0.5}

	t.Run("pathfind with jump down", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/pathfind?debug=true", PathRequest{
			Start: platform, End: pit, Permissions: []string{"jumpdown"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[PathResponse](t, rec)
		assert.True(t, resp.Found)
		assert.Equal(t, 2, resp.Length)
		assert.Len(t, resp.Waypoints, 2)
		assert.NotEmpty(t, resp.Visited)
	})

	t.Run("pathfind flat only", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/pathfind", PathRequest{
			Start: platform, End: pit, Permissions: []string{"none"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[PathResponse](t, rec)
		assert.False(t, resp.Found)
		assert.Zero(t, resp.Length)
	})

	t.Run("pathexists", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/pathexists", PathRequest{
			Start: platform, End: pit, Permissions: []string{"all"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[map[string]bool](t, rec)["exists"])
	})

	t.Run("unknown permission", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/pathfind", PathRequest{Permissions: []string{"fly"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("project", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/project?x=1.5&y=1.5&z=1.2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[struct {
			Found  bool            `json:"found"`
			Bounds geometry.IntBox `json:"bounds"`
		}](t, rec)
		assert.True(t, resp.Found)
		assert.Equal(t, geometry.VoxelBox(math32.Vector3i{X: 1, Y: 1}), resp.Bounds)

		rec = do(t, s, http.MethodGet, "/api/project?x=abc&y=0&z=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("snapshot", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/snapshot", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		graph, err := builder.Load(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, 9, graph.Level(0).Len())
	})
}

func TestServer_VoxelEdit(t *testing.T) {
	s, grid := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/generate", nil).Code)

	rec := do(t, s, http.MethodPost, "/api/voxel", VoxelRequest{Coord: math32.Vector3i{X: 1, Y: 1}, Solid: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["stale"])
	assert.True(t, grid.IsSolid(math32.Vector3i{X: 1, Y: 1}))

	rec = do(t, s, http.MethodPost, "/api/voxel", VoxelRequest{Coord: math32.Vector3i{X: 7}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[query.Stats](t, rec).Stale)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/generate", nil).Code)
	stats := decode[query.Stats](t, do(t, s, http.MethodGet, "/api/stats", nil))
	assert.False(t, stats.Stale)
	assert.Equal(t, 9, stats.Levels[0].Nodes, "the filled pit is walkable on top")
}

func TestServer_Ambient(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/generate", nil).Code)
	rec = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "voxnav_navigation_generate_duration_seconds"))

	req := httptest.NewRequest(http.MethodOptions, "/api/pathfind", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_NoEditor(t *testing.T) {
	s, _ := newTestServer(t)
	s.editor = nil
	rec := do(t, s, http.MethodPost, "/api/voxel", VoxelRequest{})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestServer_ProjectDuringRegeneration(t *testing.T) {
	grid, err := voxel.NewGrid(math32.Vector3i{X: 16, Y: 16, Z: 3}, 1, math32.Vector3{})
	require.NoError(t, err)
	grid.FillBox(geometry.IntBox{Max: math32.Vector3i{X: 15, Y: 15}}, true)

	opts := query.DefaultOptions()
	opts.Builder = builder.Options{Levels: 3, MaxJumpHeight: 1, MaxFallHeight: 1, AgentHeight: 2}
	m, err := query.NewNavigationManager(grid, opts)
	require.NoError(t, err)
	require.NoError(t, m.Generate(context.Background()))
	s := New(m, grid, nil)

	// Filling row 0 to the world top removes its leaves and shifts every later node id.
	strip := geometry.IntBox{Min: math32.Vector3i{Z: 1}, Max: math32.Vector3i{X: 15, Z: 2}}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		solid := true
		for {
			select {
			case <-done:
				return
			default:
			}
			m.UpdateVolume(func() { grid.FillBox(strip, solid) })
			if err := m.Generate(context.Background()); err != nil {
				t.Error(err)
				return
			}
			solid = !solid
		}
	}()

	for i := 0; i < 2000; i++ {
		rec := do(t, s, http.MethodGet, "/api/project?x=15.5&y=15.5&z=1.5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[struct {
			Found  bool            `json:"found"`
			Bounds geometry.IntBox `json:"bounds"`
		}](t, rec)
		require.True(t, resp.Found)
		require.Equal(t, math32.Vector3i{X: 15, Y: 15, Z: 1}, resp.Bounds.Min)
	}
	close(done)
	wg.Wait()
}
