// Package server exposes a NavigationManager over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/nav"
	"github.com/o0olele/voxnav-go/query"
)

// VoxelEditor changes single voxels of the world behind a manager.
type VoxelEditor interface {
	SetSolid(coord math32.Vector3i, solid bool) bool
}

// Server serves the navigation API.
type Server struct {
	manager *query.NavigationManager
	editor  VoxelEditor
	logger  *slog.Logger
	router  *mux.Router
}

// New creates a server for manager. editor may be nil, in which case voxel
// edits are rejected.
func New(manager *query.NavigationManager, editor VoxelEditor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		manager: manager,
		editor:  editor,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate", s.generateHandler).Methods("POST")
	api.HandleFunc("/pathfind", s.findPathHandler).Methods("POST")
	api.HandleFunc("/pathexists", s.pathExistsHandler).Methods("POST")
	api.HandleFunc("/project", s.projectHandler).Methods("GET")
	api.HandleFunc("/voxel", s.voxelHandler).Methods("POST")
	api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	api.HandleFunc("/snapshot", s.snapshotHandler).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// PathRequest is the body of /api/pathfind and /api/pathexists.
type PathRequest struct {
	Start       math32.Vector3 `json:"start"`
	End         math32.Vector3 `json:"end"`
	Permissions []string       `json:"permissions"`
}

// PathResponse is the body returned by /api/pathfind.
type PathResponse struct {
	Path      []geometry.IntBox `json:"path"`
	Waypoints []math32.Vector3  `json:"waypoints"`
	Found     bool              `json:"found"`
	Length    int               `json:"length"`
	Cost      float32           `json:"cost"`
	Visited   []nav.NodeID      `json:"visited,omitempty"`
}

// VoxelRequest is the body of /api/voxel.
type VoxelRequest struct {
	Coord math32.Vector3i `json:"coord"`
	Solid bool            `json:"solid"`
}

func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		done := s.manager.GenerateAsync(context.WithoutCancel(r.Context()))
		go func() {
			if err := <-done; err != nil {
				s.logger.Error("async generation failed", slog.String("error", err.Error()))
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
		return
	}

	if err := s.manager.Generate(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "generated",
		"stats":  s.manager.Stats(),
	})
}

func (s *Server) decodePathRequest(w http.ResponseWriter, r *http.Request) (PathRequest, nav.LinkPermissions, bool) {
	var req PathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return req, 0, false
	}
	allowed, err := nav.ParsePermissions(req.Permissions...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, 0, false
	}
	if s.manager.Graph() == nil {
		writeError(w, http.StatusConflict, "navigation graph not generated")
		return req, 0, false
	}
	return req, allowed, true
}

func (s *Server) findPathHandler(w http.ResponseWriter, r *http.Request) {
	req, allowed, ok := s.decodePathRequest(w, r)
	if !ok {
		return
	}

	result := s.manager.FindPathDebug(req.Start, req.End, allowed)
	resp := PathResponse{
		Path:      result.Path,
		Waypoints: s.manager.Waypoints(result.Path),
		Found:     result.Found,
		Length:    len(result.Path),
		Cost:      result.Cost,
	}
	if r.URL.Query().Get("debug") == "true" {
		resp.Visited = result.Visited
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pathExistsHandler(w http.ResponseWriter, r *http.Request) {
	req, allowed, ok := s.decodePathRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"exists": s.manager.PathExists(req.Start, req.End, allowed),
	})
}

func (s *Server) projectHandler(w http.ResponseWriter, r *http.Request) {
	var pos [3]float32
	for i, key := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(key), 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		pos[i] = float32(v)
	}

	id, bounds, found := s.manager.ProjectBounds(math32.Vector3{X: pos[0], Y: pos[1], Z: pos[2]})
	resp := map[string]any{"found": found}
	if found {
		resp["node"] = id
		resp["bounds"] = bounds
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) voxelHandler(w http.ResponseWriter, r *http.Request) {
	if s.editor == nil {
		writeError(w, http.StatusNotImplemented, "voxel editing is not available")
		return
	}

	var req VoxelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var updated bool
	s.manager.UpdateVolume(func() {
		updated = s.editor.SetSolid(req.Coord, req.Solid)
	}, req.Coord)
	if !updated {
		writeError(w, http.StatusBadRequest, "coordinate outside the world")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stale": s.manager.Stale()})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Stats())
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	graph := s.manager.Graph()
	if graph == nil {
		writeError(w, http.StatusConflict, "navigation graph not generated")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="navgraph.vnav"`)
	if err := builder.Save(w, graph); err != nil {
		s.logger.Error("failed to write snapshot", slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
