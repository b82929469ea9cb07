// Package server implements the interactive HTTP surface: scene state,
// drag handling, SVG export, and websocket change notifications.
//
// The server owns one scene at a time. Loading a new table replaces the
// whole scene; a load that fails validation leaves the previous scene in
// place. Drag operations mutate node positions and reroute only the
// connectors touching the moved node.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/equipviz/rotorline/pkg/errors"
	"github.com/equipviz/rotorline/pkg/layout"
	"github.com/equipviz/rotorline/pkg/render/sink"
	"github.com/equipviz/rotorline/pkg/scene"
	"github.com/equipviz/rotorline/pkg/table"
	"github.com/equipviz/rotorline/pkg/timeline"
)

// Server holds the current scene and serves the interactive API.
type Server struct {
	cfg    layout.Config
	logger *log.Logger
	hub    *Hub

	mu      sync.RWMutex
	scene   *scene.Scene
	records []timeline.Record
	span    timeline.Span
}

// New creates a server with an empty scene.
func New(cfg layout.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		hub:    newHub(logger),
	}
}

// SetScene installs a scene directly, bypassing table loading. Used when
// the CLI pre-builds the scene before serving it.
func (s *Server) SetScene(sc *scene.Scene, records []timeline.Record, span timeline.Span) {
	s.mu.Lock()
	s.scene = sc
	s.records = records
	s.span = span
	s.mu.Unlock()
	s.hub.Broadcast(Event{Type: EventSceneLoaded})
}

// Handler returns the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/scene", s.handleScene)
	r.Post("/api/scene/load", s.handleLoad)
	r.Post("/api/nodes/{id}/drag", s.handleDrag)
	r.Get("/api/export.svg", s.handleExport)
	r.Get("/api/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)

	return r
}

// Close disconnects all websocket clients.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScene returns the current scene in interchange form.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sc, span := s.scene, s.span
	s.mu.RUnlock()

	if sc == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no scene loaded"))
		return
	}

	data, err := sink.RenderJSON(sc, sink.WithJSONSpan(span), sink.WithJSONConfig(s.cfg))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "serialize scene"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleLoad replaces the scene from a decoded workbook table in the
// request body. The previous scene stays in place unless every step
// succeeds. Optional first_year/last_year query parameters pin the span.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	tbl, err := table.ReadJSON(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := timeline.Project(tbl)
	if err != nil {
		writeError(w, err)
		return
	}

	span, err := s.requestSpan(r, records)
	if err != nil {
		writeError(w, err)
		return
	}
	sc := layout.Compose(records, span, s.cfg)

	s.mu.Lock()
	s.scene = sc
	s.records = records
	s.span = span
	s.mu.Unlock()

	s.logger.Info("scene loaded",
		"records", len(records),
		"nodes", len(sc.Nodes),
		"edges", len(sc.Edges))
	s.hub.Broadcast(Event{Type: EventSceneLoaded})

	s.handleScene(w, r)
}

func (s *Server) requestSpan(r *http.Request, records []timeline.Record) (timeline.Span, error) {
	q := r.URL.Query()
	firstStr, lastStr := q.Get("first_year"), q.Get("last_year")
	if firstStr == "" && lastStr == "" {
		return timeline.ResolveSpan(records, time.Now()), nil
	}

	first, err := strconv.Atoi(firstStr)
	if err != nil {
		return timeline.Span{}, errors.New(errors.ErrCodeInvalidInput, "invalid first_year %q", firstStr)
	}
	last, err := strconv.Atoi(lastStr)
	if err != nil {
		return timeline.Span{}, errors.New(errors.ErrCodeInvalidInput, "invalid last_year %q", lastStr)
	}
	if last < first {
		return timeline.Span{}, errors.New(errors.ErrCodeInvalidInput,
			"last year %d precedes first year %d", last, first)
	}
	return timeline.Span{First: first, Last: last}, nil
}

// dragRequest is one drag gesture applied to a node: a pixel delta from
// the node's current position.
type dragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// dragResponse reports the node's new position and the connectors that
// were rerouted because they touch it.
type dragResponse struct {
	Node     scene.Node   `json:"node"`
	Rerouted []scene.Edge `json:"rerouted"`
}

// handleDrag moves one node and reroutes its connectors.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode drag request"))
		return
	}

	s.mu.Lock()
	if s.scene == nil {
		s.mu.Unlock()
		writeError(w, errors.New(errors.ErrCodeNotFound, "no scene loaded"))
		return
	}
	reroutedIDs, ok := s.scene.MoveNode(id, req.DX, req.DY, s.cfg.Snap())
	if !ok {
		s.mu.Unlock()
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "unknown node %q", id))
		return
	}

	resp := dragResponse{Rerouted: make([]scene.Edge, 0, len(reroutedIDs))}
	if n, found := s.scene.Node(id); found {
		resp.Node = *n
	}
	for _, edgeID := range reroutedIDs {
		if e, found := s.scene.EdgeByID(edgeID); found {
			resp.Rerouted = append(resp.Rerouted, *e)
		}
	}
	s.mu.Unlock()

	s.hub.Broadcast(Event{Type: EventNodeMoved, Payload: resp})
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams the scene as a downloadable SVG document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sc := s.scene
	s.mu.RUnlock()

	if sc == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no scene loaded"))
		return
	}

	w.Header().Set("Content-Type", sink.ExportMIMEType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+sink.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sink.RenderSVG(sc))
}

// handleWS upgrades the connection and keeps it registered until the
// client goes away. Pushes are one-directional; inbound messages are
// read only to detect disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := sceneUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	id := s.hub.Add(conn)
	defer s.hub.Remove(id)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorResponse{Error: err.Error(), Code: code})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig,
		errors.ErrCodeMalformedInput, errors.ErrCodeUnreadableSource:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
