package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/sokoban/game/database"
	"github.com/wricardo/sokoban/game/grid"
	"github.com/wricardo/sokoban/game/level"
	"github.com/wricardo/sokoban/game/motion"
	"github.com/wricardo/sokoban/game/scene"
	"github.com/wricardo/sokoban/game/service"
	"github.com/wricardo/sokoban/game/session"
	"github.com/wricardo/sokoban/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.LevelService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(levelService service.LevelService, hub *websocket.Hub) *Server {
	s := &Server{
		service: levelService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Levels ("first" must be registered before {index})
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels/first", s.handleFirstLevel).Methods("GET")
	api.HandleFunc("/levels/{index:[0-9]+}", s.handleGetLevel).Methods("GET")

	// Replay
	api.HandleFunc("/replay", s.handleReplay).Methods("POST")

	// Scenes
	api.HandleFunc("/scenes", s.handleCreateScene).Methods("POST")
	api.HandleFunc("/scenes", s.handleListScenes).Methods("GET")
	api.HandleFunc("/scenes/{id}", s.handleGetScene).Methods("GET")
	api.HandleFunc("/scenes/{id}", s.handleDeleteScene).Methods("DELETE")
	api.HandleFunc("/scenes/{id}/entities/{entity:[0-9]+}/position", s.handleMoveEntity).Methods("POST")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrLevelNotFound),
		errors.Is(err, database.ErrEmptyDatabase),
		errors.Is(err, service.ErrSceneNotFound),
		errors.Is(err, scene.ErrEntityNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSessionLimit):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, level.ErrInvalidAction),
		errors.Is(err, grid.ErrOutOfBounds):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"count":  len(levels),
	})
}

func (s *Server) handleFirstLevel(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.FirstLevel(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid level index")
		return
	}

	detail, err := s.service.GetLevel(r.Context(), index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// Replay Handler

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Actions string `json:"actions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Replay(r.Context(), req.Actions)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Scene Handlers

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	// Empty body spawns the first level
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateScene(r.Context(), req.Level)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.service.ListScenes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scenes,
		"count":  len(scenes),
	})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetScene(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["id"]
	if err := s.service.DeleteScene(r.Context(), sceneID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sceneID, "deleted", nil)
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Scene deleted successfully",
	})
}

func (s *Server) handleMoveEntity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entityID, err := strconv.Atoi(vars["entity"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid entity ID")
		return
	}

	var pos motion.GridPosition
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.MoveEntity(r.Context(), vars["id"], entityID, pos)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "WebSocket not available")
		return
	}

	sceneID := r.URL.Query().Get("scene")
	if sceneID == "" {
		respondError(w, http.StatusBadRequest, "scene query parameter is required")
		return
	}

	info, err := s.service.GetScene(r.Context(), sceneID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Settled scenes are not ticked, so new clients get the current frame up front
	s.hub.ServeWS(w, r, sceneID, &info.Frame)
}

// Health Check

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
