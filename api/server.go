package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/wricardo/gameroom/game/catalog"
	"github.com/wricardo/gameroom/game/room"
	"github.com/wricardo/gameroom/transport/websocket"
)

// RoomDirectory is the read side of the room registry
type RoomDirectory interface {
	List() []room.Summary
	Snapshot(roomID string) (room.Snapshot, error)
	Count() int
}

// ConnectionCounter reports how many connections are registered
type ConnectionCounter interface {
	Count() int
}

// GameCatalog lists the known game types
type GameCatalog interface {
	ListGameTypes() ([]*catalog.Descriptor, error)
	Get(gameType string) (*catalog.Descriptor, error)
}

// Upgrader turns a request into a live WebSocket connection
type Upgrader interface {
	ServeWS(w http.ResponseWriter, r *http.Request, handler websocket.Handler)
}

// Server represents the REST API server
type Server struct {
	rooms   RoomDirectory
	conns   ConnectionCounter
	games   GameCatalog
	hub     Upgrader
	handler websocket.Handler
	router  *mux.Router
	started time.Time
	log     zerolog.Logger
}

// NewServer creates a new API server. Frames from /ws connections go to handler.
func NewServer(rooms RoomDirectory, conns ConnectionCounter, games GameCatalog, hub Upgrader, handler websocket.Handler, log zerolog.Logger) *Server {
	s := &Server{
		rooms:   rooms,
		conns:   conns,
		games:   games,
		hub:     hub,
		handler: handler,
		router:  mux.NewRouter(),
		started: time.Now(),
		log:     log.With().Str("module", "api").Logger(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// Rooms
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")

	// Game catalog
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{type}", s.handleGetGame).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static client assets
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
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
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summaries := s.rooms.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"connections":    s.conns.Count(),
		"rooms":          len(summaries),
		"players":        lo.SumBy(summaries, func(sum room.Summary) int { return sum.PlayerCount }),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.rooms.List()
	total := len(rooms)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created" (default), "players"
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of rooms to return
	gameType := query.Get("game_type")

	if sortBy == "" {
		sortBy = "created"
	}
	if order == "" {
		order = "desc"
	}
	if sortBy != "created" && sortBy != "players" {
		respondError(w, http.StatusBadRequest, "sort must be 'created' or 'players'")
		return
	}
	if order != "asc" && order != "desc" {
		respondError(w, http.StatusBadRequest, "order must be 'asc' or 'desc'")
		return
	}

	if gameType != "" {
		rooms = lo.Filter(rooms, func(sum room.Summary, _ int) bool {
			return sum.GameType == gameType
		})
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if sortBy == "players" {
			if order == "asc" {
				return rooms[i].PlayerCount < rooms[j].PlayerCount
			}
			return rooms[i].PlayerCount > rooms[j].PlayerCount
		}
		if order == "asc" {
			return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
		}
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(rooms) {
			rooms = rooms[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"total": total,
		"rooms": rooms,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	snap, err := s.rooms.Snapshot(roomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// Catalog Handlers

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.games.ListGameTypes()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list game types")
		respondError(w, http.StatusInternalServerError, "failed to list game types")
		return
	}
	if games == nil {
		games = []*catalog.Descriptor{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameType := mux.Vars(r)["type"]

	game, err := s.games.Get(gameType)
	if err != nil {
		if errors.Is(err, catalog.ErrGameTypeNotFound) {
			respondError(w, http.StatusNotFound, "game type not found")
			return
		}
		s.log.Error().Err(err).Str("game_type", gameType).Msg("failed to load game type")
		respondError(w, http.StatusInternalServerError, "failed to load game type")
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.handler)
}
