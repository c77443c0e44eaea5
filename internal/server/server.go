package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"cardparty/internal/game"
	"cardparty/internal/game/cardsagainst"
	"cardparty/internal/room"
)

// Server is the HTTP server: a JSON API plus a websocket channel per room.
type Server struct {
	mux      *http.ServeMux
	registry *game.Registry
	manager  *room.Manager
}

// New creates a server with all routes.
func New(registry *game.Registry, manager *room.Manager) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		registry: registry,
		manager:  manager,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}", s.handleGetRoom)
	s.mux.HandleFunc("POST /api/rooms/{code}/join", s.handleJoinRoom)
	s.mux.HandleFunc("POST /api/rooms/{code}/start", s.handleStartRoom)
	s.mux.HandleFunc("POST /api/rooms/{code}/leave", s.handleLeaveRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type createRoomRequest struct {
	GameType   string          `json:"gameType"`
	PlayerName string          `json:"playerName"`
	Settings   json.RawMessage `json:"settings,omitempty"`
}

type joinRoomResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.GameType == "" || req.PlayerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameType and playerName required"})
		return
	}

	rm, err := s.manager.Create(req.GameType, req.Settings)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	playerID := newPlayerID()
	if err := rm.AddMember(playerID, req.PlayerName); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, joinRoomResponse{Code: rm.Code, PlayerID: playerID})
}

type joinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "playerName required"})
		return
	}
	playerID := newPlayerID()
	if err := rm.AddMember(playerID, req.PlayerName); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.broadcastState(rm)
	writeJSON(w, http.StatusOK, joinRoomResponse{Code: rm.Code, PlayerID: playerID})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, rm.Info())
}

func (s *Server) handleStartRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	if err := rm.Start(); err != nil {
		writeJSON(w, statusFor(err), errorBody(err))
		return
	}
	s.afterMutation(rm)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

type leaveRoomRequest struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.manager.Get(r.PathValue("code"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	var req leaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "playerId required"})
		return
	}
	err := rm.Leave(req.PlayerID)
	s.afterMutation(rm)
	if err != nil {
		writeJSON(w, statusFor(err), errorBody(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// afterMutation persists and broadcasts state after a successful (or
// partially effective, as with leave) mutating call, and keeps the round
// timer in step with the match.
func (s *Server) afterMutation(rm *room.Room) {
	if err := s.manager.SaveState(rm); err != nil {
		log.Error().Str("room", rm.Code).Err(err).Msg("save room state")
	}
	s.broadcastState(rm)
	s.armRoundTimer(rm)
}

// armRoundTimer schedules a force-advance when the room has a round time
// limit configured. The deadline applies to the round as a whole: arming is
// keyed on the round number, so submissions within a round do not extend it.
func (s *Server) armRoundTimer(rm *room.Room) {
	seconds := rm.RoundSeconds()
	if seconds <= 0 {
		return
	}
	rm.RLock()
	match := rm.Match
	active := rm.Status == room.StatusPlaying && match != nil && !match.IsOver()
	round := 0
	adv, advances := match.(game.Advancer)
	if active && advances {
		round = adv.RoundNumber()
	}
	rm.RUnlock()
	if !active {
		rm.StopRoundTimer()
		return
	}
	if !advances {
		return
	}
	rm.ResetRoundTimerFor(round, time.Duration(seconds)*time.Second, func() {
		s.onRoundTimeout(rm)
	})
}

func (s *Server) onRoundTimeout(rm *room.Room) {
	rm.Lock()
	match := rm.Match
	if match == nil || match.IsOver() || rm.Status != room.StatusPlaying {
		rm.Unlock()
		return
	}
	adv, ok := match.(game.Advancer)
	if !ok {
		rm.Unlock()
		return
	}
	err := adv.ForceAdvance()
	if match.IsOver() {
		rm.Status = room.StatusFinished
	}
	rm.Unlock()

	if err != nil {
		log.Warn().Str("room", rm.Code).Err(err).Msg("round timer force-advance")
	} else {
		log.Info().Str("room", rm.Code).Msg("round time limit reached, advancing")
	}
	s.afterMutation(rm)
}

// statusFor maps engine failures to HTTP statuses: invariant violations are
// bugs and must not surface as user validation messages.
func statusFor(err error) int {
	if cardsagainst.IsBug(err) {
		log.Error().Err(err).Msg("invariant violation")
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func errorBody(err error) map[string]string {
	if cardsagainst.IsBug(err) {
		return map[string]string{"error": "internal error"}
	}
	return map[string]string{"error": err.Error()}
}

func newPlayerID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
