package room

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cardparty/internal/game"
	"cardparty/internal/storage"
)

// Manager owns every active room, keyed by room code. Rooms are constructed
// on creation and destroyed on deletion; there is no ambient global state.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	registry *game.Registry
	store    *storage.Store
}

// NewManager creates a room manager.
func NewManager(registry *game.Registry, store *storage.Store) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		registry: registry,
		store:    store,
	}
}

// Create makes a new room and persists it.
func (m *Manager) Create(gameType string, settings json.RawMessage) (*Room, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type: %s", gameType)
	}
	code := generateCode()
	if err := m.store.CreateRoom(code, gameType, string(settings)); err != nil {
		return nil, fmt.Errorf("persist room: %w", err)
	}
	r := NewRoom(code, gameType, g, settings)
	m.mu.Lock()
	m.rooms[code] = r
	m.mu.Unlock()
	log.Info().Str("room", code).Str("game", gameType).Msg("room created")
	return r, nil
}

// Get returns a room by code.
func (m *Manager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// List returns info for all active rooms.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.rooms))
	for _, r := range m.rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// SaveState persists the room status and the current match snapshot.
func (m *Manager) SaveState(r *Room) error {
	r.mu.RLock()
	match := r.Match
	status := r.Status
	r.mu.RUnlock()

	if err := m.store.UpdateRoomStatus(r.Code, string(status)); err != nil {
		return err
	}
	if match == nil {
		return nil
	}
	data, err := match.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal match snapshot: %w", err)
	}
	return m.store.SaveRoomState(r.Code, string(data))
}

// Restore loads rooms from the database on startup. Members are not
// restored; players reconnect over the websocket with their existing ids.
func (m *Manager) Restore() error {
	rows, err := m.store.ListRooms("")
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	for _, row := range rows {
		if row.Status == string(StatusFinished) {
			continue
		}
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			log.Warn().Str("room", row.Code).Str("game", row.GameType).Msg("skipping room: unknown game type")
			continue
		}
		r := NewRoom(row.Code, row.GameType, g, json.RawMessage(row.Settings))
		r.Status = Status(row.Status)

		if row.Status == string(StatusPlaying) {
			stateJSON, err := m.store.GetRoomState(row.Code)
			if err != nil {
				log.Warn().Str("room", row.Code).Err(err).Msg("skipping room: no match snapshot")
				continue
			}
			match, err := g.RestoreMatch([]byte(stateJSON))
			if err != nil {
				log.Error().Str("room", row.Code).Err(err).Msg("skipping room: snapshot rejected")
				continue
			}
			r.Match = match
		}
		m.mu.Lock()
		m.rooms[row.Code] = r
		m.mu.Unlock()
	}
	return nil
}

// Remove deletes a room from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()
	if ok {
		r.StopRoundTimer()
	}
	m.store.DeleteRoom(code)
}

// CleanupLoop removes stale rooms periodically.
func (m *Manager) CleanupLoop(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		m.cleanup(maxAge)
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for code, r := range m.rooms {
		r.mu.RLock()
		empty := len(r.Members) == 0
		finished := r.Status == StatusFinished
		r.mu.RUnlock()

		if finished || empty {
			row, err := m.store.GetRoom(code)
			if err != nil {
				delete(m.rooms, code)
				continue
			}
			if now.Sub(row.CreatedAt) > maxAge || empty {
				log.Info().Str("room", code).Msg("cleaning up room")
				r.StopRoundTimer()
				m.store.DeleteRoom(code)
				delete(m.rooms, code)
			}
		}
	}
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}
