package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cardparty/internal/game"
	"cardparty/internal/game/cardsagainst"
)

// Status represents the room lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Member is a player who joined the room.
type Member struct {
	ID   string
	Name string
	Send chan []byte // outbound messages
}

// Room is one game room. The mutex serializes every mutating call against
// the match, which keeps the engine's single-writer contract: two
// submissions for the same room never interleave.
type Room struct {
	mu       sync.RWMutex
	Code     string
	GameType string
	Status   Status
	HostID   string
	Members  map[string]*Member
	Match    game.Match
	Settings json.RawMessage

	game      game.Game
	joinOrder []string
	// round timer, armed by the server layer when a round time limit is
	// set; timerRound records which round the pending deadline belongs to
	roundTimer *time.Timer
	timerRound int
}

// NewRoom creates a room in the waiting state.
func NewRoom(code, gameType string, g game.Game, settings json.RawMessage) *Room {
	return &Room{
		Code:     code,
		GameType: gameType,
		Status:   StatusWaiting,
		Members:  make(map[string]*Member),
		Settings: settings,
		game:     g,
	}
}

// AddMember adds a player to the room. The first member becomes host.
func (r *Room) AddMember(playerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Status != StatusWaiting {
		return fmt.Errorf("room is not accepting players")
	}
	info := r.game.Info()
	if len(r.Members) >= info.MaxPlayers {
		return fmt.Errorf("room is full")
	}
	if _, exists := r.Members[playerID]; exists {
		return fmt.Errorf("player %s already in room", playerID)
	}
	r.Members[playerID] = &Member{
		ID:   playerID,
		Name: name,
		Send: make(chan []byte, 64),
	}
	r.joinOrder = append(r.joinOrder, playerID)
	if r.HostID == "" {
		r.HostID = playerID
	}
	return nil
}

// Connect replaces the send channel for a reconnecting player.
func (r *Room) Connect(playerID string, send chan []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Members[playerID]
	if !ok {
		return false
	}
	m.Send = send
	return true
}

// Leave removes a player from the room and from the running match. If too
// few players remain for the match to continue, the room is finished.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.Members[playerID]
	if !ok {
		return fmt.Errorf("player %s not in room", playerID)
	}
	close(m.Send)
	delete(r.Members, playerID)
	for i, id := range r.joinOrder {
		if id == playerID {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	if r.HostID == playerID {
		r.HostID = ""
		if len(r.joinOrder) > 0 {
			r.HostID = r.joinOrder[0]
		}
	}

	if r.Match != nil && r.Status == StatusPlaying {
		if err := r.Match.HandleLeave(playerID); err != nil {
			if errors.Is(err, cardsagainst.ErrInsufficientPlayers) {
				// The match cannot continue without a rejoin path; end it.
				r.Status = StatusFinished
				return err
			}
			return err
		}
		if r.Match.IsOver() {
			r.Status = StatusFinished
		}
	}
	return nil
}

// Start transitions the room from waiting to playing, creating the match
// with the host seated first so the first judge is the host.
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Status != StatusWaiting {
		return fmt.Errorf("room is not in waiting state")
	}
	info := r.game.Info()
	if len(r.Members) < info.MinPlayers {
		return fmt.Errorf("need at least %d players, have %d", info.MinPlayers, len(r.Members))
	}

	seats := make([]game.PlayerSeat, 0, len(r.Members))
	if host, ok := r.Members[r.HostID]; ok {
		seats = append(seats, game.PlayerSeat{ID: host.ID, Name: host.Name})
	}
	for _, id := range r.joinOrder {
		if id == r.HostID {
			continue
		}
		m := r.Members[id]
		seats = append(seats, game.PlayerSeat{ID: m.ID, Name: m.Name})
	}

	match, err := r.game.NewMatch(game.MatchConfig{Players: seats, Settings: r.Settings})
	if err != nil {
		return err
	}
	r.Match = match
	r.Status = StatusPlaying
	return nil
}

// Finish marks the room as finished.
func (r *Room) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFinished
	r.stopRoundTimerLocked()
}

// RoundSeconds reads the round time limit from the room settings. Unset
// falls back to the game default; a negative value disables the timer.
func (r *Room) RoundSeconds() int {
	var s cardsagainst.Settings
	if len(r.Settings) > 0 {
		json.Unmarshal(r.Settings, &s)
	}
	switch {
	case s.RoundSeconds < 0:
		return 0
	case s.RoundSeconds == 0:
		return cardsagainst.DefaultRoundSeconds
	default:
		return s.RoundSeconds
	}
}

// ResetRoundTimerFor arms the round timer for the given round. Re-arming for
// the round already on the clock is a no-op, so mid-round mutations do not
// push the deadline out. The callback runs without the room lock held.
func (r *Room) ResetRoundTimerFor(round int, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roundTimer != nil && r.timerRound == round {
		return
	}
	r.stopRoundTimerLocked()
	r.timerRound = round
	r.roundTimer = time.AfterFunc(d, fn)
}

// StopRoundTimer cancels a pending round timer.
func (r *Room) StopRoundTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopRoundTimerLocked()
}

func (r *Room) stopRoundTimerLocked() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
}

// MemberIDs returns the ids of joined players, in join order.
func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.joinOrder))
	copy(ids, r.joinOrder)
	return ids
}

// GetMember returns a member, or nil if not found.
func (r *Room) GetMember(playerID string) *Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Members[playerID]
}

// Broadcast sends a message to all connected players.
func (r *Room) Broadcast(msg []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.Members {
		select {
		case m.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// Info is the public room summary for the API.
type Info struct {
	Code     string            `json:"code"`
	GameType string            `json:"gameType"`
	Status   Status            `json:"status"`
	Players  []game.PlayerSeat `json:"players"`
	HostID   string            `json:"hostId"`
}

// Info returns room info for the API.
func (r *Room) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (r *Room) InfoLocked() Info {
	return r.infoLocked()
}

func (r *Room) infoLocked() Info {
	players := make([]game.PlayerSeat, 0, len(r.joinOrder))
	for _, id := range r.joinOrder {
		m := r.Members[id]
		players = append(players, game.PlayerSeat{ID: m.ID, Name: m.Name})
	}
	return Info{
		Code:     r.Code,
		GameType: r.GameType,
		Status:   r.Status,
		Players:  players,
		HostID:   r.HostID,
	}
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (r *Room) Lock()    { r.mu.Lock() }
func (r *Room) Unlock()  { r.mu.Unlock() }
func (r *Room) RLock()   { r.mu.RLock() }
func (r *Room) RUnlock() { r.mu.RUnlock() }
