package game

import "encoding/json"

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
}

// PlayerSeat identifies one player joining a match.
type PlayerSeat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchConfig holds settings for creating a new match. Settings carries
// game-specific knobs from room creation (win condition, hand size, ...)
// that the game implementation parses itself.
type MatchConfig struct {
	Players  []PlayerSeat
	Settings json.RawMessage
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// Game describes a game type.
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) (Match, error)
	// RestoreMatch rebuilds a match from a persisted MarshalJSON snapshot.
	RestoreMatch(data []byte) (Match, error)
}

// Match is one in-progress game session. The owning room serializes all
// calls; implementations are not internally locked.
type Match interface {
	State(playerID string) any
	ValidActions(playerID string) []Action
	ApplyAction(playerID string, action Action) error
	// HandleLeave removes a player from the running match.
	HandleLeave(playerID string) error
	IsOver() bool
	Results() []PlayerResult
	MarshalJSON() ([]byte, error)
}

// Advancer is implemented by matches that can be force-advanced when a round
// timer expires. RoundNumber lets the timer apply one deadline per round
// instead of re-arming on every mutation.
type Advancer interface {
	ForceAdvance() error
	RoundNumber() int
}
