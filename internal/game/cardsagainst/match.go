package cardsagainst

import (
	"encoding/json"
	"fmt"

	"cardparty/internal/game"
)

// CardsAgainst implements game.Game.
type CardsAgainst struct{}

func (CardsAgainst) Info() game.GameInfo {
	return game.GameInfo{
		Name:       "cardsagainst",
		MinPlayers: 3,
		// The stock catalog can deal a full hand to at most this many
		// players.
		MaxPlayers: Builtin().Size(KindResponse) / DefaultHandSize,
	}
}

// DefaultRoundSeconds is the round time limit when a room does not set one.
// Negative RoundSeconds disables the timer.
const DefaultRoundSeconds = 120

// Settings are the per-room knobs accepted at room creation.
type Settings struct {
	WinCondition *WinCondition `json:"winCondition,omitempty"`
	HandSize     int           `json:"handSize,omitempty"`
	// RoundSeconds is consumed by the room layer's round timer, not the
	// engine; it rides along here so one settings blob configures a room.
	RoundSeconds int   `json:"roundSeconds,omitempty"`
	Seed         int64 `json:"seed,omitempty"`
}

func configFrom(settings json.RawMessage) (Config, error) {
	cfg := DefaultConfig()
	if len(settings) == 0 {
		return cfg, nil
	}
	var s Settings
	if err := json.Unmarshal(settings, &s); err != nil {
		return cfg, fmt.Errorf("parse settings: %w", ErrInvalidArgument)
	}
	if s.WinCondition != nil {
		cfg.Win = *s.WinCondition
	}
	if s.HandSize != 0 {
		cfg.HandSize = s.HandSize
	}
	cfg.Seed = s.Seed
	return cfg, nil
}

func (CardsAgainst) NewMatch(config game.MatchConfig) (game.Match, error) {
	cfg, err := configFrom(config.Settings)
	if err != nil {
		return nil, err
	}
	eng, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	players := make([]PlayerInfo, 0, len(config.Players))
	for _, seat := range config.Players {
		players = append(players, PlayerInfo{ID: seat.ID, Name: seat.Name})
	}
	if err := eng.StartGame(players); err != nil {
		return nil, err
	}
	return &Match{eng: eng}, nil
}

func (CardsAgainst) RestoreMatch(data []byte) (game.Match, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	cfg := DefaultConfig()
	eng, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	if err := eng.Restore(snap); err != nil {
		return nil, err
	}
	return &Match{eng: eng}, nil
}

// Match adapts the engine to game.Match.
type Match struct {
	eng *Engine
}

// Engine exposes the underlying engine for the room layer's direct needs.
func (m *Match) Engine() *Engine { return m.eng }

type submitPayload struct {
	CardIDs []string `json:"cardIds"`
}

type selectWinnerPayload struct {
	PlayerID string `json:"playerId"`
}

// playerView is the public slice of one player's state.
type playerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	IsJudge   bool   `json:"isJudge"`
	Submitted bool   `json:"submitted"`
}

// stateView is what one player sees: public round state plus their own
// private hand. Submissions stay hidden until judging starts.
type stateView struct {
	Phase       Phase              `json:"phase"`
	RoundNumber int                `json:"roundNumber"`
	Prompt      *Card              `json:"prompt,omitempty"`
	JudgeID     string             `json:"judgeId,omitempty"`
	Players     []playerView       `json:"players"`
	Standings   []Player           `json:"standings"`
	Hand        []Card             `json:"hand,omitempty"`
	Submissions []Submission       `json:"submissions,omitempty"`
	Winning     *Submission        `json:"winningSubmission,omitempty"`
	WinnerID    string             `json:"winnerId,omitempty"`
	DeckStats   map[Kind]DeckStats `json:"deckStats"`
}

func (m *Match) State(playerID string) any {
	e := m.eng
	view := stateView{
		Phase:       e.Phase(),
		RoundNumber: e.RoundNumber(),
		JudgeID:     e.JudgeID(),
		Standings:   e.Standings(),
		WinnerID:    e.WinnerID(),
		DeckStats:   e.Stats(),
	}
	for _, p := range e.Players() {
		view.Players = append(view.Players, playerView{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			IsJudge:   p.IsJudge,
			Submitted: e.HasSubmitted(p.ID),
		})
	}
	if hand, err := e.Hand(playerID); err == nil {
		view.Hand = hand
	}
	if round, ok := e.CurrentRound(); ok {
		view.Prompt = &round.Prompt
		// Hands are private; submissions become public only once everyone
		// has played.
		if e.Phase() != PhasePlaying {
			view.Submissions = round.Submissions
		}
		view.Winning = round.Winning
	}
	return view
}

func (m *Match) ValidActions(playerID string) []game.Action {
	e := m.eng
	var actions []game.Action
	switch e.Phase() {
	case PhasePlaying:
		if playerID != e.JudgeID() && !e.HasSubmitted(playerID) {
			actions = append(actions, game.Action{Type: "submit"})
		}
	case PhaseJudging:
		if playerID == e.JudgeID() {
			if round, ok := e.CurrentRound(); ok {
				for _, sub := range round.Submissions {
					payload, _ := json.Marshal(selectWinnerPayload{PlayerID: sub.PlayerID})
					actions = append(actions, game.Action{Type: "select_winner", Payload: payload})
				}
			}
		}
	case PhaseScoring:
		actions = append(actions, game.Action{Type: "next_round"})
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	switch action.Type {
	case "submit":
		var p submitPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid submit payload: %w", ErrInvalidArgument)
		}
		_, err := m.eng.SubmitCards(playerID, p.CardIDs)
		return err
	case "select_winner":
		var p selectWinnerPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid select_winner payload: %w", ErrInvalidArgument)
		}
		return m.eng.SelectWinner(playerID, p.PlayerID)
	case "next_round":
		return m.eng.StartRound()
	default:
		return fmt.Errorf("unknown action type %q: %w", action.Type, ErrInvalidArgument)
	}
}

// HandleLeave removes the player. A judge departing abandons the round and
// the match immediately starts the next one so the room keeps flowing.
func (m *Match) HandleLeave(playerID string) error {
	outcome, err := m.eng.HandlePlayerLeave(playerID)
	if err != nil {
		return err
	}
	if outcome.RoundAbandoned {
		return m.eng.StartRound()
	}
	return nil
}

// ForceAdvance implements game.Advancer for the room layer's round timer: a
// stalled round is abandoned, a scored round rolls over.
func (m *Match) ForceAdvance() error {
	switch m.eng.Phase() {
	case PhasePlaying, PhaseJudging:
		return m.eng.ForceNextRound()
	case PhaseScoring, PhaseWaiting:
		return m.eng.StartRound()
	default:
		return nil
	}
}

// RoundNumber reports the current round for the room layer's round timer.
func (m *Match) RoundNumber() int {
	return m.eng.RoundNumber()
}

func (m *Match) IsOver() bool {
	return m.eng.Phase() == PhaseGameEnd
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	standings := m.eng.Standings()
	results := make([]game.PlayerResult, 0, len(standings))
	rank := 0
	prevScore := -1
	for i, p := range standings {
		if p.Score != prevScore {
			rank = i + 1
			prevScore = p.Score
		}
		results = append(results, game.PlayerResult{PlayerID: p.ID, Rank: rank, Score: p.Score})
	}
	return results
}

func (m *Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.eng.Snapshot())
}
