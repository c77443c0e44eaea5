package cardsagainst

import "fmt"

// Snapshot is the serializable form of a game. Cards are stored by id and
// resolved against the catalog on restore, so display text is never
// persisted twice.
type Snapshot struct {
	Phase           Phase               `json:"phase"`
	RoundNumber     int                 `json:"roundNumber"`
	JudgeIndex      int                 `json:"judgeIndex"`
	Win             WinCondition        `json:"winCondition"`
	HandSize        int                 `json:"handSize"`
	Players         []SeatSnap          `json:"players"`
	Hands           map[string][]string `json:"hands"`
	Submissions     []SubSnap           `json:"submissions"`
	PromptID        string              `json:"promptId,omitempty"`
	Winning         *SubSnap            `json:"winningSubmission,omitempty"`
	WinnerID        string              `json:"winnerId,omitempty"`
	PromptDraw      []string            `json:"promptDraw"`
	PromptDiscard   []string            `json:"promptDiscard"`
	ResponseDraw    []string            `json:"responseDraw"`
	ResponseDiscard []string            `json:"responseDiscard"`
}

// SeatSnap is one roster entry, in rotation order.
type SeatSnap struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SubSnap is a submission by card ids.
type SubSnap struct {
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}

// Snapshot captures the full game state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Phase:           e.phase,
		RoundNumber:     e.roundNum,
		JudgeIndex:      e.judgeIdx,
		Win:             e.cfg.Win,
		HandSize:        e.cfg.HandSize,
		Hands:           make(map[string][]string, len(e.hands.hands)),
		WinnerID:        e.winnerID,
		PromptDraw:      cardIDs(e.prompts.draw),
		PromptDiscard:   cardIDs(e.prompts.discard),
		ResponseDraw:    cardIDs(e.responses.draw),
		ResponseDiscard: cardIDs(e.responses.discard),
	}
	for _, id := range e.order {
		p := e.players[id]
		s.Players = append(s.Players, SeatSnap{ID: p.id, Name: p.name, Score: p.score})
	}
	for id, hand := range e.hands.hands {
		s.Hands[id] = cardIDs(hand)
	}
	for _, sub := range e.hands.Submissions() {
		s.Submissions = append(s.Submissions, SubSnap{PlayerID: sub.PlayerID, CardIDs: cardIDs(sub.Cards)})
	}
	if e.prompt != nil {
		s.PromptID = e.prompt.ID
	}
	if e.winning != nil {
		s.Winning = &SubSnap{PlayerID: e.winning.PlayerID, CardIDs: cardIDs(e.winning.Cards)}
	}
	return s
}

// Restore replaces the engine state with a snapshot, re-resolving every card
// id against the catalog and verifying card conservation before the game can
// resume.
func (e *Engine) Restore(s Snapshot) error {
	resolve := func(ids []string) ([]Card, error) {
		cards := make([]Card, 0, len(ids))
		for _, id := range ids {
			card, ok := e.cfg.Catalog.Lookup(id)
			if !ok {
				return nil, fmt.Errorf("unknown card id %s: %w", id, ErrCorruptSnapshot)
			}
			cards = append(cards, card)
		}
		return cards, nil
	}

	promptDraw, err := resolve(s.PromptDraw)
	if err != nil {
		return err
	}
	promptDiscard, err := resolve(s.PromptDiscard)
	if err != nil {
		return err
	}
	responseDraw, err := resolve(s.ResponseDraw)
	if err != nil {
		return err
	}
	responseDiscard, err := resolve(s.ResponseDiscard)
	if err != nil {
		return err
	}

	// Everything is staged on a fresh engine so a corrupt snapshot leaves
	// the live game untouched.
	restored := &Engine{
		cfg:       e.cfg,
		prompts:   &Deck{kind: KindPrompt, rng: e.prompts.rng},
		responses: &Deck{kind: KindResponse, rng: e.responses.rng},
		players:   make(map[string]*playerState, len(s.Players)),
		judgeIdx:  s.JudgeIndex,
		phase:     s.Phase,
		roundNum:  s.RoundNumber,
		winnerID:  s.WinnerID,
	}
	if s.Win.Type != "" {
		restored.cfg.Win = s.Win
	}
	if s.HandSize > 0 {
		restored.cfg.HandSize = s.HandSize
	}
	restored.prompts.restore(promptDraw, promptDiscard, e.cfg.Catalog.Size(KindPrompt))
	restored.responses.restore(responseDraw, responseDiscard, e.cfg.Catalog.Size(KindResponse))
	restored.hands = NewHands(restored.responses)

	for _, seat := range s.Players {
		if _, dup := restored.players[seat.ID]; dup {
			return fmt.Errorf("duplicate player %s: %w", seat.ID, ErrCorruptSnapshot)
		}
		restored.players[seat.ID] = &playerState{id: seat.ID, name: seat.Name, score: seat.Score}
		restored.order = append(restored.order, seat.ID)
	}
	if restored.judgeIdx < -1 || restored.judgeIdx >= len(restored.order) {
		return fmt.Errorf("judge index %d outside roster: %w", restored.judgeIdx, ErrCorruptSnapshot)
	}
	for id, ids := range s.Hands {
		if _, ok := restored.players[id]; !ok {
			return fmt.Errorf("hand for unknown player %s: %w", id, ErrCorruptSnapshot)
		}
		hand, err := resolve(ids)
		if err != nil {
			return err
		}
		restored.hands.hands[id] = hand
	}
	for _, sub := range s.Submissions {
		cards, err := resolve(sub.CardIDs)
		if err != nil {
			return err
		}
		restored.hands.submissions[sub.PlayerID] = Submission{PlayerID: sub.PlayerID, Cards: cards}
		restored.hands.submitted = append(restored.hands.submitted, sub.PlayerID)
	}
	if s.PromptID != "" {
		card, ok := e.cfg.Catalog.Lookup(s.PromptID)
		if !ok {
			return fmt.Errorf("unknown prompt id %s: %w", s.PromptID, ErrCorruptSnapshot)
		}
		restored.prompt = &card
	}
	if s.Winning != nil {
		cards, err := resolve(s.Winning.CardIDs)
		if err != nil {
			return err
		}
		restored.winning = &Submission{PlayerID: s.Winning.PlayerID, Cards: cards}
	}

	// Phase and round state must agree, or the resumed game would trip over
	// a missing prompt or judge on the very next call.
	roundOpen := restored.phase == PhasePlaying || restored.phase == PhaseJudging || restored.phase == PhaseScoring
	if roundOpen && restored.prompt == nil {
		return fmt.Errorf("phase %s without an active prompt: %w", restored.phase, ErrCorruptSnapshot)
	}
	if roundOpen && restored.judgeIdx < 0 {
		return fmt.Errorf("phase %s without a judge: %w", restored.phase, ErrCorruptSnapshot)
	}
	if restored.phase == PhaseWaiting && restored.prompt != nil {
		return fmt.Errorf("waiting phase with an active prompt: %w", ErrCorruptSnapshot)
	}
	if restored.prompt == nil && len(s.Submissions) > 0 {
		return fmt.Errorf("submissions recorded outside a round: %w", ErrCorruptSnapshot)
	}

	if err := restored.checkConservation(); err != nil {
		return err
	}
	*e = *restored
	return nil
}
