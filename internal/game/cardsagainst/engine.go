package cardsagainst

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"time"
)

// Phase is the round lifecycle state.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseJudging Phase = "judging"
	PhaseScoring Phase = "scoring"
	PhaseGameEnd Phase = "gameEnd"
)

// WinType selects how the game ends.
type WinType string

const (
	WinByScore  WinType = "score"  // first player to reach Target points
	WinByRounds WinType = "rounds" // highest score after Target rounds
)

// WinCondition configures game end.
type WinCondition struct {
	Type   WinType `json:"type"`
	Target int     `json:"target"`
}

// DefaultHandSize matches the original game's seven response cards.
const DefaultHandSize = 7

// Config holds engine construction settings.
type Config struct {
	Catalog  *Catalog
	HandSize int
	Win      WinCondition
	// Seed fixes the shuffle order; 0 seeds from the clock.
	Seed int64
}

// DefaultConfig is first-to-five with the stock catalog.
func DefaultConfig() Config {
	return Config{
		Catalog:  Builtin(),
		HandSize: DefaultHandSize,
		Win:      WinCondition{Type: WinByScore, Target: 5},
	}
}

// PlayerInfo identifies a player joining a game.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player is the controller's view of a registered player. The hand lives in
// the Hands manager, never here.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	IsJudge bool   `json:"isJudge"`
}

// Round is a copy of the active round's state.
type Round struct {
	Number      int          `json:"number"`
	Prompt      Card         `json:"prompt"`
	JudgeID     string       `json:"judgeId"`
	Submissions []Submission `json:"submissions"`
	Winning     *Submission  `json:"winningSubmission,omitempty"`
}

type playerState struct {
	id    string
	name  string
	score int
}

// LeaveOutcome tells the caller what a player departure did to the round.
type LeaveOutcome struct {
	// RoundAbandoned is set when the departing player was the judge of an
	// active round. The round was discarded and the caller should start the
	// next one immediately.
	RoundAbandoned bool
}

// Engine is the round & score controller: it owns the roster, round
// lifecycle, judge rotation and win detection, and composes the two decks
// and the hand manager. It is a single-writer state machine; the owner must
// serialize all mutating calls for one game instance.
type Engine struct {
	cfg       Config
	prompts   *Deck
	responses *Deck
	hands     *Hands

	players map[string]*playerState
	order   []string // rotation order = join order
	// judgeIdx indexes order; -1 means no judge yet (or rotation re-anchors
	// at position 0 on the next round).
	judgeIdx int

	phase    Phase
	roundNum int
	prompt   *Card // active prompt, nil outside a round
	winning  *Submission
	winnerID string
}

// NewEngine validates the configuration and builds the decks. It refuses to
// start on a catalog below the configured minimums.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		cfg.Catalog = Builtin()
	}
	if cfg.HandSize == 0 {
		cfg.HandSize = DefaultHandSize
	}
	if cfg.HandSize < 1 {
		return nil, fmt.Errorf("hand size %d: %w", cfg.HandSize, ErrInvalidArgument)
	}
	if cfg.Win.Type == "" {
		cfg.Win = WinCondition{Type: WinByScore, Target: 5}
	}
	if cfg.Win.Type != WinByScore && cfg.Win.Type != WinByRounds {
		return nil, fmt.Errorf("win condition type %q: %w", cfg.Win.Type, ErrInvalidArgument)
	}
	if cfg.Win.Target < 1 {
		return nil, fmt.Errorf("win target %d: %w", cfg.Win.Target, ErrInvalidArgument)
	}
	if n := cfg.Catalog.Size(KindPrompt); n < MinPromptCards {
		return nil, fmt.Errorf("%d prompt cards, need %d: %w", n, MinPromptCards, ErrCatalogTooSmall)
	}
	if n := cfg.Catalog.Size(KindResponse); n < MinResponseCards {
		return nil, fmt.Errorf("%d response cards, need %d: %w", n, MinResponseCards, ErrCatalogTooSmall)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	e := &Engine{
		cfg:       cfg,
		prompts:   NewDeck(KindPrompt, cfg.Catalog.Cards(KindPrompt), rng),
		responses: NewDeck(KindResponse, cfg.Catalog.Cards(KindResponse), rng),
		players:   make(map[string]*playerState),
		judgeIdx:  -1,
		phase:     PhaseWaiting,
	}
	e.hands = NewHands(e.responses)
	return e, nil
}

// StartGame resets the decks, registers the roster with zero scores, deals
// initial hands and starts round 1. The first judge is the first player in
// the roster (rotation advances from index -1).
func (e *Engine) StartGame(players []PlayerInfo) error {
	if e.phase != PhaseWaiting {
		return fmt.Errorf("start game in phase %s: %w", e.phase, ErrWrongPhase)
	}
	if len(players) < 3 {
		return fmt.Errorf("%d players, need 3: %w", len(players), ErrInsufficientPlayers)
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p.ID == "" {
			return fmt.Errorf("player with empty id: %w", ErrInvalidArgument)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate player id %s: %w", p.ID, ErrInvalidArgument)
		}
		seen[p.ID] = struct{}{}
	}
	// Check the whole deal fits before touching any state, so a roster too
	// large for the catalog fails cleanly instead of mid-deal.
	if need := len(players) * e.cfg.HandSize; need > e.cfg.Catalog.Size(KindResponse) {
		return fmt.Errorf("%d players need %d response cards, catalog holds %d: %w",
			len(players), need, e.cfg.Catalog.Size(KindResponse), ErrCatalogTooSmall)
	}

	e.prompts.Reset(e.cfg.Catalog.Cards(KindPrompt))
	e.responses.Reset(e.cfg.Catalog.Cards(KindResponse))
	e.hands = NewHands(e.responses)
	e.players = make(map[string]*playerState, len(players))
	e.order = e.order[:0]
	e.judgeIdx = -1
	e.roundNum = 0
	e.prompt = nil
	e.winning = nil
	e.winnerID = ""

	for _, p := range players {
		e.players[p.ID] = &playerState{id: p.ID, name: p.Name}
		e.order = append(e.order, p.ID)
		if err := e.hands.DealInitialHand(p.ID, e.cfg.HandSize); err != nil {
			return err
		}
	}
	return e.startRound()
}

// StartRound advances to the next round. Valid after a round has been scored
// or after the current round was abandoned.
func (e *Engine) StartRound() error {
	if e.phase != PhaseScoring && !(e.phase == PhaseWaiting && len(e.players) > 0) {
		return fmt.Errorf("start round in phase %s: %w", e.phase, ErrWrongPhase)
	}
	return e.startRound()
}

// ForceNextRound abandons the in-flight round and starts the next one. This
// is the external-timeout path: players who had not submitted simply have no
// recorded submission, which is not an error.
func (e *Engine) ForceNextRound() error {
	if e.phase != PhasePlaying && e.phase != PhaseJudging {
		return fmt.Errorf("force-advance in phase %s: %w", e.phase, ErrWrongPhase)
	}
	return e.startRound()
}

func (e *Engine) startRound() error {
	if len(e.order) < 3 {
		return fmt.Errorf("%d players remain, need 3: %w", len(e.order), ErrInsufficientPlayers)
	}
	if e.prompt != nil {
		if err := e.prompts.Discard(*e.prompt); err != nil {
			return err
		}
		e.prompt = nil
	}
	drawn, err := e.prompts.Draw(1)
	if err != nil {
		return err
	}
	e.judgeIdx = (e.judgeIdx + 1) % len(e.order)
	e.prompt = &drawn[0]
	e.hands.ClearSubmissions()
	e.winning = nil
	e.roundNum++
	e.phase = PhasePlaying
	return nil
}

// SubmitCards plays cards for a non-judge player. When the last expected
// submission arrives the phase moves to judging.
func (e *Engine) SubmitCards(playerID string, cardIDs []string) (Submission, error) {
	if e.phase != PhasePlaying {
		return Submission{}, fmt.Errorf("submit in phase %s: %w", e.phase, ErrWrongPhase)
	}
	if _, ok := e.players[playerID]; !ok {
		return Submission{}, fmt.Errorf("submit for %s: %w", playerID, ErrPlayerUnknown)
	}
	if playerID == e.judgeID() {
		return Submission{}, fmt.Errorf("player %s is judging: %w", playerID, ErrJudgeCannotSubmit)
	}
	sub, err := e.hands.Submit(playerID, cardIDs, e.prompt.Pick)
	if err != nil {
		return Submission{}, err
	}
	if e.hands.SubmissionCount() == len(e.order)-1 {
		e.phase = PhaseJudging
	}
	return sub, nil
}

// SelectWinner records the judge's pick, awards a point, and evaluates the
// win condition.
func (e *Engine) SelectWinner(judgeID, winningPlayerID string) error {
	if e.phase != PhaseJudging {
		return fmt.Errorf("select winner in phase %s: %w", e.phase, ErrWrongPhase)
	}
	if judgeID != e.judgeID() {
		return fmt.Errorf("player %s: %w", judgeID, ErrNotJudge)
	}
	sub, ok := e.hands.SubmissionFor(winningPlayerID)
	if !ok {
		return fmt.Errorf("player %s: %w", winningPlayerID, ErrNoSuchSubmission)
	}
	e.players[winningPlayerID].score++
	e.winning = &sub

	if winner, over := e.evaluateWin(winningPlayerID); over {
		e.winnerID = winner
		e.phase = PhaseGameEnd
	} else {
		e.phase = PhaseScoring
	}
	return nil
}

// evaluateWin runs right after a single score increment, so in score mode at
// most one player can newly cross the threshold.
func (e *Engine) evaluateWin(scored string) (string, bool) {
	switch e.cfg.Win.Type {
	case WinByScore:
		if e.players[scored].score >= e.cfg.Win.Target {
			return scored, true
		}
	case WinByRounds:
		if e.roundNum >= e.cfg.Win.Target {
			return e.topScorer(), true
		}
	}
	return "", false
}

// topScorer breaks score ties deterministically in favor of the
// lexicographically smallest player id.
func (e *Engine) topScorer() string {
	best := ""
	bestScore := -1
	for _, id := range e.order {
		p := e.players[id]
		if p.score > bestScore || (p.score == bestScore && p.id < best) {
			best, bestScore = p.id, p.score
		}
	}
	return best
}

// HandlePlayerLeave removes a player mid-game: their hand goes to the
// discard pile and any submission this round is dropped. A judge departing
// mid-round abandons the round (reported in the outcome); dropping below
// three players returns ErrInsufficientPlayers after the removal so the
// caller can decide whether to end the game or wait for joiners.
func (e *Engine) HandlePlayerLeave(playerID string) (LeaveOutcome, error) {
	var out LeaveOutcome
	if _, ok := e.players[playerID]; !ok {
		return out, fmt.Errorf("leave: %w", ErrPlayerUnknown)
	}
	roundActive := e.phase == PhasePlaying || e.phase == PhaseJudging
	wasJudge := roundActive && playerID == e.judgeID()

	if err := e.hands.DiscardHand(playerID); err != nil {
		return out, err
	}
	e.hands.DropSubmission(playerID)
	delete(e.players, playerID)

	idx := slices.Index(e.order, playerID)
	e.order = slices.Delete(e.order, idx, idx+1)
	switch {
	case idx < e.judgeIdx:
		e.judgeIdx--
	case idx == e.judgeIdx:
		// Judge gone: re-anchor the rotation to position 0.
		e.judgeIdx = -1
	}

	if len(e.order) < 3 {
		e.abandonRound()
		return out, fmt.Errorf("%d players remain: %w", len(e.order), ErrInsufficientPlayers)
	}
	if wasJudge {
		e.abandonRound()
		out.RoundAbandoned = true
		return out, nil
	}
	// A pending player leaving can satisfy the judging threshold.
	if e.phase == PhasePlaying && e.hands.SubmissionCount() == len(e.order)-1 {
		e.phase = PhaseJudging
	}
	return out, nil
}

// abandonRound discards the active prompt and submissions and drops back to
// waiting. Hands and scores are untouched.
func (e *Engine) abandonRound() {
	if e.prompt != nil {
		// Conservation holds, so this discard cannot overflow.
		_ = e.prompts.Discard(*e.prompt)
		e.prompt = nil
	}
	e.hands.ClearSubmissions()
	e.winning = nil
	if e.phase != PhaseGameEnd {
		e.phase = PhaseWaiting
	}
}

// ResetGame clears roster, round and score state back to waiting. Decks are
// reset by the next StartGame.
func (e *Engine) ResetGame() {
	e.players = make(map[string]*playerState)
	e.order = nil
	e.judgeIdx = -1
	e.roundNum = 0
	e.prompt = nil
	e.winning = nil
	e.winnerID = ""
	e.hands = NewHands(e.responses)
	e.phase = PhaseWaiting
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase { return e.phase }

// RoundNumber returns the 1-based round counter, 0 before the first round.
func (e *Engine) RoundNumber() int { return e.roundNum }

// WinnerID returns the game winner once the phase is gameEnd.
func (e *Engine) WinnerID() string { return e.winnerID }

// JudgeID returns the current judge, or "" when no round is active.
func (e *Engine) JudgeID() string {
	if e.prompt == nil {
		return ""
	}
	return e.judgeID()
}

func (e *Engine) judgeID() string {
	if e.judgeIdx < 0 || e.judgeIdx >= len(e.order) {
		return ""
	}
	return e.order[e.judgeIdx]
}

// Players lists registered players in rotation order.
func (e *Engine) Players() []Player {
	judge := e.judgeID()
	out := make([]Player, 0, len(e.order))
	for _, id := range e.order {
		p := e.players[id]
		out = append(out, Player{ID: p.id, Name: p.name, Score: p.score, IsJudge: p.id == judge})
	}
	return out
}

// Standings lists players sorted by score, highest first, ties by id.
func (e *Engine) Standings() []Player {
	out := e.Players()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Hand returns a copy of a player's current hand.
func (e *Engine) Hand(playerID string) ([]Card, error) {
	return e.hands.Hand(playerID)
}

// HasSubmitted reports whether the player has a recorded submission.
func (e *Engine) HasSubmitted(playerID string) bool {
	_, ok := e.hands.SubmissionFor(playerID)
	return ok
}

// CurrentRound returns a copy of the active round, if any.
func (e *Engine) CurrentRound() (Round, bool) {
	if e.prompt == nil {
		return Round{}, false
	}
	r := Round{
		Number:      e.roundNum,
		Prompt:      *e.prompt,
		JudgeID:     e.judgeID(),
		Submissions: e.hands.Submissions(),
	}
	if e.winning != nil {
		w := *e.winning
		r.Winning = &w
	}
	return r, true
}

// Stats reports pile counts for both decks.
func (e *Engine) Stats() map[Kind]DeckStats {
	return map[Kind]DeckStats{
		KindPrompt:   e.prompts.Stats(),
		KindResponse: e.responses.Stats(),
	}
}

// checkConservation verifies that for each kind every catalog card sits in
// exactly one of draw pile, discard pile, a hand, or the active prompt.
func (e *Engine) checkConservation() error {
	count := func(kind Kind, piles ...[]Card) (int, error) {
		seen := make(map[string]struct{})
		n := 0
		for _, pile := range piles {
			for _, c := range pile {
				if c.Kind != kind {
					return 0, fmt.Errorf("%s card %s in %s location: %w", c.Kind, c.ID, kind, ErrCorruptSnapshot)
				}
				if _, dup := seen[c.ID]; dup {
					return 0, fmt.Errorf("card %s in two locations: %w", c.ID, ErrCorruptSnapshot)
				}
				seen[c.ID] = struct{}{}
				n++
			}
		}
		return n, nil
	}

	promptPiles := [][]Card{e.prompts.draw, e.prompts.discard}
	if e.prompt != nil {
		promptPiles = append(promptPiles, []Card{*e.prompt})
	}
	n, err := count(KindPrompt, promptPiles...)
	if err != nil {
		return err
	}
	if n != e.cfg.Catalog.Size(KindPrompt) {
		return fmt.Errorf("%d of %d prompt cards accounted for: %w", n, e.cfg.Catalog.Size(KindPrompt), ErrCorruptSnapshot)
	}

	responsePiles := [][]Card{e.responses.draw, e.responses.discard}
	for _, hand := range e.hands.hands {
		responsePiles = append(responsePiles, hand)
	}
	n, err = count(KindResponse, responsePiles...)
	if err != nil {
		return err
	}
	if n != e.cfg.Catalog.Size(KindResponse) {
		return fmt.Errorf("%d of %d response cards accounted for: %w", n, e.cfg.Catalog.Size(KindResponse), ErrCorruptSnapshot)
	}
	return nil
}
