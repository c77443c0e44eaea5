package cardsagainst

import (
	"errors"
	"fmt"
	"testing"
)

// uniformCatalog builds a minimal valid catalog whose prompts all pick one
// card, so tests do not depend on which prompt the shuffle surfaces.
func uniformCatalog(t *testing.T) *Catalog {
	t.Helper()
	cards := make([]Card, 0, MinPromptCards+MinResponseCards)
	for i := 0; i < MinPromptCards; i++ {
		cards = append(cards, Card{ID: fmt.Sprintf("p%02d", i), Kind: KindPrompt, Text: fmt.Sprintf("prompt %d", i), Pick: 1})
	}
	for i := 0; i < MinResponseCards; i++ {
		cards = append(cards, Card{ID: fmt.Sprintf("r%02d", i), Kind: KindResponse, Text: fmt.Sprintf("response %d", i)})
	}
	cat, err := NewCatalog(cards)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

func startedEngine(t *testing.T, win WinCondition, ids ...string) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		Catalog:  uniformCatalog(t),
		HandSize: DefaultHandSize,
		Win:      win,
		Seed:     1,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	players := make([]PlayerInfo, 0, len(ids))
	for _, id := range ids {
		players = append(players, PlayerInfo{ID: id, Name: id})
	}
	if err := e.StartGame(players); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return e
}

// submitAny plays the first cards from the player's hand.
func submitAny(t *testing.T, e *Engine, playerID string) {
	t.Helper()
	round, ok := e.CurrentRound()
	if !ok {
		t.Fatalf("submit for %s: no active round", playerID)
	}
	hand, err := e.Hand(playerID)
	if err != nil {
		t.Fatalf("hand of %s: %v", playerID, err)
	}
	ids := make([]string, round.Prompt.Pick)
	for i := range ids {
		ids[i] = hand[i].ID
	}
	if _, err := e.SubmitCards(playerID, ids); err != nil {
		t.Fatalf("submit for %s: %v", playerID, err)
	}
}

// playRound has every non-judge submit, then the judge pick the given winner.
func playRound(t *testing.T, e *Engine, winner string) {
	t.Helper()
	judge := e.JudgeID()
	for _, p := range e.Players() {
		if p.ID != judge {
			submitAny(t, e, p.ID)
		}
	}
	if err := e.SelectWinner(judge, winner); err != nil {
		t.Fatalf("select winner %s: %v", winner, err)
	}
}

func scoreOf(t *testing.T, e *Engine, playerID string) int {
	t.Helper()
	for _, p := range e.Players() {
		if p.ID == playerID {
			return p.Score
		}
	}
	t.Fatalf("player %s not in roster", playerID)
	return 0
}

func TestStartGameRequiresThreePlayers(t *testing.T) {
	e, err := NewEngine(Config{Catalog: uniformCatalog(t), Seed: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	err = e.StartGame([]PlayerInfo{{ID: "a"}, {ID: "b"}})
	if !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("expected ErrInsufficientPlayers, got %v", err)
	}
	if e.Phase() != PhaseWaiting {
		t.Fatalf("phase moved to %s after rejected start", e.Phase())
	}
}

func TestStartGameRejectsDuplicateIDs(t *testing.T) {
	e, err := NewEngine(Config{Catalog: uniformCatalog(t), Seed: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	err = e.StartGame([]PlayerInfo{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStartGameRejectsOversizedRoster(t *testing.T) {
	e, err := NewEngine(Config{Catalog: uniformCatalog(t), Seed: 1})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	// 15 players at 7 cards each need 105 of the 100 response cards.
	players := make([]PlayerInfo, 15)
	for i := range players {
		players[i] = PlayerInfo{ID: fmt.Sprintf("p%02d", i)}
	}
	if err := e.StartGame(players); !errors.Is(err, ErrCatalogTooSmall) {
		t.Fatalf("expected ErrCatalogTooSmall, got %v", err)
	}
	// The rejected start must not have left a partial roster or any dealt
	// hands behind.
	if e.Phase() != PhaseWaiting || len(e.Players()) != 0 {
		t.Fatalf("rejected start mutated state: phase %s, %d players", e.Phase(), len(e.Players()))
	}
	if e.hands.CardsHeld() != 0 {
		t.Fatalf("%d cards dealt by a rejected start", e.hands.CardsHeld())
	}
	if err := e.StartGame(players[:3]); err != nil {
		t.Fatalf("start after rejected roster: %v", err)
	}
	if err := e.checkConservation(); err != nil {
		t.Fatalf("conservation after restart: %v", err)
	}
}

func TestCatalogTooSmall(t *testing.T) {
	cards := make([]Card, 0, 19+MinResponseCards)
	for i := 0; i < 19; i++ {
		cards = append(cards, Card{ID: fmt.Sprintf("p%02d", i), Kind: KindPrompt, Text: "p", Pick: 1})
	}
	for i := 0; i < MinResponseCards; i++ {
		cards = append(cards, Card{ID: fmt.Sprintf("r%02d", i), Kind: KindResponse, Text: "r"})
	}
	cat, err := NewCatalog(cards)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	if _, err := NewEngine(Config{Catalog: cat}); !errors.Is(err, ErrCatalogTooSmall) {
		t.Fatalf("expected ErrCatalogTooSmall, got %v", err)
	}
}

func TestFullRoundLifecycle(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")

	if e.Phase() != PhasePlaying || e.RoundNumber() != 1 {
		t.Fatalf("expected playing round 1, got %s round %d", e.Phase(), e.RoundNumber())
	}
	if e.JudgeID() != "a" {
		t.Fatalf("expected first judge a, got %s", e.JudgeID())
	}
	for _, p := range e.Players() {
		hand, err := e.Hand(p.ID)
		if err != nil || len(hand) != DefaultHandSize {
			t.Fatalf("player %s hand: %d cards, err %v", p.ID, len(hand), err)
		}
	}

	submitAny(t, e, "b")
	if e.Phase() != PhasePlaying {
		t.Fatalf("phase advanced early to %s", e.Phase())
	}
	submitAny(t, e, "c")
	if e.Phase() != PhaseJudging {
		t.Fatalf("expected judging after all submissions, got %s", e.Phase())
	}

	if err := e.SelectWinner("a", "b"); err != nil {
		t.Fatalf("select winner: %v", err)
	}
	if e.Phase() != PhaseScoring {
		t.Fatalf("expected scoring, got %s", e.Phase())
	}
	if got := scoreOf(t, e, "b"); got != 1 {
		t.Fatalf("expected b to have 1 point, got %d", got)
	}
	round, ok := e.CurrentRound()
	if !ok || round.Winning == nil || round.Winning.PlayerID != "b" {
		t.Fatalf("winning submission not recorded: %+v", round)
	}

	if err := e.StartRound(); err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	if e.Phase() != PhasePlaying || e.RoundNumber() != 2 {
		t.Fatalf("expected playing round 2, got %s round %d", e.Phase(), e.RoundNumber())
	}
	if e.JudgeID() != "b" {
		t.Fatalf("expected judge b in round 2, got %s", e.JudgeID())
	}
	if round, _ := e.CurrentRound(); len(round.Submissions) != 0 {
		t.Fatalf("submissions carried into round 2: %+v", round.Submissions)
	}
}

func TestJudgeCannotSubmit(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	hand, _ := e.Hand("a")
	_, err := e.SubmitCards("a", []string{hand[0].ID})
	if !errors.Is(err, ErrJudgeCannotSubmit) {
		t.Fatalf("expected ErrJudgeCannotSubmit, got %v", err)
	}
}

func TestSubmitOutsidePlaying(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	submitAny(t, e, "b")
	submitAny(t, e, "c")
	hand, _ := e.Hand("b")
	if _, err := e.SubmitCards("b", []string{hand[0].ID}); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase during judging, got %v", err)
	}
}

func TestSelectWinnerValidation(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	if err := e.SelectWinner("a", "b"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase before judging, got %v", err)
	}
	submitAny(t, e, "b")
	submitAny(t, e, "c")
	if err := e.SelectWinner("b", "c"); !errors.Is(err, ErrNotJudge) {
		t.Fatalf("expected ErrNotJudge, got %v", err)
	}
	if err := e.SelectWinner("a", "a"); !errors.Is(err, ErrNoSuchSubmission) {
		t.Fatalf("expected ErrNoSuchSubmission for the judge, got %v", err)
	}
	if err := e.SelectWinner("a", "b"); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}
}

func TestJudgingThresholdOrderIndependent(t *testing.T) {
	// Two games with the same seed reach the same judging state no matter
	// the order in which players submit.
	orders := [][]string{
		{"b", "c", "d"},
		{"d", "b", "c"},
	}
	var phases []Phase
	var counts []int
	for _, order := range orders {
		e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c", "d")
		for i, p := range order {
			submitAny(t, e, p)
			if i < len(order)-1 && e.Phase() != PhasePlaying {
				t.Fatalf("phase advanced after %d of %d submissions", i+1, len(order))
			}
		}
		phases = append(phases, e.Phase())
		round, _ := e.CurrentRound()
		counts = append(counts, len(round.Submissions))
	}
	for i := range orders {
		if phases[i] != PhaseJudging {
			t.Fatalf("order %v ended in phase %s", orders[i], phases[i])
		}
		if counts[i] != 3 {
			t.Fatalf("order %v recorded %d submissions", orders[i], counts[i])
		}
	}
}

func TestJudgeRotationWrapsAround(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c", "d")
	want := []string{"a", "b", "c", "d", "a"}
	for i, expect := range want {
		if e.JudgeID() != expect {
			t.Fatalf("round %d: expected judge %s, got %s", i+1, expect, e.JudgeID())
		}
		// Rotate winners so nobody reaches the score target.
		winner := want[(i+1)%4]
		if winner == e.JudgeID() {
			winner = want[(i+2)%4]
		}
		playRound(t, e, winner)
		if err := e.StartRound(); err != nil {
			t.Fatalf("start round %d: %v", i+2, err)
		}
	}
}

func TestWinByScore(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 2}, "a", "b", "c")

	playRound(t, e, "b")
	if e.Phase() != PhaseScoring {
		t.Fatalf("game ended below target, phase %s", e.Phase())
	}
	if err := e.StartRound(); err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	playRound(t, e, "b") // b hits the target
	if e.Phase() != PhaseGameEnd {
		t.Fatalf("expected gameEnd, got %s", e.Phase())
	}
	if e.WinnerID() != "b" {
		t.Fatalf("expected winner b, got %s", e.WinnerID())
	}
	if err := e.StartRound(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase after game end, got %v", err)
	}
}

func TestWinByRoundsTieBreak(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByRounds, Target: 2}, "carol", "alice", "bob")

	// Round 1: judge carol awards alice. Round 2: judge alice awards carol,
	// which is the last round, leaving alice and carol tied on one point.
	playRound(t, e, "alice")
	if err := e.StartRound(); err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	playRound(t, e, "carol")

	if e.Phase() != PhaseGameEnd {
		t.Fatalf("expected gameEnd after %d rounds, got %s", e.RoundNumber(), e.Phase())
	}
	// alice and carol tie on 1 point; the smaller id wins.
	if e.WinnerID() != "alice" {
		t.Fatalf("expected tie-break winner alice, got %s", e.WinnerID())
	}
}

func TestLeaveBelowMinimumAbandonsRound(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	submitAny(t, e, "b")

	_, err := e.HandlePlayerLeave("c")
	if !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("expected ErrInsufficientPlayers, got %v", err)
	}
	if e.Phase() != PhaseWaiting {
		t.Fatalf("expected waiting after abandonment, got %s", e.Phase())
	}
	if len(e.Players()) != 2 {
		t.Fatalf("expected 2 players after leave, got %d", len(e.Players()))
	}
	if _, err := e.Hand("c"); !errors.Is(err, ErrPlayerUnknown) {
		t.Fatalf("leaver still holds a hand: %v", err)
	}
	if err := e.checkConservation(); err != nil {
		t.Fatalf("conservation broken after leave: %v", err)
	}
}

func TestJudgeLeaveAbandonsRound(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c", "d")
	submitAny(t, e, "b")

	out, err := e.HandlePlayerLeave("a")
	if err != nil {
		t.Fatalf("judge leave: %v", err)
	}
	if !out.RoundAbandoned {
		t.Fatal("judge departure did not abandon the round")
	}
	if e.Phase() != PhaseWaiting {
		t.Fatalf("expected waiting, got %s", e.Phase())
	}
	if err := e.StartRound(); err != nil {
		t.Fatalf("restart after abandonment: %v", err)
	}
	// Rotation re-anchors at the front of the remaining roster.
	if e.JudgeID() != "b" {
		t.Fatalf("expected judge b after re-anchor, got %s", e.JudgeID())
	}
	if round, _ := e.CurrentRound(); len(round.Submissions) != 0 {
		t.Fatalf("submissions survived abandonment: %+v", round.Submissions)
	}
}

func TestLeaveBeforeJudgeKeepsRotation(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c", "d")
	playRound(t, e, "c")
	if err := e.StartRound(); err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	if e.JudgeID() != "b" {
		t.Fatalf("expected judge b, got %s", e.JudgeID())
	}

	// a sits before the judge in rotation order; removing them must not
	// shift the judge.
	if _, err := e.HandlePlayerLeave("a"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if e.JudgeID() != "b" {
		t.Fatalf("judge moved to %s after earlier seat left", e.JudgeID())
	}
	if e.Phase() != PhasePlaying {
		t.Fatalf("round abandoned unnecessarily, phase %s", e.Phase())
	}
}

func TestLeaveSatisfiesJudgingThreshold(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c", "d")
	submitAny(t, e, "b")
	submitAny(t, e, "c")
	if e.Phase() != PhasePlaying {
		t.Fatalf("threshold met too early, phase %s", e.Phase())
	}
	// d is the last pending player; their departure completes the round.
	if _, err := e.HandlePlayerLeave("d"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if e.Phase() != PhaseJudging {
		t.Fatalf("expected judging after pending player left, got %s", e.Phase())
	}
}

func TestForceNextRound(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	submitAny(t, e, "b")

	if err := e.ForceNextRound(); err != nil {
		t.Fatalf("force: %v", err)
	}
	if e.Phase() != PhasePlaying || e.RoundNumber() != 2 {
		t.Fatalf("expected playing round 2, got %s round %d", e.Phase(), e.RoundNumber())
	}
	if e.JudgeID() != "b" {
		t.Fatalf("expected judge b, got %s", e.JudgeID())
	}
	if round, _ := e.CurrentRound(); len(round.Submissions) != 0 {
		t.Fatalf("stale submissions after force: %+v", round.Submissions)
	}
	if scoreOf(t, e, "b") != 0 {
		t.Fatal("abandoned round awarded a point")
	}

	// Force is for in-flight rounds only.
	playRound(t, e, "c")
	if err := e.ForceNextRound(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase in scoring, got %v", err)
	}
}

func TestConservationAcrossRounds(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 50}, "a", "b", "c", "d")
	winners := []string{"b", "c", "d", "a"}
	for i := 0; i < 12; i++ {
		winner := winners[i%4]
		if winner == e.JudgeID() {
			winner = winners[(i+1)%4]
		}
		playRound(t, e, winner)
		if err := e.checkConservation(); err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
		if err := e.StartRound(); err != nil {
			t.Fatalf("round %d rollover: %v", i+1, err)
		}
	}
	for _, p := range e.Players() {
		hand, err := e.Hand(p.ID)
		if err != nil || len(hand) != DefaultHandSize {
			t.Fatalf("player %s hand drifted to %d cards (err %v)", p.ID, len(hand), err)
		}
	}
}

func TestResetGame(t *testing.T) {
	e := startedEngine(t, WinCondition{Type: WinByScore, Target: 5}, "a", "b", "c")
	playRound(t, e, "b")
	e.ResetGame()
	if e.Phase() != PhaseWaiting || e.RoundNumber() != 0 {
		t.Fatalf("reset left phase %s round %d", e.Phase(), e.RoundNumber())
	}
	if len(e.Players()) != 0 {
		t.Fatal("reset kept the roster")
	}
	if err := e.StartGame([]PlayerInfo{{ID: "x"}, {ID: "y"}, {ID: "z"}}); err != nil {
		t.Fatalf("restart after reset: %v", err)
	}
	if err := e.checkConservation(); err != nil {
		t.Fatalf("conservation after restart: %v", err)
	}
}
