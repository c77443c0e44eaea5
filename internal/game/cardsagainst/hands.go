package cardsagainst

import (
	"fmt"
	"slices"
)

// Submission is one player's answer to the active prompt, in the order the
// cards were played.
type Submission struct {
	PlayerID string `json:"playerId"`
	Cards    []Card `json:"cards"`
}

// Hands is the single owner of every player's hand of response cards and of
// the submissions recorded for the current round. The controller's player
// records never carry a hand copy; they query this manager.
type Hands struct {
	deck        *Deck // response deck
	hands       map[string][]Card
	submissions map[string]Submission
	// submitted preserves arrival order for listing.
	submitted []string
}

// NewHands creates an empty manager backed by the response deck.
func NewHands(deck *Deck) *Hands {
	return &Hands{
		deck:        deck,
		hands:       make(map[string][]Card),
		submissions: make(map[string]Submission),
	}
}

// DealInitialHand draws size response cards and assigns them as the player's
// hand. The controller registers the player first; dealing twice is a bug.
func (h *Hands) DealInitialHand(playerID string, size int) error {
	if _, ok := h.hands[playerID]; ok {
		return fmt.Errorf("player %s already holds a hand: %w", playerID, ErrInvalidArgument)
	}
	cards, err := h.deck.Draw(size)
	if err != nil {
		return fmt.Errorf("deal hand for %s: %w", playerID, err)
	}
	h.hands[playerID] = cards
	return nil
}

// Submit validates and records a submission, replenishes the hand to its
// previous size, and moves the played cards to the discard pile. On any
// validation failure the hand and submission state are left untouched.
func (h *Hands) Submit(playerID string, cardIDs []string, required int) (Submission, error) {
	hand, ok := h.hands[playerID]
	if !ok {
		return Submission{}, fmt.Errorf("submit for %s: %w", playerID, ErrPlayerUnknown)
	}
	if _, dup := h.submissions[playerID]; dup {
		return Submission{}, fmt.Errorf("submit for %s: %w", playerID, ErrAlreadySubmitted)
	}
	if len(cardIDs) != required {
		return Submission{}, fmt.Errorf("submitted %d cards, prompt needs %d: %w",
			len(cardIDs), required, ErrWrongSubmissionSize)
	}

	seen := make(map[string]struct{}, len(cardIDs))
	picked := make([]Card, 0, len(cardIDs))
	remaining := slices.Clone(hand)
	for _, id := range cardIDs {
		if _, dup := seen[id]; dup {
			return Submission{}, fmt.Errorf("card %s played twice: %w", id, ErrDuplicateCard)
		}
		seen[id] = struct{}{}
		idx := slices.IndexFunc(remaining, func(c Card) bool { return c.ID == id })
		if idx < 0 {
			return Submission{}, fmt.Errorf("card %s: %w", id, ErrCardNotInHand)
		}
		picked = append(picked, remaining[idx])
		remaining = slices.Delete(remaining, idx, idx+1)
	}

	// Replacements are drawn before anything is committed so a deck
	// exhaustion leaves the hand exactly as it was.
	replacements, err := h.deck.Draw(len(picked))
	if err != nil {
		return Submission{}, fmt.Errorf("replenish hand for %s: %w", playerID, err)
	}
	h.hands[playerID] = append(remaining, replacements...)
	sub := Submission{PlayerID: playerID, Cards: picked}
	h.submissions[playerID] = sub
	h.submitted = append(h.submitted, playerID)
	if err := h.deck.Discard(picked...); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Hand returns a copy of the player's current hand.
func (h *Hands) Hand(playerID string) ([]Card, error) {
	hand, ok := h.hands[playerID]
	if !ok {
		return nil, fmt.Errorf("hand of %s: %w", playerID, ErrPlayerUnknown)
	}
	return slices.Clone(hand), nil
}

// DiscardHand moves the player's whole hand to the discard pile and removes
// the hand record. Used when a player leaves.
func (h *Hands) DiscardHand(playerID string) error {
	hand, ok := h.hands[playerID]
	if !ok {
		return fmt.Errorf("discard hand of %s: %w", playerID, ErrPlayerUnknown)
	}
	if err := h.deck.Discard(hand...); err != nil {
		return err
	}
	delete(h.hands, playerID)
	return nil
}

// DropSubmission forgets a player's recorded submission, if any. The played
// cards are already in the discard pile.
func (h *Hands) DropSubmission(playerID string) {
	if _, ok := h.submissions[playerID]; !ok {
		return
	}
	delete(h.submissions, playerID)
	h.submitted = slices.DeleteFunc(h.submitted, func(id string) bool { return id == playerID })
}

// ClearSubmissions drops every recorded submission without touching hands;
// hands were already replenished at submit time.
func (h *Hands) ClearSubmissions() {
	clear(h.submissions)
	h.submitted = h.submitted[:0]
}

// SubmissionFor returns the player's recorded submission for this round.
func (h *Hands) SubmissionFor(playerID string) (Submission, bool) {
	sub, ok := h.submissions[playerID]
	return sub, ok
}

// Submissions lists recorded submissions in arrival order.
func (h *Hands) Submissions() []Submission {
	out := make([]Submission, 0, len(h.submitted))
	for _, id := range h.submitted {
		out = append(out, h.submissions[id])
	}
	return out
}

// SubmissionCount reports how many players have submitted this round.
func (h *Hands) SubmissionCount() int {
	return len(h.submissions)
}

// CardsHeld counts all cards currently dealt into hands.
func (h *Hands) CardsHeld() int {
	n := 0
	for _, hand := range h.hands {
		n += len(hand)
	}
	return n
}
