package cardsagainst

import (
	"fmt"
	"math/rand"
)

// Deck has exclusive custody of one draw/discard pile pair for a single card
// kind. Cards it hands out via Draw are "in play" and owned by the caller
// until they come back through Discard; the deck guarantees that no card is
// duplicated or silently dropped in between.
type Deck struct {
	kind    Kind
	draw    []Card // top of the pile is the last element
	discard []Card
	// total is the number of catalog cards this deck has seen since its
	// last reset, and doubles as the overflow bound: draw + discard +
	// incoming discards may never exceed it.
	total int
	rng   *rand.Rand
}

// DeckStats are read-only pile counts for observability and tests.
type DeckStats struct {
	DrawPile    int `json:"drawPile"`
	DiscardPile int `json:"discardPile"`
	Total       int `json:"total"`
}

// NewDeck builds a freshly shuffled deck from the given cards.
func NewDeck(kind Kind, cards []Card, rng *rand.Rand) *Deck {
	d := &Deck{kind: kind, rng: rng}
	d.Reset(cards)
	return d
}

// Draw removes exactly n cards from circulation and returns them. It
// reshuffles the discard pile into the draw pile as many times as needed
// mid-draw; it fails with ErrDeckExhausted only when both piles together
// hold fewer than n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("draw %d cards: %w", n, ErrInvalidArgument)
	}
	if n == 0 {
		return nil, nil
	}
	if len(d.draw)+len(d.discard) < n {
		return nil, fmt.Errorf("draw %d %s cards with %d in circulation: %w",
			n, d.kind, len(d.draw)+len(d.discard), ErrDeckExhausted)
	}
	cards := make([]Card, 0, n)
	for len(cards) < n {
		if len(d.draw) == 0 {
			d.reshuffle()
		}
		top := len(d.draw) - 1
		cards = append(cards, d.draw[top])
		d.draw = d.draw[:top]
	}
	return cards, nil
}

// Discard returns cards to the discard pile. A kind mismatch or a discard
// that would push the deck past its catalog total signals a bug in the
// calling code, not a recoverable runtime condition.
func (d *Deck) Discard(cards ...Card) error {
	for _, c := range cards {
		if c.Kind != d.kind {
			return fmt.Errorf("discard %s card %q into %s deck: %w", c.Kind, c.ID, d.kind, ErrWrongCardKind)
		}
	}
	if len(d.draw)+len(d.discard)+len(cards) > d.total {
		return fmt.Errorf("discard of %d cards would exceed %s deck total %d: %w",
			len(cards), d.kind, d.total, ErrDeckOverflow)
	}
	d.discard = append(d.discard, cards...)
	return nil
}

// Reset rebuilds a shuffled draw pile from the full catalog set for this
// kind and empties the discard pile.
func (d *Deck) Reset(cards []Card) {
	d.total = len(cards)
	d.draw = d.shuffled(cards)
	d.discard = nil
}

// Stats reports current pile sizes.
func (d *Deck) Stats() DeckStats {
	return DeckStats{
		DrawPile:    len(d.draw),
		DiscardPile: len(d.discard),
		Total:       d.total,
	}
}

func (d *Deck) reshuffle() {
	d.draw = d.shuffled(d.discard)
	d.discard = nil
}

// shuffled returns a uniformly shuffled copy (Fisher-Yates via rand.Shuffle).
func (d *Deck) shuffled(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	d.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// restore replaces the piles with resolved snapshot contents. The caller is
// responsible for verifying card conservation afterwards.
func (d *Deck) restore(draw, discard []Card, total int) {
	d.draw = draw
	d.discard = discard
	d.total = total
}

func cardIDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
