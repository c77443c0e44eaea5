package cardsagainst

import "fmt"

// Kind distinguishes the two decks.
type Kind string

const (
	KindPrompt   Kind = "prompt"
	KindResponse Kind = "response"
)

// Card is immutable once created; the catalog is the sole source of Card
// values and every other component copies them by value.
type Card struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	// Pick is how many response cards a submission must contain. Set on
	// prompt cards only, always >= 1 there.
	Pick int `json:"pick,omitempty"`
}

// Minimum catalog sizes for a playable game.
const (
	MinPromptCards   = 20
	MinResponseCards = 100
)

// Catalog is the fixed card set a game is built from.
type Catalog struct {
	prompts   []Card
	responses []Card
	byID      map[string]Card
}

// NewCatalog validates the card set: ids unique and non-empty, text
// non-empty, prompt cards carry a pick count >= 1.
func NewCatalog(cards []Card) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Card, len(cards))}
	for _, card := range cards {
		if card.ID == "" || card.Text == "" {
			return nil, fmt.Errorf("card %q has empty id or text: %w", card.ID, ErrInvalidArgument)
		}
		if _, dup := c.byID[card.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q: %w", card.ID, ErrInvalidArgument)
		}
		switch card.Kind {
		case KindPrompt:
			if card.Pick < 1 {
				return nil, fmt.Errorf("prompt card %q has pick %d: %w", card.ID, card.Pick, ErrInvalidArgument)
			}
			c.prompts = append(c.prompts, card)
		case KindResponse:
			if card.Pick != 0 {
				return nil, fmt.Errorf("response card %q has a pick count: %w", card.ID, ErrInvalidArgument)
			}
			c.responses = append(c.responses, card)
		default:
			return nil, fmt.Errorf("card %q has kind %q: %w", card.ID, card.Kind, ErrInvalidArgument)
		}
		c.byID[card.ID] = card
	}
	return c, nil
}

// Cards returns a copy of the full set for one kind.
func (c *Catalog) Cards(kind Kind) []Card {
	var src []Card
	if kind == KindPrompt {
		src = c.prompts
	} else {
		src = c.responses
	}
	out := make([]Card, len(src))
	copy(out, src)
	return out
}

// Size reports how many cards of a kind the catalog holds.
func (c *Catalog) Size(kind Kind) int {
	if kind == KindPrompt {
		return len(c.prompts)
	}
	return len(c.responses)
}

// Lookup resolves a card by id.
func (c *Catalog) Lookup(id string) (Card, bool) {
	card, ok := c.byID[id]
	return card, ok
}
