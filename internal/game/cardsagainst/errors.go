package cardsagainst

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is; the
// engine never retries or swallows a failure itself.
var (
	// Malformed input: negative counts, empty ids, bad configuration.
	ErrInvalidArgument = errors.New("invalid argument")

	// Structural data-availability failures.
	ErrDeckExhausted   = errors.New("deck exhausted")
	ErrCatalogTooSmall = errors.New("card catalog too small")

	// Request validity failures. The call leaves game state unchanged and the
	// player can retry with corrected input.
	ErrPlayerUnknown       = errors.New("unknown player")
	ErrAlreadySubmitted    = errors.New("cards already submitted this round")
	ErrCardNotInHand       = errors.New("card not in hand")
	ErrDuplicateCard       = errors.New("duplicate card in submission")
	ErrWrongSubmissionSize = errors.New("wrong number of cards submitted")
	ErrJudgeCannotSubmit   = errors.New("the judge cannot submit cards")
	ErrNotJudge            = errors.New("player is not the judge")
	ErrNoSuchSubmission    = errors.New("no submission from that player")
	ErrWrongPhase          = errors.New("operation not allowed in this phase")

	// Room-level precondition failure; the owning service decides whether to
	// pause the game or end it.
	ErrInsufficientPlayers = errors.New("not enough players")

	// Invariant violations. These indicate a bug in the calling code, never a
	// bad request from a player.
	ErrWrongCardKind   = errors.New("card kind does not match deck")
	ErrDeckOverflow    = errors.New("deck overflow")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// IsBug reports whether err is an invariant violation rather than bad
// external input. The boundary logs these loudly and hides the detail from
// end users.
func IsBug(err error) bool {
	return errors.Is(err, ErrWrongCardKind) ||
		errors.Is(err, ErrDeckOverflow) ||
		errors.Is(err, ErrCorruptSnapshot)
}
