package game

// Error is a sentinel error type for game rule violations, so handlers can
// map them to error envelopes without string matching.
type Error string

// Error implements the error interface.
func (e Error) Error() string { return string(e) }

const (
	ErrTooFewPlayers      Error = "at least 4 players are required"
	ErrTooManyPlayers     Error = "too many players for the role pool"
	ErrBlankPlayerName    Error = "every player needs a name"
	ErrDuplicateName      Error = "duplicate player names are not allowed"
	ErrGameNotStarted     Error = "game not started"
	ErrGameFinished       Error = "game already finished"
	ErrNotInGame          Error = "player not in game"
	ErrWrongPhase         Error = "action not allowed in this phase"
	ErrAlreadyRevealed    Error = "role already revealed"
	ErrNotMinister        Error = "only the minister can do that"
	ErrGuessResolved      Error = "the guess for this round is already resolved"
	ErrGuessSelf          Error = "the minister cannot accuse themselves"
	ErrMissingCoreRole    Error = "round is missing a core role"
	ErrHintUsed           Error = "only one hint per round"
	ErrUnknownHintTier    Error = "unknown hint tier"
	ErrInsufficientCoins  Error = "not enough coins"
	ErrNotEnoughSuspects  Error = "not enough players to reveal for this hint"
	ErrRoundNotResolved   Error = "resolve the current round first"
)
