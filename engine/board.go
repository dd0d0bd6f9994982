package engine

// Move is an immutable action submitted by a player or by the environment.
type Move interface {
	// Player returns the player making the move.
	Player() PlayerID
	// Token is the single-line wire form. ParseMove(Token()) yields an
	// equal move.
	Token() string
	// String is a human readable description used in logs and end reasons.
	String() string
	// MustLog reports whether the move is written to the game log.
	MustLog() bool
	// Receivers lists the players the move is sent to; nil means everyone.
	// An empty non-nil slice logs the move without sending it.
	Receivers() []PlayerID
}

// BoardState is the rule engine's view of the game.
type BoardState interface {
	TurnPlayer() PlayerID
	TurnNumber() int
	Winner() PlayerID
	FirstPlayer() PlayerID
	GameOver() bool
}

// Board binds a BoardState to the session protocol. The session owns its
// Board exclusively; observers only ever see the result of Clone.
type Board interface {
	// Name identifies the rule engine in log headers.
	Name() string
	NumPlayers() int
	NameForID(p PlayerID) string
	IDForName(name string) (PlayerID, error)

	TurnPlayer() PlayerID
	TurnNumber() int
	Winner() PlayerID
	// ForceWinner records an outcome decided outside the rules (timeouts,
	// disconnections). It has no effect once a winner is set.
	ForceWinner(p PlayerID)

	// ParseMove decodes a wire token; failures are *ParseError.
	ParseMove(token string) (Move, error)
	// FilterMove lets the rule engine replace a submitted move with a
	// sequence of moves to apply in order.
	FilterMove(m Move) ([]Move, error)
	// Apply is the only way to change game state. An illegal move returns
	// an error wrapping ErrIllegalMove and leaves the state untouched.
	Apply(m Move) error
	// RandomMove draws uniformly from the turn player's legal moves.
	RandomMove() (Move, error)
	// EnvironmentMove supplies the move when TurnPlayer is Environment.
	EnvironmentMove() (Move, error)

	State() BoardState
	// Clone returns a deep copy sharing no mutable storage.
	Clone() Board
}

// TurnLimited is implemented by boards that draw the game after a
// configurable number of rounds. The limit is recorded in game logs so a
// replay applies the same rules.
type TurnLimited interface {
	MaxTurns() int
}
