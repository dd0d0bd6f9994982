package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalMove is wrapped by every rule violation reported by Apply.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNoLegalMoves is returned when a random move is requested for a
	// player that cannot move.
	ErrNoLegalMoves = errors.New("no legal moves")
	// ErrGameOver is returned by Apply once a winner is set.
	ErrGameOver = errors.New("game is already over")
	// ErrNoEnvironmentMoves is returned by boards that never give the turn
	// to the environment.
	ErrNoEnvironmentMoves = errors.New("board does not play environment moves")
)

// ParseError reports a malformed move token. The server drops the input and
// keeps waiting.
type ParseError struct {
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable move %q: %v", e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
