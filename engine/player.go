// Package engine defines the contract between the game server and a
// pluggable rule engine: player identities, moves, boards and the errors a
// rule engine reports.
//
// A rule engine is a closed variant (one package per game) implementing
// Board. The server drives it exclusively through Board.Apply, which keeps
// the log authoritative: every state change is a move, and every move is
// logged in the order it was applied.
package engine

import "fmt"

// PlayerID identifies a seat (0..NumPlayers-1) or one of the reserved
// sentinels below. Methods that report a player never return any other value.
type PlayerID int

// Sentinels sit far outside any seat range.
const (
	sentinelBase PlayerID = 1 << 30

	// Nobody means the game has no winner yet.
	Nobody = sentinelBase + iota
	// Draw means the game ended without a winner.
	Draw
	// Environment is the pseudo-player a rule engine uses to inject its
	// own moves.
	Environment

	cancelledBase PlayerID = sentinelBase + 1<<20
)

// Cancelled returns the sentinel for a game voided through side's fault.
func Cancelled(side PlayerID) PlayerID {
	return cancelledBase + side
}

// IsSeat reports whether p is an ordinary seat index.
func (p PlayerID) IsSeat() bool { return p >= 0 && p < sentinelBase }

// CancelledSide returns the offending side if p is a Cancelled sentinel.
func (p PlayerID) CancelledSide() (PlayerID, bool) {
	if p >= cancelledBase {
		return p - cancelledBase, true
	}
	return 0, false
}

func (p PlayerID) String() string {
	switch p {
	case Nobody:
		return "NOBODY"
	case Draw:
		return "DRAW"
	case Environment:
		return "ENVIRONMENT"
	}
	if side, ok := p.CancelledSide(); ok {
		return fmt.Sprintf("CANCELLED(%d)", int(side))
	}
	return fmt.Sprintf("%d", int(p))
}
