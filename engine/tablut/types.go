// Package tablut implements the Tablut rule engine: a 9x9 asymmetric board
// where the Muscovites (attackers) try to capture the Swedish king and the
// Swedes try to walk him to a corner.
package tablut

import (
	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

// BoardSize is the side length of the board.
const BoardSize = 9

const numCells = BoardSize * BoardSize

// Sides. The Muscovites move first.
const (
	Muscovites engine.PlayerID = 0
	Swedes     engine.PlayerID = 1
	NumPlayers                 = 2
)

// maxPieces bounds the per-side piece set (16 attackers; 8 defenders + king).
const maxPieces = 16

var grid = coords.NewGrid(BoardSize)

// Grid exposes the board geometry shared by every State.
func Grid() *coords.Grid { return grid }

// Piece is the content of a single cell.
type Piece uint8

const (
	Empty Piece = iota
	Black       // Muscovite
	White       // Swede
	King        // Swedish king
)

// Owner returns the side a piece belongs to. ok is false for Empty.
func (p Piece) Owner() (side engine.PlayerID, ok bool) {
	switch p {
	case Black:
		return Muscovites, true
	case White, King:
		return Swedes, true
	}
	return engine.Nobody, false
}

func (p Piece) String() string {
	switch p {
	case Black:
		return "B"
	case White:
		return "W"
	case King:
		return "K"
	}
	return "."
}

// SideName returns "Muscovites" or "Swedes".
func SideName(p engine.PlayerID) string {
	switch p {
	case Muscovites:
		return "Muscovites"
	case Swedes:
		return "Swedes"
	}
	return p.String()
}

// Rules holds configurable game settings.
type Rules struct {
	MaxTurns int    // the game is a draw once the round counter exceeds this; 0 = unlimited
	Seed     uint64 // seeds the random-move generator; 0 is treated as 1
}

// DefaultRules returns the standard Tablut settings.
func DefaultRules() Rules {
	return Rules{
		MaxTurns: 100,
		Seed:     1917,
	}
}
