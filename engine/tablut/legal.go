package tablut

import (
	"fmt"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

var directions = [4]coords.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// IsLegal reports whether m may be applied to the current state. It never
// modifies the state.
func (s *State) IsLegal(m Move) bool {
	if s.winner != engine.Nobody || m.PlayerID != s.turnPlayer {
		return false
	}
	if !grid.Contains(m.From) || !grid.Contains(m.To) || m.From == m.To {
		return false
	}
	piece := s.PieceAt(m.From)
	if owner, ok := piece.Owner(); !ok || owner != m.PlayerID {
		return false
	}
	if s.PieceAt(m.To) != Empty || !canLand(piece, m.To) {
		return false
	}
	if m.From.X != m.To.X && m.From.Y != m.To.Y {
		return false
	}
	for _, c := range grid.Between(m.From, m.To) {
		if s.PieceAt(c) != Empty {
			return false
		}
	}
	return true
}

// canLand reports whether piece may stop on c: the corners and the center
// are reserved for the king.
func canLand(piece Piece, c coords.Coord) bool {
	return piece == King || !(grid.IsCorner(c) || grid.IsCenter(c))
}

// walk calls fn for every legal destination of the piece on from, stopping
// early when fn returns false. It reports whether the walk ran to completion.
func (s *State) walk(from coords.Coord, fn func(to coords.Coord) bool) bool {
	piece := s.PieceAt(from)
	for _, d := range directions {
		for to := (coords.Coord{X: from.X + d.X, Y: from.Y + d.Y}); grid.Contains(to); to = (coords.Coord{X: to.X + d.X, Y: to.Y + d.Y}) {
			if s.PieceAt(to) != Empty {
				break
			}
			if canLand(piece, to) && !fn(to) {
				return false
			}
		}
	}
	return true
}

// LegalMovesFrom lists the legal moves of the piece on from. It is empty
// unless the piece belongs to the turn player.
func (s *State) LegalMovesFrom(from coords.Coord) []Move {
	if s.winner != engine.Nobody {
		return nil
	}
	owner, ok := s.PieceAt(from).Owner()
	if !ok || owner != s.turnPlayer {
		return nil
	}
	var out []Move
	s.walk(from, func(to coords.Coord) bool {
		out = append(out, Move{From: from, To: to, PlayerID: owner})
		return true
	})
	return out
}

// LegalMoves lists every legal move of the turn player. The order is
// deterministic for a given history.
func (s *State) LegalMoves() []Move {
	if s.winner != engine.Nobody {
		return nil
	}
	var out []Move
	set := s.set(s.turnPlayer)
	for _, c := range set.cells[:set.n] {
		out = append(out, s.LegalMovesFrom(c)...)
	}
	return out
}

// hasLegalMove reports whether side could move if it were its turn.
func (s *State) hasLegalMove(side engine.PlayerID) bool {
	set := s.set(side)
	for _, c := range set.cells[:set.n] {
		found := false
		s.walk(c, func(coords.Coord) bool {
			found = true
			return false
		})
		if found {
			return true
		}
	}
	return false
}

// RandomMove draws uniformly from the turn player's legal moves using the
// state's own generator.
func (s *State) RandomMove() (Move, error) {
	moves := s.LegalMoves()
	if len(moves) == 0 {
		return Move{}, fmt.Errorf("%s: %w", SideName(s.turnPlayer), engine.ErrNoLegalMoves)
	}
	return moves[s.randN(len(moves))], nil
}
