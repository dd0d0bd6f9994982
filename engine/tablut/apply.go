package tablut

import (
	"fmt"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

// Apply validates and executes m: the piece slides, captures around the
// destination are resolved against the post-move board, the turn passes and
// the winner is recomputed. An illegal move leaves the state untouched.
func (s *State) Apply(m Move) error {
	if s.winner != engine.Nobody {
		return engine.ErrGameOver
	}
	if !s.IsLegal(m) {
		return fmt.Errorf("%w: %s", engine.ErrIllegalMove, m)
	}

	piece := s.PieceAt(m.From)
	s.cells[grid.Index(m.From)] = Empty
	s.cells[grid.Index(m.To)] = piece
	s.set(m.PlayerID).move(m.From, m.To)
	if piece == King {
		s.king = m.To
	}

	s.resolveCaptures(m.To, m.PlayerID)

	if s.turnPlayer == Muscovites {
		s.turnNumber++
	}
	s.turnPlayer = Opponent(s.turnPlayer)
	s.updateWinner()
	return nil
}

// resolveCaptures removes every enemy piece next to dest that the mover has
// sandwiched. All candidates are judged before any is removed.
func (s *State) resolveCaptures(dest coords.Coord, mover engine.PlayerID) {
	var captured [4]coords.Coord
	n := 0
	for _, victim := range grid.Neighbors(dest) {
		p := s.PieceAt(victim)
		if owner, ok := p.Owner(); !ok || owner == mover {
			continue
		}
		if s.isCaptured(dest, victim, p, mover) {
			captured[n] = victim
			n++
		}
	}
	for _, c := range captured[:n] {
		s.remove(c)
	}
}

func (s *State) isCaptured(dest, victim coords.Coord, p Piece, mover engine.PlayerID) bool {
	if p == King && grid.IsCenterOrNeighborCenter(victim) {
		// On or beside the center the king must be surrounded on all sides.
		for _, n := range grid.Neighbors(victim) {
			if s.PieceAt(n) != Black && !grid.IsCenter(n) {
				return false
			}
		}
		return true
	}
	far, err := grid.SandwichPartner(dest, victim)
	if err != nil {
		return false
	}
	return s.hostile(far, mover)
}

// hostile reports whether c closes a sandwich for mover: one of mover's
// pieces, a corner, or the empty center.
func (s *State) hostile(c coords.Coord, mover engine.PlayerID) bool {
	if owner, ok := s.PieceAt(c).Owner(); ok {
		return owner == mover
	}
	return grid.IsCorner(c) || grid.IsCenter(c)
}

func (s *State) remove(c coords.Coord) {
	p := s.PieceAt(c)
	s.cells[grid.Index(c)] = Empty
	if p == Black {
		s.attackers.remove(c)
		return
	}
	s.defenders.remove(c)
	if p == King {
		s.hasKing = false
	}
}

// updateWinner applies the terminal checks in priority order.
func (s *State) updateWinner() {
	switch {
	case !s.hasKing:
		s.winner = Muscovites
	case grid.IsCorner(s.king):
		s.winner = Swedes
	case !s.hasLegalMove(Swedes):
		s.winner = Muscovites
	case !s.hasLegalMove(Muscovites):
		s.winner = Swedes
	case s.Rules.MaxTurns > 0 && s.turnNumber > s.Rules.MaxTurns:
		s.winner = engine.Draw
	}
}
