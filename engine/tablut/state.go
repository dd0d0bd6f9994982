package tablut

import (
	"strings"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

// pieceSet tracks the cells occupied by one side. Removal swaps the last
// entry into the hole, so iteration order depends only on the sequence of
// applied moves.
type pieceSet struct {
	cells [maxPieces]coords.Coord
	n     uint8
	pos   [numCells]uint8 // 1-based slot in cells; 0 = absent
}

func (s *pieceSet) add(c coords.Coord) {
	s.cells[s.n] = c
	s.n++
	s.pos[grid.Index(c)] = s.n
}

func (s *pieceSet) remove(c coords.Coord) {
	i := s.pos[grid.Index(c)]
	if i == 0 {
		return
	}
	s.pos[grid.Index(c)] = 0
	s.n--
	if last := s.cells[s.n]; int(i-1) != int(s.n) {
		s.cells[i-1] = last
		s.pos[grid.Index(last)] = i
	}
}

func (s *pieceSet) move(from, to coords.Coord) {
	i := s.pos[grid.Index(from)]
	if i == 0 {
		return
	}
	s.pos[grid.Index(from)] = 0
	s.cells[i-1] = to
	s.pos[grid.Index(to)] = i
}

func (s *pieceSet) len() int { return int(s.n) }

func (s *pieceSet) list() []coords.Coord {
	out := make([]coords.Coord, s.n)
	copy(out, s.cells[:s.n])
	return out
}

// State is the complete Tablut game state. It is a flat value type: copying
// a State (or calling Clone) yields an independent game.
type State struct {
	cells     [numCells]Piece
	attackers pieceSet
	defenders pieceSet // includes the king
	king      coords.Coord
	hasKing   bool

	turnPlayer engine.PlayerID
	turnNumber int
	winner     engine.PlayerID

	Rules Rules
	rng   uint64
}

var _ engine.BoardState = (*State)(nil)

// NewState sets up the opening position.
func NewState(rules Rules) *State {
	s := &State{
		turnPlayer: Muscovites,
		winner:     engine.Nobody,
		Rules:      rules,
		rng:        rules.Seed,
	}
	if s.rng == 0 {
		s.rng = 1 // xorshift can't start at 0
	}

	mid := BoardSize / 2
	last := BoardSize - 1
	place := func(x, y int, p Piece) { s.cells[grid.Index(coords.Coord{X: x, Y: y})] = p }

	place(mid, mid, King)
	for _, edge := range []int{0, last} {
		for d := -1; d <= 1; d++ {
			place(mid+d, edge, Black)
			place(edge, mid+d, Black)
		}
	}
	for _, in := range []int{1, last - 1} {
		place(mid, in, Black)
		place(in, mid, Black)
	}
	for _, d := range []int{-2, -1, 1, 2} {
		place(mid+d, mid, White)
		place(mid, mid+d, White)
	}

	for _, c := range grid.Cells() {
		switch s.cells[grid.Index(c)] {
		case Black:
			s.attackers.add(c)
		case White:
			s.defenders.add(c)
		case King:
			s.defenders.add(c)
			s.king = c
			s.hasKing = true
		}
	}
	return s
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := *s
	return &c
}

func (s *State) TurnPlayer() engine.PlayerID { return s.turnPlayer }
func (s *State) TurnNumber() int { return s.turnNumber }
func (s *State) Winner() engine.PlayerID { return s.winner }
func (s *State) FirstPlayer() engine.PlayerID { return Muscovites }
func (s *State) GameOver() bool { return s.winner != engine.Nobody }

// Opponent returns the side that is not p.
func Opponent(p engine.PlayerID) engine.PlayerID {
	if p == Muscovites {
		return Swedes
	}
	return Muscovites
}

// PieceAt returns the piece on c, or Empty when c is off the board.
func (s *State) PieceAt(c coords.Coord) Piece {
	if !grid.Contains(c) {
		return Empty
	}
	return s.cells[grid.Index(c)]
}

// KingPosition returns the king's cell; ok is false once he is captured.
func (s *State) KingPosition() (c coords.Coord, ok bool) {
	return s.king, s.hasKing
}

// PieceCoords lists the cells held by side (the king counts for the Swedes).
func (s *State) PieceCoords(side engine.PlayerID) []coords.Coord {
	return s.set(side).list()
}

// NumPieces counts side's pieces.
func (s *State) NumPieces(side engine.PlayerID) int {
	return s.set(side).len()
}

func (s *State) set(side engine.PlayerID) *pieceSet {
	if side == Muscovites {
		return &s.attackers
	}
	return &s.defenders
}

// ForceWinner records an outcome decided outside the rules. It has no effect
// once a winner is set.
func (s *State) ForceWinner(p engine.PlayerID) {
	if s.winner == engine.Nobody {
		s.winner = p
	}
}

// String renders the board with row 0 on top.
func (s *State) String() string {
	var b strings.Builder
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(s.PieceAt(coords.Coord{X: x, Y: y}).String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// xorshift64 RNG
// ---------------------------------------------------------------------------

func (s *State) nextRand() uint64 {
	x := s.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.rng = x
	return x
}

// randN returns a random number in [0, n).
func (s *State) randN(n int) int {
	return int(s.nextRand() % uint64(n))
}
