package tablut

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/boardgame/engine"
)

// Board adapts a State to the engine.Board contract.
type Board struct {
	state *State
}

var (
	_ engine.Board       = (*Board)(nil)
	_ engine.TurnLimited = (*Board)(nil)
)

// NewBoard returns a board at the opening position.
func NewBoard(rules Rules) *Board {
	return &Board{state: NewState(rules)}
}

// NewBoardFromState wraps an existing state. The board takes ownership.
func NewBoardFromState(s *State) *Board {
	return &Board{state: s}
}

func (b *Board) Name() string { return "tablut.Board" }

func (b *Board) NumPlayers() int { return NumPlayers }

// MaxTurns returns the round limit; 0 means unlimited.
func (b *Board) MaxTurns() int { return b.state.Rules.MaxTurns }

// NameForID returns "Player-<id>".
func (b *Board) NameForID(p engine.PlayerID) string {
	return fmt.Sprintf("Player-%d", int(p))
}

// IDForName is the inverse of NameForID.
func (b *Board) IDForName(name string) (engine.PlayerID, error) {
	_, num, ok := strings.Cut(name, "-")
	if !ok {
		return engine.Nobody, fmt.Errorf("unknown player name %q", name)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 || n >= NumPlayers {
		return engine.Nobody, fmt.Errorf("unknown player name %q", name)
	}
	return engine.PlayerID(n), nil
}

func (b *Board) TurnPlayer() engine.PlayerID { return b.state.TurnPlayer() }
func (b *Board) TurnNumber() int { return b.state.TurnNumber() }
func (b *Board) Winner() engine.PlayerID { return b.state.Winner() }
func (b *Board) ForceWinner(p engine.PlayerID) { b.state.ForceWinner(p) }

func (b *Board) ParseMove(token string) (engine.Move, error) {
	m, err := ParseMove(token)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FilterMove passes moves through unchanged.
func (b *Board) FilterMove(m engine.Move) ([]engine.Move, error) {
	return []engine.Move{m}, nil
}

func (b *Board) Apply(m engine.Move) error {
	tm, ok := m.(Move)
	if !ok {
		return fmt.Errorf("%w: %T is not a tablut move", engine.ErrIllegalMove, m)
	}
	return b.state.Apply(tm)
}

func (b *Board) RandomMove() (engine.Move, error) {
	m, err := b.state.RandomMove()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EnvironmentMove always fails: Tablut never hands the turn to the
// environment.
func (b *Board) EnvironmentMove() (engine.Move, error) {
	return nil, engine.ErrNoEnvironmentMoves
}

func (b *Board) State() engine.BoardState { return b.state }

// Tablut returns the underlying state.
func (b *Board) Tablut() *State { return b.state }

func (b *Board) Clone() engine.Board {
	return &Board{state: b.state.Clone()}
}

func (b *Board) String() string { return b.state.String() }
