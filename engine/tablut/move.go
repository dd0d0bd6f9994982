package tablut

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

// Move slides one piece along a row or column.
type Move struct {
	From, To coords.Coord
	PlayerID engine.PlayerID
}

var _ engine.Move = Move{}

func (m Move) Player() engine.PlayerID { return m.PlayerID }
func (m Move) MustLog() bool { return true }
func (m Move) Receivers() []engine.PlayerID { return nil }

// Token encodes the move as "x0 y0 x1 y1 player".
func (m Move) Token() string {
	return fmt.Sprintf("%d %d %d %d %d", m.From.X, m.From.Y, m.To.X, m.To.Y, int(m.PlayerID))
}

func (m Move) String() string {
	return fmt.Sprintf("%s (p%d) move (%d, %d) to (%d, %d)",
		SideName(m.PlayerID), int(m.PlayerID), m.From.X, m.From.Y, m.To.X, m.To.Y)
}

// ParseMove decodes a token produced by Move.Token.
func ParseMove(token string) (Move, error) {
	fields := strings.Fields(token)
	if len(fields) != 5 {
		return Move{}, &engine.ParseError{Token: token, Err: fmt.Errorf("want 5 fields, got %d", len(fields))}
	}
	var n [5]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Move{}, &engine.ParseError{Token: token, Err: err}
		}
		n[i] = v
	}
	m := Move{
		From:     coords.Coord{X: n[0], Y: n[1]},
		To:       coords.Coord{X: n[2], Y: n[3]},
		PlayerID: engine.PlayerID(n[4]),
	}
	if !grid.Contains(m.From) || !grid.Contains(m.To) {
		return Move{}, &engine.ParseError{Token: token, Err: coords.ErrOffBoard}
	}
	if m.PlayerID != Muscovites && m.PlayerID != Swedes {
		return Move{}, &engine.ParseError{Token: token, Err: errors.New("unknown player")}
	}
	return m, nil
}
