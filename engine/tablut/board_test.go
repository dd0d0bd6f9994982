package tablut

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/coords"
)

func TestPlayerNames(t *testing.T) {
	b := NewBoard(DefaultRules())
	for _, p := range []engine.PlayerID{Muscovites, Swedes} {
		name := b.NameForID(p)
		got, err := b.IDForName(name)
		if err != nil || got != p {
			t.Errorf("IDForName(%q) = %v, %v; want %v", name, got, err, p)
		}
	}
	if b.NameForID(Swedes) != "Player-1" {
		t.Errorf("NameForID(1) = %q, want Player-1", b.NameForID(Swedes))
	}
	for _, bad := range []string{"Player", "Player-x", "Player-2", ""} {
		if _, err := b.IDForName(bad); err == nil {
			t.Errorf("IDForName(%q) succeeded", bad)
		}
	}
}

func TestMoveTokenRoundTrip(t *testing.T) {
	m := mv(3, 0, 3, 2, Muscovites)
	if m.Token() != "3 0 3 2 0" {
		t.Errorf("Token = %q", m.Token())
	}
	got, err := ParseMove(m.Token())
	if err != nil || got != m {
		t.Errorf("ParseMove(%q) = %v, %v", m.Token(), got, err)
	}
	if m.String() != "Muscovites (p0) move (3, 0) to (3, 2)" {
		t.Errorf("String = %q", m.String())
	}
}

func TestParseMoveErrors(t *testing.T) {
	for _, tok := range []string{"", "1 2 3 4", "a b c d e", "1 2 3 4 5 6", "0 0 9 0 0", "1 1 1 2 7"} {
		_, err := ParseMove(tok)
		var pe *engine.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseMove(%q) err = %v, want *ParseError", tok, err)
		}
	}
	_, err := ParseMove("0 0 9 0 0")
	if !errors.Is(err, coords.ErrOffBoard) {
		t.Errorf("off-board err = %v, want ErrOffBoard", err)
	}
}

type foreignMove struct{ engine.Move }

func TestBoardApply(t *testing.T) {
	b := NewBoard(DefaultRules())
	m, err := b.ParseMove("3 0 3 2 0")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if err := b.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.TurnPlayer() != Swedes || b.TurnNumber() != 1 {
		t.Errorf("turn=%v number=%d", b.TurnPlayer(), b.TurnNumber())
	}
	if err := b.Apply(foreignMove{}); !errors.Is(err, engine.ErrIllegalMove) {
		t.Errorf("Apply(foreign) = %v, want ErrIllegalMove", err)
	}
}

func TestBoardContract(t *testing.T) {
	b := NewBoard(DefaultRules())
	moves, err := b.FilterMove(mv(3, 0, 3, 2, Muscovites))
	if err != nil || len(moves) != 1 {
		t.Errorf("FilterMove = %v, %v", moves, err)
	}
	if _, err := b.EnvironmentMove(); !errors.Is(err, engine.ErrNoEnvironmentMoves) {
		t.Errorf("EnvironmentMove err = %v", err)
	}

	c := b.Clone()
	rm, err := c.RandomMove()
	if err != nil {
		t.Fatalf("RandomMove: %v", err)
	}
	if err := c.Apply(rm); err != nil {
		t.Fatalf("Apply(%s): %v", rm, err)
	}
	if b.TurnPlayer() != Muscovites {
		t.Error("clone shares state with the original")
	}

	b.ForceWinner(Swedes)
	if !b.State().GameOver() || b.Winner() != Swedes {
		t.Errorf("winner = %v after ForceWinner", b.Winner())
	}
}
