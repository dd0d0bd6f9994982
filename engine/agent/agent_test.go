package agent

import (
	"testing"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/tablut"
)

func TestRandomAgentPlaysLegalMoves(t *testing.T) {
	b := tablut.NewBoard(tablut.DefaultRules())
	a := NewRandom("rnd")
	for i := 0; i < 40 && b.Winner() == engine.Nobody; i++ {
		m, err := a.ChooseMove(b)
		if err != nil {
			t.Fatalf("ChooseMove: %v", err)
		}
		if m.Player() != b.TurnPlayer() {
			t.Fatalf("move %s for wrong player", m)
		}
		if err := b.Apply(m); err != nil {
			t.Fatalf("Apply(%s): %v", m, err)
		}
	}
}

func TestGreedyDoesNotMutate(t *testing.T) {
	b := tablut.NewBoard(tablut.DefaultRules())
	before := *b.Tablut()
	if _, err := NewGreedy("g", 1848).ChooseMove(b); err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	if *b.Tablut() != before {
		t.Error("ChooseMove changed the board")
	}
}

func TestGreedyTakesCapture(t *testing.T) {
	b := tablut.NewBoard(tablut.DefaultRules())
	// The attacker lands between two defender lanes; (2, 4)->(2, 3) or
	// (4, 2)->(3, 2) captures it.
	m, err := b.ParseMove("3 0 3 3 0")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if err := b.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	before := b.Tablut().NumPieces(tablut.Muscovites)
	m, err = NewGreedy("g", 7).ChooseMove(b)
	if err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	if err := b.Apply(m); err != nil {
		t.Fatalf("Apply(%s): %v", m, err)
	}
	if got := b.Tablut().NumPieces(tablut.Muscovites); got != before-1 {
		t.Errorf("greedy move %s: attackers %d -> %d, want one capture", m, before, got)
	}
}

func TestGreedyBeatsRandom(t *testing.T) {
	wins := 0
	for game := 0; game < 5; game++ {
		rules := tablut.DefaultRules()
		rules.Seed = uint64(game + 1)
		b := tablut.NewBoard(rules)
		players := map[engine.PlayerID]Agent{
			tablut.Muscovites: NewRandom("rnd"),
			tablut.Swedes:     NewGreedy("greedy", uint64(game)),
		}
		for b.Winner() == engine.Nobody {
			m, err := players[b.TurnPlayer()].ChooseMove(b)
			if err != nil {
				t.Fatalf("game %d: ChooseMove: %v", game, err)
			}
			if err := b.Apply(m); err != nil {
				t.Fatalf("game %d: Apply(%s): %v", game, m, err)
			}
		}
		if b.Winner() == tablut.Swedes {
			wins++
		}
	}
	if wins == 0 {
		t.Error("greedy Swedes never beat random Muscovites")
	}
}
