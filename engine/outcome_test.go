package engine

import (
	"errors"
	"testing"
)

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		winner PlayerID
		want   string
	}{
		{Draw, "DRAW"},
		{Nobody, "UNDECIDED"},
		{Cancelled(0), "CANCELLED 0"},
		{Cancelled(1), "CANCELLED 1"},
		{0, "WINNER 0"},
		{2, "WINNER 2"},
	}
	for _, tt := range tests {
		if got := OutcomeString(tt.winner); got != tt.want {
			t.Errorf("OutcomeString(%v) = %q, want %q", tt.winner, got, tt.want)
		}
	}
}

func TestGameOverLine(t *testing.T) {
	if got := GameOverLine("", 1); got != "GAMEOVER WINNER 1" {
		t.Errorf("got %q", got)
	}
	if got := GameOverLine("DISCONNECTION Player-0", 1); got != "GAMEOVER DISCONNECTION Player-0 WINNER 1" {
		t.Errorf("got %q", got)
	}
	if got := GameOverLine("USER CANCEL", Nobody); got != "GAMEOVER USER CANCEL UNDECIDED" {
		t.Errorf("got %q", got)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, w := range []PlayerID{0, 1, Draw, Nobody, Cancelled(0), Cancelled(3)} {
		line := GameOverLine("ILLEGAL MOVE: Swedes (p1) move (2, 4) to (2, 2)", w)
		got, err := ParseOutcome(line)
		if err != nil || got != w {
			t.Errorf("ParseOutcome(%q) = %v, %v; want %v", line, got, err, w)
		}
	}
	for _, bad := range []string{"", "PLAY Player-0", "GAMEOVER", "GAMEOVER WINNER x", "GAMEOVER TIMEOUT 3"} {
		if _, err := ParseOutcome(bad); err == nil {
			t.Errorf("ParseOutcome(%q) succeeded", bad)
		}
	}
}

func TestSentinels(t *testing.T) {
	seen := map[PlayerID]bool{}
	for _, p := range []PlayerID{Nobody, Draw, Environment, Cancelled(0), Cancelled(1)} {
		if p.IsSeat() {
			t.Errorf("%v reported as a seat", p)
		}
		if seen[p] {
			t.Errorf("sentinel %v collides", p)
		}
		seen[p] = true
	}
	if side, ok := Cancelled(1).CancelledSide(); !ok || side != 1 {
		t.Errorf("CancelledSide = %v, %v", side, ok)
	}
	if _, ok := Draw.CancelledSide(); ok {
		t.Error("Draw reported as cancelled")
	}
	if !PlayerID(0).IsSeat() {
		t.Error("seat 0 not a seat")
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&ParseError{Token: "x", Err: inner})
	if !errors.Is(err, inner) {
		t.Error("ParseError does not unwrap")
	}
}
