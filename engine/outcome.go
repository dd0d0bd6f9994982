package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// OutcomeString renders a winner value the way it appears at the end of a
// GAMEOVER line: DRAW, UNDECIDED, CANCELLED <side> or WINNER <id>.
func OutcomeString(winner PlayerID) string {
	switch winner {
	case Draw:
		return "DRAW"
	case Nobody:
		return "UNDECIDED"
	}
	if side, ok := winner.CancelledSide(); ok {
		return fmt.Sprintf("CANCELLED %d", int(side))
	}
	return fmt.Sprintf("WINNER %d", int(winner))
}

// GameOverLine builds the terminal protocol line. reason may be empty.
func GameOverLine(reason string, winner PlayerID) string {
	if reason == "" {
		return "GAMEOVER " + OutcomeString(winner)
	}
	return "GAMEOVER " + reason + " " + OutcomeString(winner)
}

// ParseOutcome extracts the winner value from a GAMEOVER line.
func ParseOutcome(line string) (PlayerID, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "GAMEOVER" {
		return Nobody, fmt.Errorf("not a GAMEOVER line: %q", line)
	}
	last := fields[len(fields)-1]
	switch last {
	case "DRAW":
		return Draw, nil
	case "UNDECIDED":
		return Nobody, nil
	}
	n, err := strconv.Atoi(last)
	if err != nil || len(fields) < 3 {
		return Nobody, fmt.Errorf("malformed outcome in %q", line)
	}
	switch fields[len(fields)-2] {
	case "WINNER":
		return PlayerID(n), nil
	case "CANCELLED":
		return Cancelled(PlayerID(n)), nil
	}
	return Nobody, fmt.Errorf("malformed outcome in %q", line)
}
