// Package client plays one game against the server on behalf of an agent.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/agent"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
)

// ErrDesync means the server echoed a move the local board rejects.
var ErrDesync = errors.New("local board out of sync with server")

// Result is one finished game as seen by this client.
type Result struct {
	Player   engine.PlayerID
	Winner   engine.PlayerID
	GameOver string // the GAMEOVER line as received
	Moves    int    // moves mirrored onto the local board
}

// Run joins the game on conn, mirrors every move the server echoes onto b and
// answers each PLAY prompt with a move chosen by a. It returns after GAMEOVER
// and closes conn.
func Run(ctx context.Context, conn transport.Conn, b engine.Board, a agent.Agent) (Result, error) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	res := Result{Player: engine.Nobody, Winner: engine.Nobody}
	entry := log.WithField("agent", a.Name())

	if err := conn.WriteLine("START " + a.Name()); err != nil {
		return res, fmt.Errorf("send START: %w", err)
	}

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			return res, fmt.Errorf("connection lost before game over: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "START":
			if len(fields) < 2 {
				return res, fmt.Errorf("malformed START line %q", line)
			}
			id, err := b.IDForName(fields[1])
			if err != nil {
				return res, fmt.Errorf("START line %q: %w", line, err)
			}
			res.Player = id
			entry = entry.WithField("player", fields[1])
			entry.Info("seated")

		case "PLAY":
			m, err := a.ChooseMove(b)
			if err != nil {
				return res, fmt.Errorf("choose move: %w", err)
			}
			entry.WithField("move", m.Token()).Debug("playing")
			if err := conn.WriteLine(m.Token()); err != nil {
				return res, fmt.Errorf("send move: %w", err)
			}

		case "GAMEOVER":
			res.GameOver = line
			winner, err := engine.ParseOutcome(line)
			if err != nil {
				return res, err
			}
			b.ForceWinner(winner)
			res.Winner = winner
			entry.WithField("outcome", engine.OutcomeString(winner)).Info("game over")
			return res, nil

		default:
			m, err := b.ParseMove(line)
			if err != nil {
				return res, fmt.Errorf("%w: %v", ErrDesync, err)
			}
			if err := b.Apply(m); err != nil {
				return res, fmt.Errorf("%w: %v", ErrDesync, err)
			}
			res.Moves++
		}
	}
}
