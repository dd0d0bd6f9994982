// Command replay rebuilds a Tablut game from its log and prints every
// position, or only the final one with -final.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/tablut"
	"github.com/jason-s-yu/boardgame/service/internal/gamelog"
	log "github.com/sirupsen/logrus"
)

func main() {
	final := flag.Bool("final", false, "print only the final position")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-final] game00001.log")
		os.Exit(2)
	}

	rec, err := gamelog.ReadFile(flag.Arg(0))
	if err != nil {
		log.WithError(err).Fatal("cannot read log")
	}
	if rec.Header["Board class"] != "tablut.Board" {
		log.WithField("board", rec.Header["Board class"]).Fatal("not a tablut game")
	}

	b, err := replay(rec, *final, os.Stdout)
	if err != nil {
		log.WithError(err).Fatal("log does not replay")
	}
	if rec.GameOver != "" {
		if w, err := engine.ParseOutcome(rec.GameOver); err == nil && w != b.Winner() && b.Winner() != engine.Nobody {
			log.WithFields(log.Fields{"logged": engine.OutcomeString(w), "replayed": engine.OutcomeString(b.Winner())}).Warn("outcome mismatch")
		}
		fmt.Println(rec.GameOver)
	}
}

// rulesFor returns the rules a logged game was played under. Logs without a
// turn limit line get the defaults.
func rulesFor(rec *gamelog.Record) (tablut.Rules, error) {
	rules := tablut.DefaultRules()
	v, ok := rec.Header[gamelog.MaxTurnsKey]
	if !ok {
		return rules, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return rules, fmt.Errorf("bad %q header %q", gamelog.MaxTurnsKey, v)
	}
	rules.MaxTurns = n
	return rules, nil
}

// replay applies every logged move to a fresh board, writing each move and
// the position after it to w unless final is set, in which case only the last
// position is written.
func replay(rec *gamelog.Record, final bool, w io.Writer) (*tablut.Board, error) {
	rules, err := rulesFor(rec)
	if err != nil {
		return nil, err
	}
	b := tablut.NewBoard(rules)
	for i, tok := range rec.Moves {
		m, err := b.ParseMove(tok)
		if err != nil {
			return b, fmt.Errorf("move %d: %w", i+1, err)
		}
		if err := b.Apply(m); err != nil {
			return b, fmt.Errorf("move %d (%s): %w", i+1, m, err)
		}
		if !final {
			fmt.Fprintf(w, "%s\n%s\n", m, b)
		}
	}
	if final {
		fmt.Fprintln(w, b)
	}
	return b, nil
}
