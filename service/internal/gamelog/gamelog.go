// Package gamelog writes the per-game log files and the outcomes ledger, and
// reads logs back for replay.
//
// A game log is the authoritative record of a game: a header of '#' comment
// lines followed by every protocol line in the order it was applied.
package gamelog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Version is reported in every log header.
const Version = "0.08"

const (
	logPrefix  = "game"
	logSuffix  = ".log"
	LedgerName = "outcomes.txt"

	// MaxTurnsKey is the header key holding the board's round limit.
	MaxTurnsKey = "Max turns"
)

var logNameRE = regexp.MustCompile(`^` + logPrefix + `(\d+)` + regexp.QuoteMeta(logSuffix) + `$`)

// idMu serializes ID allocation and ledger appends across every session in
// the process.
var idMu sync.Mutex

// EnsureDir creates dir if needed and checks that it is writable.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("log directory %s not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// Player describes one seat in the log header.
type Player struct {
	Name        string // protocol name, e.g. Player-0
	DisplayName string // name sent by the client in START
	Host        string
}

// Header is written at the top of every game log.
type Header struct {
	Host             string
	Port             int
	SessionID        string
	Board            string
	Timeout          time.Duration
	FirstMoveTimeout time.Duration
	Date             time.Time
	StartMove        int // first live move when resuming from a recorded history
	MaxTurns         int // round limit, 0 for none; negative omits the line
	Players          []Player
}

func (h Header) lines(gameID int) []string {
	out := []string{
		fmt.Sprintf("# Server version %s running on %s:%d", Version, h.Host, h.Port),
		"# Session: " + h.SessionID,
		fmt.Sprintf("# Game ID: %d", gameID),
		"# Board class: " + h.Board,
		fmt.Sprintf("# Timeout: %d", h.Timeout.Milliseconds()),
		fmt.Sprintf("# First Move Timeout: %d", h.FirstMoveTimeout.Milliseconds()),
		"# Date: " + h.Date.Format(time.UnixDate),
	}
	if h.MaxTurns >= 0 {
		out = append(out, fmt.Sprintf("# %s: %d", MaxTurnsKey, h.MaxTurns))
	}
	if h.StartMove > 0 {
		out = append(out, fmt.Sprintf("# Starting at move %d", h.StartMove))
	}
	for i, p := range h.Players {
		out = append(out, fmt.Sprintf("# Player %d: %s, '%s', running on %s", i+1, p.Name, p.DisplayName, p.Host))
	}
	return out
}

// Log is an open game log. Lines are written straight through to the file.
type Log struct {
	ID   int
	Path string

	mu sync.Mutex
	f  *os.File
}

// Create allocates the next game ID in dir and writes the header. IDs are one
// more than the highest existing game<N>.log; concurrent sessions never share
// an ID.
func Create(dir string, h Header) (*Log, error) {
	idMu.Lock()
	defer idMu.Unlock()

	id, err := nextID(dir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName(id))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			id++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create game log: %w", err)
		}
		l := &Log{ID: id, Path: path, f: f}
		for _, line := range h.lines(id) {
			if err := l.WriteLine(line); err != nil {
				f.Close()
				return nil, err
			}
		}
		return l, nil
	}
}

// FileName returns the log file name for a game ID.
func FileName(id int) string {
	return fmt.Sprintf("%s%05d%s", logPrefix, id, logSuffix)
}

func nextID(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("scan log directory: %w", err)
	}
	highest := 0
	for _, e := range entries {
		m := logNameRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Name returns the base file name of the log.
func (l *Log) Name() string { return filepath.Base(l.Path) }

// WriteLine appends one line.
func (l *Log) WriteLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("game log %d already closed", l.ID)
	}
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write game log %d: %w", l.ID, err)
	}
	return nil
}

// Close writes the end-of-game trailer and closes the file.
func (l *Log) Close(ended time.Time) error {
	if err := l.WriteLine("# Game ended: " + ended.Format(time.UnixDate)); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.f.Close()
	l.f = nil
	return err
}

// Outcome is one row of the ledger.
type Outcome struct {
	GameID       int
	Players      []string // display names; "" for an empty seat
	WinnerSeat   int      // index into Players, or -1
	WinnerID     string   // winner's player ID when WinnerSeat >= 0
	GameOverLine string   // used in place of WinnerID when there is no winner
	TurnNumber   int
	LogFile      string
	Reason       string
}

func (o Outcome) line() string {
	var b strings.Builder
	field := func(s string) {
		b.WriteString(s)
		b.WriteByte(',')
	}
	field(strconv.Itoa(o.GameID))
	for _, p := range o.Players {
		if p == "" {
			p = "NOBODY"
		}
		field(p)
	}
	if o.WinnerSeat >= 0 && o.WinnerSeat < len(o.Players) {
		field(o.WinnerID)
		field(o.Players[o.WinnerSeat])
	} else {
		field(o.GameOverLine)
		field("NOBODY")
	}
	field(strconv.Itoa(o.TurnNumber))
	field(o.LogFile)
	b.WriteString(o.Reason)
	return b.String()
}

// AppendOutcome adds one line to the ledger in dir.
func AppendOutcome(dir string, o Outcome) error {
	idMu.Lock()
	defer idMu.Unlock()
	f, err := os.OpenFile(filepath.Join(dir, LedgerName), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if _, err := f.WriteString(o.line() + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append ledger: %w", err)
	}
	return f.Close()
}
