// Package game runs a single authoritative game session: it seats players,
// relays their moves through the rule engine, enforces move deadlines and
// resolves every abnormal condition into a logged outcome.
package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/service/internal/gamelog"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
)

// ErrSetup marks failures that prevent a session from ever starting.
var ErrSetup = errors.New("session setup failed")

// errNotAccepting is returned by Attach once every seat is taken.
var errNotAccepting = errors.New("session is not accepting players")

// End reasons reported in GAMEOVER lines.
const (
	reasonTimeout         = "TIMEOUT"
	reasonUserCancel      = "USER CANCEL"
	reasonServerError     = "SERVER ERROR"
	reasonConnectionError = "CONNECTION ERROR"
	reasonIllegalPrefix   = "ILLEGAL MOVE: "
	reasonDisconnectFmt   = "DISCONNECTION %s"
)

// Phase is the lifecycle stage of a session.
type Phase int

const (
	AwaitingConnections Phase = iota
	AwaitingStartAcks
	InProgress
	Ended
)

func (p Phase) String() string {
	switch p {
	case AwaitingConnections:
		return "AWAITING_CONNECTIONS"
	case AwaitingStartAcks:
		return "AWAITING_START_ACKS"
	case InProgress:
		return "IN_PROGRESS"
	case Ended:
		return "ENDED"
	}
	return "Phase(" + strconv.Itoa(int(p)) + ")"
}

// Config holds per-session settings.
type Config struct {
	Timeout          time.Duration // soft deadline per move; 0 disables timers
	TimeoutCushion   time.Duration // extra time before the kill timer fires
	FirstMoveTimeout time.Duration // soft deadline while the turn number is 0
	FirstMoveCushion time.Duration

	LogDir string
	Quiet  bool   // don't echo game lines to the console
	Host   string // reported in the log header
	Port   int
}

// OnGameEndFunc is called exactly once when a session ends, with the session
// lock held. It must not call back into the session.
type OnGameEndFunc func(sessionID uuid.UUID, gameID int, winner engine.PlayerID, reason string)

// slot is one player seat.
type slot struct {
	id          engine.PlayerID
	worker      *transport.Worker
	displayName string
	host        string
	started     bool
	lateReplies int // replies still owed for prompts answered by a substituted move
}

// turnTimer is the soft/kill timer pair armed for one prompt. Callbacks act
// only while their pair is the session's current one.
type turnTimer struct {
	player engine.PlayerID
	soft   *time.Timer
	kill   *time.Timer
}

func (t *turnTimer) stop() {
	t.soft.Stop()
	t.kill.Stop()
}

// Session is one game from the first accepted connection to GAMEOVER. All
// state is guarded by mu; workers, timers and external callers serialize on
// it.
type Session struct {
	ID uuid.UUID

	// Callbacks. Set before Serve; invoked with the lock held.
	OnGameEnd     OnGameEndFunc
	OnLogLine     func(gameID int, line string)
	OnMoveApplied func(gameID int, snapshot engine.Board, m engine.Move) // snapshot is a private clone

	cfg   Config
	board engine.Board
	slots []*slot

	mu             sync.Mutex
	phase          Phase
	history        []string
	playingHistory bool
	timer          *turnTimer
	gameLog        *gamelog.Log
	gameID         int
	endReason      string
	done           chan struct{}
	log            *log.Entry
}

// NewSession creates a session for board, which it owns from now on.
func NewSession(board engine.Board, cfg Config) *Session {
	id := uuid.New()
	s := &Session{
		ID:    id,
		cfg:   cfg,
		board: board,
		slots: make([]*slot, board.NumPlayers()),
		done:  make(chan struct{}),
		log:   log.WithField("session", id.String()[:8]),
	}
	for i := range s.slots {
		s.slots[i] = &slot{id: engine.PlayerID(i)}
	}
	return s
}

// SetHistory makes the session replay tokens, in order, before the first
// live move. It must be called before the game starts.
func (s *Session) SetHistory(tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != AwaitingConnections {
		return fmt.Errorf("set history in phase %s: %w", s.phase, ErrSetup)
	}
	s.history = append([]string(nil), tokens...)
	return nil
}

// Serve accepts connections from ln until every seat is filled. It returns
// nil once the session is full or has already ended.
func (s *Session) Serve(ctx context.Context, ln transport.Listener) error {
	acceptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-acceptCtx.Done():
		}
	}()

	for s.openSeats() > 0 {
		conn, err := ln.Accept(acceptCtx)
		if err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.phase == Ended {
				return nil
			}
			if ctx.Err() != nil {
				s.endGame(reasonUserCancel)
				return ctx.Err()
			}
			s.endGame(reasonConnectionError)
			return fmt.Errorf("accept player: %w", err)
		}
		if err := s.Attach(conn); err != nil {
			conn.Close()
			return nil
		}
	}
	return nil
}

func (s *Session) openSeats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Ended {
		return 0
	}
	return s.openSeatsLocked()
}

// Attach seats conn in the next free slot and starts its worker.
func (s *Session) Attach(conn transport.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != AwaitingConnections {
		return errNotAccepting
	}
	var sl *slot
	idx := 0
	for i, candidate := range s.slots {
		if candidate.worker == nil {
			sl, idx = candidate, i
			break
		}
	}
	sl.host = transport.Host(conn.RemoteAddr())
	sl.worker = transport.NewWorker(conn, idx, s)
	sl.worker.Start()
	s.log.WithFields(log.Fields{"player": s.board.NameForID(sl.id), "remote": conn.RemoteAddr()}).Info("player connected")

	if s.openSeatsLocked() == 0 {
		s.phase = AwaitingStartAcks
		s.maybeStart()
	}
	return nil
}

// openSeatsLocked assumes the lock is held by the caller.
func (s *Session) openSeatsLocked() int {
	n := 0
	for _, sl := range s.slots {
		if sl.worker == nil {
			n++
		}
	}
	return n
}

// Kill ends the session on behalf of the operator.
func (s *Session) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endGame(reasonUserCancel)
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// GameID is 0 until the game log has been opened.
func (s *Session) GameID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

func (s *Session) Winner() engine.PlayerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Winner()
}

// EndReason is the reason given in the GAMEOVER line, once ended.
func (s *Session) EndReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endReason
}

// Snapshot returns a private copy of the current board.
func (s *Session) Snapshot() engine.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

func (s *Session) slotFor(p engine.PlayerID) *slot {
	for _, sl := range s.slots {
		if sl.id == p {
			return sl
		}
	}
	return nil
}
