package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
)

// Server starts sessions on a shared listener. Without Keep it runs a single
// game; with Keep it starts a new session whenever the previous one is full,
// running at most MaxSessions at once.
type Server struct {
	NewBoard    func() engine.Board
	Config      Config
	Keep        bool
	MaxSessions int
	History     []string // replayed by the first session only

	// Observe is called for every new session before it accepts players, to
	// install callbacks.
	Observe func(s *Session)

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// Run serves sessions until ctx is cancelled, the listener fails, or, without
// Keep, the single game ends. Sessions still running when Run returns are
// killed.
func (srv *Server) Run(ctx context.Context, ln transport.Listener) error {
	slots := make(chan struct{}, max(srv.MaxSessions, 1))
	defer srv.killAll()

	for n := 0; ; n++ {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		s := NewSession(srv.NewBoard(), srv.Config)
		if n == 0 && len(srv.History) > 0 {
			if err := s.SetHistory(srv.History); err != nil {
				return err
			}
		}
		if srv.Observe != nil {
			srv.Observe(s)
		}
		observer := s.OnGameEnd
		s.OnGameEnd = func(id uuid.UUID, gameID int, winner engine.PlayerID, reason string) {
			<-slots
			if observer != nil {
				observer(id, gameID, winner, reason)
			}
		}
		srv.track(s)
		log.WithField("session", s.ID.String()[:8]).Info("waiting for players")

		if err := s.Serve(ctx, ln); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("serve session: %w", err)
		}
		if !srv.Keep {
			select {
			case <-s.Done():
			case <-ctx.Done():
			}
			return nil
		}
	}
}

// Sessions returns the sessions that have not ended yet.
func (srv *Server) Sessions() []*Session {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	out := make([]*Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		out = append(out, s)
	}
	return out
}

func (srv *Server) track(s *Session) {
	srv.mu.Lock()
	if srv.sessions == nil {
		srv.sessions = make(map[uuid.UUID]*Session)
	}
	srv.sessions[s.ID] = s
	srv.mu.Unlock()

	go func() {
		<-s.Done()
		srv.mu.Lock()
		delete(srv.sessions, s.ID)
		srv.mu.Unlock()
	}()
}

func (srv *Server) killAll() {
	for _, s := range srv.Sessions() {
		s.Kill()
		<-s.Done()
	}
}
