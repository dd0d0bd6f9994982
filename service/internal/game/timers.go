package game

import (
	"time"

	"github.com/jason-s-yu/boardgame/engine"
	log "github.com/sirupsen/logrus"
)

// armTimer replaces the current timer pair with a fresh one for player.
// Assumes lock is held by caller.
func (s *Session) armTimer(player engine.PlayerID, soft, cushion time.Duration) {
	s.cancelTimer()
	if soft <= 0 {
		return
	}
	t := &turnTimer{player: player}
	// Callbacks block on the lock we hold, so s.timer is set before either
	// can compare against it.
	t.soft = time.AfterFunc(soft, func() { s.softTimeout(t) })
	t.kill = time.AfterFunc(soft+cushion, func() { s.killTimeout(t) })
	s.timer = t
}

// cancelTimer stops and forgets the current timer pair.
// Assumes lock is held by caller.
func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.stop()
		s.timer = nil
	}
}

// softTimeout substitutes a random legal move for a player who has not
// answered in time. The player's own reply, when it arrives, is discarded.
func (s *Session) softTimeout(t *turnTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != t || s.phase != InProgress || s.board.TurnPlayer() != t.player {
		return
	}
	m, err := s.board.RandomMove()
	if err != nil {
		s.log.WithError(err).WithField("player", s.board.NameForID(t.player)).Warn("soft timeout: no substitute move")
		return
	}
	s.log.WithFields(log.Fields{
		"player": s.board.NameForID(t.player),
		"move":   m.Token(),
	}).Warn("soft timeout: playing random move")
	if sl := s.slotFor(t.player); sl != nil {
		sl.lateReplies++
	}
	s.processMove(t.player, m.Token())
}

// killTimeout forfeits the game for a player whose soft timeout could not be
// resolved.
func (s *Session) killTimeout(t *turnTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != t || s.phase != InProgress {
		return
	}
	s.timer = nil
	s.log.WithField("player", s.board.NameForID(t.player)).Warn("kill timeout")
	s.forceLoser(t.player)
	s.endGame(reasonTimeout)
}
