package game

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/service/internal/gamelog"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
)

// HandleLine processes one inbound line from a player's worker.
func (s *Session) HandleLine(w *transport.Worker, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slots[w.Slot()]
	if sl.worker != w || s.phase == Ended {
		return
	}
	plog := s.log.WithField("player", s.board.NameForID(sl.id))

	if s.phase != InProgress {
		s.handleStart(sl, line, plog)
		return
	}
	if sl.lateReplies > 0 {
		sl.lateReplies--
		plog.WithField("line", line).Warn("discarding late reply to a prompt answered by timeout")
		return
	}
	if turn := s.board.TurnPlayer(); sl.id != turn {
		plog.WithFields(log.Fields{"turn": s.board.NameForID(turn), "line": line}).Warn("ignoring out of turn message")
		return
	}
	s.processMove(sl.id, line)
}

// HandleDisconnect ends the game with the disconnected player losing.
func (s *Session) HandleDisconnect(w *transport.Worker, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slots[w.Slot()]
	if sl.worker != w || s.phase == Ended {
		return
	}
	name := s.board.NameForID(sl.id)
	if transport.IsNormalClose(err) {
		s.log.WithField("player", name).Info("player disconnected")
	} else {
		s.log.WithError(err).WithField("player", name).Warn("connection error")
	}
	s.forceLoser(sl.id)
	s.endGame(fmt.Sprintf(reasonDisconnectFmt, name))
}

// handleStart records a START acknowledgement.
// Assumes lock is held by caller.
func (s *Session) handleStart(sl *slot, line string, plog *log.Entry) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "START" {
		plog.WithField("line", line).Warn("ignoring message before game start")
		return
	}
	sl.displayName = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "START"))
	if sl.displayName == "" {
		sl.displayName = s.board.NameForID(sl.id)
	}
	sl.started = true
	plog.WithField("name", sl.displayName).Info("player ready")
	s.maybeStart()
}

// maybeStart begins the game once every seat is filled and acknowledged.
// Assumes lock is held by caller.
func (s *Session) maybeStart() {
	if s.phase != AwaitingStartAcks {
		return
	}
	for _, sl := range s.slots {
		if !sl.started {
			return
		}
	}
	s.startGame()
}

// startGame opens the log, announces the seats, replays any history and
// prompts the first live move.
// Assumes lock is held by caller.
func (s *Session) startGame() {
	hdr := gamelog.Header{
		Host:             s.cfg.Host,
		Port:             s.cfg.Port,
		SessionID:        s.ID.String(),
		Board:            s.board.Name(),
		Timeout:          s.cfg.Timeout,
		FirstMoveTimeout: s.cfg.FirstMoveTimeout,
		Date:             time.Now(),
		MaxTurns:         -1,
	}
	if len(s.history) > 0 {
		hdr.StartMove = len(s.history) + 1
	}
	if tl, ok := s.board.(engine.TurnLimited); ok {
		hdr.MaxTurns = tl.MaxTurns()
	}
	for _, sl := range s.slots {
		hdr.Players = append(hdr.Players, gamelog.Player{
			Name:        s.board.NameForID(sl.id),
			DisplayName: sl.displayName,
			Host:        sl.host,
		})
	}
	gl, err := gamelog.Create(s.cfg.LogDir, hdr)
	if err != nil {
		s.log.WithError(err).Error("cannot open game log")
		s.endGame(reasonServerError)
		return
	}
	s.gameLog = gl
	s.gameID = gl.ID
	s.log = s.log.WithField("game", gl.ID)
	s.phase = InProgress
	s.log.WithField("file", gl.Name()).Info("game started")

	for _, sl := range s.slots {
		msg := fmt.Sprintf("START %s %s", s.board.NameForID(sl.id), sl.displayName)
		s.logLine(msg)
		sl.worker.Send(msg)
	}

	if len(s.history) > 0 {
		s.replayHistory()
	}
	if s.phase == InProgress {
		s.requestMove()
	}
}

// replayHistory feeds recorded moves through the normal path without
// prompting anyone or running the move filter.
// Assumes lock is held by caller.
func (s *Session) replayHistory() {
	s.playingHistory = true
	defer func() { s.playingHistory = false }()
	for i, tok := range s.history {
		if s.phase != InProgress {
			return
		}
		m, err := s.board.ParseMove(tok)
		if err != nil {
			s.log.WithError(err).WithField("index", i).Warn("skipping unparseable history move")
			continue
		}
		s.processMove(m.Player(), tok)
	}
	s.log.WithField("moves", len(s.history)).Info("history replayed")
}

// processMove parses, filters, applies and broadcasts one move from player
// from, then prompts the next turn owner.
// Assumes lock is held by caller.
func (s *Session) processMove(from engine.PlayerID, token string) {
	m, err := s.board.ParseMove(token)
	if err != nil {
		s.log.WithError(err).WithField("player", s.board.NameForID(from)).Warn("ignoring unparseable move")
		return
	}
	s.cancelTimer()

	moves := []engine.Move{m}
	if !s.playingHistory {
		if moves, err = s.board.FilterMove(m); err != nil {
			s.rejectMove(from, m, err)
			return
		}
	}
	for _, mv := range moves {
		if err := s.board.Apply(mv); err != nil {
			s.rejectMove(from, mv, err)
			return
		}
		s.broadcastMove(mv)
		if s.OnMoveApplied != nil {
			s.OnMoveApplied(s.gameID, s.board.Clone(), mv)
		}
		if s.board.Winner() != engine.Nobody {
			break
		}
	}

	if s.board.Winner() != engine.Nobody {
		s.endGame("")
		return
	}
	if !s.playingHistory {
		s.requestMove()
	}
}

// rejectMove ends the game after a rule violation by from.
// Assumes lock is held by caller.
func (s *Session) rejectMove(from engine.PlayerID, m engine.Move, err error) {
	s.log.WithError(err).WithField("player", s.board.NameForID(from)).Warn("illegal move")
	s.forceLoser(from)
	s.endGame(reasonIllegalPrefix + m.String())
}

// requestMove prompts the turn owner and arms its timers, or plays the
// environment's move directly.
// Assumes lock is held by caller.
func (s *Session) requestMove() {
	p := s.board.TurnPlayer()
	if p == engine.Environment {
		m, err := s.board.EnvironmentMove()
		if err != nil {
			s.log.WithError(err).Error("environment move failed")
			s.endGame(reasonServerError)
			return
		}
		s.processMove(engine.Environment, m.Token())
		return
	}

	sl := s.slotFor(p)
	if sl == nil {
		s.log.WithField("player", p).Error("turn owner has no seat")
		s.endGame(reasonServerError)
		return
	}
	sl.worker.Send("PLAY " + s.board.NameForID(p))

	soft, cushion := s.cfg.Timeout, s.cfg.TimeoutCushion
	if s.board.TurnNumber() == 0 {
		soft, cushion = s.cfg.FirstMoveTimeout, s.cfg.FirstMoveCushion
	}
	s.armTimer(p, soft, cushion)
}

// forceLoser records p as having lost by forfeit.
// Assumes lock is held by caller.
func (s *Session) forceLoser(p engine.PlayerID) {
	switch {
	case p == engine.Environment:
		s.board.ForceWinner(engine.Draw)
	case len(s.slots) == 2:
		for _, sl := range s.slots {
			if sl.id != p {
				s.board.ForceWinner(sl.id)
			}
		}
	default:
		s.board.ForceWinner(engine.Cancelled(p))
	}
}

// endGame announces the outcome, closes every connection, finishes the log
// and records the outcome in the ledger. Later calls are no-ops.
// Assumes lock is held by caller.
func (s *Session) endGame(reason string) {
	if s.phase == Ended {
		return
	}
	s.phase = Ended
	s.endReason = reason
	s.cancelTimer()

	winner := s.board.Winner()
	line := engine.GameOverLine(reason, winner)
	s.broadcast(line, true)
	for _, sl := range s.slots {
		if sl.worker != nil {
			sl.worker.Close()
		}
	}

	if s.gameLog != nil {
		if err := s.gameLog.Close(time.Now()); err != nil {
			s.log.WithError(err).Error("closing game log")
		}
		if err := gamelog.AppendOutcome(s.cfg.LogDir, s.outcome(line, reason)); err != nil {
			s.log.WithError(err).Error("appending outcome")
		}
	}
	s.log.WithFields(log.Fields{"outcome": engine.OutcomeString(winner), "reason": reason}).Info("game ended")

	close(s.done)
	if s.OnGameEnd != nil {
		s.OnGameEnd(s.ID, s.gameID, winner, reason)
	}
}

// Assumes lock is held by caller.
func (s *Session) outcome(line, reason string) gamelog.Outcome {
	o := gamelog.Outcome{
		GameID:       s.gameID,
		WinnerSeat:   -1,
		GameOverLine: line,
		TurnNumber:   s.board.TurnNumber(),
		LogFile:      s.gameLog.Name(),
		Reason:       reason,
	}
	winner := s.board.Winner()
	for i, sl := range s.slots {
		name := ""
		if sl.worker != nil {
			name = sl.displayName
			if sl.id == winner {
				o.WinnerSeat = i
				o.WinnerID = strconv.Itoa(int(winner))
			}
		}
		o.Players = append(o.Players, name)
	}
	return o
}

// broadcastMove logs and delivers a move according to its flags.
// Assumes lock is held by caller.
func (s *Session) broadcastMove(m engine.Move) {
	tok := m.Token()
	if m.MustLog() {
		s.logLine(tok)
	}
	receivers := m.Receivers()
	for _, sl := range s.slots {
		if sl.worker == nil {
			continue
		}
		if receivers == nil || slices.Contains(receivers, sl.id) {
			sl.worker.Send(tok)
		}
	}
}

// broadcast sends line to every connected player.
// Assumes lock is held by caller.
func (s *Session) broadcast(line string, doLog bool) {
	if doLog {
		s.logLine(line)
	}
	for _, sl := range s.slots {
		if sl.worker != nil {
			sl.worker.Send(line)
		}
	}
}

// logLine appends line to the game log and echoes it.
// Assumes lock is held by caller.
func (s *Session) logLine(line string) {
	if !s.cfg.Quiet {
		s.log.Info("% " + line)
	}
	if s.gameLog != nil {
		if err := s.gameLog.WriteLine(line); err != nil {
			s.log.WithError(err).Error("writing game log")
		}
	}
	if s.OnLogLine != nil {
		s.OnLogLine(s.gameID, line)
	}
}
