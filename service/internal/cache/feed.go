// Package cache publishes live game activity to Redis so spectators can
// follow a game without connecting to the game server.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 1024
)

// Publisher is the subset of the Redis client used by Feed.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// LineRecord carries one logged protocol line.
type LineRecord struct {
	Type      string `json:"type"`
	GameID    int    `json:"gameId"`
	SessionID string `json:"sessionId"`
	Line      string `json:"line"`
	Timestamp int64  `json:"timestamp"`
}

// SnapshotRecord carries the board after a move was applied.
type SnapshotRecord struct {
	Type       string `json:"type"`
	GameID     int    `json:"gameId"`
	SessionID  string `json:"sessionId"`
	Move       string `json:"move"`
	Pretty     string `json:"pretty"`
	TurnNumber int    `json:"turnNumber"`
	TurnPlayer string `json:"turnPlayer"`
	Winner     string `json:"winner"`
	Board      string `json:"board,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type message struct {
	channel string
	payload []byte
}

// Feed publishes records in order from a single background goroutine.
// Publishing never blocks the caller; records are dropped when the queue is
// full.
type Feed struct {
	pub Publisher

	mu     sync.Mutex
	queue  chan message
	closed bool
	done   chan struct{}
}

// NewFeed connects to the Redis server at addr.
func NewFeed(addr string) *Feed {
	return NewFeedWithPublisher(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewFeedWithPublisher wraps an existing publisher.
func NewFeedWithPublisher(p Publisher) *Feed {
	f := &Feed{
		pub:   p,
		queue: make(chan message, queueSize),
		done:  make(chan struct{}),
	}
	go f.run()
	return f
}

// Channel names the pub/sub channel for a game.
func Channel(gameID int) string {
	return fmt.Sprintf("boardgame:game:%d", gameID)
}

// PublishLine queues a logged line for the game's channel.
func (f *Feed) PublishLine(gameID int, sessionID, line string) {
	f.enqueue(gameID, LineRecord{
		Type:      "line",
		GameID:    gameID,
		SessionID: sessionID,
		Line:      line,
		Timestamp: time.Now().UnixMilli(),
	})
}

// PublishSnapshot queues the state of b after m. b should be a clone the
// caller no longer mutates.
func (f *Feed) PublishSnapshot(gameID int, sessionID string, b engine.Board, m engine.Move) {
	rec := SnapshotRecord{
		Type:       "snapshot",
		GameID:     gameID,
		SessionID:  sessionID,
		Move:       m.Token(),
		Pretty:     m.String(),
		TurnNumber: b.TurnNumber(),
		TurnPlayer: b.TurnPlayer().String(),
		Winner:     engine.OutcomeString(b.Winner()),
		Timestamp:  time.Now().UnixMilli(),
	}
	if s, ok := b.(fmt.Stringer); ok {
		rec.Board = s.String()
	}
	f.enqueue(gameID, rec)
}

func (f *Feed) enqueue(gameID int, rec interface{}) {
	payload, err := json.Marshal(rec)
	if err != nil {
		log.WithError(err).WithField("game", gameID).Error("marshal feed record")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- message{channel: Channel(gameID), payload: payload}:
	default:
		log.WithField("game", gameID).Warn("spectator feed queue full, dropping record")
	}
}

func (f *Feed) run() {
	defer close(f.done)
	for msg := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := f.pub.Publish(ctx, msg.channel, msg.payload).Err(); err != nil {
			log.WithError(err).WithField("channel", msg.channel).Warn("publish to redis failed")
		}
		cancel()
	}
}

// Close flushes queued records and closes the Redis client.
func (f *Feed) Close() error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	<-f.done
	return f.pub.Close()
}
