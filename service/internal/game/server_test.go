package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/tablut"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTablutServer(t *testing.T, keep bool, maxSessions int) (*Server, *[]*Session, *sync.Mutex) {
	var mu sync.Mutex
	var observed []*Session
	srv := &Server{
		NewBoard:    func() engine.Board { return tablut.NewBoard(tablut.DefaultRules()) },
		Config:      testConfig(t),
		Keep:        keep,
		MaxSessions: maxSessions,
		Observe: func(s *Session) {
			mu.Lock()
			defer mu.Unlock()
			observed = append(observed, s)
		},
	}
	return srv, &observed, &mu
}

func runServer(t *testing.T, srv *Server) (transport.Listener, context.CancelFunc, <-chan error) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ran := make(chan error, 1)
	go func() { ran <- srv.Run(ctx, ln) }()
	return ln, cancel, ran
}

func dialPlayer(t *testing.T, ln transport.Listener, name string) *testPlayer {
	t.Helper()
	c, err := transport.Dial(ln.Addr())
	require.NoError(t, err)
	p := newTestPlayer(t, c)
	p.send("START " + name)
	return p
}

func waitRun(t *testing.T, ran <-chan error) {
	t.Helper()
	select {
	case err := <-ran:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}

func TestServerRunsSingleGame(t *testing.T) {
	srv, _, _ := newTablutServer(t, false, 1)
	ln, _, ran := runServer(t, srv)

	a := dialPlayer(t, ln, "alice")
	b := dialPlayer(t, ln, "bob")
	starts := []string{a.next(), b.next()}
	assert.ElementsMatch(t, []string{"START Player-0 alice", "START Player-1 bob"}, starts)

	// Whoever holds seat 0 forfeits with a diagonal move.
	first := a
	if starts[0] != "START Player-0 alice" {
		first = b
	}
	first.expect("PLAY Player-0")
	first.send("3 0 2 1 0")

	waitRun(t, ran)
	assert.Eventually(t, func() bool { return len(srv.Sessions()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestServerKeepBoundsConcurrentSessions(t *testing.T) {
	srv, observed, mu := newTablutServer(t, true, 1)
	ln, cancel, ran := runServer(t, srv)

	a := dialPlayer(t, ln, "alice")
	b := dialPlayer(t, ln, "bob")
	a.next()
	b.next()

	c := dialPlayer(t, ln, "carol")
	d := dialPlayer(t, ln, "dave")
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	require.Len(t, *observed, 1)
	first := (*observed)[0]
	mu.Unlock()

	first.Kill()
	for _, p := range []*testPlayer{a, b} {
		for {
			if line := p.next(); line == "GAMEOVER USER CANCEL UNDECIDED" {
				break
			}
		}
	}

	starts := []string{c.next(), d.next()}
	assert.ElementsMatch(t, []string{"START Player-0 carol", "START Player-1 dave"}, starts)
	mu.Lock()
	assert.Len(t, *observed, 2)
	mu.Unlock()

	cancel()
	waitRun(t, ran)
	for _, p := range []*testPlayer{c, d} {
		for {
			if line := p.next(); line == "GAMEOVER USER CANCEL UNDECIDED" {
				break
			}
		}
	}
}

func TestServerReplaysHistoryInFirstSessionOnly(t *testing.T) {
	srv, observed, mu := newTablutServer(t, false, 1)
	srv.History = []string{openM1}
	ln, cancel, ran := runServer(t, srv)

	a := dialPlayer(t, ln, "alice")
	b := dialPlayer(t, ln, "bob")
	for _, p := range []*testPlayer{a, b} {
		p.next()
		p.expect(openM1)
	}
	mu.Lock()
	s := (*observed)[0]
	mu.Unlock()
	assert.Equal(t, 1, s.Snapshot().TurnNumber())

	cancel()
	waitRun(t, ran)
}
