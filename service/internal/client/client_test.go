package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/agent"
	"github.com/jason-s-yu/boardgame/engine/tablut"
	"github.com/jason-s-yu/boardgame/service/internal/game"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	res Result
	err error
}

func runAsync(conn transport.Conn, a agent.Agent) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		res, err := Run(context.Background(), conn, tablut.NewBoard(tablut.DefaultRules()), a)
		ch <- runResult{res, err}
	}()
	return ch
}

func wait(t *testing.T, ch <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(30 * time.Second):
		require.FailNow(t, "client did not finish")
	}
	return runResult{}
}

func TestAgentsPlayFullGame(t *testing.T) {
	s := game.NewSession(tablut.NewBoard(tablut.DefaultRules()), game.Config{
		Timeout:          5 * time.Second,
		TimeoutCushion:   time.Second,
		FirstMoveTimeout: 5 * time.Second,
		FirstMoveCushion: time.Second,
		LogDir:           t.TempDir(),
		Quiet:            true,
	})

	var runs []<-chan runResult
	agents := []agent.Agent{agent.NewRandom("rand"), agent.NewGreedy("greedy", 3)}
	for _, a := range agents {
		server, client := net.Pipe()
		require.NoError(t, s.Attach(transport.NewConn(server)))
		runs = append(runs, runAsync(transport.NewConn(client), a))
	}

	r0, r1 := wait(t, runs[0]), wait(t, runs[1])
	require.NoError(t, r0.err)
	require.NoError(t, r1.err)
	<-s.Done()

	assert.Equal(t, tablut.Muscovites, r0.res.Player)
	assert.Equal(t, tablut.Swedes, r1.res.Player)
	assert.Equal(t, s.Winner(), r0.res.Winner)
	assert.Equal(t, r0.res.GameOver, r1.res.GameOver)
	assert.Equal(t, r0.res.Moves, r1.res.Moves)
	assert.Empty(t, s.EndReason())
	assert.NotEqual(t, engine.Nobody, r0.res.Winner)
}

// scriptedServer plays the server side of a pipe by hand.
func scriptedServer(t *testing.T) (transport.Conn, transport.Conn) {
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close() })
	return transport.NewConn(server), transport.NewConn(client)
}

func TestRunMirrorsAndAnswers(t *testing.T) {
	server, client := scriptedServer(t)
	done := runAsync(client, agent.NewRandom("bob"))

	line, err := server.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "START bob", line)

	require.NoError(t, server.WriteLine("START Player-1 bob"))
	require.NoError(t, server.WriteLine("0 3 0 2 0"))
	require.NoError(t, server.WriteLine("PLAY Player-1"))

	reply, err := server.ReadLine()
	require.NoError(t, err)
	local := tablut.NewBoard(tablut.DefaultRules())
	m0, err := local.ParseMove("0 3 0 2 0")
	require.NoError(t, err)
	require.NoError(t, local.Apply(m0))
	m1, err := local.ParseMove(reply)
	require.NoError(t, err)
	assert.Equal(t, tablut.Swedes, m1.Player())
	assert.NoError(t, local.Apply(m1))

	require.NoError(t, server.WriteLine(reply))
	require.NoError(t, server.WriteLine("GAMEOVER TIMEOUT WINNER 1"))

	r := wait(t, done)
	require.NoError(t, r.err)
	assert.Equal(t, tablut.Swedes, r.res.Player)
	assert.Equal(t, engine.PlayerID(1), r.res.Winner)
	assert.Equal(t, 2, r.res.Moves)
	assert.Equal(t, "GAMEOVER TIMEOUT WINNER 1", r.res.GameOver)
}

func TestRunRejectsDesync(t *testing.T) {
	server, client := scriptedServer(t)
	done := runAsync(client, agent.NewRandom("bob"))

	_, err := server.ReadLine()
	require.NoError(t, err)
	require.NoError(t, server.WriteLine("3 0 2 1 0"))

	r := wait(t, done)
	assert.ErrorIs(t, r.err, ErrDesync)
}

func TestRunReportsLostConnection(t *testing.T) {
	server, client := scriptedServer(t)
	done := runAsync(client, agent.NewRandom("bob"))

	_, err := server.ReadLine()
	require.NoError(t, err)
	require.NoError(t, server.Close())

	r := wait(t, done)
	assert.Error(t, r.err)
	assert.Equal(t, engine.Nobody, r.res.Winner)
}

func TestRunHonorsContext(t *testing.T) {
	server, client := scriptedServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() {
		_, err := Run(ctx, client, tablut.NewBoard(tablut.DefaultRules()), agent.NewRandom("bob"))
		ch <- err
	}()
	_, err := server.ReadLine()
	require.NoError(t, err)
	cancel()

	select {
	case err := <-ch:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Run ignored cancellation")
	}
}
