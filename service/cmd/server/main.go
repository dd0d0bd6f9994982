// Command server hosts Tablut games over TCP and, optionally, WebSocket.
//
// Usage: server [history.log]
//
// With a log path the first game resumes from the moves recorded in it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/boardgame/engine"
	"github.com/jason-s-yu/boardgame/engine/tablut"
	"github.com/jason-s-yu/boardgame/service/internal/cache"
	"github.com/jason-s-yu/boardgame/service/internal/config"
	"github.com/jason-s-yu/boardgame/service/internal/game"
	"github.com/jason-s-yu/boardgame/service/internal/gamelog"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var history []string
	if len(os.Args) > 1 {
		if history, err = gamelog.LoadMoves(os.Args[1]); err != nil {
			log.WithError(err).Fatal("cannot load history")
		}
		log.WithFields(log.Fields{"file": os.Args[1], "moves": len(history)}).Info("resuming from log")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, history); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Server, history []string) error {
	if err := gamelog.EnsureDir(cfg.LogDir); err != nil {
		return fmt.Errorf("%w: %v", game.ErrSetup, err)
	}
	tcp, err := transport.ListenTCP(fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("%w: listen on port %d: %v", game.ErrSetup, cfg.Port, err)
	}
	log.WithField("addr", tcp.Addr()).Info("accepting players over TCP")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	listeners := []transport.Listener{tcp}
	if cfg.WSPort > 0 {
		ws := startWebSocket(gctx, g, cfg.WSPort)
		listeners = append(listeners, ws)
	}
	ln := transport.Merge(listeners...)

	var feed *cache.Feed
	if cfg.RedisAddr != "" {
		feed = cache.NewFeed(cfg.RedisAddr)
		log.WithField("addr", cfg.RedisAddr).Info("publishing spectator feed")
	}

	host, _ := os.Hostname()
	srv := &game.Server{
		NewBoard: func() engine.Board {
			return tablut.NewBoard(tablut.Rules{MaxTurns: cfg.MaxTurns, Seed: uint64(time.Now().UnixNano())})
		},
		Config: game.Config{
			Timeout:          cfg.Timeout,
			TimeoutCushion:   cfg.TimeoutCushion,
			FirstMoveTimeout: cfg.FirstMoveTimeout,
			FirstMoveCushion: cfg.FirstMoveCushion,
			LogDir:           cfg.LogDir,
			Quiet:            cfg.Quiet,
			Host:             host,
			Port:             cfg.Port,
		},
		Keep:        cfg.Keep,
		MaxSessions: cfg.MaxSessions,
		History:     history,
		Observe: func(s *game.Session) {
			id := s.ID.String()
			s.OnGameEnd = func(_ uuid.UUID, gameID int, winner engine.PlayerID, reason string) {
				log.WithFields(log.Fields{
					"game":    gameID,
					"outcome": engine.OutcomeString(winner),
					"reason":  reason,
				}).Info("session finished")
			}
			if feed == nil {
				return
			}
			s.OnLogLine = func(gameID int, line string) {
				feed.PublishLine(gameID, id, line)
			}
			s.OnMoveApplied = func(gameID int, snapshot engine.Board, m engine.Move) {
				feed.PublishSnapshot(gameID, id, snapshot, m)
			}
		},
	}

	g.Go(func() error {
		defer cancel()
		defer ln.Close()
		return srv.Run(gctx, ln)
	})
	err = g.Wait()
	if feed != nil {
		if cerr := feed.Close(); cerr != nil {
			log.WithError(cerr).Warn("closing spectator feed")
		}
	}
	return err
}

// startWebSocket serves /ws and /health on port until ctx is done.
func startWebSocket(ctx context.Context, g *errgroup.Group, port int) *transport.WebSocketListener {
	addr := fmt.Sprintf(":%d", port)
	ws := transport.NewWebSocketListener(addr)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		log.WithField("addr", addr).Info("accepting players over WebSocket")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%w: websocket server: %v", game.ErrSetup, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ws.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	})
	return ws
}
