// Command client plays one Tablut game against the server with a built-in
// agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/boardgame/engine/agent"
	"github.com/jason-s-yu/boardgame/engine/tablut"
	"github.com/jason-s-yu/boardgame/service/internal/client"
	"github.com/jason-s-yu/boardgame/service/internal/config"
	"github.com/jason-s-yu/boardgame/service/internal/transport"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dial(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("cannot connect")
	}

	var a agent.Agent = agent.NewRandom(cfg.Name)
	if cfg.Agent == "greedy" {
		a = agent.NewGreedy(cfg.Name, cfg.Seed)
	}
	board := tablut.NewBoard(tablut.Rules{Seed: cfg.Seed})

	res, err := client.Run(ctx, conn, board, a)
	if err != nil {
		log.WithError(err).Fatal("game aborted")
	}
	log.WithFields(log.Fields{
		"player": res.Player,
		"moves":  res.Moves,
	}).Info(res.GameOver)
	fmt.Println(board)
}

func dial(ctx context.Context, cfg config.Client) (transport.Conn, error) {
	if cfg.WSURL != "" {
		dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return transport.DialWebSocket(dctx, cfg.WSURL)
	}
	return transport.Dial(cfg.ServerAddr)
}
