// Package config loads server and client settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Server holds the game server settings.
type Server struct {
	Port   int // TCP port for player connections
	WSPort int // WebSocket port; 0 disables the listener

	Timeout          time.Duration // per-move soft timeout
	TimeoutCushion   time.Duration // grace after the soft timeout before the kill
	FirstMoveTimeout time.Duration // soft timeout for the opening move
	FirstMoveCushion time.Duration

	LogDir      string
	Quiet       bool // suppress echoing game lines to the console
	Keep        bool // keep accepting new games after the first
	MaxSessions int  // concurrent games in keep mode
	MaxTurns    int  // rule-engine round limit

	RedisAddr string // spectator feed; empty disables it
	LogLevel  log.Level
}

// Client holds the reference client settings.
type Client struct {
	ServerAddr string // host:port for TCP
	WSURL      string // ws:// URL; takes precedence over ServerAddr when set
	Name       string
	Agent      string // "random" or "greedy"
	Seed       uint64
	LogLevel   log.Level
}

// loadDotenv reads files (default .env) into the environment without
// overriding variables that are already set. A missing default file is fine.
func loadDotenv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(files, ","), err)
	}
	return nil
}

// Load reads the server settings.
func Load(files ...string) (Server, error) {
	if err := loadDotenv(files); err != nil {
		return Server{}, err
	}
	p := parser{}
	cfg := Server{
		Port:             p.intVar("PORT", 8123),
		WSPort:           p.intVar("WS_PORT", 0),
		Timeout:          p.millisVar("TIMEOUT_MS", 2000),
		TimeoutCushion:   p.millisVar("TIMEOUT_CUSHION_MS", 1000),
		FirstMoveTimeout: p.millisVar("FIRST_MOVE_TIMEOUT_MS", 30000),
		FirstMoveCushion: p.millisVar("FIRST_MOVE_CUSHION_MS", 1000),
		LogDir:           getenv("LOG_DIR", "logs"),
		Quiet:            p.boolVar("QUIET", false),
		Keep:             p.boolVar("KEEP", false),
		MaxSessions:      p.intVar("MAX_SESSIONS", 10),
		MaxTurns:         p.intVar("MAX_TURNS", 100),
		RedisAddr:        getenv("REDIS_ADDR", ""),
		LogLevel:         p.levelVar("LOG_LEVEL", log.InfoLevel),
	}
	if p.err != nil {
		return Server{}, p.err
	}
	if cfg.MaxSessions < 1 {
		return Server{}, fmt.Errorf("MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}
	return cfg, nil
}

// LoadClient reads the reference client settings.
func LoadClient(files ...string) (Client, error) {
	if err := loadDotenv(files); err != nil {
		return Client{}, err
	}
	p := parser{}
	cfg := Client{
		ServerAddr: getenv("SERVER_ADDR", "localhost:8123"),
		WSURL:      getenv("SERVER_WS_URL", ""),
		Name:       getenv("PLAYER_NAME", "player"),
		Agent:      strings.ToLower(getenv("AGENT", "random")),
		Seed:       uint64(p.intVar("AGENT_SEED", 1848)),
		LogLevel:   p.levelVar("LOG_LEVEL", log.InfoLevel),
	}
	if p.err != nil {
		return Client{}, p.err
	}
	switch cfg.Agent {
	case "random", "greedy":
	default:
		return Client{}, fmt.Errorf("AGENT must be random or greedy, got %q", cfg.Agent)
	}
	return cfg, nil
}

func getenv(k, d string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return d
}

// parser records the first malformed variable.
type parser struct {
	err error
}

func (p *parser) intVar(k string, d int) int {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(k, v, err)
		return d
	}
	return n
}

func (p *parser) millisVar(k string, d int) time.Duration {
	n := p.intVar(k, d)
	if n < 0 {
		p.fail(k, strconv.Itoa(n), errors.New("negative duration"))
	}
	return time.Duration(n) * time.Millisecond
}

func (p *parser) boolVar(k string, d bool) bool {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(k, v, err)
		return d
	}
	return b
}

func (p *parser) levelVar(k string, d log.Level) log.Level {
	v := getenv(k, "")
	if v == "" {
		return d
	}
	lvl, err := log.ParseLevel(v)
	if err != nil {
		p.fail(k, v, err)
		return d
	}
	return lvl
}

func (p *parser) fail(k, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
}
