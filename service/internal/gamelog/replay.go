package gamelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a parsed game log.
type Record struct {
	Header   map[string]string // "# Key: value" comment lines
	Starts   []string          // START lines in seat order
	Moves    []string          // move tokens in application order
	GameOver string            // the GAMEOVER line, if the game finished
}

// Read parses a game log.
func Read(r io.Reader) (*Record, error) {
	rec := &Record{Header: map[string]string{}}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if k, v, ok := strings.Cut(strings.TrimSpace(line[1:]), ": "); ok {
				rec.Header[k] = v
			}
		case strings.HasPrefix(line, "START "):
			rec.Starts = append(rec.Starts, line)
		case strings.HasPrefix(line, "GAMEOVER"):
			rec.GameOver = line
		default:
			rec.Moves = append(rec.Moves, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read game log: %w", err)
	}
	return rec, nil
}

// ReadFile parses the game log at path.
func ReadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// LoadMoves returns the move tokens recorded in the log at path, ready to be
// fed to a session as history.
func LoadMoves(path string) ([]string, error) {
	rec, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return rec.Moves, nil
}
