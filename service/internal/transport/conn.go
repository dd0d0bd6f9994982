// Package transport carries newline-delimited protocol lines between the game
// server and its players over TCP or WebSocket.
package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrClosed is returned by operations on a closed connection or listener.
var ErrClosed = errors.New("transport: closed")

// writeTimeout bounds a single line write so a stalled peer cannot wedge the
// writer goroutine forever.
const writeTimeout = 10 * time.Second

// Conn is a bidirectional line-oriented connection. ReadLine strips the line
// terminator; WriteLine appends it.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// streamConn frames lines over a byte stream.
type streamConn struct {
	c   net.Conn
	r   *bufio.Reader
	wmu sync.Mutex
}

// NewConn wraps a stream connection such as a TCP socket or one end of
// net.Pipe.
func NewConn(c net.Conn) Conn {
	return &streamConn{c: c, r: bufio.NewReader(c)}
}

// Dial opens a TCP line connection.
func Dial(addr string) (Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(c), nil
}

func (s *streamConn) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		// A final unterminated line is still delivered; EOF follows on the
		// next call.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *streamConn) WriteLine(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := io.WriteString(s.c, line+"\n")
	return err
}

func (s *streamConn) Close() error { return s.c.Close() }

func (s *streamConn) RemoteAddr() string {
	if a := s.c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Host strips the port from an address produced by RemoteAddr.
func Host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
