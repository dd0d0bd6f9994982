package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"
)

// wsConn carries one protocol line per text message.
type wsConn struct {
	c         *websocket.Conn
	remote    string
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(c *websocket.Conn, remote string) *wsConn {
	return &wsConn{c: c, remote: remote, closed: make(chan struct{})}
}

// DialWebSocket connects to a WebSocketListener endpoint such as
// ws://host:port/ws.
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return newWSConn(c, url), nil
}

func (w *wsConn) ReadLine() (string, error) {
	for {
		typ, data, err := w.c.Read(context.Background())
		if err != nil {
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (w *wsConn) WriteLine(line string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return w.c.Write(ctx, websocket.MessageText, []byte(line))
}

func (w *wsConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.c.Close(websocket.StatusNormalClosure, "game over")
		close(w.closed)
	})
	return err
}

func (w *wsConn) RemoteAddr() string { return w.remote }

// WebSocketListener is an http.Handler that upgrades requests and queues the
// resulting connections for Accept.
type WebSocketListener struct {
	*queue
	addr string
}

// NewWebSocketListener returns a listener to be mounted on an HTTP server
// reachable at addr.
func NewWebSocketListener(addr string) *WebSocketListener {
	return &WebSocketListener{queue: newQueue(), addr: addr}
}

func (l *WebSocketListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-l.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	wc := newWSConn(c, r.RemoteAddr)
	log.WithField("remote", r.RemoteAddr).Debug("websocket connection accepted")
	if !l.push(r.Context(), wc) {
		return
	}
	// The session owns the connection from here; hold the handler open until
	// it is done with it.
	select {
	case <-wc.closed:
	case <-r.Context().Done():
		wc.Close()
	}
}

func (l *WebSocketListener) Addr() string { return l.addr }

func (l *WebSocketListener) Close() error {
	l.shut()
	return nil
}

// IsNormalClose reports whether err is a clean websocket or stream shutdown.
func IsNormalClose(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
