package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Listener hands out accepted connections. Connections accepted while no one
// is waiting stay queued until the next Accept.
type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
	Addr() string
}

// queue is the shared Accept side of every listener in this package:
// producers push connections, Accept pops them.
type queue struct {
	conns     chan Conn
	done      chan struct{}
	closeOnce sync.Once
}

func newQueue() *queue {
	return &queue{conns: make(chan Conn), done: make(chan struct{})}
}

// push offers c to the next Accept. It reports false and closes c once the
// listener is closed.
func (q *queue) push(ctx context.Context, c Conn) bool {
	select {
	case q.conns <- c:
		return true
	case <-q.done:
	case <-ctx.Done():
	}
	c.Close()
	return false
}

func (q *queue) Accept(ctx context.Context) (Conn, error) {
	select {
	case c := <-q.conns:
		return c, nil
	case <-q.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *queue) shut() {
	q.closeOnce.Do(func() { close(q.done) })
}

// TCPListener accepts line connections on a TCP port.
type TCPListener struct {
	*queue
	ln net.Listener
}

// ListenTCP binds addr and starts accepting in the background.
func ListenTCP(addr string) (*TCPListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &TCPListener{queue: newQueue(), ln: ln}
	go l.acceptLoop()
	return l, nil
}

func (l *TCPListener) acceptLoop() {
	for {
		c, err := l.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.WithError(err).Warn("tcp accept failed")
			}
			l.shut()
			return
		}
		log.WithField("remote", c.RemoteAddr().String()).Debug("tcp connection accepted")
		if !l.push(context.Background(), NewConn(c)) {
			return
		}
	}
}

func (l *TCPListener) Addr() string { return l.ln.Addr().String() }

// Close stops accepting and releases the port.
func (l *TCPListener) Close() error {
	l.shut()
	return l.ln.Close()
}

// multiListener fans several listeners into one.
type multiListener struct {
	*queue
	ls     []Listener
	cancel context.CancelFunc
}

// Merge returns a listener yielding connections from every l. Closing it
// closes all of them.
func Merge(ls ...Listener) Listener {
	if len(ls) == 1 {
		return ls[0]
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &multiListener{queue: newQueue(), ls: ls, cancel: cancel}
	for _, l := range ls {
		go func(l Listener) {
			for {
				c, err := l.Accept(ctx)
				if err != nil {
					return
				}
				if !m.push(ctx, c) {
					return
				}
			}
		}(l)
	}
	return m
}

func (m *multiListener) Addr() string {
	addr := ""
	for i, l := range m.ls {
		if i > 0 {
			addr += ","
		}
		addr += l.Addr()
	}
	return addr
}

func (m *multiListener) Close() error {
	m.shut()
	m.cancel()
	var errs []error
	for _, l := range m.ls {
		errs = append(errs, l.Close())
	}
	return errors.Join(errs...)
}
