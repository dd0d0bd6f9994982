package transport

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// sendBuffer is the number of outbound lines a worker queues before the peer
// is treated as gone.
const sendBuffer = 256

// ErrSendOverflow is reported to HandleDisconnect when a peer stopped reading
// and its outbound queue filled up.
var ErrSendOverflow = errors.New("transport: outbound queue full")

// Handler receives the events of a Worker. Calls come from the worker's
// reader goroutine, one at a time.
type Handler interface {
	HandleLine(w *Worker, line string)
	// HandleDisconnect reports that the peer went away. It is not called
	// when the connection was closed through Worker.Close.
	HandleDisconnect(w *Worker, err error)
}

// Worker owns one player connection: a reader goroutine forwarding inbound
// lines to the Handler and a writer goroutine draining an outbound queue, so
// a slow peer never blocks the caller of Send.
type Worker struct {
	conn    Conn
	slot    int
	handler Handler

	mu         sync.Mutex
	out        chan string
	closed     bool
	overflowed bool

	done chan struct{}
}

// NewWorker binds conn to a player slot. Call Start to begin I/O.
func NewWorker(conn Conn, slot int, h Handler) *Worker {
	return &Worker{
		conn:    conn,
		slot:    slot,
		handler: h,
		out:     make(chan string, sendBuffer),
		done:    make(chan struct{}),
	}
}

func (w *Worker) Slot() int          { return w.slot }
func (w *Worker) RemoteAddr() string { return w.conn.RemoteAddr() }

// Done is closed once the connection has been flushed and closed.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Start launches the reader and writer goroutines.
func (w *Worker) Start() {
	go w.readLoop()
	go w.writeLoop()
}

// Send queues a line for delivery. It reports false if the worker is closed
// or has overflowed. A full queue drops the connection, and the reader then
// reports ErrSendOverflow to the handler.
func (w *Worker) Send(line string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.overflowed {
		return false
	}
	select {
	case w.out <- line:
		return true
	default:
		log.WithField("slot", w.slot).Warn("outbound queue full, dropping connection")
		w.overflowed = true
		// A websocket close handshake can block; the caller may hold locks.
		go w.conn.Close()
		return false
	}
}

// Close stops accepting lines. Queued lines are still written before the
// connection is closed. Close never blocks.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.out)
}

func (w *Worker) readLoop() {
	for {
		line, err := w.conn.ReadLine()
		if err != nil {
			w.mu.Lock()
			closed, overflowed := w.closed, w.overflowed
			w.mu.Unlock()
			if overflowed {
				err = ErrSendOverflow
			}
			if !closed {
				w.handler.HandleDisconnect(w, err)
			}
			return
		}
		w.handler.HandleLine(w, line)
	}
}

func (w *Worker) writeLoop() {
	defer close(w.done)
	failed := false
	for line := range w.out {
		if failed {
			continue
		}
		if err := w.conn.WriteLine(line); err != nil {
			log.WithError(err).WithField("slot", w.slot).Warn("write failed")
			// Unblocks the reader, which reports the disconnect.
			w.conn.Close()
			failed = true
		}
	}
	w.conn.Close()
}
