// Package transport owns the raw connection to the coordination server: a
// TCP dial, an optional opportunistic TLS upgrade negotiated in-band via
// codec.TLSMessage, and a pair of independent read/write goroutines so a
// slow peer on one direction never head-of-line blocks the other.
//
// Grounded in original_source/network/tls.rs (system trust store, SNI,
// in-place upgrade) and in the teacher's player/mpv.go dial-with-retry
// style, generalized from a Unix socket to a TCP connection.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	"github.com/everpcpc/syncplay-go/log"
)

// TLSStatus tracks the opportunistic-TLS negotiation state machine:
// unknown -> pending -> enabled|unsupported.
type TLSStatus int

const (
	TLSUnknown TLSStatus = iota
	TLSPending
	TLSEnabled
	TLSUnsupported
)

func (s TLSStatus) String() string {
	switch s {
	case TLSPending:
		return "pending"
	case TLSEnabled:
		return "enabled"
	case TLSUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// TlsError reports a failed TLS handshake. The caller does not fall back to
// cleartext automatically.
type TlsError struct{ cause error }

func (e *TlsError) Error() string { return fmt.Sprintf("tls handshake failed: %v", e.cause) }
func (e *TlsError) Unwrap() error { return e.cause }

// TransportError wraps any I/O failure on the underlying connection.
type TransportError struct{ cause error }

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.cause) }
func (e *TransportError) Unwrap() error { return e.cause }

const (
	handshakeTimeout = 10 * time.Second
	connectTimeout   = 15 * time.Second
	maxOutboundQueue = 64
	maxInboundQueue  = 64
)

// BackpressureError reports inbound-queue overflow; the connection is
// dropped rather than let memory grow unbounded.
type BackpressureError struct{}

func (e *BackpressureError) Error() string { return "transport: inbound queue overflow" }

var errClosed = errors.New("connection closed")

// Conn is a connected transport: two independent channels, a TLS status,
// and a background reader/writer pair. All Conn methods are safe to call
// from any goroutine.
type Conn struct {
	host string
	raw  net.Conn

	mu        sync.Mutex
	cur       net.Conn
	tlsStatus TLSStatus

	reader *codec.Reader
	writer *codec.Writer

	outMu   sync.Mutex
	outQ    []codec.Message
	outWake chan struct{}

	Inbound chan codec.Message
	Errors  chan error

	maxFrameBytes int
	closeOnce     sync.Once
	done          chan struct{}
}

// Dial connects to host:port over TCP and starts the reader/writer
// goroutines. requestTLS, when true, sends TLSMessage{StartTLS:"send"}
// immediately after connecting and upgrades in place on an affirmative
// reply; on a negative reply or timeout it continues in cleartext with
// TLSStatus set to Unsupported.
func Dial(ctx context.Context, host string, port int, requestTLS bool, maxFrameBytes int) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", host, port)
	raw, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, &TransportError{cause: err}
	}

	c := &Conn{
		host:          host,
		raw:           raw,
		cur:           raw,
		tlsStatus:     TLSUnknown,
		maxFrameBytes: maxFrameBytes,
		Inbound:       make(chan codec.Message, maxInboundQueue),
		outWake:       make(chan struct{}, 1),
		Errors:        make(chan error, 1),
		done:          make(chan struct{}),
	}
	c.reader = codec.NewReader(c.cur, maxFrameBytes)
	c.writer = codec.NewWriter(c.cur)

	if requestTLS {
		if err := c.negotiateTLS(); err != nil {
			c.raw.Close()
			return nil, err
		}
	} else {
		c.tlsStatus = TLSUnsupported
	}

	go c.readLoop()
	go c.writeLoop()

	return c, nil
}

func (c *Conn) negotiateTLS() error {
	c.tlsStatus = TLSPending
	if err := c.writer.WriteMessage(codec.Message{Kind: codec.KindTLS, TLS: &codec.TLSMessage{StartTLS: "send"}}); err != nil {
		return &TransportError{cause: err}
	}

	_ = c.cur.SetReadDeadline(time.Now().Add(handshakeTimeout))
	reply, err := c.reader.ReadMessage()
	_ = c.cur.SetReadDeadline(time.Time{})
	if err != nil || reply.Kind != codec.KindTLS || reply.TLS == nil || reply.TLS.StartTLS != "true" {
		if err != nil {
			// A failed read stops the scanner for good; start a fresh one.
			c.reader = codec.NewReader(c.cur, c.maxFrameBytes)
		}
		c.tlsStatus = TLSUnsupported
		return nil
	}

	tlsConn := tls.Client(c.cur, &tls.Config{ServerName: c.host})
	hsCtx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		return &TlsError{cause: err}
	}

	c.cur = tlsConn
	c.reader = codec.NewReader(c.cur, c.maxFrameBytes)
	c.writer = codec.NewWriter(c.cur)
	c.tlsStatus = TLSEnabled
	return nil
}

// TLSStatus reports the current opportunistic-TLS state.
func (c *Conn) TLSStatus() TLSStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tlsStatus
}

func (c *Conn) readLoop() {
	for {
		msg, err := c.reader.ReadMessage()
		if err != nil {
			c.fail(&TransportError{cause: err})
			return
		}
		select {
		case c.Inbound <- msg:
		case <-c.done:
			return
		default:
			c.fail(&BackpressureError{})
			return
		}
	}
}

// Send enqueues msg for transmission by the write loop. Per spec §5, an
// outbound queue at capacity is relieved by evicting the oldest message
// that is neither State nor Chat (heartbeat/playstate traffic and chat are
// never dropped); if the queue holds nothing else, it is allowed to grow
// past capacity rather than lose one of those kinds. Returns an error once
// the connection has been closed.
func (c *Conn) Send(msg codec.Message) error {
	select {
	case <-c.done:
		return &TransportError{cause: errClosed}
	default:
	}

	c.outMu.Lock()
	if len(c.outQ) >= maxOutboundQueue {
		if i := evictionIndex(c.outQ); i >= 0 {
			log.Warnf("transport: outbound queue full, dropping queued %s message", c.outQ[i].Kind)
			c.outQ = append(c.outQ[:i], c.outQ[i+1:]...)
		} else {
			log.Warnf("transport: outbound queue full of undroppable State/Chat traffic, growing past capacity")
		}
	}
	c.outQ = append(c.outQ, msg)
	c.outMu.Unlock()

	select {
	case c.outWake <- struct{}{}:
	default:
	}
	return nil
}

// evictionIndex returns the index of the oldest message eligible for
// eviction, or -1 if the queue holds only State/Chat messages.
func evictionIndex(q []codec.Message) int {
	for i, m := range q {
		if m.Kind != codec.KindState && m.Kind != codec.KindChat {
			return i
		}
	}
	return -1
}

func (c *Conn) dequeue() (codec.Message, bool) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if len(c.outQ) == 0 {
		return codec.Message{}, false
	}
	msg := c.outQ[0]
	c.outQ = c.outQ[1:]
	return msg, true
}

func (c *Conn) writeLoop() {
	for {
		msg, ok := c.dequeue()
		if !ok {
			select {
			case <-c.outWake:
				continue
			case <-c.done:
				return
			}
		}
		if err := c.writer.WriteMessage(msg); err != nil {
			c.fail(&TransportError{cause: err})
			return
		}
	}
}

func (c *Conn) fail(err error) {
	log.Warnf("transport failure: %v", err)
	select {
	case c.Errors <- err:
	default:
	}
	c.Close()
}

// Close tears down the connection and stops both background goroutines.
// Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		cur := c.cur
		c.mu.Unlock()
		err = cur.Close()
	})
	return err
}
