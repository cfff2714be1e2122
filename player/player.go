package player

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	"github.com/everpcpc/syncplay-go/log"
)

// Dialer opens the player's control socket. On POSIX this is
// net.Dial("unix", path); callers targeting a Windows named pipe substitute
// their own implementation, per the adapter's dial-function seam.
type Dialer func(ctx context.Context, path string) (net.Conn, error)

// UnixDialer is the default Dialer, used on every platform that exposes the
// player's IPC endpoint as a Unix domain socket.
func UnixDialer(ctx context.Context, path string) (net.Conn, error) {
	return (&net.Dialer{}).DialContext(ctx, "unix", path)
}

const (
	reconnectDelay = 2 * time.Second
	maxFrameBytes  = 1 << 16
)

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type ipcResponse struct {
	RequestID    int64           `json:"request_id"`
	Error        string          `json:"error"`
	Data         json.RawMessage `json:"data"`
	disconnected error
}

type ipcEvent struct {
	Event  string          `json:"event"`
	ID     uint64          `json:"id"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Reason string          `json:"reason"`
}

// Adapter is a client for an already-running media player's JSON-IPC
// socket. It does not spawn or own the player process: the socket path is
// supplied by the caller and is expected to already exist.
//
// Grounded in the teacher's player/ipc.go (sendCommand, request/response
// JSON-IPC framing) and player/events.go (EventListener, observe_property
// subscription, readLoop), adapted to connect rather than spawn.
type Adapter struct {
	socket  string
	dial    Dialer
	timeout time.Duration

	mu      sync.Mutex
	conn    net.Conn
	reader  *codec.RawReader
	nextID  int64
	pending map[int64]chan ipcResponse

	stateMu sync.RWMutex
	state   State

	Events chan Event

	closed atomic.Bool
	done   chan struct{}
}

// New creates an adapter bound to socket, using dial to open connections
// and timeout as the deadline for getProperty requests.
func New(socket string, dial Dialer, timeout time.Duration) *Adapter {
	if dial == nil {
		dial = UnixDialer
	}
	return &Adapter{
		socket:  socket,
		dial:    dial,
		timeout: timeout,
		pending: make(map[int64]chan ipcResponse),
		Events:  make(chan Event, 64),
		done:    make(chan struct{}),
		state:   State{},
	}
}

// Connect dials the player's socket, subscribes to every observed property,
// and starts the background read loop.
func (a *Adapter) Connect(ctx context.Context) error {
	conn, err := a.dial(ctx, a.socket)
	if err != nil {
		return &PlayerDisconnected{cause: err}
	}

	a.mu.Lock()
	a.conn = conn
	a.reader = codec.NewRawReader(conn, maxFrameBytes)
	a.mu.Unlock()

	go a.readLoop()

	for _, id := range observedProperties {
		if err := a.observeProperty(ctx, id); err != nil {
			a.Close()
			return err
		}
	}
	return nil
}

// State returns a snapshot of the last known value of every observed
// property.
func (a *Adapter) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

func (a *Adapter) observeProperty(ctx context.Context, id PropertyID) error {
	_, err := a.call(ctx, []any{"observe_property", uint64(id), id.name()})
	return err
}

// SetPaused pauses or resumes playback.
func (a *Adapter) SetPaused(ctx context.Context, paused bool) error {
	_, err := a.call(ctx, []any{"set_property", "pause", paused})
	return err
}

// Seek moves the playback position to position seconds, absolute.
func (a *Adapter) Seek(ctx context.Context, position float64) error {
	_, err := a.call(ctx, []any{"seek", position, "absolute"})
	return err
}

// LoadFile instructs the player to load path, replacing any current file.
func (a *Adapter) LoadFile(ctx context.Context, path string) error {
	_, err := a.call(ctx, []any{"loadfile", path, "replace"})
	return err
}

// ShowText displays text as an on-screen message for durationMs
// milliseconds.
func (a *Adapter) ShowText(ctx context.Context, text string, durationMs int) error {
	_, err := a.call(ctx, []any{"show-text", text, durationMs})
	return err
}

// SetProperty sets an arbitrary player property by name.
func (a *Adapter) SetProperty(ctx context.Context, name string, value any) error {
	_, err := a.call(ctx, []any{"set_property", name, value})
	return err
}

// GetProperty reads an arbitrary player property by name, bounded by the
// adapter's configured timeout.
func (a *Adapter) GetProperty(ctx context.Context, name string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	data, err := a.call(ctx, []any{"get_property", name})
	if err != nil {
		return nil, err
	}
	var v any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("player: decode get_property reply: %w", err)
		}
	}
	return v, nil
}

func (a *Adapter) call(ctx context.Context, command []any) (json.RawMessage, error) {
	id := atomic.AddInt64(&a.nextID, 1)
	reply := make(chan ipcResponse, 1)

	a.mu.Lock()
	conn := a.conn
	a.pending[id] = reply
	a.mu.Unlock()

	if conn == nil {
		a.dropPending(id)
		return nil, &PlayerDisconnected{cause: fmt.Errorf("not connected")}
	}

	req := ipcRequest{Command: command, RequestID: id}
	line, err := json.Marshal(req)
	if err != nil {
		a.dropPending(id)
		return nil, err
	}
	line = append(line, '\n')

	if _, err := conn.Write(line); err != nil {
		a.dropPending(id)
		if rErr := a.reconnect(ctx); rErr != nil {
			return nil, rErr
		}
		return nil, &PlayerDisconnected{cause: err}
	}

	select {
	case resp := <-reply:
		if resp.disconnected != nil {
			return nil, resp.disconnected
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, &CommandError{Message: resp.Error}
		}
		return resp.Data, nil
	case <-ctx.Done():
		a.dropPending(id)
		return nil, &PlayerTimeout{Request: fmt.Sprintf("%v", command)}
	case <-a.done:
		return nil, &PlayerDisconnected{cause: fmt.Errorf("adapter closed")}
	}
}

func (a *Adapter) dropPending(id int64) {
	a.mu.Lock()
	delete(a.pending, id)
	a.mu.Unlock()
}

func (a *Adapter) readLoop() {
	for {
		line, err := a.reader.ReadLine()
		if err != nil {
			a.handleReadFailure(err)
			return
		}
		a.dispatch(line)
	}
}

func (a *Adapter) dispatch(line []byte) {
	var probe struct {
		Event     string `json:"event"`
		RequestID *int64 `json:"request_id"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		log.Warnf("player: malformed frame: %v", err)
		return
	}

	if probe.RequestID != nil {
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Warnf("player: malformed response: %v", err)
			return
		}
		a.mu.Lock()
		reply, ok := a.pending[resp.RequestID]
		if ok {
			delete(a.pending, resp.RequestID)
		}
		a.mu.Unlock()
		if ok {
			reply <- resp
		}
		return
	}

	var ev ipcEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		log.Warnf("player: malformed event: %v", err)
		return
	}

	if ev.Event == "property-change" {
		id := PropertyID(ev.ID)
		var v any
		if len(ev.Data) > 0 {
			_ = json.Unmarshal(ev.Data, &v)
		}
		a.stateMu.Lock()
		a.state.apply(id, v)
		a.stateMu.Unlock()
		a.emit(Event{Kind: EventPropertyChange, Name: ev.Name, PropertyID: id, Value: v})
		return
	}

	a.emit(eventFromName(ev.Event, ev.Reason))
}

func (a *Adapter) emit(ev Event) {
	select {
	case a.Events <- ev:
	default:
		log.Warnf("player: event channel full, dropping %v", ev.Kind)
	}
}

func (a *Adapter) handleReadFailure(err error) {
	if a.closed.Load() {
		return
	}
	a.failPending(&PlayerDisconnected{cause: err})

	ctx, cancel := context.WithTimeout(context.Background(), reconnectDelay)
	defer cancel()
	if rErr := a.reconnect(ctx); rErr != nil {
		log.Warnf("player: reconnect failed: %v", rErr)
		a.Close()
		return
	}
	go a.readLoop()
}

func (a *Adapter) reconnect(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, reconnectDelay)
	defer cancel()
	conn, err := a.dial(rctx, a.socket)
	if err != nil {
		return &PlayerDisconnected{cause: err}
	}
	a.mu.Lock()
	a.conn = conn
	a.reader = codec.NewRawReader(conn, maxFrameBytes)
	a.mu.Unlock()

	for _, id := range observedProperties {
		if err := a.observeProperty(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) failPending(err error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = make(map[int64]chan ipcResponse)
	a.mu.Unlock()
	for _, ch := range pending {
		ch <- ipcResponse{disconnected: err}
	}
}

// Close releases the socket and fails any outstanding requests.
func (a *Adapter) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(a.done)
	a.failPending(&PlayerDisconnected{cause: fmt.Errorf("adapter closed")})
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
