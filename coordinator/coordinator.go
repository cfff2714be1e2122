// Package coordinator owns the lifecycle of one sync session: it dials the
// server, performs the protocol handshake, connects the player adapter,
// and runs the tick loop that feeds syncengine decisions back to the
// player. It also owns the optional automatic-reconnect policy.
//
// Grounded in the teacher's player/mpv.go dial-with-retry loop and
// cmd/run.go's top-level goroutine wiring, generalized from "spawn a
// player and drive a TUI" to "connect a player and drive a protocol
// session", using golang.org/x/sync/errgroup so that the session's sibling
// goroutines all fail together.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	"github.com/everpcpc/syncplay-go/log"
	"github.com/everpcpc/syncplay-go/player"
	"github.com/everpcpc/syncplay-go/protocol"
	"github.com/everpcpc/syncplay-go/room"
	"github.com/everpcpc/syncplay-go/syncengine"
	"github.com/everpcpc/syncplay-go/transport"
	"golang.org/x/sync/errgroup"
)

// Config bundles everything one session needs: where the server and the
// player are, and how the sync engine should be tuned.
type Config struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Room     string

	MaxFrameBytes int

	PlayerSocket  string
	PlayerDialer  player.Dialer
	PlayerTimeout time.Duration

	TickInterval time.Duration
	Thresholds   syncengine.Thresholds

	Reconnect ReconnectPolicy
}

// Coordinator runs Config's session, retrying per its ReconnectPolicy, and
// exposes the server's Chat stream and the connection's Status stream, plus
// the TLS/user-list/playback-state/RTT observable streams (SPEC_FULL.md
// §6), to its caller. It is the single facade a caller (the `cmd` package,
// or any other embedder) drives a sync session through.
type Coordinator struct {
	cfg   Config
	model *room.Model

	Chat     chan codec.ChatMessage
	Status   chan Status
	TLS      chan transport.TLSStatus
	Users    chan []room.User
	Playback chan room.GlobalPlaystate
	RTT      chan time.Duration

	mu       sync.Mutex
	endpoint *protocol.Endpoint
	adapter  *player.Adapter
	cancel   context.CancelFunc
}

// New creates a Coordinator for the given configuration. The room model is
// created fresh per Coordinator, not per session, so callers can inspect
// the last known room state even while a reconnect is in progress.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		model:    room.New(cfg.Username),
		Chat:     make(chan codec.ChatMessage, 16),
		Status:   make(chan Status, 16),
		TLS:      make(chan transport.TLSStatus, 4),
		Users:    make(chan []room.User, 16),
		Playback: make(chan room.GlobalPlaystate, 16),
		RTT:      make(chan time.Duration, 16),
	}
}

// Model returns the coordinator's room model, safe to read concurrently
// with a running session.
func (c *Coordinator) Model() *room.Model { return c.model }

// Run drives sessions until ctx is cancelled, reconnecting between
// failures according to cfg.Reconnect. It returns the last session error
// once retries are exhausted, reconnection is disabled, or Disconnect is
// called.
func (c *Coordinator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	attempt := 0
	for {
		c.publish(Status{Kind: StatusConnecting, Attempt: attempt})

		err := c.session(ctx)
		if err == nil || ctx.Err() != nil {
			c.publish(Status{Kind: StatusDisconnected, Attempt: attempt})
			return err
		}

		if !c.cfg.Reconnect.Enabled || attempt >= c.cfg.Reconnect.MaxRetries {
			c.publish(Status{Kind: StatusFailed, Attempt: attempt, Err: err})
			return err
		}

		delay := c.cfg.Reconnect.delay(attempt)
		c.publish(Status{Kind: StatusReconnecting, Attempt: attempt, Err: err})
		log.Warnf("coordinator: session failed, retrying in %s: %v", delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		attempt++
	}
}

// Disconnect tears down the active session, if any, and stops Run from
// reconnecting. Safe to call even when no session is active.
func (c *Coordinator) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SendChat sends a chat line through the active session's protocol
// endpoint. Returns NotConnectedError if no session is active.
func (c *Coordinator) SendChat(text string) error {
	endpoint, _ := c.active()
	if endpoint == nil {
		return &NotConnectedError{Op: "SendChat"}
	}
	return endpoint.SendChat(text)
}

// SetReady announces a local readiness change through the active session.
// Returns NotConnectedError if no session is active.
func (c *Coordinator) SetReady(ready bool) error {
	endpoint, _ := c.active()
	if endpoint == nil {
		return &NotConnectedError{Op: "SetReady"}
	}
	return endpoint.SetReady(ready)
}

// ChangeRoom announces a room change through the active session. Returns
// NotConnectedError if no session is active.
func (c *Coordinator) ChangeRoom(name string) error {
	endpoint, _ := c.active()
	if endpoint == nil {
		return &NotConnectedError{Op: "ChangeRoom"}
	}
	return endpoint.SetRoom(name)
}

// LoadMedia tells the local player to load path. The resulting filename
// property-change event is picked up by playerEventLoop and announced to
// the server as a Set, same as any other local file change. Returns
// NotConnectedError if no session is active.
func (c *Coordinator) LoadMedia(path string) error {
	_, adapter := c.active()
	if adapter == nil {
		return &NotConnectedError{Op: "LoadMedia"}
	}
	return adapter.LoadFile(context.Background(), path)
}

func (c *Coordinator) active() (*protocol.Endpoint, *player.Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint, c.adapter
}

func (c *Coordinator) setSession(endpoint *protocol.Endpoint, adapter *player.Adapter) {
	c.mu.Lock()
	c.endpoint = endpoint
	c.adapter = adapter
	c.mu.Unlock()
}

func (c *Coordinator) publish(s Status) {
	select {
	case c.Status <- s:
	default:
		log.Warnf("coordinator: status channel full, dropping %v", s)
	}
}

func (c *Coordinator) publishTLS(s transport.TLSStatus) {
	select {
	case c.TLS <- s:
	default:
	}
}

// session runs exactly one connect-handshake-sync attempt, returning once
// any of its component goroutines fails or ctx is cancelled.
func (c *Coordinator) session(ctx context.Context) error {
	conn, err := transport.Dial(ctx, c.cfg.Host, c.cfg.Port, c.cfg.TLS, c.cfg.MaxFrameBytes)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.publishTLS(conn.TLSStatus())

	endpoint := protocol.NewEndpoint(conn, c.model, c.cfg.Username, c.cfg.TickInterval)
	if err := endpoint.Handshake(ctx, c.cfg.Room); err != nil {
		return err
	}

	adapter := player.New(c.cfg.PlayerSocket, c.cfg.PlayerDialer, c.cfg.PlayerTimeout)
	if err := adapter.Connect(ctx); err != nil {
		return err
	}
	defer adapter.Close()

	c.setSession(endpoint, adapter)
	defer c.setSession(nil, nil)

	c.publish(Status{Kind: StatusConnected})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return endpoint.Run(gctx) })
	g.Go(func() error { return c.relayChat(gctx, endpoint) })
	g.Go(func() error { return c.relayObservables(gctx, endpoint) })
	g.Go(func() error { return c.playerEventLoop(gctx, endpoint, adapter) })
	g.Go(func() error { return c.syncLoop(gctx, endpoint, adapter) })

	return g.Wait()
}

func (c *Coordinator) relayChat(ctx context.Context, endpoint *protocol.Endpoint) error {
	for {
		select {
		case msg := <-endpoint.Chat:
			select {
			case c.Chat <- msg:
			default:
				log.Warnf("coordinator: chat channel full, dropping message from %s", msg.Username)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// relayObservables forwards the endpoint's per-session user-list,
// playback-state, and RTT notifications onto the coordinator's long-lived
// streams so a caller need not re-subscribe across reconnects.
func (c *Coordinator) relayObservables(ctx context.Context, endpoint *protocol.Endpoint) error {
	for {
		select {
		case users := <-endpoint.Users:
			select {
			case c.Users <- users:
			default:
			}
		case playback := <-endpoint.Playback:
			select {
			case c.Playback <- playback:
			default:
			}
		case rtt := <-endpoint.RTT:
			select {
			case c.RTT <- rtt:
			default:
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// playerEventLoop watches the player adapter's lifecycle events and
// propagates a filename change to the server as a Set.
func (c *Coordinator) playerEventLoop(ctx context.Context, endpoint *protocol.Endpoint, adapter *player.Adapter) error {
	for {
		select {
		case ev := <-adapter.Events:
			if ev.Kind != player.EventPropertyChange || ev.PropertyID != player.PropertyFile {
				continue
			}
			state := adapter.State()
			if state.Filename == nil {
				continue
			}
			file := codec.FileInfo{Name: *state.Filename}
			if state.Duration != nil {
				file.Duration = *state.Duration
			}
			if err := endpoint.SetFile(file); err != nil {
				log.Warnf("coordinator: failed to announce file change: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// syncLoop ticks the sync engine against the player's last known state and
// the room model's server-authoritative playstate, applying any resulting
// decision to the player.
func (c *Coordinator) syncLoop(ctx context.Context, endpoint *protocol.Endpoint, adapter *player.Adapter) error {
	engine := syncengine.New(c.cfg.Thresholds)
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick(engine, endpoint, adapter)
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Coordinator) tick(engine *syncengine.Engine, endpoint *protocol.Endpoint, adapter *player.Adapter) {
	state := adapter.State()
	if state.Position == nil || state.Paused == nil {
		return
	}

	playstate := c.model.Playstate()
	if playstate.ReceivedAt.IsZero() {
		return
	}

	local := syncengine.LocalState{Position: *state.Position, Paused: *state.Paused}
	ref := syncengine.ReferenceState{
		Position:      playstate.Position,
		Paused:        playstate.Paused,
		DoSeek:        playstate.DoSeek,
		ReceivedAt:    playstate.ReceivedAt,
		LatencySample: playstate.LatencySample,
	}
	if state.Duration != nil {
		ref.Duration = *state.Duration
	}

	decision := engine.Decide(local, ref, time.Now())
	c.apply(decision, endpoint, adapter)
}

func (c *Coordinator) apply(decision syncengine.Decision, endpoint *protocol.Endpoint, adapter *player.Adapter) {
	ctx := context.Background()
	switch decision.Action {
	case syncengine.ActionSeek:
		if err := adapter.Seek(ctx, decision.SeekTo); err != nil {
			log.Warnf("coordinator: seek failed: %v", err)
		}
	case syncengine.ActionSetPaused:
		if err := adapter.SetPaused(ctx, decision.Paused); err != nil {
			log.Warnf("coordinator: set-paused failed: %v", err)
		}
	case syncengine.ActionSlowdown, syncengine.ActionResetSpeed:
		if err := adapter.SetProperty(ctx, "speed", decision.SpeedRate); err != nil {
			log.Warnf("coordinator: speed change failed: %v", err)
		}
	case syncengine.ActionNone:
	}

	local := adapter.State()
	if local.Position != nil {
		if err := endpoint.SendPlaystate(*local.Position, local.Paused != nil && *local.Paused); err != nil {
			log.Warnf("coordinator: failed to report playstate: %v", err)
		}
	}
}
