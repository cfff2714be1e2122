package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	"github.com/everpcpc/syncplay-go/constant"
	"github.com/everpcpc/syncplay-go/log"
	"github.com/everpcpc/syncplay-go/room"
	"github.com/everpcpc/syncplay-go/transport"
)

// State is the protocol endpoint's lifecycle: Disconnected -> HelloPending
// -> Active, or -> Failed on handshake/server error.
type State int

const (
	StateDisconnected State = iota
	StateHelloPending
	StateActive
	StateFailed
)

const handshakeTimeout = 10 * time.Second

// Endpoint drives the Hello handshake and the Active-state message loop
// over an already-connected transport.Conn, feeding a room.Model and
// producing the latency sample the sync engine consumes each tick.
//
// Grounded in original_source/commands/connection.rs's message dispatch
// and update_server_features, and in the teacher's player/events.go
// readLoop as the shape of "dispatch unsolicited JSON objects to
// callbacks" this endpoint generalizes from player events to server
// protocol messages.
type Endpoint struct {
	conn     *transport.Conn
	model    *room.Model
	username string

	tickInterval time.Duration

	mu                     sync.Mutex
	state                  State
	features               ServerFeatures
	ping                   pingService
	lastLatencyCalculation float64

	Chat         chan codec.ChatMessage
	ServerErrors chan string
	Errors       chan error
	Users        chan []room.User
	Playback     chan room.GlobalPlaystate
	RTT          chan time.Duration

	done chan struct{}
}

// NewEndpoint creates an Endpoint bound to an already-dialed transport
// connection. The connection's TLS negotiation (if any) has already
// happened by the time Dial returns; this layer only speaks the
// application-level Hello/Set/List/State/Chat protocol.
func NewEndpoint(conn *transport.Conn, model *room.Model, username string, tickInterval time.Duration) *Endpoint {
	return &Endpoint{
		conn:         conn,
		model:        model,
		username:     username,
		tickInterval: tickInterval,
		Chat:         make(chan codec.ChatMessage, 16),
		ServerErrors: make(chan string, 16),
		Errors:       make(chan error, 1),
		Users:        make(chan []room.User, 16),
		Playback:     make(chan room.GlobalPlaystate, 16),
		RTT:          make(chan time.Duration, 16),
		done:         make(chan struct{}),
	}
}

// Handshake sends Hello and blocks for the server's Hello reply (or an
// Error reply), deriving ServerFeatures from realversion/featureList on
// success.
func (e *Endpoint) Handshake(ctx context.Context, roomName string) error {
	e.setState(StateHelloPending)

	hello := codec.Message{Kind: codec.KindHello, Hello: &codec.HelloMessage{
		Username: e.username,
		Room:     &codec.RoomRef{Name: roomName},
		Version:  constant.ProtocolVersion,
	}}

	if err := e.conn.Send(hello); err != nil {
		e.setState(StateFailed)
		return &ProtocolError{Reason: "handshake send failed", cause: err}
	}

	hsCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	select {
	case msg := <-e.conn.Inbound:
		switch msg.Kind {
		case codec.KindHello:
			features := DeriveServerFeatures(msg.Hello.RealVersion, msg.Hello.FeatureList)
			e.mu.Lock()
			e.features = features
			e.mu.Unlock()
			e.setState(StateActive)
			return nil
		case codec.KindError:
			e.setState(StateFailed)
			return &ServerError{Message: msg.Error.Message}
		default:
			e.setState(StateFailed)
			return &ProtocolError{Reason: fmt.Sprintf("expected Hello reply, got %s", msg.Kind)}
		}
	case err := <-e.conn.Errors:
		e.setState(StateFailed)
		return &ProtocolError{Reason: "transport failed during handshake", cause: err}
	case <-hsCtx.Done():
		e.setState(StateFailed)
		return &ProtocolError{Reason: "handshake timed out", cause: hsCtx.Err()}
	}
}

func (e *Endpoint) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// State reports the endpoint's current lifecycle state.
func (e *Endpoint) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Features reports the negotiated server feature set. Only meaningful
// once State() is StateActive.
func (e *Endpoint) Features() ServerFeatures {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.features
}

// Run services the Active-state message loop until ctx is cancelled or
// the transport fails. It must be called after a successful Handshake.
func (e *Endpoint) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(e.done)
			return nil

		case <-ticker.C:
			e.sendHeartbeat()

		case msg, ok := <-e.conn.Inbound:
			if !ok {
				return &ProtocolError{Reason: "connection closed"}
			}
			e.dispatch(msg)

		case err := <-e.conn.Errors:
			e.setState(StateFailed)
			return err
		}
	}
}

func (e *Endpoint) dispatch(msg codec.Message) {
	switch msg.Kind {
	case codec.KindList:
		e.model.ApplyList(*msg.List)
		e.publishUsers()
	case codec.KindSet:
		e.model.ApplySet(*msg.Set)
		e.publishUsers()
	case codec.KindState:
		e.handleState(*msg.State)
	case codec.KindChat:
		select {
		case e.Chat <- *msg.Chat:
		default:
			log.Warnf("dropping chat message, consumer not keeping up")
		}
	case codec.KindError:
		select {
		case e.ServerErrors <- msg.Error.Message:
		default:
		}
	case codec.KindTLS:
		// TLS negotiation is handled entirely by package transport before
		// the endpoint's Active loop starts; nothing to do here.
	}
}

func (e *Endpoint) handleState(s codec.StateMessage) {
	now := time.Now()

	var latencySample float64
	if s.Ping != nil {
		e.mu.Lock()
		e.lastLatencyCalculation = s.Ping.LatencyCalculation
		e.mu.Unlock()

		if s.Ping.ClientLatencyCalculation > 0 {
			rtt := now.Sub(timeFromServerTimestamp(s.Ping.ClientLatencyCalculation)).Seconds()
			e.mu.Lock()
			e.ping.observe(rtt)
			latencySample = e.ping.forwardDelay(rtt, s.Ping.ServerRTT)
			avr := e.ping.avrRTT
			e.mu.Unlock()
			e.publishRTT(avr)
		} else {
			e.mu.Lock()
			latencySample = e.ping.avrRTT / 2
			avr := e.ping.avrRTT
			e.mu.Unlock()
			e.publishRTT(avr)
		}
	}

	if s.Playstate != nil {
		e.model.ApplyPlaystate(*s.Playstate, latencySample, now)
		e.publishPlayback()
	}
}

func (e *Endpoint) publishUsers() {
	users := e.model.Room(e.model.CurrentRoom())
	select {
	case e.Users <- users:
	default:
	}
}

func (e *Endpoint) publishPlayback() {
	select {
	case e.Playback <- e.model.Playstate():
	default:
	}
}

func (e *Endpoint) publishRTT(avrRTT float64) {
	select {
	case e.RTT <- time.Duration(avrRTT * float64(time.Second)):
	default:
	}
}

func timeFromServerTimestamp(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second)))
}

// sendHeartbeat emits the periodic State carrying the client's own RTT
// timestamp and, per SPEC_FULL.md §4.5, echoes back the latencyCalculation
// most recently received from the server so it can compute its own RTT off
// the reply (original_source/commands/connection.rs's send_state_message).
func (e *Endpoint) sendHeartbeat() {
	e.mu.Lock()
	echo := float64(time.Now().UnixNano()) / float64(time.Second)
	latencyCalculation := e.lastLatencyCalculation
	e.mu.Unlock()

	msg := codec.Message{Kind: codec.KindState, State: &codec.StateMessage{
		Ping: &codec.PingInfo{
			ClientLatencyCalculation: echo,
			LatencyCalculation:       latencyCalculation,
		},
	}}

	if err := e.conn.Send(msg); err != nil {
		log.Warnf("endpoint: failed to send heartbeat: %v", err)
	}
}

// SetReady announces a local readiness change. Returns FeatureGatedError
// if the server has not negotiated readiness support.
func (e *Endpoint) SetReady(ready bool) error {
	if !e.Features().Readiness {
		return &FeatureGatedError{Feature: "readiness"}
	}
	return e.send(codec.Message{Kind: codec.KindSet, Set: &codec.SetMessage{
		Username: e.username,
		Ready:    &ready,
	}})
}

// SetFile announces a local file change.
func (e *Endpoint) SetFile(f codec.FileInfo) error {
	return e.send(codec.Message{Kind: codec.KindSet, Set: &codec.SetMessage{
		Username: e.username,
		File:     &f,
	}})
}

// SetRoom announces that the local user is switching to roomName.
func (e *Endpoint) SetRoom(roomName string) error {
	return e.send(codec.Message{Kind: codec.KindSet, Set: &codec.SetMessage{
		Username: e.username,
		Room:     &codec.RoomRef{Name: roomName},
	}})
}

// SendChat sends a chat line. Returns FeatureGatedError if the server has
// not negotiated chat support.
func (e *Endpoint) SendChat(text string) error {
	if !e.Features().Chat {
		return &FeatureGatedError{Feature: "chat"}
	}
	return e.send(codec.Message{Kind: codec.KindChat, Chat: &codec.ChatMessage{
		Username: e.username,
		Message:  text,
	}})
}

// SendPlaystate announces a local playback position/pause change.
func (e *Endpoint) SendPlaystate(position float64, paused bool) error {
	return e.send(codec.Message{Kind: codec.KindState, State: &codec.StateMessage{
		Playstate: &codec.PlaystateInfo{Position: position, Paused: paused, SetBy: e.username},
	}})
}

func (e *Endpoint) send(msg codec.Message) error {
	select {
	case <-e.done:
		return &ProtocolError{Reason: "endpoint stopped"}
	default:
	}
	if err := e.conn.Send(msg); err != nil {
		return &ProtocolError{Reason: "endpoint stopped", cause: err}
	}
	return nil
}
