// Package player implements the adapter that talks to an already-running
// external media player over its local JSON-IPC socket: request/response
// commands keyed by an integer request_id, unsolicited property-change and
// lifecycle events, and a bounded single-reconnect-then-fail policy.
//
// Grounded in the teacher's player/ipc.go (sendCommand, request/response
// framing) and player/events.go (EventListener, observe_property,
// readLoop), adapted from spawn-and-own-the-process semantics to
// connect-to-a-socket-supplied-by-the-caller semantics (spec §6).
package player

import "fmt"

// PlayerTimeout reports that a getProperty request received no response
// within its deadline.
type PlayerTimeout struct{ Request string }

func (e *PlayerTimeout) Error() string { return fmt.Sprintf("player: timeout waiting for %s", e.Request) }

// PlayerDisconnected reports that the IPC socket is gone and the single
// reconnect attempt also failed. Outstanding requests fail with this error.
type PlayerDisconnected struct{ cause error }

func (e *PlayerDisconnected) Error() string { return fmt.Sprintf("player: disconnected: %v", e.cause) }
func (e *PlayerDisconnected) Unwrap() error { return e.cause }

// CommandError wraps a player-reported error string for a single command.
type CommandError struct{ Message string }

func (e *CommandError) Error() string { return fmt.Sprintf("player: command error: %s", e.Message) }
