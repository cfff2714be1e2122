// Package syncengine implements the pure decision function that compares
// the local media player's playback state against the server's
// authoritative global state and decides what, if anything, the player
// adapter should do about it.
//
// Grounded directly in original_source/client/sync.rs's
// calculate_sync_actions (same constants, same precedence) and in the
// teacher's player/skip.go Skipper.Check, the closest analogue already in
// the corpus of "a pure function over a position that returns an action".
// The engine uses no third-party library: it is arithmetic over float64s,
// has no I/O, and gains nothing from a dependency (see DESIGN.md).
package syncengine

import "time"

// Action is the outcome of one decision tick.
type Action int

const (
	ActionNone Action = iota
	ActionSeek
	ActionSetPaused
	ActionSlowdown
	ActionResetSpeed
)

func (a Action) String() string {
	switch a {
	case ActionSeek:
		return "Seek"
	case ActionSetPaused:
		return "SetPaused"
	case ActionSlowdown:
		return "Slowdown"
	case ActionResetSpeed:
		return "ResetSpeed"
	default:
		return "None"
	}
}

// Decision is the result of a single Decide call: which Action to take and
// the parameters it needs.
type Decision struct {
	Action    Action
	SeekTo    float64 // valid when Action == ActionSeek
	Paused    bool    // valid when Action == ActionSetPaused
	SpeedRate float64 // valid when Action == ActionSlowdown or ActionResetSpeed
}

// Thresholds holds the configuration-driven distances and rate that drive
// the decision table. Defaults match spec.md §4.3.
type Thresholds struct {
	SeekAhead     float64 // p_local - p_ref_now > SeekAhead -> seek backwards
	SeekBehind    float64 // p_ref_now - p_local > SeekBehind -> seek forward
	SlowdownEntry float64 // upper bound of the slowdown band
	SlowdownExit  float64 // lower bound at which a slowdown is lifted
	SlowdownRate  float64 // playback speed applied while slowed
}

// DefaultThresholds mirrors spec.md's defaults: seek-fastforward=5.0,
// seek-rewind=4.0, slowdown-entry=1.5, slowdown-exit=0.5, slowdown-rate=0.95.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SeekAhead:     5.0,
		SeekBehind:    4.0,
		SlowdownEntry: 1.5,
		SlowdownExit:  0.5,
		SlowdownRate:  0.95,
	}
}

// LocalState is the local player's cached playback state at the instant of
// the tick.
type LocalState struct {
	Position float64
	Paused   bool
}

// ReferenceState is the most recent server-authoritative global playback
// state, plus the latency sample used to project it forward to "now".
type ReferenceState struct {
	Position      float64
	Paused        bool
	DoSeek        bool
	ReceivedAt    time.Time
	LatencySample float64

	// Duration is the local player's loaded-file length in seconds. Zero or
	// missing means unknown, per spec §8's boundary behavior: clamping is
	// skipped and the seek is still dispatched unclamped.
	Duration float64
}

// clampSeek restricts target to [0, Duration] when Duration is known.
func (r ReferenceState) clampSeek(target float64) float64 {
	if r.Duration <= 0 {
		return target
	}
	if target < 0 {
		return 0
	}
	if target > r.Duration {
		return r.Duration
	}
	return target
}

// projectedPosition returns p_ref_now: the reference position advanced by
// elapsed wall-clock time and the latency sample when playing, or held
// still when paused.
func (r ReferenceState) projectedPosition(now time.Time) float64 {
	if r.Paused {
		return r.Position
	}
	elapsed := now.Sub(r.ReceivedAt).Seconds()
	return r.Position + elapsed + r.LatencySample
}

// Engine tracks the only piece of state the decision table needs across
// ticks: whether a slowdown is currently in effect.
type Engine struct {
	thresholds Thresholds
	slowed     bool
}

// New creates an Engine with the given thresholds.
func New(thresholds Thresholds) *Engine {
	return &Engine{thresholds: thresholds}
}

// Slowed reports whether the engine currently believes the player is
// running at SlowdownRate.
func (e *Engine) Slowed() bool { return e.slowed }

// Decide runs one tick of the decision table, first match wins:
//
//  1. DoSeek set and local != reference -> Seek
//  2. paused mismatch                   -> SetPaused
//  3. local - ref > SeekAhead           -> Seek backwards
//  4. ref - local > SeekBehind          -> Seek forward
//  5. 0.5 < local-ref <= 1.5            -> Slowdown (if not already slowed)
//  6. slowed and |local-ref| <= 0.5     -> ResetSpeed
//  7. otherwise                         -> None
func (e *Engine) Decide(local LocalState, ref ReferenceState, now time.Time) Decision {
	refNow := ref.projectedPosition(now)
	diff := local.Position - refNow

	if ref.DoSeek && diff != 0 {
		e.slowed = false
		return Decision{Action: ActionSeek, SeekTo: ref.clampSeek(refNow)}
	}

	if local.Paused != ref.Paused {
		return Decision{Action: ActionSetPaused, Paused: ref.Paused}
	}

	if diff > e.thresholds.SeekAhead {
		e.slowed = false
		return Decision{Action: ActionSeek, SeekTo: ref.clampSeek(refNow)}
	}

	if -diff > e.thresholds.SeekBehind {
		e.slowed = false
		return Decision{Action: ActionSeek, SeekTo: ref.clampSeek(refNow)}
	}

	if diff > e.thresholds.SlowdownExit && diff <= e.thresholds.SlowdownEntry {
		if !e.slowed {
			e.slowed = true
			return Decision{Action: ActionSlowdown, SpeedRate: e.thresholds.SlowdownRate}
		}
		return Decision{Action: ActionNone}
	}

	if e.slowed && absf(diff) <= e.thresholds.SlowdownExit {
		e.slowed = false
		return Decision{Action: ActionResetSpeed, SpeedRate: 1.0}
	}

	return Decision{Action: ActionNone}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
