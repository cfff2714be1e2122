package syncengine

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine(t *testing.T) {
	now := time.Now()

	Convey("Engine.Decide", t, func() {
		e := New(DefaultThresholds())

		Convey("in sync produces no action", func() {
			d := e.Decide(
				LocalState{Position: 100, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionNone)
		})

		Convey("a pause mismatch without doSeek yields SetPaused to the reference state", func() {
			d := e.Decide(
				LocalState{Position: 100, Paused: false},
				ReferenceState{Position: 100, Paused: true, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSetPaused)
			So(d.Paused, ShouldBeTrue)
		})

		Convey("doSeek takes precedence over a pause mismatch", func() {
			d := e.Decide(
				LocalState{Position: 100, Paused: false},
				ReferenceState{Position: 130, Paused: true, DoSeek: true, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 130)
		})

		Convey("doSeek with an already-matching position takes no action", func() {
			d := e.Decide(
				LocalState{Position: 100, Paused: false},
				ReferenceState{Position: 100, Paused: false, DoSeek: true, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionNone)
		})

		Convey("ahead of the reference beyond the seek-ahead threshold seeks backward", func() {
			d := e.Decide(
				LocalState{Position: 105.01, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 100)
		})

		Convey("behind the reference beyond the seek-behind threshold seeks forward", func() {
			d := e.Decide(
				LocalState{Position: 95.99, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 100)
		})

		Convey("a diff just inside the slowdown band engages slowdown once", func() {
			d := e.Decide(
				LocalState{Position: 101.0, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSlowdown)
			So(d.SpeedRate, ShouldEqual, 0.95)
			So(e.Slowed(), ShouldBeTrue)

			Convey("and does not re-fire while already slowed", func() {
				d2 := e.Decide(
					LocalState{Position: 101.0, Paused: false},
					ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
					now,
				)
				So(d2.Action, ShouldEqual, ActionNone)
			})

			Convey("and resets once the diff falls back within the exit band", func() {
				d2 := e.Decide(
					LocalState{Position: 100.4, Paused: false},
					ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
					now,
				)
				So(d2.Action, ShouldEqual, ActionResetSpeed)
				So(e.Slowed(), ShouldBeFalse)
			})
		})

		Convey("exactly at the slowdown-entry boundary (1.5) still slows down", func() {
			d := e.Decide(
				LocalState{Position: 101.5, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSlowdown)
		})

		Convey("a diff past both the slowdown band and seek-ahead seeks instead of slowing", func() {
			d := e.Decide(
				LocalState{Position: 106, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
		})

		Convey("a paused reference position is not advanced by elapsed time", func() {
			past := now.Add(-10 * time.Second)
			d := e.Decide(
				LocalState{Position: 100, Paused: true},
				ReferenceState{Position: 100, Paused: true, ReceivedAt: past},
				now,
			)
			So(d.Action, ShouldEqual, ActionNone)
		})

		Convey("a seek target beyond a known duration is clamped to it", func() {
			d := e.Decide(
				LocalState{Position: 105.01, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now, Duration: 99},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 99)
		})

		Convey("a seek target below zero is clamped to zero", func() {
			d := e.Decide(
				LocalState{Position: 0, Paused: false},
				ReferenceState{Position: -5, Paused: false, DoSeek: true, ReceivedAt: now, Duration: 120},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 0)
		})

		Convey("an unknown duration leaves the seek target unclamped", func() {
			d := e.Decide(
				LocalState{Position: 105.01, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: now},
				now,
			)
			So(d.Action, ShouldEqual, ActionSeek)
			So(d.SeekTo, ShouldEqual, 100)
		})

		Convey("a playing reference position is projected forward by elapsed time plus latency", func() {
			past := now.Add(-2 * time.Second)
			d := e.Decide(
				LocalState{Position: 102, Paused: false},
				ReferenceState{Position: 100, Paused: false, ReceivedAt: past, LatencySample: 0}, // projected -> 102
				now,
			)
			So(d.Action, ShouldEqual, ActionNone)
		})
	})
}
