package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/everpcpc/syncplay-go/syncengine"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReconnectPolicy(t *testing.T) {
	Convey("ReconnectPolicy.delay", t, func() {
		p := ReconnectPolicy{BaseDelay: 100 * time.Millisecond, MaxExponent: 5}

		Convey("grows exponentially below the cap", func() {
			So(p.delay(0), ShouldEqual, 100*time.Millisecond)
			So(p.delay(1), ShouldEqual, 200*time.Millisecond)
			So(p.delay(3), ShouldEqual, 800*time.Millisecond)
		})

		Convey("is capped at BaseDelay*2^MaxExponent", func() {
			So(p.delay(5), ShouldEqual, 3200*time.Millisecond)
			So(p.delay(50), ShouldEqual, 3200*time.Millisecond)
		})
	})
}

func TestStatusString(t *testing.T) {
	Convey("Status.String", t, func() {
		Convey("renders a bare status without an error", func() {
			s := Status{Kind: StatusConnected}
			So(s.String(), ShouldEqual, "connected")
		})

		Convey("includes attempt number and error when present", func() {
			s := Status{Kind: StatusReconnecting, Attempt: 2, Err: errors.New("boom")}
			So(s.String(), ShouldContainSubstring, "reconnecting")
			So(s.String(), ShouldContainSubstring, "attempt 2")
			So(s.String(), ShouldContainSubstring, "boom")
		})
	})
}

func TestCoordinatorFacadeWithoutSession(t *testing.T) {
	Convey("facade calls made before any session is active", t, func() {
		c := New(Config{})

		Convey("SendChat reports NotConnectedError", func() {
			err := c.SendChat("hi")
			So(err, ShouldNotBeNil)
			var nc *NotConnectedError
			So(errors.As(err, &nc), ShouldBeTrue)
			So(nc.Op, ShouldEqual, "SendChat")
		})

		Convey("SetReady reports NotConnectedError", func() {
			err := c.SetReady(true)
			var nc *NotConnectedError
			So(errors.As(err, &nc), ShouldBeTrue)
			So(nc.Op, ShouldEqual, "SetReady")
		})

		Convey("ChangeRoom reports NotConnectedError", func() {
			err := c.ChangeRoom("room2")
			var nc *NotConnectedError
			So(errors.As(err, &nc), ShouldBeTrue)
			So(nc.Op, ShouldEqual, "ChangeRoom")
		})

		Convey("LoadMedia reports NotConnectedError", func() {
			err := c.LoadMedia("/tmp/movie.mkv")
			var nc *NotConnectedError
			So(errors.As(err, &nc), ShouldBeTrue)
			So(nc.Op, ShouldEqual, "LoadMedia")
		})

		Convey("Disconnect is a no-op when Run has never been called", func() {
			So(func() { c.Disconnect() }, ShouldNotPanic)
		})
	})
}

func TestCoordinatorDisconnectStopsRun(t *testing.T) {
	Convey("Disconnect cancels a running session loop", t, func() {
		cfg := Config{
			Host:          "127.0.0.1",
			Port:          1,
			MaxFrameBytes: 1 << 16,
			PlayerTimeout: time.Second,
			TickInterval:  50 * time.Millisecond,
			Thresholds:    syncengine.DefaultThresholds(),
			Reconnect: ReconnectPolicy{
				Enabled:     true,
				MaxRetries:  100,
				BaseDelay:   50 * time.Millisecond,
				MaxExponent: 4,
			},
		}
		c := New(cfg)

		errCh := make(chan error, 1)
		go func() { errCh <- c.Run(context.Background()) }()

		time.Sleep(20 * time.Millisecond)
		c.Disconnect()

		select {
		case err := <-errCh:
			So(err, ShouldNotBeNil)
		case <-time.After(3 * time.Second):
			t.Fatal("Run did not return after Disconnect")
		}
	})
}

func TestCoordinatorRun(t *testing.T) {
	Convey("Coordinator.Run", t, func() {
		Convey("gives up and reports StatusFailed once retries are exhausted", func() {
			cfg := Config{
				Host:          "127.0.0.1",
				Port:          1, // nothing listens here
				MaxFrameBytes: 1 << 16,
				PlayerTimeout: time.Second,
				TickInterval:  50 * time.Millisecond,
				Thresholds:    syncengine.DefaultThresholds(),
				Reconnect: ReconnectPolicy{
					Enabled:     true,
					MaxRetries:  1,
					BaseDelay:   1 * time.Millisecond,
					MaxExponent: 1,
				},
			}
			c := New(cfg)

			statuses := make([]StatusKind, 0, 4)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for s := range c.Status {
					statuses = append(statuses, s.Kind)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			err := c.Run(ctx)
			close(c.Status)
			<-done

			So(err, ShouldNotBeNil)
			So(statuses, ShouldContain, StatusConnecting)
			So(statuses[len(statuses)-1], ShouldEqual, StatusFailed)
		})
	})
}
