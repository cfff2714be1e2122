package protocol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDeriveServerFeatures(t *testing.T) {
	Convey("DeriveServerFeatures", t, func() {
		Convey("an old server below every version floor gets nothing", func() {
			f := DeriveServerFeatures("1.2.0", nil)
			So(f.Readiness, ShouldBeFalse)
			So(f.Chat, ShouldBeFalse)
			So(f.SharedPlaylists, ShouldBeFalse)
			So(f.FeatureList, ShouldBeFalse)
			So(f.SetOthersReadiness, ShouldBeFalse)
		})

		Convey("a server meeting every floor gets every derived feature", func() {
			f := DeriveServerFeatures("1.7.2", nil)
			So(f.Readiness, ShouldBeTrue)
			So(f.Chat, ShouldBeTrue)
			So(f.SharedPlaylists, ShouldBeTrue)
			So(f.FeatureList, ShouldBeTrue)
			So(f.SetOthersReadiness, ShouldBeTrue)
			So(f.ManagedRooms, ShouldBeTrue)
		})

		Convey("a server at the chat floor gets chat and shared playlists but not set-others-readiness", func() {
			f := DeriveServerFeatures("1.5.0", nil)
			So(f.Chat, ShouldBeTrue)
			So(f.SharedPlaylists, ShouldBeTrue)
			So(f.SetOthersReadiness, ShouldBeFalse)
		})

		Convey("an explicit featureList overrides the version-derived defaults", func() {
			f := DeriveServerFeatures("1.7.2", map[string]any{
				"chat":                 false,
				"maxChatMessageLength": float64(120),
			})
			So(f.Chat, ShouldBeFalse)
			So(f.MaxChatMessageLength, ShouldEqual, 120)
			So(f.MaxUsernameLength, ShouldEqual, 16)
		})
	})
}

func TestPingService(t *testing.T) {
	Convey("pingService", t, func() {
		p := &pingService{}

		Convey("the first sample seeds the average directly", func() {
			p.observe(0.2)
			So(p.avrRTT, ShouldEqual, 0.2)
		})

		Convey("subsequent samples follow the 0.85/0.15 exponential moving average", func() {
			p.observe(0.2)
			p.observe(0.4)
			So(p.avrRTT, ShouldAlmostEqual, 0.2*0.85+0.4*0.15, 0.0001)
		})

		Convey("forwardDelay adds the RTT asymmetry when ours exceeds the server's", func() {
			p.observe(0.3)
			delay := p.forwardDelay(0.3, 0.1)
			So(delay, ShouldAlmostEqual, 0.15+0.2, 0.0001)
		})

		Convey("forwardDelay falls back to half the average RTT otherwise", func() {
			p.observe(0.3)
			delay := p.forwardDelay(0.3, 0.3)
			So(delay, ShouldAlmostEqual, 0.15, 0.0001)
		})
	})
}
