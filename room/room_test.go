package room

import (
	"testing"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	. "github.com/smartystreets/goconvey/convey"
)

func TestModel(t *testing.T) {
	Convey("Model", t, func() {
		m := New("alice")

		Convey("local user is present after a List snapshot", func() {
			m.ApplyList(codec.ListMessage{
				"movie-night": {
					"alice": codec.UserEntry{Ready: true},
					"bob":   codec.UserEntry{Ready: false},
				},
			})

			u, ok := m.LocalUser()
			So(ok, ShouldBeTrue)
			So(u.Username, ShouldEqual, "alice")
			So(u.Ready, ShouldBeTrue)
			So(m.CurrentRoom(), ShouldEqual, "movie-night")
			So(m.Room("movie-night"), ShouldHaveLength, 2)
		})

		Convey("re-applying the same List snapshot is idempotent", func() {
			snapshot := codec.ListMessage{"room": {"alice": codec.UserEntry{Ready: true}}}
			m.ApplyList(snapshot)
			first := m.Room("room")
			m.ApplyList(snapshot)
			second := m.Room("room")
			So(second, ShouldResemble, first)
		})

		Convey("ApplySet applies ready and file independently", func() {
			m.ApplyList(codec.ListMessage{"room": {"alice": codec.UserEntry{}}})

			ready := true
			m.ApplySet(codec.SetMessage{
				Username: "alice",
				Ready:    &ready,
				File:     &codec.FileInfo{Name: "ep01.mkv", Size: 100, Duration: 1200},
			})

			u, ok := m.LocalUser()
			So(ok, ShouldBeTrue)
			So(u.Ready, ShouldBeTrue)
			So(u.File, ShouldNotBeNil)
			So(u.File.Name, ShouldEqual, "ep01.mkv")
		})

		Convey("ApplyPlaystate stores the server-authoritative position", func() {
			m.ApplyPlaystate(codec.PlaystateInfo{Position: 42.5, Paused: true, SetBy: "bob"}, 0.1, time.Now())
			p := m.Playstate()
			So(p.Position, ShouldEqual, 42.5)
			So(p.Paused, ShouldBeTrue)
			So(p.SetBy, ShouldEqual, "bob")
		})
	})
}
