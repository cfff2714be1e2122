package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMessageRoundTrip(t *testing.T) {
	Convey("Message", t, func() {
		Convey("Hello round-trips through encode/decode", func() {
			var buf bytes.Buffer
			w := NewWriter(&buf)

			orig := Message{Kind: KindHello, Hello: &HelloMessage{
				Username:    "alice",
				Room:        &RoomRef{Name: "movie-night"},
				Version:     "1.7.2",
				RealVersion: "1.7.2",
			}}
			So(w.WriteMessage(orig), ShouldBeNil)

			r := NewReader(&buf, 1<<20)
			got, err := r.ReadMessage()
			So(err, ShouldBeNil)
			So(got.Kind, ShouldEqual, KindHello)
			So(got.Hello.Username, ShouldEqual, "alice")
			So(got.Hello.Room.Name, ShouldEqual, "movie-night")
		})

		Convey("unknown fields survive a decode/encode round trip", func() {
			line := `{"Chat":{"username":"bob","message":"hi","futureField":42}}` + "\n"
			r := NewReader(strings.NewReader(line), 1<<20)
			msg, err := r.ReadMessage()
			So(err, ShouldBeNil)
			So(msg.Chat.Message, ShouldEqual, "hi")
			So(msg.Chat.Extra, ShouldNotBeNil)

			var buf bytes.Buffer
			So(NewWriter(&buf).WriteMessage(msg), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"futureField":42`)
		})

		Convey("a frame exceeding the maximum length fails with FramingError", func() {
			huge := strings.Repeat("a", 100)
			line := `{"Chat":{"message":"` + huge + `"}}` + "\n"
			r := NewReader(strings.NewReader(line), 16)
			_, err := r.ReadMessage()
			So(err, ShouldHaveSameTypeAs, &FramingError{})
		})

		Convey("a clean end of stream between frames yields io.EOF", func() {
			r := NewReader(strings.NewReader(""), 1<<20)
			_, err := r.ReadMessage()
			So(err, ShouldEqual, io.EOF)
		})

		Convey("a frame with more than one top-level key is rejected", func() {
			line := `{"Chat":{"message":"hi"},"Error":{"message":"bad"}}` + "\n"
			r := NewReader(strings.NewReader(line), 1<<20)
			_, err := r.ReadMessage()
			So(err, ShouldHaveSameTypeAs, &FramingError{})
		})
	})
}
