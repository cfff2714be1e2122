package transport

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConn(t *testing.T) {
	Convey("Conn", t, func() {
		Convey("a cleartext dial exchanges messages in both directions", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			So(err, ShouldBeNil)
			defer ln.Close()

			host, portStr, _ := net.SplitHostPort(ln.Addr().String())
			var port int
			fmtSscan(portStr, &port)

			serverDone := make(chan struct{})
			go func() {
				defer close(serverDone)
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
				r := codec.NewReader(conn, 1<<20)
				msg, err := r.ReadMessage()
				if err != nil {
					return
				}
				if msg.Kind != codec.KindChat {
					return
				}
				w := codec.NewWriter(conn)
				_ = w.WriteMessage(codec.Message{Kind: codec.KindChat, Chat: &codec.ChatMessage{Message: "pong"}})
			}()

			c, err := Dial(context.Background(), host, port, false, 1<<20)
			So(err, ShouldBeNil)
			defer c.Close()

			So(c.TLSStatus(), ShouldEqual, TLSUnsupported)

			So(c.Send(codec.Message{Kind: codec.KindChat, Chat: &codec.ChatMessage{Message: "ping"}}), ShouldBeNil)

			select {
			case msg := <-c.Inbound:
				So(msg.Chat.Message, ShouldEqual, "pong")
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for reply")
			}

			<-serverDone
		})

		Convey("a TLS request answered with a negative reply degrades to cleartext", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			So(err, ShouldBeNil)
			defer ln.Close()

			host, portStr, _ := net.SplitHostPort(ln.Addr().String())
			var port int
			fmtSscan(portStr, &port)

			go func() {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
				r := codec.NewReader(conn, 1<<20)
				if _, err := r.ReadMessage(); err != nil {
					return
				}
				w := codec.NewWriter(conn)
				_ = w.WriteMessage(codec.Message{Kind: codec.KindError, Error: &codec.ErrorMessage{Message: "tls not supported"}})
			}()

			c, err := Dial(context.Background(), host, port, true, 1<<20)
			So(err, ShouldBeNil)
			defer c.Close()
			So(c.TLSStatus(), ShouldEqual, TLSUnsupported)
		})
	})
}

func TestOutboundBackpressure(t *testing.T) {
	Convey("Conn.Send outbound eviction", t, func() {
		Convey("overflow drops the oldest evictable message", func() {
			c := &Conn{outWake: make(chan struct{}, 1), done: make(chan struct{})}

			for i := 0; i < maxOutboundQueue; i++ {
				username := fmt.Sprintf("u%d", i)
				So(c.Send(codec.Message{Kind: codec.KindSet, Set: &codec.SetMessage{Username: username}}), ShouldBeNil)
			}
			So(len(c.outQ), ShouldEqual, maxOutboundQueue)

			So(c.Send(codec.Message{Kind: codec.KindSet, Set: &codec.SetMessage{Username: "overflow"}}), ShouldBeNil)
			So(len(c.outQ), ShouldEqual, maxOutboundQueue)
			So(c.outQ[0].Set.Username, ShouldEqual, "u1")
			So(c.outQ[len(c.outQ)-1].Set.Username, ShouldEqual, "overflow")
		})

		Convey("State and Chat messages are never evicted, even past capacity", func() {
			c := &Conn{outWake: make(chan struct{}, 1), done: make(chan struct{})}

			for i := 0; i < maxOutboundQueue; i++ {
				message := fmt.Sprintf("m%d", i)
				So(c.Send(codec.Message{Kind: codec.KindChat, Chat: &codec.ChatMessage{Message: message}}), ShouldBeNil)
			}
			So(c.Send(codec.Message{Kind: codec.KindState, State: &codec.StateMessage{}}), ShouldBeNil)
			So(len(c.outQ), ShouldEqual, maxOutboundQueue+1)
		})
	})
}

func fmtSscan(s string, out *int) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			continue
		}
		n = n*10 + int(c-'0')
	}
	*out = n
}
