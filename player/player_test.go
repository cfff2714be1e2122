package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakePlayer is a minimal stand-in for the player's IPC socket: it accepts
// one connection, answers every command with {"error":"success"}, and can
// push arbitrary event lines on demand.
type fakePlayer struct {
	ln     net.Listener
	conn   net.Conn
	events chan string
}

func newFakePlayer(t *testing.T) *fakePlayer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	fp := &fakePlayer{ln: ln, events: make(chan string, 8)}
	go fp.serve()
	return fp
}

func (fp *fakePlayer) serve() {
	conn, err := fp.ln.Accept()
	if err != nil {
		return
	}
	fp.conn = conn
	scanner := bufio.NewScanner(conn)
	go func() {
		for line := range fp.events {
			conn.Write([]byte(line + "\n"))
		}
	}()
	for scanner.Scan() {
		var req struct {
			RequestID int64 `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		resp, _ := json.Marshal(map[string]any{"request_id": req.RequestID, "error": "success"})
		conn.Write(append(resp, '\n'))
	}
}

func (fp *fakePlayer) dialer() Dialer {
	return func(ctx context.Context, _ string) (net.Conn, error) {
		return (&net.Dialer{}).DialContext(ctx, "tcp", fp.ln.Addr().String())
	}
}

func (fp *fakePlayer) close() {
	close(fp.events)
	fp.ln.Close()
	if fp.conn != nil {
		fp.conn.Close()
	}
}

func TestAdapter(t *testing.T) {
	Convey("Adapter", t, func() {
		fp := newFakePlayer(t)
		defer fp.close()

		a := New("ignored", fp.dialer(), 5*time.Second)
		ctx := context.Background()
		So(a.Connect(ctx), ShouldBeNil)
		defer a.Close()

		Convey("SetPaused round-trips a command successfully", func() {
			err := a.SetPaused(ctx, true)
			So(err, ShouldBeNil)
		})

		Convey("a property-change event updates State", func() {
			fp.events <- `{"event":"property-change","id":1,"name":"time-pos","data":12.5}`
			deadline := time.After(2 * time.Second)
			for {
				select {
				case ev := <-a.Events:
					if ev.Kind == EventPropertyChange && ev.PropertyID == PropertyTimePos {
						So(a.State().Position, ShouldNotBeNil)
						So(*a.State().Position, ShouldEqual, 12.5)
						return
					}
				case <-deadline:
					t.Fatal("timed out waiting for property-change event")
				}
			}
		})

		Convey("an end-file event carries its reason", func() {
			fp.events <- `{"event":"end-file","reason":"eof"}`
			deadline := time.After(2 * time.Second)
			for {
				select {
				case ev := <-a.Events:
					if ev.Kind == EventEndFile {
						So(ev.Reason, ShouldEqual, EndFileEOF)
						return
					}
				case <-deadline:
					t.Fatal("timed out waiting for end-file event")
				}
			}
		})

		Convey("a request made after the adapter is closed fails", func() {
			a.Close()
			_, err := a.GetProperty(ctx, "time-pos")
			So(err, ShouldNotBeNil)
		})
	})
}
