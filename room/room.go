// Package room holds the coordinator's view of server-reported state: room
// membership, per-user file/readiness, and the global playback position.
// All mutation happens through ApplyList/ApplySet/ApplyPlaystate so the
// coordinator goroutine is the single writer behind a short-held RWMutex,
// per spec §5's "no I/O inside the lock" rule.
package room

import (
	"sync"
	"time"

	"github.com/everpcpc/syncplay-go/codec"
)

// File mirrors codec.FileInfo as the room model's own value type so callers
// never alias a decoded wire struct.
type File struct {
	Name     string
	Size     int64
	Duration float64
}

// User is one room member: identity, current file, readiness, and whether
// the server has asserted controller privileges for them.
type User struct {
	Username       string
	Room           string
	File           *File
	Ready          bool
	ControllerAuth bool
}

// GlobalPlaystate is the server-authoritative playback position the sync
// engine compares the local player against every tick.
type GlobalPlaystate struct {
	Position         float64
	Paused           bool
	SetBy            string
	DoSeek           bool
	ReceivedAt       time.Time // local monotonic time the sample was received
	LatencySample    float64   // delta (seconds), derived by protocol's RTT smoothing
}

// Model is the mutable room/user/playback state, safe for concurrent reads
// from any goroutine and writes from the coordinator goroutine alone.
type Model struct {
	mu sync.RWMutex

	localUsername string
	currentRoom   string
	users         map[string]map[string]*User // room -> username -> User
	playstate     GlobalPlaystate
}

// New creates an empty model for the given local username.
func New(localUsername string) *Model {
	return &Model{
		localUsername: localUsername,
		users:         make(map[string]map[string]*User),
	}
}

// ApplyList replaces membership wholesale from a server List snapshot.
// Idempotent: re-applying the same snapshot is a no-op observable from the
// outside (spec §8's "idempotent List application").
func (m *Model) ApplyList(list codec.ListMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := make(map[string]map[string]*User, len(list))
	for roomName, members := range list {
		roomUsers := make(map[string]*User, len(members))
		for username, entry := range members {
			u := &User{
				Username:       username,
				Room:           roomName,
				Ready:          entry.Ready,
				ControllerAuth: entry.ControllerAuth,
			}
			if entry.File != nil {
				u.File = &File{Name: entry.File.Name, Size: entry.File.Size, Duration: entry.File.Duration}
			}
			roomUsers[username] = u
			if username == m.localUsername {
				m.currentRoom = roomName
			}
		}
		fresh[roomName] = roomUsers
	}
	m.users = fresh
}

// ApplySet applies an incremental delta. Spec Open Question #1: every
// present sub-field (room, file, ready, controllerAuth) is applied
// independently, regardless of which other sub-fields are also present.
func (m *Model) ApplySet(set codec.SetMessage) {
	if set.Username == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.findOrCreateLocked(set.Username)

	if set.Room != nil {
		m.moveUserLocked(u, set.Room.Name)
	}
	if set.File != nil {
		u.File = &File{Name: set.File.Name, Size: set.File.Size, Duration: set.File.Duration}
	}
	if set.Ready != nil {
		u.Ready = *set.Ready
	}
	if set.ControllerAuth != nil {
		u.ControllerAuth = *set.ControllerAuth
	}

	if u.Username == m.localUsername && set.Room != nil {
		m.currentRoom = set.Room.Name
	}
}

func (m *Model) findOrCreateLocked(username string) *User {
	for _, members := range m.users {
		if u, ok := members[username]; ok {
			return u
		}
	}
	u := &User{Username: username, Room: m.currentRoom}
	if m.users[m.currentRoom] == nil {
		m.users[m.currentRoom] = make(map[string]*User)
	}
	m.users[m.currentRoom][username] = u
	return u
}

func (m *Model) moveUserLocked(u *User, newRoom string) {
	if u.Room == newRoom {
		return
	}
	if members, ok := m.users[u.Room]; ok {
		delete(members, u.Username)
	}
	u.Room = newRoom
	if m.users[newRoom] == nil {
		m.users[newRoom] = make(map[string]*User)
	}
	m.users[newRoom][u.Username] = u
}

// ApplyPlaystate replaces the global playback state with a server State
// message's playstate, stamped with its receipt time and latency sample.
// The most recently applied message always wins: setBy and the receipt
// time are stored but not compared, so a message that arrives out of order
// overwrites a newer one.
func (m *Model) ApplyPlaystate(p codec.PlaystateInfo, latencySample float64, receivedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playstate = GlobalPlaystate{
		Position:      p.Position,
		Paused:        p.Paused,
		SetBy:         p.SetBy,
		DoSeek:        p.DoSeek,
		ReceivedAt:    receivedAt,
		LatencySample: latencySample,
	}
}

// Playstate returns a copy of the current global playback state.
func (m *Model) Playstate() GlobalPlaystate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playstate
}

// LocalUser returns a snapshot of the local user's own record, and whether
// it is present. Spec invariant: the local user is always present once the
// protocol endpoint has completed its handshake and received one List.
func (m *Model) LocalUser() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, members := range m.users {
		if u, ok := members[m.localUsername]; ok {
			return *u, true
		}
	}
	return User{}, false
}

// Room returns a snapshot of every user currently in roomName.
func (m *Model) Room(roomName string) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.users[roomName]
	out := make([]User, 0, len(members))
	for _, u := range members {
		out = append(out, *u)
	}
	return out
}

// CurrentRoom returns the local user's current room name.
func (m *Model) CurrentRoom() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentRoom
}
