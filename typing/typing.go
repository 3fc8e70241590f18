package typing

import (
	"sync"
	"time"

	"github.com/P4rz1val22/chat-app/types"
)

// AutoStopTimeout is how long a typing mark survives without a fresh
// start before the tracker clears it on its own.
const AutoStopTimeout = 3 * time.Second

type entry struct {
	Room     string
	Username string
	UserID   string
}

// Tracker keeps the per-room sets of users currently typing, with a reverse
// index by connection id so disconnect cleanup is a single lookup. Every stop
// path (explicit stop, timer expiry, room switch, disconnect) funnels through
// Stop, so the "stopped" event is emitted exactly once.
type Tracker struct {
	mu      sync.Mutex
	rooms   map[string]map[string]entry // room id -> connection id -> entry
	byConn  map[string]entry
	timers  map[string]*time.Timer
	timeout time.Duration

	// autoStop is invoked from the timer goroutine after an idle timeout
	// cleared the mark; the hub uses it to broadcast the stop event.
	autoStop func(connID string, data types.TypingEventData)
}

func NewTracker(autoStop func(connID string, data types.TypingEventData)) *Tracker {
	return &Tracker{
		rooms:    make(map[string]map[string]entry),
		byConn:   make(map[string]entry),
		timers:   make(map[string]*time.Timer),
		timeout:  AutoStopTimeout,
		autoStop: autoStop,
	}
}

// Start marks a connection as typing in a room. The returned started flag is
// true only on the idle-to-typing transition; a repeat call just re-arms the
// timer. If the connection was still marked typing in another room, that mark
// is cleared first and returned so the caller can notify the old room.
func (t *Tracker) Start(connID, room, username, userID string) (stopped *types.TypingEventData, started bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byConn[connID]; ok {
		if existing.Room == room {
			t.armTimerLocked(connID)
			return nil, false
		}
		data := t.stopLocked(connID)
		stopped = &data
	}

	e := entry{Room: room, Username: username, UserID: userID}
	t.byConn[connID] = e
	if t.rooms[room] == nil {
		t.rooms[room] = make(map[string]entry)
	}
	t.rooms[room][connID] = e
	t.armTimerLocked(connID)
	return stopped, true
}

// Stop clears a connection's typing mark if present. Safe to call twice; the
// second call is a no-op.
func (t *Tracker) Stop(connID string) (types.TypingEventData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byConn[connID]; !ok {
		return types.TypingEventData{}, false
	}
	return t.stopLocked(connID), true
}

// TypingUsers returns the display names currently typing in a room.
func (t *Tracker) TypingUsers(room string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var names []string
	for _, e := range t.rooms[room] {
		names = append(names, e.Username)
	}
	return names
}

func (t *Tracker) stopLocked(connID string) types.TypingEventData {
	e := t.byConn[connID]
	delete(t.byConn, connID)
	if conns, ok := t.rooms[e.Room]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(t.rooms, e.Room)
		}
	}
	if timer, ok := t.timers[connID]; ok {
		timer.Stop()
		delete(t.timers, connID)
	}
	return types.TypingEventData{Room: e.Room, Username: e.Username, UserID: e.UserID}
}

// armTimerLocked replaces any pending timer; timers are reset, never stacked.
// Stopping a timer that already fired cannot recall its goroutine, so the
// expiry closure checks it is still the registered timer before clearing
// anything: an expired timer whose goroutine was parked on the lock during a
// re-arm becomes a no-op instead of wiping the fresh mark.
func (t *Tracker) armTimerLocked(connID string) {
	if timer, ok := t.timers[connID]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.timeout, func() {
		t.mu.Lock()
		if t.timers[connID] != timer {
			t.mu.Unlock()
			return
		}
		data := t.stopLocked(connID)
		t.mu.Unlock()
		if t.autoStop != nil {
			t.autoStop(connID, data)
		}
	})
	t.timers[connID] = timer
}
