package typing

import (
	"sync"
	"testing"
	"time"

	"github.com/P4rz1val22/chat-app/types"
)

func TestStartBroadcastsOnlyOnIdleToTypingTransition(t *testing.T) {
	tr := NewTracker(nil)

	stopped, started := tr.Start("conn-1", "1", "Alice", "1")
	if stopped != nil || !started {
		t.Fatalf("first start: stopped=%v started=%v", stopped, started)
	}

	stopped, started = tr.Start("conn-1", "1", "Alice", "1")
	if stopped != nil || started {
		t.Fatal("repeat start in the same room must not re-broadcast")
	}

	users := tr.TypingUsers("1")
	if len(users) != 1 || users[0] != "Alice" {
		t.Fatalf("expected [Alice], got %v", users)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	tr := NewTracker(nil)
	tr.Start("conn-1", "1", "Alice", "1")

	data, ok := tr.Stop("conn-1")
	if !ok {
		t.Fatal("first stop should report the cleared mark")
	}
	if data.Room != "1" || data.Username != "Alice" {
		t.Fatalf("unexpected stop data: %+v", data)
	}

	if _, ok := tr.Stop("conn-1"); ok {
		t.Fatal("second stop must be a no-op")
	}
	if users := tr.TypingUsers("1"); len(users) != 0 {
		t.Fatalf("expected empty typing set, got %v", users)
	}
}

func TestStartInNewRoomClearsOldRoomFirst(t *testing.T) {
	tr := NewTracker(nil)
	tr.Start("conn-1", "1", "Alice", "1")

	stopped, started := tr.Start("conn-1", "2", "Alice", "1")
	if stopped == nil || stopped.Room != "1" {
		t.Fatalf("expected stop event for old room, got %+v", stopped)
	}
	if !started {
		t.Fatal("expected typing to start in the new room")
	}

	if users := tr.TypingUsers("1"); len(users) != 0 {
		t.Fatalf("old room should be clear, got %v", users)
	}
	if users := tr.TypingUsers("2"); len(users) != 1 {
		t.Fatalf("new room should have one typist, got %v", users)
	}
}

func TestAutoStopFiresExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	var fired []types.TypingEventData

	tr := NewTracker(func(connID string, data types.TypingEventData) {
		mu.Lock()
		fired = append(fired, data)
		mu.Unlock()
	})
	tr.timeout = 50 * time.Millisecond

	tr.Start("conn-1", "1", "Alice", "1")
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("expected exactly one auto-stop, got %d", len(fired))
	}
	if fired[0].Room != "1" || fired[0].Username != "Alice" {
		t.Fatalf("unexpected auto-stop data: %+v", fired[0])
	}
	if users := tr.TypingUsers("1"); len(users) != 0 {
		t.Fatalf("typing set should be clear after auto-stop, got %v", users)
	}
}

func TestFreshStartResetsTimerInsteadOfStacking(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	tr := NewTracker(func(connID string, data types.TypingEventData) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	tr.timeout = 80 * time.Millisecond

	tr.Start("conn-1", "1", "Alice", "1")
	time.Sleep(50 * time.Millisecond)
	tr.Start("conn-1", "1", "Alice", "1") // re-arms, does not stack

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	if fired != 0 {
		mu.Unlock()
		t.Fatal("timer fired before the reset deadline")
	}
	mu.Unlock()

	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Fatalf("expected one auto-stop after reset deadline, got %d", fired)
	}
}

func TestExpiredTimerCannotClearReArmedMark(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	tr := NewTracker(func(connID string, data types.TypingEventData) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	tr.timeout = 20 * time.Millisecond

	tr.Start("conn-1", "1", "Alice", "1")

	// Hold the tracker lock past the deadline so the expired timer's
	// goroutine parks on it, then re-arm the way a repeat start does. When
	// the lock is released the stale goroutine must not touch the fresh mark.
	tr.mu.Lock()
	time.Sleep(60 * time.Millisecond)
	tr.timeout = 200 * time.Millisecond
	tr.armTimerLocked("conn-1")
	tr.mu.Unlock()

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	if fired != 0 {
		mu.Unlock()
		t.Fatalf("stale timer emitted auto-stop after a re-arm (fired=%d)", fired)
	}
	mu.Unlock()
	if users := tr.TypingUsers("1"); len(users) != 1 {
		t.Fatalf("re-armed mark should survive the stale timer, got %v", users)
	}

	// The replacement timer still expires on its own schedule.
	time.Sleep(250 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Fatalf("expected one auto-stop from the replacement timer, got %d", fired)
	}
	if users := tr.TypingUsers("1"); len(users) != 0 {
		t.Fatalf("typing set should be clear after auto-stop, got %v", users)
	}
}

func TestExplicitStopCancelsTimer(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	tr := NewTracker(func(connID string, data types.TypingEventData) {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	tr.timeout = 40 * time.Millisecond

	tr.Start("conn-1", "1", "Alice", "1")
	tr.Stop("conn-1")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Fatalf("cancelled timer still fired %d times", fired)
	}
}
