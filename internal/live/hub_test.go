package live

import (
	"testing"
	"time"
)

func TestHubDeliverToUserSessions(t *testing.T) {
	hub := NewHub(time.Second, nil, nil)

	chA1, closeA1 := hub.Register("s1", "alice")
	chA2, closeA2 := hub.Register("s2", "alice")
	chB, closeB := hub.Register("s3", "bob")
	defer closeA1()
	defer closeA2()
	defer closeB()

	hub.Deliver("alice", "hello")

	for _, ch := range []<-chan string{chA1, chA2} {
		select {
		case got := <-ch:
			if got != "hello" {
				t.Fatalf("message = %q, want hello", got)
			}
		case <-time.After(time.Second):
			t.Fatal("alice session did not receive message")
		}
	}

	select {
	case got := <-chB:
		t.Fatalf("bob received %q, want nothing", got)
	default:
	}
}

func TestHubDropsOnFullChannel(t *testing.T) {
	hub := NewHub(10*time.Millisecond, nil, nil)

	_, unregister := hub.Register("s1", "alice")
	defer unregister()

	// Fill the buffer without a reader; the extra send must time out
	// instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i <= sessionBuffer; i++ {
			hub.Deliver("alice", "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Deliver blocked on a full session channel")
	}
}

func TestHubUnregisterRemovesSession(t *testing.T) {
	hub := NewHub(time.Second, nil, nil)

	_, unregister := hub.Register("s1", "alice")
	if hub.SessionCount() != 1 {
		t.Fatalf("count = %d, want 1", hub.SessionCount())
	}
	unregister()
	if hub.SessionCount() != 0 {
		t.Fatalf("count = %d, want 0 after unregister", hub.SessionCount())
	}

	// Delivery to a gone session is a no-op, not a panic.
	hub.Deliver("alice", "late")
}

func TestHubConnectedUserIDs(t *testing.T) {
	hub := NewHub(time.Second, nil, nil)

	_, c1 := hub.Register("s1", "alice")
	_, c2 := hub.Register("s2", "alice")
	_, c3 := hub.Register("s3", "bob")
	defer c1()
	defer c2()
	defer c3()

	ids := hub.ConnectedUserIDs()
	if len(ids) != 2 {
		t.Fatalf("connected = %v, want two distinct users", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["alice"] || !seen["bob"] {
		t.Fatalf("connected = %v, want alice and bob", ids)
	}
}
