package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func TestManager_SendToUser(t *testing.T) {
	m := NewManager()
	go m.Start()

	client := &Client{
		userID:  "user-1",
		send:    make(chan []byte, 8),
		manager: m,
	}
	m.register <- client

	// Wait for the register to be processed.
	deadline := time.After(time.Second)
	for !m.IsOnline("user-1") {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	m.SendToUser("user-1", "new_message", map[string]interface{}{"content": "hi"})

	select {
	case raw := <-client.send:
		var event map[string]interface{}
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if event["type"] != "new_message" {
			t.Errorf("want event type %q, got %q", "new_message", event["type"])
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered to client")
	}
}

func TestManager_SendToOfflineUserIsDropped(t *testing.T) {
	m := NewManager()
	go m.Start()

	// Nothing to assert beyond "does not block or panic".
	m.SendToUser("nobody", "new_message", map[string]interface{}{"content": "hi"})

	if m.IsOnline("nobody") {
		t.Error("want offline user, got online")
	}
}

func TestManager_ConnectedUsersCountsUsersNotDevices(t *testing.T) {
	m := NewManager()
	go m.Start()

	for _, userID := range []string{"user-a", "user-a", "user-b"} {
		m.register <- &Client{
			userID:  userID,
			send:    make(chan []byte, 8),
			manager: m,
		}
	}

	deadline := time.After(time.Second)
	for !m.IsOnline("user-a") || !m.IsOnline("user-b") {
		select {
		case <-deadline:
			t.Fatal("clients never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if got := m.ConnectedUsers(); got != 2 {
		t.Errorf("ConnectedUsers() = %d, want 2 (two devices of one user count once)", got)
	}
}

// A client that pings without reading must be dropped without crashing the
// process: the outbound path may not close the send channel while the read
// pump can still write to it.
func TestManager_SlowConsumerDroppedWithoutPanic(t *testing.T) {
	m := NewManager()
	go m.Start()

	client := &Client{
		userID:  "user-slow",
		send:    make(chan []byte, 1),
		manager: m,
	}
	client.send <- []byte("backlog") // buffer full, nothing draining it
	m.register <- client

	deadline := time.After(time.Second)
	for !m.IsOnline("user-slow") {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Overflows the buffer, so the manager drops the client.
	m.SendToUser("user-slow", "new_message", map[string]interface{}{"content": "hi"})

	deadline = time.After(time.Second)
	for m.IsOnline("user-slow") {
		select {
		case <-deadline:
			t.Fatal("slow client never dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// The read pump could still be handling a ping for this client.
	client.sendPong()

	select {
	case raw := <-client.send:
		if string(raw) != "backlog" {
			t.Errorf("first buffered message = %q, want %q", raw, "backlog")
		}
	default:
		t.Error("buffered message lost")
	}
}

func TestManager_UnregisterRemovesUser(t *testing.T) {
	m := NewManager()
	go m.Start()

	client := &Client{
		userID:  "user-2",
		send:    make(chan []byte, 8),
		manager: m,
	}
	m.register <- client

	deadline := time.After(time.Second)
	for !m.IsOnline("user-2") {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	m.unregister <- client

	deadline = time.After(time.Second)
	for m.IsOnline("user-2") {
		select {
		case <-deadline:
			t.Fatal("client never unregistered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
