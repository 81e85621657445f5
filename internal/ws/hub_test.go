package ws

import (
	"encoding/json"
	"testing"
)

func TestBroadcastFanOut(t *testing.T) {
	hub := NewHub()

	a := &Client{Send: make(chan []byte, 1), hub: hub}
	b := &Client{Send: make(chan []byte, 1), hub: hub}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("bid_placed", map[string]interface{}{"auction_id": 7})

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if ev.Type != "bid_placed" {
				t.Errorf("type = %q", ev.Type)
			}
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()

	slow := &Client{Send: make(chan []byte), hub: hub} // unbuffered, never read
	ok := &Client{Send: make(chan []byte, 1), hub: hub}
	hub.Register(slow)
	hub.Register(ok)

	hub.Broadcast("auction_completed", nil)

	if hub.Count() != 1 {
		t.Fatalf("slow client should be dropped, count = %d", hub.Count())
	}
	select {
	case <-ok.Send:
	default:
		t.Fatal("healthy client should still receive the event")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := &Client{Send: make(chan []byte, 1), hub: hub}
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c) // double close would panic

	if hub.Count() != 0 {
		t.Fatalf("count = %d", hub.Count())
	}
}
