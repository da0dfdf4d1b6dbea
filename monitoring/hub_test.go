package monitoring

import (
	"testing"
	"time"
)

func TestClientLifecycleAfterStop(t *testing.T) {
	hub := NewHub()
	go hub.Start()
	hub.Stop()
	// Let the loop drain its shutdown path.
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		client := &Client{send: make(chan []byte, 1)}
		hub.addClient(client)
		hub.removeClient(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client lifecycle blocked after hub stop")
	}
}

func TestAddClientRefusedAfterStop(t *testing.T) {
	hub := NewHub()
	go hub.Start()
	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	if hub.addClient(&Client{send: make(chan []byte, 1)}) {
		t.Fatal("expected registration to be refused after stop")
	}
}

func TestPublishAssessmentReachesRegisteredClient(t *testing.T) {
	hub := NewHub()
	go hub.Start()
	defer hub.Stop()

	client := &Client{send: make(chan []byte, 8)}
	if !hub.addClient(client) {
		t.Fatal("registration refused on a running hub")
	}

	hub.PublishAssessment(Assessment{Risk: "healthy", Confidence: 80})

	select {
	case message := <-client.send:
		if len(message) == 0 {
			t.Fatal("empty broadcast message")
		}
	case <-time.After(time.Second):
		t.Fatal("assessment never broadcast to client")
	}
}
