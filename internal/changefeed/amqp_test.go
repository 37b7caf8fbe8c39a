package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"gharkharcha/internal/store"

	"github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	mu         sync.Mutex
	published  []amqp091.Publishing
	deliveries chan amqp091.Delivery
	closed     bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestAMQPBridge(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 4)}
	broker := NewBroker("node-a")
	bridge := newBridge(ch, "changes", "q1", broker, nil)

	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("forwards_local_changes", func(t *testing.T) {
		broker.Publish(Change{Collection: store.Expenses, OwnerID: "u1", DocumentID: "e1", Op: OpCreate})
		waitFor(t, func() bool { return ch.publishedCount() == 1 })

		ch.mu.Lock()
		msg := ch.published[0]
		ch.mu.Unlock()
		var got Change
		if err := json.Unmarshal(msg.Body, &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.DocumentID != "e1" || got.Origin != "node-a" {
			t.Errorf("unexpected change %+v", got)
		}
	})

	t.Run("delivers_remote_changes", func(t *testing.T) {
		var mu sync.Mutex
		var received []Change
		broker.Subscribe(store.Expenses, "u1", func(c Change) {
			mu.Lock()
			received = append(received, c)
			mu.Unlock()
		})

		own, _ := json.Marshal(Change{Collection: store.Expenses, OwnerID: "u1", Origin: "node-a"})
		remote, _ := json.Marshal(Change{Collection: store.Expenses, OwnerID: "u1", DocumentID: "e9", Origin: "node-b"})
		ch.deliveries <- amqp091.Delivery{Body: []byte("{not json")}
		ch.deliveries <- amqp091.Delivery{Body: own}
		ch.deliveries <- amqp091.Delivery{Body: remote}

		waitFor(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(received) == 1
		})
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		if len(received) != 1 || received[0].DocumentID != "e9" {
			t.Errorf("expected only the remote change, got %+v", received)
		}
	})

	if err := bridge.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ch.closed {
		t.Error("expected channel closed")
	}
}
