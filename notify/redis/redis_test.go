package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pithecene-io/stevedore/notify"
)

func testEvent() *notify.ReleasePublishedEvent {
	return &notify.ReleasePublishedEvent{
		AppID:        "com.example.app",
		Version:      "1.0.0",
		ContentHash:  "deadbeef",
		Outcome:      "partial",
		AssetsFailed: 1,
		Timestamp:    "2026-03-01T12:00:00Z",
	}
}

// asyncReceive starts a goroutine that reads one message from the subscriber
// and sends it to the returned channel. Must be called BEFORE Publish to avoid
// deadlocking miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(Config{URL: "not-a-redis-url"}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultChannel)
	msgCh := asyncReceive(sub)

	if err := n.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	msg := waitMessage(t, msgCh)
	if msg.Channel != DefaultChannel {
		t.Errorf("channel = %q, want %q", msg.Channel, DefaultChannel)
	}

	var got notify.ReleasePublishedEvent
	if err := json.Unmarshal([]byte(msg.Message), &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.AppID != "com.example.app" || got.Outcome != "partial" || got.AssetsFailed != 1 {
		t.Errorf("got = %+v", got)
	}
}

func TestPublish_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "releases", Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe("releases")
	msgCh := asyncReceive(sub)

	if err := n.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if msg := waitMessage(t, msgCh); msg.Channel != "releases" {
		t.Errorf("channel = %q", msg.Channel)
	}
}

func TestPublish_ConnectionFailure(t *testing.T) {
	// Port 1 is never a redis server.
	n, err := New(Config{URL: "redis://127.0.0.1:1", Retries: 0, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	if err := n.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
