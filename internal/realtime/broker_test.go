package realtime

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		return ev, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}, false
	}
}

func TestHubDeliversToTopicSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	mine, unsubscribe := hub.Subscribe(ConversationTopic("c1"))
	defer unsubscribe()
	other, unsubscribeOther := hub.Subscribe(ConversationTopic("c2"))
	defer unsubscribeOther()

	ev, err := NewEvent("message", map[string]string{"content": "hi"})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if err := hub.Publish(context.Background(), ConversationTopic("c1"), ev); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got, _ := receive(t, mine)
	if got.Type != "message" || string(got.Data) != `{"content":"hi"}` {
		t.Errorf("received %+v", got)
	}

	select {
	case ev := <-other:
		t.Errorf("other topic received %+v", ev)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe(UserTopic("u1"))
	if hub.Subscribers(UserTopic("u1")) != 1 {
		t.Fatal("expected one subscriber")
	}

	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if hub.Subscribers(UserTopic("u1")) != 0 {
		t.Error("expected no subscribers")
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	_, unsubscribe := hub.Subscribe("busy")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			hub.Publish(context.Background(), "busy", Event{Type: "tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("t")
	hub.Close()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	unsubscribe()

	late, _ := hub.Subscribe("t")
	if _, ok := <-late; ok {
		t.Error("subscribing after close should return a closed channel")
	}
}
