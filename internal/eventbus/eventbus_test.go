package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	eb := New(8)
	ch, unsub := eb.Subscribe("test")
	defer unsub()

	eb.Publish(Event{Type: EventRuleAdded, RuleID: "r1"})

	select {
	case ev := <-ch:
		if ev.Type != EventRuleAdded || ev.RuleID != "r1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Fatal("expected publish to stamp the time")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	eb := New(8)
	ch1, unsub1 := eb.Subscribe("one")
	defer unsub1()
	ch2, unsub2 := eb.Subscribe("two")
	defer unsub2()

	eb.Publish(Event{Type: EventISRDeleted, ISRID: "2"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.ISRID != "2" {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	eb := New(1)
	ch, unsub := eb.Subscribe("slow")
	defer unsub()

	// Fill the buffer, then publish more; extra events must be dropped
	// without blocking.
	eb.Publish(Event{Type: EventRuleAdded, RuleID: "a"})
	eb.Publish(Event{Type: EventRuleAdded, RuleID: "b"})

	ev := <-ch
	if ev.RuleID != "a" {
		t.Fatalf("expected first event, got %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Fatalf("expected drop, got %+v", ev)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	eb := New(8)
	_, unsub := eb.Subscribe("gone")
	unsub()

	if eb.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", eb.SubscriberCount())
	}
	// Publishing to nobody must not panic.
	eb.Publish(Event{Type: EventPolicyCompiled})
}
