package events

import "testing"

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	var got []Event
	bus.Subscribe(TopicCartNotice, func(ev Event) { got = append(got, ev) })
	bus.Subscribe(TopicCheckoutState, func(ev Event) {
		t.Fatal("handler for another topic must not fire")
	})

	bus.Publish(TopicCartNotice, "clamped")

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Payload != "clamped" {
		t.Fatalf("unexpected payload %v", got[0].Payload)
	}
	if got[0].OccurredAt.IsZero() {
		t.Fatal("event must be timestamped")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsub := bus.Subscribe(TopicSessionExpired, func(Event) { calls++ })

	bus.Publish(TopicSessionExpired, nil)
	unsub()
	bus.Publish(TopicSessionExpired, nil)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	bus.Publish(TopicBookingsChanged, nil)
}

func TestMultipleSubscribersAllFire(t *testing.T) {
	bus := NewBus()
	a, b := 0, 0
	bus.Subscribe(TopicCheckoutState, func(Event) { a++ })
	bus.Subscribe(TopicCheckoutState, func(Event) { b++ })

	bus.Publish(TopicCheckoutState, "submitting")

	if a != 1 || b != 1 {
		t.Fatalf("expected both subscribers to fire, got %d and %d", a, b)
	}
}
