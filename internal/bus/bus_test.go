package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("inbox.", 10)
	defer unsub()

	b.Emit(KindInboxUpdated, "payload")

	select {
	case evt := <-ch:
		if evt.Kind != KindInboxUpdated {
			t.Errorf("got kind %q, want %s", evt.Kind, KindInboxUpdated)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Emit did not stamp the event")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("voice.", 10)
	defer unsub()

	b.Emit(KindInboxUpdated, nil)
	b.Emit(KindVoiceTick, 3)

	select {
	case evt := <-ch:
		if evt.Kind != KindVoiceTick {
			t.Errorf("got kind %q, want %s", evt.Kind, KindVoiceTick)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("nav.", 10)
	unsub()
	unsub()

	b.Emit(KindNavChanged, nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("voice.", 1)
	defer unsub()

	b.Emit(KindVoiceTick, 1)
	// Dropped: buffer is full.
	b.Emit(KindVoiceTick, 2)

	evt := <-ch
	if evt.Payload != 1 {
		t.Errorf("got payload %v, want 1", evt.Payload)
	}
}

func TestNilBusEmit(t *testing.T) {
	var b *Bus
	b.Emit(KindVoiceTick, 1)
}
