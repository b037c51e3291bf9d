package events

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestLocalBusBroadcast(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()
	a, cancelA, _ := bus.Subscribe(ctx)
	b, cancelB, _ := bus.Subscribe(ctx)
	defer cancelB()

	if err := bus.Publish(ctx, Event{Type: LotUpdated, LotID: "l1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []<-chan Event{a, b} {
		ev := receive(t, ch)
		if ev.Type != LotUpdated || ev.LotID != "l1" || ev.At.IsZero() {
			t.Fatalf("event = %+v", ev)
		}
	}

	cancelA()
	if _, ok := <-a; ok {
		t.Fatalf("cancelled subscription still open")
	}
	cancelA()
	_ = bus.Publish(ctx, Event{Type: LotDeleted})
	if ev := receive(t, b); ev.Type != LotDeleted {
		t.Fatalf("event = %+v", ev)
	}
}

func TestLocalBusContextCancel(t *testing.T) {
	bus := NewLocalBus()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, _ := bus.Subscribe(ctx)
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not closed after context cancel")
	}
}

func TestLocalBusCancelReleasesWatcher(t *testing.T) {
	bus := NewLocalBus()
	// SSE handlers may subscribe with a context that outlives the stream
	ctx := context.Background()
	before := runtime.NumGoroutine()
	for i := 0; i < 200; i++ {
		_, cancel, _ := bus.Subscribe(ctx)
		cancel()
	}
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+10 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines = %d, started with %d", runtime.NumGoroutine(), before)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLocalBusDropsWhenSubscriberIsSlow(t *testing.T) {
	bus := NewLocalBus()
	ctx := context.Background()
	ch, cancel, _ := bus.Subscribe(ctx)
	defer cancel()
	for i := 0; i < subscriberBuffer+10; i++ {
		_ = bus.Publish(ctx, Event{Type: ProjectUpdated})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestRedisBusPublishSubscribe(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	bus, err := NewRedisBus(client, "test:events")
	if err != nil {
		t.Fatalf("new redis bus: %v", err)
	}

	ctx := context.Background()
	ch, cancel, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := bus.Publish(ctx, Event{Type: ProjectCreated, ProjectID: "p1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ev := receive(t, ch)
	if ev.Type != ProjectCreated || ev.ProjectID != "p1" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRedisBusRequiresClient(t *testing.T) {
	if bus, err := NewRedisBus(nil, ""); err == nil || bus != nil {
		t.Fatalf("expected constructor error for nil client")
	}
}
