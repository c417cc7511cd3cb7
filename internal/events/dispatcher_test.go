package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventSessionLoggedIn, func(_ context.Context, e Event) error {
		got = append(got, "first:"+string(e.Type))
		return errors.New("handler failed")
	})
	d.Subscribe(EventSessionLoggedIn, func(_ context.Context, e Event) error {
		if e.ID == "" || e.Timestamp.IsZero() {
			t.Errorf("expected id and timestamp to be stamped: %+v", e)
		}
		got = append(got, "second:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventSessionLoggedOut, func(context.Context, Event) error {
		t.Error("unexpected delivery to other event type")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionLoggedIn})
	if err == nil || !strings.Contains(err.Error(), "handler failed") {
		t.Fatalf("expected handler error to be returned, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both handlers to run, got %v", got)
	}
}

func TestWildcardRunsAfterTypedHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		order = append(order, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventLookupResolved, func(context.Context, Event) error {
		order = append(order, "typed")
		return nil
	})

	ctx := context.Background()
	_ = d.Publish(ctx, Event{Type: EventLookupResolved})
	_ = d.Publish(ctx, Event{Type: EventSessionLoggedOut})

	want := []string{"typed", "all:lookup_resolved", "all:session_logged_out"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", order, want)
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventSessionHydrated, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventSessionHydrated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionHydrated, ID: "fixed"})
	if err == nil || !strings.Contains(err.Error(), "panicked: boom") {
		t.Fatalf("expected panic to surface as error, got %v", err)
	}
	if !delivered {
		t.Fatal("second handler should still run")
	}
}
