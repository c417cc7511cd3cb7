package lookup

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/observability"
)

type finderFunc func(ctx context.Context, id string) (domain.Person, error)

func (f finderFunc) FindPerson(ctx context.Context, id string) (domain.Person, error) {
	return f(ctx, id)
}

func TestNationalIDFieldPrefill(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	resolved := make(chan events.Event, 1)
	dispatcher.Subscribe(events.EventLookupResolved, func(_ context.Context, e events.Event) error {
		resolved <- e
		return nil
	})
	metrics := observability.NewMetrics()

	field := NewNationalIDField(finderFunc(func(_ context.Context, id string) (domain.Person, error) {
		return domain.Person{NationalID: id, Names: "Ana", LastNames: "Quispe Rojas"}, nil
	}), FieldOptions{Events: dispatcher, Metrics: metrics})
	defer field.Close()

	if _, _, ok := field.Prefill(); ok {
		t.Fatal("idle field must not prefill")
	}
	if snap := field.Input(" 4567 "); snap.Status != StatusIdle {
		t.Fatalf("short input must stay idle, got %s", snap.Status)
	}
	if snap := field.Input("4567890A"); snap.Status != StatusIdle {
		t.Fatalf("non-digit input must stay idle, got %s", snap.Status)
	}

	field.Input("45678901")
	field.Wait()

	names, lastNames, ok := field.Prefill()
	if !ok || names != "Ana" || lastNames != "Quispe Rojas" {
		t.Fatalf("unexpected prefill %q %q %v", names, lastNames, ok)
	}
	e := <-resolved
	if p, ok := e.Payload.(events.LookupPayload); !ok || p.Key != "45678901" || p.Status != "resolved" {
		t.Fatalf("unexpected event payload %+v", e.Payload)
	}
	if metrics.Count("lookup", "resolved") != 1 {
		t.Fatal("expected resolved metric")
	}
}

func TestNationalIDFieldFailureFallsBackToManual(t *testing.T) {
	field := NewNationalIDField(finderFunc(func(context.Context, string) (domain.Person, error) {
		return domain.Person{}, errors.New("not found")
	}), FieldOptions{TriggerLength: 6})
	defer field.Close()

	field.Input("123456")
	field.Wait()

	if snap := field.Snapshot(); snap.Status != StatusUnresolved {
		t.Fatalf("expected unresolved, got %s", snap.Status)
	}
	if _, _, ok := field.Prefill(); ok {
		t.Fatal("unresolved lookup must leave manual entry")
	}
}

func TestNationalIDFieldLogsHandlerErrors(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventLookupResolved, func(context.Context, events.Event) error {
		return errors.New("audit sink down")
	})
	core, logs := observer.New(zap.DebugLevel)

	field := NewNationalIDField(finderFunc(func(_ context.Context, id string) (domain.Person, error) {
		return domain.Person{NationalID: id, Names: "Luis"}, nil
	}), FieldOptions{Events: dispatcher, Logger: zap.New(core)})
	defer field.Close()

	field.Input("12345678")
	field.Wait()

	if _, _, ok := field.Prefill(); !ok {
		t.Fatal("a failing handler must not affect the lookup result")
	}
	entries := logs.FilterMessage("event handler failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one handler failure log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["event"]; got != string(events.EventLookupResolved) {
		t.Fatalf("unexpected event field %v", got)
	}
}
