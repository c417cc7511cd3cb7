package lookup

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/observability"
)

// DefaultNationalIDLength is the digit count that triggers a lookup.
const DefaultNationalIDLength = 8

// PersonFinder resolves a national ID to a person.
type PersonFinder interface {
	FindPerson(ctx context.Context, nationalID string) (domain.Person, error)
}

// NationalIDField assists a form by filling names from a national ID. A
// failed or stale lookup leaves the fields for manual entry.
type NationalIDField struct {
	guard  *Guard[string, domain.Person]
	events events.Dispatcher
	logger *zap.Logger
}

// FieldOptions configures a NationalIDField.
type FieldOptions struct {
	TriggerLength int
	Events        events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	// Observe receives every completion, after events are published.
	Observe func(Outcome[string])
}

// NewNationalIDField binds a guard to finder.
func NewNationalIDField(finder PersonFinder, opts FieldOptions) *NationalIDField {
	length := opts.TriggerLength
	if length <= 0 {
		length = DefaultNationalIDLength
	}
	f := &NationalIDField{events: opts.Events, logger: observability.OrNop(opts.Logger).Named("lookup")}
	f.guard = NewGuard(Config[string, domain.Person]{
		Lookup: finder.FindPerson,
		Accept: func(id string) bool { return validNationalID(id, length) },
		Observe: func(o Outcome[string]) {
			f.publish(o)
			if opts.Observe != nil {
				opts.Observe(o)
			}
		},
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	})
	return f
}

// Input feeds the raw field value. Surrounding whitespace is ignored.
func (f *NationalIDField) Input(raw string) Snapshot[string, domain.Person] {
	return f.guard.Trigger(strings.TrimSpace(raw))
}

// Snapshot returns the field state.
func (f *NationalIDField) Snapshot() Snapshot[string, domain.Person] {
	return f.guard.Snapshot()
}

// Prefill returns the names to show. ok is false when the user must type them.
func (f *NationalIDField) Prefill() (names, lastNames string, ok bool) {
	snap := f.guard.Snapshot()
	if snap.Status != StatusResolved || snap.Value == nil {
		return "", "", false
	}
	return snap.Value.Names, snap.Value.LastNames, true
}

// Close orphans any lookup in flight.
func (f *NationalIDField) Close() { f.guard.Close() }

// Wait blocks until issued lookups complete.
func (f *NationalIDField) Wait() { f.guard.Wait() }

func (f *NationalIDField) publish(o Outcome[string]) {
	if f.events == nil || !o.Applied {
		return
	}
	eventType := events.EventLookupResolved
	if o.Status != StatusResolved {
		eventType = events.EventLookupUnresolved
	}
	err := f.events.Publish(context.Background(), events.Event{
		ID:      o.RequestID,
		Type:    eventType,
		Payload: events.LookupPayload{Key: o.Key, Status: o.Status.String()},
	})
	if err != nil {
		f.logger.Debug("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func validNationalID(id string, length int) bool {
	if len(id) != length {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
