// Package lookup implements field-driven external lookups whose responses may
// arrive out of order. A response is applied only when the input it was
// requested for is still the current input when it completes.
package lookup

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/observability"
)

// Status of a guarded lookup.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusResolved
	StatusUnresolved
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Func performs the remote lookup for key.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Snapshot is a consistent view of the guard.
type Snapshot[K comparable, V any] struct {
	Status Status
	Key    K
	Value  *V
}

// Outcome reports how a completed request was handled.
type Outcome[K comparable] struct {
	RequestID string
	Key       K
	Applied   bool
	Status    Status
}

// Config tunes a Guard.
type Config[K comparable, V any] struct {
	Lookup Func[K, V]
	// Accept is the trigger precondition. Nil accepts every key.
	Accept func(K) bool
	// Observe, when set, is called after every completion with the outcome.
	Observe func(Outcome[K])
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Guard tracks the current input and applies only matching responses.
type Guard[K comparable, V any] struct {
	cfg    Config[K, V]
	logger *zap.Logger

	mu          sync.Mutex
	status      Status
	current     K
	hasCurrent  bool
	accepted    K
	hasAccepted bool
	// acceptedStatus and acceptedValue are what the accepted key resolved to.
	acceptedStatus Status
	acceptedValue  *V
	value          *V
	generation     uint64
	closed         bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGuard builds an idle guard.
func NewGuard[K comparable, V any](cfg Config[K, V]) *Guard[K, V] {
	if cfg.Lookup == nil {
		panic("lookup: Config.Lookup is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Guard[K, V]{
		cfg:    cfg,
		logger: observability.OrNop(cfg.Logger).Named("lookup"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Trigger reports an input change. Inputs failing the precondition reset the
// guard to idle and orphan any request in flight. An input equal to the last
// accepted or in-flight key issues nothing.
func (g *Guard[K, V]) Trigger(key K) Snapshot[K, V] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return g.snapshotLocked()
	}

	if g.cfg.Accept != nil && !g.cfg.Accept(key) {
		g.generation++
		g.status = StatusIdle
		g.current = key
		g.hasCurrent = false
		g.value = nil
		var zero K
		g.accepted = zero
		g.hasAccepted = false
		g.acceptedValue = nil
		return g.snapshotLocked()
	}

	if g.hasCurrent && g.current == key && g.status != StatusIdle {
		return g.snapshotLocked()
	}
	if g.hasAccepted && g.accepted == key {
		// back to the accepted input: restore its result and orphan whatever is in flight
		g.generation++
		g.current = key
		g.hasCurrent = true
		g.status = g.acceptedStatus
		g.value = g.acceptedValue
		return g.snapshotLocked()
	}

	g.generation++
	g.current = key
	g.hasCurrent = true
	g.status = StatusLoading
	g.value = nil

	requestID := uuid.NewString()
	g.wg.Add(1)
	go g.run(requestID, g.generation, key)

	return g.snapshotLocked()
}

func (g *Guard[K, V]) run(requestID string, generation uint64, key K) {
	defer g.wg.Done()

	value, err := g.call(key)

	g.mu.Lock()
	applied := !g.closed && g.generation == generation && g.hasCurrent && g.current == key
	if applied {
		g.accepted = key
		g.hasAccepted = true
		if err != nil {
			g.status = StatusUnresolved
			g.value = nil
		} else {
			g.status = StatusResolved
			v := value
			g.value = &v
		}
		g.acceptedStatus = g.status
		g.acceptedValue = g.value
	}
	status := g.status
	g.mu.Unlock()

	switch {
	case !applied:
		g.cfg.Metrics.Inc("lookup", "discarded")
		g.logger.Debug("discarding stale lookup response", zap.String("request_id", requestID), zap.Any("key", key))
	case err != nil:
		g.cfg.Metrics.Inc("lookup", "unresolved")
		g.logger.Info("lookup unresolved", zap.String("request_id", requestID), zap.Any("key", key), zap.Error(err))
	default:
		g.cfg.Metrics.Inc("lookup", "resolved")
	}

	if g.cfg.Observe != nil {
		g.cfg.Observe(Outcome[K]{RequestID: requestID, Key: key, Applied: applied, Status: status})
	}
}

// call runs the lookup, turning panics into errors so a faulty collaborator
// can only ever yield an unresolved lookup.
func (g *Guard[K, V]) call(key K) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lookup panicked: %v", r)
		}
	}()
	return g.cfg.Lookup(g.ctx, key)
}

// Snapshot returns the current state.
func (g *Guard[K, V]) Snapshot() Snapshot[K, V] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Close marks every in-flight request stale and stops accepting input. It
// does not wait for the requests; use Wait for that.
func (g *Guard[K, V]) Close() {
	g.mu.Lock()
	g.closed = true
	g.generation++
	g.mu.Unlock()
	g.cancel()
}

// Wait blocks until every issued request has completed.
func (g *Guard[K, V]) Wait() {
	g.wg.Wait()
}

func (g *Guard[K, V]) snapshotLocked() Snapshot[K, V] {
	snap := Snapshot[K, V]{Status: g.status}
	if g.hasCurrent {
		snap.Key = g.current
	}
	if g.value != nil {
		v := *g.value
		snap.Value = &v
	}
	return snap
}
