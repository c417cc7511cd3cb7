// Package session holds the process-wide authentication state of the client.
//
// The store moves through uninitialized -> hydrating -> anonymous or
// authenticated. Only terminal outcomes are committed: every transition takes
// a generation number when it starts and its result is dropped if a newer
// transition began before it completed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/storage"
)

// State is the lifecycle state of the store.
type State int

const (
	StateUninitialized State = iota
	StateHydrating
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateHydrating:
		return "hydrating"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthentication wraps every failed login or registration.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSuperseded is returned when a newer transition started before this one completed.
	ErrSuperseded = errors.New("superseded by a newer session transition")
	// ErrRemoteLogout reports that the server-side invalidation failed. Local state is already cleared.
	ErrRemoteLogout = errors.New("remote logout failed")
	// ErrUnknownSessionType is returned for session types outside the closed set.
	ErrUnknownSessionType = errors.New("unknown session type")
)

// Authenticator is the remote authentication collaborator.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials, sessionType domain.SessionType) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

// Dependencies bundles what the store needs.
type Dependencies struct {
	Auth    Authenticator
	KV      *storage.Store
	Events  events.Dispatcher
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Store owns the in-memory session. The key-value store owns the durable copy.
//
// mu guards the in-memory fields and is never held across storage I/O, so the
// read accessors return immediately. io serializes writes to the durable copy;
// written is the generation of the last transition that wrote it.
type Store struct {
	mu      sync.RWMutex
	state   State
	current domain.Session
	gen     uint64

	io      sync.Mutex
	written uint64

	auth    Authenticator
	kv      *storage.Store
	events  events.Dispatcher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewStore builds an uninitialized store.
func NewStore(deps Dependencies) *Store {
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &Store{
		state:   StateUninitialized,
		auth:    deps.Auth,
		kv:      deps.KV,
		events:  dispatcher,
		metrics: deps.Metrics,
		logger:  observability.OrNop(deps.Logger).Named("session"),
	}
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentSession returns a copy of the current session, or nil.
func (s *Store) CurrentSession() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSession(s.current)
}

// CurrentRole returns the role of the current session. Referral agents,
// anonymous users and unmapped staff labels all yield domain.RoleNone.
func (s *Store) CurrentRole() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.RoleOf(s.current)
}

// Subscribe registers handler for a session event type.
func (s *Store) Subscribe(eventType events.EventType, handler events.EventHandler) {
	s.events.Subscribe(eventType, handler)
}

// Hydrate restores the persisted session. Only the first call does any work;
// later calls return the current state. A transition that commits while the
// read is in progress wins over the hydrated value.
func (s *Store) Hydrate(ctx context.Context) State {
	s.mu.Lock()
	if s.state != StateUninitialized {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = StateHydrating
	s.mu.Unlock()

	sess := s.loadPersisted(ctx)

	s.mu.Lock()
	if s.state != StateHydrating {
		st := s.state
		s.mu.Unlock()
		s.logger.Debug("hydrated value discarded; a transition already committed")
		return st
	}
	s.commitLocked(sess)
	st := s.state
	s.mu.Unlock()

	s.logger.Info("session hydrated", zap.Stringer("state", st))
	s.publish(ctx, events.EventSessionHydrated, sess, nil)
	return st
}

// Login authenticates against the remote collaborator, persists the resulting
// session and commits it. On failure the store is left unchanged and the
// error wraps ErrAuthentication.
func (s *Store) Login(ctx context.Context, creds domain.Credentials, sessionType domain.SessionType) (domain.Session, error) {
	if !sessionType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSessionType, sessionType)
	}
	gen := s.begin()

	res, err := s.auth.Login(ctx, creds, sessionType)
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}
	sess, err := s.buildSession(sessionType, res)
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}
	if err := s.commitIfCurrent(ctx, gen, sess); err != nil {
		return nil, err
	}

	s.metrics.Inc("session.login", "ok")
	s.logger.Info("logged in",
		zap.String("session_type", string(sess.Type())),
		zap.String("user_id", sess.Subject().String()),
		zap.String("role", string(domain.RoleOf(sess))),
	)
	s.publish(ctx, events.EventSessionLoggedIn, sess, nil)
	return cloneSession(sess), nil
}

// Register signs up a referral agent and commits the returned session the
// same way Login does.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (domain.Session, error) {
	gen := s.begin()

	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	sess, err := s.buildSession(domain.SessionTypeReferralAgent, res)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	if err := s.commitIfCurrent(ctx, gen, sess); err != nil {
		return nil, err
	}

	s.metrics.Inc("session.register", "ok")
	s.logger.Info("registered", zap.String("user_id", sess.Subject().String()))
	s.publish(ctx, events.EventSessionLoggedIn, sess, nil)
	return cloneSession(sess), nil
}

// Logout tears down the local session first and then asks the server to
// invalidate the token. Local teardown never depends on the remote call; a
// remote failure is returned wrapped in ErrRemoteLogout for information only.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	token := ""
	if s.current != nil {
		token = s.current.AccessToken()
	}
	s.commitLocked(nil)
	s.mu.Unlock()

	s.clearPersisted(ctx, gen)

	s.metrics.Inc("session.logout", "ok")
	s.logger.Info("logged out")
	s.publish(ctx, events.EventSessionLoggedOut, nil, nil)

	if token == "" || s.auth == nil {
		return nil
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		s.metrics.Inc("session.logout", "remote_failed")
		s.logger.Warn("remote logout failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRemoteLogout, err)
	}
	return nil
}

// Refresh re-reads the durable copy, picking up logins or logouts made by
// another process sharing the same storage.
func (s *Store) Refresh(ctx context.Context) (domain.Session, error) {
	gen := s.begin()
	sess := s.loadPersisted(ctx)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.commitLocked(sess)
	s.mu.Unlock()

	s.publish(ctx, events.EventSessionRefreshed, sess, nil)
	return cloneSession(sess), nil
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Store) isCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen == gen
}

func (s *Store) superseded() error {
	s.metrics.Inc("session.login", "superseded")
	s.logger.Info("discarding superseded session transition")
	return ErrSuperseded
}

// commitIfCurrent persists sess and then commits it in memory, provided no
// newer transition started in between. The write happens outside mu.
func (s *Store) commitIfCurrent(ctx context.Context, gen uint64, sess domain.Session) error {
	s.io.Lock()
	defer s.io.Unlock()

	if !s.isCurrent(gen) {
		return s.superseded()
	}
	if err := s.kv.Set(ctx, storage.KeySession, domain.RecordOf(sess)); err != nil {
		// the session still applies for this process; it just won't survive a restart
		s.logger.Warn("session not persisted", zap.Error(err))
	}
	s.written = gen

	s.mu.Lock()
	if s.gen != gen {
		committed := cloneSession(s.current)
		s.mu.Unlock()
		s.restorePersisted(ctx, committed)
		return s.superseded()
	}
	s.commitLocked(sess)
	s.mu.Unlock()
	return nil
}

// restorePersisted puts the durable copy back in line with the committed
// in-memory session after a superseded write. Callers hold io.
func (s *Store) restorePersisted(ctx context.Context, committed domain.Session) {
	var err error
	if committed == nil {
		err = s.kv.Remove(ctx, storage.KeySession)
	} else {
		err = s.kv.Set(ctx, storage.KeySession, domain.RecordOf(committed))
	}
	if err != nil {
		s.logger.Warn("failed to restore persisted session", zap.Error(err))
	}
}

func (s *Store) commitLocked(sess domain.Session) {
	s.current = sess
	if sess == nil {
		s.state = StateAnonymous
		return
	}
	s.state = StateAuthenticated
}

// clearPersisted removes the durable session and lead draft unless a newer
// transition has already written its own session.
func (s *Store) clearPersisted(ctx context.Context, gen uint64) {
	s.io.Lock()
	defer s.io.Unlock()
	if s.written > gen {
		return
	}
	s.written = gen
	for _, key := range []string{storage.KeySession, storage.KeyLeadDraft} {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.logger.Warn("failed to clear persisted entry", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *Store) loadPersisted(ctx context.Context) domain.Session {
	rec, ok := storage.Lookup[domain.SessionRecord](ctx, s.kv, storage.KeySession)
	if !ok {
		return nil
	}
	sess, ok := rec.Session()
	if !ok {
		s.logger.Debug("persisted session is structurally invalid; treating as absent")
		return nil
	}
	return sess
}

func (s *Store) fail(ctx context.Context, op string, err error) error {
	s.metrics.Inc("session."+op, "failed")
	s.logger.Info(op+" failed", zap.Error(err))
	wrapped := fmt.Errorf("%w: %w", ErrAuthentication, err)
	s.publish(ctx, events.EventSessionLoginFail, nil, wrapped)
	return wrapped
}

// buildSession turns the service response into a typed session. The role is
// taken from the response label, falling back to the token claims; referral
// agents never keep a role or company.
func (s *Store) buildSession(sessionType domain.SessionType, res *domain.AuthResult) (domain.Session, error) {
	if res == nil || res.Token == "" {
		return nil, errors.New("response carried no token")
	}
	claims := auth.DecodeClaims(res.Token)

	userID := res.UserID
	if userID.IsZero() && claims != nil {
		userID = domain.ID(claims.SubjectID())
	}
	if userID.IsZero() {
		return nil, errors.New("response carried no user id")
	}

	if sessionType == domain.SessionTypeReferralAgent {
		return &domain.ReferralAgentSession{Token: res.Token, UserID: userID}, nil
	}

	label := res.RoleLabel
	companyID := res.CompanyID
	if claims != nil {
		if label == "" {
			label = claims.Role
		}
		if companyID.IsZero() {
			companyID = claims.CompanyID
		}
	}
	role, known := domain.ResolveRole(label)
	if !known {
		s.logger.Warn("unrecognized role label; falling back to least privilege", zap.String("label", label))
	}
	return &domain.StaffSession{Token: res.Token, UserID: userID, Role: role, CompanyID: companyID}, nil
}

func (s *Store) publish(ctx context.Context, eventType events.EventType, sess domain.Session, err error) {
	payload := events.SessionPayload{State: StateAnonymous.String()}
	if sess != nil {
		payload.State = StateAuthenticated.String()
		payload.SessionType = sess.Type()
		payload.UserID = sess.Subject()
		payload.Role = domain.RoleOf(sess)
	}
	if err != nil {
		payload.State = s.State().String()
		payload.Err = err.Error()
	}
	if pubErr := s.events.Publish(ctx, events.Event{Type: eventType, Payload: payload}); pubErr != nil {
		s.logger.Debug("event handler failed", zap.String("event", string(eventType)), zap.Error(pubErr))
	}
}

func cloneSession(sess domain.Session) domain.Session {
	switch v := sess.(type) {
	case *domain.ReferralAgentSession:
		c := *v
		return &c
	case *domain.StaffSession:
		c := *v
		return &c
	default:
		return nil
	}
}
