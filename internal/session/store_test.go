package session

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/events"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/routes"
	"github.com/spec-kit/freeler-client/internal/storage"
)

type loginCall struct {
	creds       domain.Credentials
	sessionType domain.SessionType
}

type fakeAuth struct {
	login     func(loginCall) (*domain.AuthResult, error)
	register  func(domain.Registration) (*domain.AuthResult, error)
	logoutErr error
	loggedOut []string
}

func (f *fakeAuth) Login(_ context.Context, creds domain.Credentials, t domain.SessionType) (*domain.AuthResult, error) {
	return f.login(loginCall{creds: creds, sessionType: t})
}

func (f *fakeAuth) Register(_ context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	return f.register(reg)
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

func newTestStore(t *testing.T, a Authenticator) (*Store, *storage.Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	kv := storage.NewStore(backend, "freeler", nil)
	store := NewStore(Dependencies{Auth: a, KV: kv, Metrics: observability.NewMetrics()})
	return store, kv, backend
}

func staffResult(label string) func(loginCall) (*domain.AuthResult, error) {
	return func(loginCall) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: "h.p.s", UserID: "21", CompanyID: "4", RoleLabel: label}, nil
	}
}

func TestHydrateCorruptedEntryStartsAnonymous(t *testing.T) {
	store, kv, backend := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	if err := backend.Write(ctx, kv.Key(storage.KeySession), []byte(`{"sessionType":`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if st := store.Hydrate(ctx); st != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", st)
	}
	if store.CurrentSession() != nil {
		t.Fatal("expected no session")
	}
}

func TestHydrateStructurallyInvalidRecord(t *testing.T) {
	store, kv, _ := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	if err := kv.Set(ctx, storage.KeySession, map[string]any{"sessionType": "company-staff", "userId": 3}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if st := store.Hydrate(ctx); st != StateAnonymous {
		t.Fatalf("expected anonymous for record without token, got %s", st)
	}
}

func TestHydrateRestoresSessionOnce(t *testing.T) {
	store, kv, _ := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	rec := domain.SessionRecord{SessionType: domain.SessionTypeCompanyStaff, Token: "t", UserID: "5", Role: domain.RoleAnalyst, CompanyID: "2"}
	if err := kv.Set(ctx, storage.KeySession, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if st := store.Hydrate(ctx); st != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", st)
	}
	if store.CurrentRole() != domain.RoleAnalyst {
		t.Fatalf("unexpected role %q", store.CurrentRole())
	}

	if err := kv.Remove(ctx, storage.KeySession); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if st := store.Hydrate(ctx); st != StateAuthenticated {
		t.Fatalf("second hydrate must be a no-op, got %s", st)
	}
}

func TestLoginSuperadminLandsOnSupervisorHome(t *testing.T) {
	store, kv, _ := newTestStore(t, &fakeAuth{login: staffResult("SUPERADMIN")})
	ctx := context.Background()
	store.Hydrate(ctx)

	sess, err := store.Login(ctx, domain.Credentials{Email: "a@b.c", Password: "x"}, domain.SessionTypeCompanyStaff)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if domain.RoleOf(sess) != domain.RoleSupervisor {
		t.Fatalf("expected supervisor, got %q", domain.RoleOf(sess))
	}
	if got := routes.HomeFor(sess); got != routes.SupervisorHome {
		t.Fatalf("expected %s, got %s", routes.SupervisorHome, got)
	}
	if store.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", store.State())
	}

	rec, ok := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession)
	if !ok || rec.Role != domain.RoleSupervisor || rec.CompanyID != "4" {
		t.Fatalf("unexpected persisted record %+v (ok=%v)", rec, ok)
	}
}

func TestLoginUnknownRoleLandsOnGenericHome(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{login: staffResult("CONTADOR")})

	sess, err := store.Login(context.Background(), domain.Credentials{}, domain.SessionTypeCompanyStaff)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if domain.RoleOf(sess) != domain.RoleNone {
		t.Fatalf("expected no role, got %q", domain.RoleOf(sess))
	}
	if got := routes.HomeFor(sess); got != routes.StaffHome {
		t.Fatalf("expected generic staff home, got %s", got)
	}
}

func TestLoginRoleFallsBackToClaims(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"88","role":"Vendedor","companyId":12}`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	token := header + "." + payload + ".sig"

	store, _, _ := newTestStore(t, &fakeAuth{login: func(loginCall) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: token}, nil
	}})

	sess, err := store.Login(context.Background(), domain.Credentials{}, domain.SessionTypeCompanyStaff)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	staff, ok := sess.(*domain.StaffSession)
	if !ok {
		t.Fatalf("expected staff session, got %T", sess)
	}
	if staff.Role != domain.RoleSalesAgent || staff.UserID != "88" || staff.CompanyID != "12" {
		t.Fatalf("unexpected session %+v", staff)
	}
}

func TestLoginRoleFallsBackToLooseClaims(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":88,"role":"ADMINISTRADOR","exp":"soon"}`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XYZ"}`))
	token := header + "." + payload + ".sig"

	store, _, _ := newTestStore(t, &fakeAuth{login: func(loginCall) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: token}, nil
	}})

	sess, err := store.Login(context.Background(), domain.Credentials{}, domain.SessionTypeCompanyStaff)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Subject() != "88" || domain.RoleOf(sess) != domain.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestReferralLoginDropsRoleAndCompany(t *testing.T) {
	store, kv, _ := newTestStore(t, &fakeAuth{login: staffResult("ADMIN")})
	ctx := context.Background()

	sess, err := store.Login(ctx, domain.Credentials{}, domain.SessionTypeReferralAgent)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok := sess.(*domain.ReferralAgentSession); !ok {
		t.Fatalf("expected referral session, got %T", sess)
	}
	if store.CurrentRole() != domain.RoleNone {
		t.Fatalf("referral agent must not carry a role")
	}
	rec, _ := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession)
	if rec.Role != "" || rec.CompanyID != "" {
		t.Fatalf("persisted referral record leaked staff fields: %+v", rec)
	}
	if got := routes.HomeFor(sess); got != routes.ReferralHome {
		t.Fatalf("unexpected home %s", got)
	}
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	remoteErr := errors.New("401 invalid credentials")
	store, kv, _ := newTestStore(t, &fakeAuth{login: func(loginCall) (*domain.AuthResult, error) {
		return nil, remoteErr
	}})
	ctx := context.Background()
	store.Hydrate(ctx)

	_, err := store.Login(ctx, domain.Credentials{Email: "x"}, domain.SessionTypeCompanyStaff)
	if !errors.Is(err, ErrAuthentication) || !errors.Is(err, remoteErr) {
		t.Fatalf("expected wrapped authentication error, got %v", err)
	}
	if store.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", store.State())
	}
	if _, ok := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession); ok {
		t.Fatal("failed login must not persist anything")
	}
}

func TestLoginRejectsResponseWithoutToken(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{login: func(loginCall) (*domain.AuthResult, error) {
		return &domain.AuthResult{UserID: "1"}, nil
	}})
	_, err := store.Login(context.Background(), domain.Credentials{}, domain.SessionTypeReferralAgent)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if store.CurrentSession() != nil {
		t.Fatal("expected no session")
	}
}

func TestLoginUnknownSessionType(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{})
	if _, err := store.Login(context.Background(), domain.Credentials{}, "guest"); !errors.Is(err, ErrUnknownSessionType) {
		t.Fatalf("expected ErrUnknownSessionType, got %v", err)
	}
}

func TestLogoutClearsLocalStateWhenRemoteFails(t *testing.T) {
	fa := &fakeAuth{login: staffResult("ADMIN"), logoutErr: errors.New("network unreachable")}
	store, kv, _ := newTestStore(t, fa)
	ctx := context.Background()

	if _, err := store.Login(ctx, domain.Credentials{}, domain.SessionTypeCompanyStaff); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := kv.Set(ctx, storage.KeyLeadDraft, map[string]string{"name": "Ana"}); err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	if err := kv.Set(ctx, storage.KeyTheme, "dark"); err != nil {
		t.Fatalf("seed theme: %v", err)
	}

	err := store.Logout(ctx)
	if !errors.Is(err, ErrRemoteLogout) {
		t.Fatalf("expected remote logout error, got %v", err)
	}
	if store.State() != StateAnonymous || store.CurrentSession() != nil {
		t.Fatalf("expected anonymous after logout, got %s", store.State())
	}
	if _, ok := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession); ok {
		t.Fatal("session entry must be removed")
	}
	if _, ok := storage.Lookup[map[string]string](ctx, kv, storage.KeyLeadDraft); ok {
		t.Fatal("lead draft must be removed")
	}
	if theme, ok := storage.Lookup[string](ctx, kv, storage.KeyTheme); !ok || theme != "dark" {
		t.Fatal("theme preference must survive logout")
	}
	if len(fa.loggedOut) != 1 || fa.loggedOut[0] != "h.p.s" {
		t.Fatalf("expected remote invalidation of the token, got %v", fa.loggedOut)
	}
}

func TestLogoutWhenAnonymousSkipsRemote(t *testing.T) {
	fa := &fakeAuth{}
	store, _, _ := newTestStore(t, fa)
	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(fa.loggedOut) != 0 {
		t.Fatal("no remote call expected without a token")
	}
	if store.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", store.State())
	}
}

func TestConcurrentLoginsCommitOnlyNewest(t *testing.T) {
	releaseFirst := make(chan struct{})
	firstStarted := make(chan struct{})
	fa := &fakeAuth{login: func(c loginCall) (*domain.AuthResult, error) {
		if c.creds.Email == "first" {
			close(firstStarted)
			<-releaseFirst
			return &domain.AuthResult{Token: "first.tok.en", UserID: "1", RoleLabel: "ADMIN"}, nil
		}
		return &domain.AuthResult{Token: "second.tok.en", UserID: "2", RoleLabel: "ANALISTA"}, nil
	}}
	store, kv, _ := newTestStore(t, fa)
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() {
		_, err := store.Login(ctx, domain.Credentials{Email: "first"}, domain.SessionTypeCompanyStaff)
		firstErr <- err
	}()
	<-firstStarted

	if _, err := store.Login(ctx, domain.Credentials{Email: "second"}, domain.SessionTypeCompanyStaff); err != nil {
		t.Fatalf("second login: %v", err)
	}
	close(releaseFirst)

	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected first login to be superseded, got %v", err)
	}
	if got := store.CurrentSession().Subject(); got != "2" {
		t.Fatalf("expected second session to win, got user %s", got)
	}
	if store.CurrentRole() != domain.RoleAnalyst {
		t.Fatalf("unexpected role %q", store.CurrentRole())
	}
	rec, _ := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession)
	if rec.UserID != "2" {
		t.Fatalf("persisted session must be the newest, got %+v", rec)
	}
}

func TestLogoutSupersedesInFlightLogin(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	store, kv, _ := newTestStore(t, &fakeAuth{login: func(loginCall) (*domain.AuthResult, error) {
		close(started)
		<-release
		return &domain.AuthResult{Token: "a.b.c", UserID: "9"}, nil
	}})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(ctx, domain.Credentials{}, domain.SessionTypeReferralAgent)
		done <- err
	}()
	<-started
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected superseded login, got %v", err)
	}
	if store.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", store.State())
	}
	if _, ok := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession); ok {
		t.Fatal("superseded login must not persist")
	}
}

func TestRegisterCommitsReferralSession(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{register: func(reg domain.Registration) (*domain.AuthResult, error) {
		if reg.Email != "new@agent.pe" {
			t.Errorf("unexpected registration %+v", reg)
		}
		return &domain.AuthResult{Token: "x.y.z", UserID: "33", RoleLabel: "ADMIN"}, nil
	}})

	sess, err := store.Register(context.Background(), domain.Registration{Email: "new@agent.pe"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.Type() != domain.SessionTypeReferralAgent || domain.RoleOf(sess) != domain.RoleNone {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestRefreshPicksUpExternalChanges(t *testing.T) {
	store, kv, _ := newTestStore(t, &fakeAuth{})
	ctx := context.Background()
	store.Hydrate(ctx)

	rec := domain.SessionRecord{SessionType: domain.SessionTypeReferralAgent, Token: "t", UserID: "4"}
	if err := kv.Set(ctx, storage.KeySession, rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sess, err := store.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sess == nil || sess.Subject() != "4" || store.State() != StateAuthenticated {
		t.Fatalf("expected refreshed session, got %+v", sess)
	}

	if err := kv.Remove(ctx, storage.KeySession); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if store.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", store.State())
	}
}

func TestCurrentSessionReturnsCopy(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{login: staffResult("ADMIN")})
	if _, err := store.Login(context.Background(), domain.Credentials{}, domain.SessionTypeCompanyStaff); err != nil {
		t.Fatalf("login: %v", err)
	}
	sess := store.CurrentSession().(*domain.StaffSession)
	sess.Role = domain.RoleNone
	if store.CurrentRole() != domain.RoleAdmin {
		t.Fatal("mutating the returned session must not affect the store")
	}
}

func TestTransitionsArePublished(t *testing.T) {
	store, _, _ := newTestStore(t, &fakeAuth{login: staffResult("ADMIN")})
	ctx := context.Background()

	var seen []events.EventType
	record := func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	store.Subscribe(events.EventSessionHydrated, record)
	store.Subscribe(events.EventSessionLoggedIn, record)
	store.Subscribe(events.EventSessionLoggedOut, record)

	store.Hydrate(ctx)
	if _, err := store.Login(ctx, domain.Credentials{}, domain.SessionTypeCompanyStaff); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	want := []events.EventType{events.EventSessionHydrated, events.EventSessionLoggedIn, events.EventSessionLoggedOut}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

// stallingBackend holds every Write until release is closed.
type stallingBackend struct {
	*storage.MemoryBackend
	writing chan struct{}
	release chan struct{}
	once    bool
}

func newStallingBackend() *stallingBackend {
	return &stallingBackend{
		MemoryBackend: storage.NewMemoryBackend(),
		writing:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *stallingBackend) Write(ctx context.Context, key string, value []byte) error {
	if !b.once {
		b.once = true
		close(b.writing)
	}
	<-b.release
	return b.MemoryBackend.Write(ctx, key, value)
}

func newStallingStore(t *testing.T, a Authenticator) (*Store, *storage.Store, *stallingBackend) {
	t.Helper()
	backend := newStallingBackend()
	kv := storage.NewStore(backend, "freeler", nil)
	return NewStore(Dependencies{Auth: a, KV: kv, Metrics: observability.NewMetrics()}), kv, backend
}

func TestReadsDoNotWaitOnStorageWrites(t *testing.T) {
	store, _, backend := newStallingStore(t, &fakeAuth{login: staffResult("ADMIN")})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(ctx, domain.Credentials{Email: "a@b.pe"}, domain.SessionTypeCompanyStaff)
		done <- err
	}()
	<-backend.writing

	read := make(chan domain.Session, 1)
	go func() {
		_ = store.State()
		_ = store.CurrentRole()
		read <- store.CurrentSession()
	}()
	select {
	case sess := <-read:
		if sess != nil {
			t.Fatalf("session must not be visible before it is persisted, got %+v", sess)
		}
	case <-time.After(time.Second):
		t.Fatal("CurrentSession blocked behind a storage write")
	}

	close(backend.release)
	if err := <-done; err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.CurrentRole() != domain.RoleAdmin {
		t.Fatalf("unexpected role %q", store.CurrentRole())
	}
}

func TestLogoutDuringStalledWriteLeavesStorageClear(t *testing.T) {
	store, kv, backend := newStallingStore(t, &fakeAuth{login: staffResult("ADMIN")})
	ctx := context.Background()

	loginDone := make(chan error, 1)
	go func() {
		_, err := store.Login(ctx, domain.Credentials{}, domain.SessionTypeCompanyStaff)
		loginDone <- err
	}()
	<-backend.writing

	logoutDone := make(chan error, 1)
	go func() { logoutDone <- store.Logout(ctx) }()

	deadline := time.Now().Add(time.Second)
	for store.State() != StateAnonymous {
		if time.Now().After(deadline) {
			t.Fatalf("logout did not commit while the write was stalled, state %s", store.State())
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(backend.release)
	if err := <-loginDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected superseded login, got %v", err)
	}
	if err := <-logoutDone; err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.CurrentSession() != nil {
		t.Fatal("expected no session after logout")
	}
	if _, ok := storage.Lookup[domain.SessionRecord](ctx, kv, storage.KeySession); ok {
		t.Fatal("superseded login must not stay persisted")
	}
}
