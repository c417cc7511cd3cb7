package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/storage"
)

func newPrefs(t *testing.T) (*Preferences, *storage.Store) {
	t.Helper()
	kv := storage.NewStore(storage.NewMemoryBackend(), "freeler", nil)
	p := New(kv, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, kv
}

func TestThemeDefaultsAndPersists(t *testing.T) {
	p, kv := newPrefs(t)
	ctx := context.Background()

	if got := p.Theme(ctx); got != ThemeSystem {
		t.Fatalf("expected system default, got %q", got)
	}
	if err := p.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if got := p.Theme(ctx); got != ThemeDark {
		t.Fatalf("expected dark, got %q", got)
	}
	if err := p.SetTheme(ctx, "neon"); err == nil {
		t.Fatal("expected error for unknown theme")
	}

	if err := kv.Set(ctx, storage.KeyTheme, "sepia"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got := p.Theme(ctx); got != ThemeSystem {
		t.Fatalf("unknown stored theme should read as system, got %q", got)
	}
}

func TestParseTheme(t *testing.T) {
	for raw, want := range map[string]Theme{"Dark": ThemeDark, " light ": ThemeLight, "SYSTEM": ThemeSystem} {
		got, err := ParseTheme(raw)
		if err != nil || got != want {
			t.Fatalf("ParseTheme(%q) = %q, %v", raw, got, err)
		}
	}
}

func TestDraftLifecycle(t *testing.T) {
	p, _ := newPrefs(t)
	ctx := context.Background()

	if _, ok := p.Draft(ctx); ok {
		t.Fatal("expected no draft")
	}

	saved, err := p.SaveDraft(ctx, LeadDraft{NationalID: "12345678", Phone: "555"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatal("expected draft to be stamped")
	}

	got, ok := p.Draft(ctx)
	if !ok || got.NationalID != "12345678" || got.Phone != "555" || !got.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Fatalf("unexpected draft %+v", got)
	}

	if _, err := p.SaveDraft(ctx, LeadDraft{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := p.Draft(ctx); ok {
		t.Fatal("saving an empty draft should clear it")
	}
}

func TestApplyPersonKeepsTypedNames(t *testing.T) {
	person := domain.Person{NationalID: "12345678", Names: "María", LastNames: "Pérez"}

	d := ApplyPerson(LeadDraft{NationalID: "12345678"}, person)
	if d.Name != "María" || d.LastNames != "Pérez" {
		t.Fatalf("expected prefill, got %+v", d)
	}

	d = ApplyPerson(LeadDraft{Name: "Majo"}, person)
	if d.Name != "Majo" || d.LastNames != "Pérez" || d.NationalID != "12345678" {
		t.Fatalf("typed name must win, got %+v", d)
	}
}
