// Package preferences keeps device-local UI state: the colour theme and the
// in-progress lead draft.
package preferences

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/storage"
)

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ParseTheme accepts a theme name in any case.
func ParseTheme(raw string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(raw))); t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

// LeadDraft is a referral being typed in before submission.
type LeadDraft struct {
	Name       string    `json:"name,omitempty"`
	LastNames  string    `json:"lastNames,omitempty"`
	NationalID string    `json:"nationalId,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Empty reports whether no field has been filled.
func (d LeadDraft) Empty() bool {
	return d.Name == "" && d.LastNames == "" && d.NationalID == "" && d.Phone == "" && d.Email == "" && d.Notes == ""
}

// ApplyPerson fills name fields the user left blank from a lookup result.
func ApplyPerson(d LeadDraft, p domain.Person) LeadDraft {
	if d.Name == "" {
		d.Name = p.Names
	}
	if d.LastNames == "" {
		d.LastNames = p.LastNames
	}
	if d.NationalID == "" {
		d.NationalID = p.NationalID
	}
	return d
}

// Preferences reads and writes preference entries.
type Preferences struct {
	kv     *storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// New returns preferences backed by kv.
func New(kv *storage.Store, logger *zap.Logger) *Preferences {
	return &Preferences{
		kv:     kv,
		logger: observability.OrNop(logger).Named("preferences"),
		now:    time.Now,
	}
}

// Theme returns the stored theme, or ThemeSystem when unset or unreadable.
func (p *Preferences) Theme(ctx context.Context) Theme {
	raw, ok := storage.Lookup[string](ctx, p.kv, storage.KeyTheme)
	if !ok {
		return ThemeSystem
	}
	t, err := ParseTheme(raw)
	if err != nil {
		p.logger.Debug("ignoring stored theme", zap.String("theme", raw))
		return ThemeSystem
	}
	return t
}

// SetTheme persists t.
func (p *Preferences) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return p.kv.Set(ctx, storage.KeyTheme, string(t))
}

// Draft returns the saved lead draft.
func (p *Preferences) Draft(ctx context.Context) (LeadDraft, bool) {
	d, ok := storage.Lookup[LeadDraft](ctx, p.kv, storage.KeyLeadDraft)
	if !ok || d.Empty() {
		return LeadDraft{}, false
	}
	return d, true
}

// SaveDraft stamps and persists d. Saving an empty draft clears it.
func (p *Preferences) SaveDraft(ctx context.Context, d LeadDraft) (LeadDraft, error) {
	if d.Empty() {
		return LeadDraft{}, p.ClearDraft(ctx)
	}
	d.UpdatedAt = p.now().UTC()
	if err := p.kv.Set(ctx, storage.KeyLeadDraft, d); err != nil {
		return d, err
	}
	return d, nil
}

// ClearDraft removes the lead draft.
func (p *Preferences) ClearDraft(ctx context.Context) error {
	return p.kv.Remove(ctx, storage.KeyLeadDraft)
}
