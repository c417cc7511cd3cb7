// Package storage is the durable key-value store the client uses for its
// session, preferences and drafts. Values are JSON encoded under namespaced
// keys. Reads never fail: missing or corrupted entries read as absent.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/observability"
)

// Stable entry names. Changing them orphans data written by earlier releases.
const (
	KeySession   = "session"
	KeyTheme     = "theme"
	KeyLeadDraft = "leadDraft"
)

// ErrNotFound is returned by backends when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend persists raw bytes by key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Store wraps a Backend with namespacing and JSON (de)serialization.
type Store struct {
	backend   Backend
	namespace string
	logger    *zap.Logger
}

// NewStore builds a store. An empty namespace leaves keys unprefixed.
func NewStore(backend Backend, namespace string, logger *zap.Logger) *Store {
	return &Store{
		backend:   backend,
		namespace: strings.TrimSuffix(strings.TrimSpace(namespace), "."),
		logger:    observability.OrNop(logger).Named("storage"),
	}
}

// Key returns the namespaced backend key for name.
func (s *Store) Key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "." + name
}

// Get decodes the value stored under name into dest. It reports false when
// the entry is missing, unreadable or not valid JSON for dest.
func (s *Store) Get(ctx context.Context, name string, dest any) bool {
	key := s.Key(name)
	raw, err := s.backend.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Debug("discarding corrupted entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set encodes value as JSON and writes it under name. Failures are not retried;
// the returned error is informational.
func (s *Store) Set(ctx context.Context, name string, value any) error {
	key := s.Key(name)
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("encode failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Write(ctx, key, raw); err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes the entry under name. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, name string) error {
	key := s.Key(name)
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Lookup is a typed convenience over Store.Get.
func Lookup[T any](ctx context.Context, s *Store, name string) (T, bool) {
	var v T
	if !s.Get(ctx, name, &v) {
		var zero T
		return zero, false
	}
	return v, true
}
