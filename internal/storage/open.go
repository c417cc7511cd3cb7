package storage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/config"
)

// Open builds the store selected by cfg.Storage.Backend.
func Open(cfg config.Config, logger *zap.Logger) (*Store, error) {
	var backend Backend
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "sqlite":
		b, err := OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		backend = b
	case "redis":
		backend = NewRedisBackend(cfg.Redis, logger)
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return NewStore(backend, cfg.Storage.Namespace, logger), nil
}
