package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/fps-core/internal/config"
	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/world"
)

// ErrSnapshotNotFound слот с таким ключом не сохранялся
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrInvalidKey пустой или недопустимый ключ слота
var ErrInvalidKey = errors.New("invalid snapshot key")

// SnapshotRepo хранилище снимков сцены.
// Ключ - имя слота сохранения ("autosave", "quick1", ...).
type SnapshotRepo interface {
	// Save перезаписывает слот key
	Save(ctx context.Context, key string, snap *world.Snapshot) error

	// Load возвращает ErrSnapshotNotFound, если слот пуст
	Load(ctx context.Context, key string) (*world.Snapshot, error)

	// Delete возвращает ErrSnapshotNotFound, если слот пуст
	Delete(ctx context.Context, key string) error

	// List возвращает ключи слотов в порядке возрастания
	List(ctx context.Context) ([]string, error)

	Close() error
}

func validateKey(key string) error {
	if key == "" || len(key) > 128 || strings.ContainsAny(key, " \t\n*?") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return nil
}

// Open создаёт хранилище по конфигурации
func Open(cfg config.StorageConfig) (SnapshotRepo, error) {
	logger := logging.GetStorageLogger()

	switch cfg.Backend {
	case "", "memory":
		logger.Info("💾 Хранилище снимков: memory")
		return NewMemorySnapshotRepo(), nil
	case "badger":
		repo, err := NewBadgerSnapshotRepo(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("💾 Хранилище снимков: badger (%s)", cfg.Path)
		return repo, nil
	case "redis":
		rc := DefaultRedisConfig()
		if cfg.RedisAddr != "" {
			rc.Addr = cfg.RedisAddr
		}
		repo, err := NewRedisSnapshotRepo(rc)
		if err != nil {
			return nil, err
		}
		logger.Info("💾 Хранилище снимков: redis (%s)", rc.Addr)
		return repo, nil
	case "maria":
		repo, err := NewMariaSnapshotRepo(cfg.MariaDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("💾 Хранилище снимков: maria")
		return repo, nil
	default:
		return nil, fmt.Errorf("неизвестный backend хранилища %q", cfg.Backend)
	}
}
