package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/annel0/fps-core/internal/logging"
	"github.com/annel0/fps-core/internal/world"
	"github.com/go-redis/redis/v8"
)

// RedisSnapshotRepo хранит снимки в Redis строками с префиксом
type RedisSnapshotRepo struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // 0 - без срока жизни
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "fps:snapshot:",
	}
}

// NewRedisSnapshotRepo подключается к Redis и проверяет соединение
func NewRedisSnapshotRepo(config *RedisConfig) (*RedisSnapshotRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", config.Addr)
	return NewRedisSnapshotRepoWithClient(client, config.KeyPrefix, config.TTL), nil
}

// NewRedisSnapshotRepoWithClient использует готовый клиент
func NewRedisSnapshotRepoWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisSnapshotRepo {
	return &RedisSnapshotRepo{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisSnapshotRepo) Save(ctx context.Context, key string, snap *world.Snapshot) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("слот %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.keyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

func (r *RedisSnapshotRepo) Load(ctx context.Context, key string) (*world.Snapshot, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	return DecodeSnapshot(data)
}

func (r *RedisSnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	n, err := r.client.Del(ctx, r.keyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	return nil
}

// List обходит ключи через SCAN, чтобы не блокировать сервер
func (r *RedisSnapshotRepo) List(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan snapshots: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (r *RedisSnapshotRepo) Close() error {
	return r.client.Close()
}
