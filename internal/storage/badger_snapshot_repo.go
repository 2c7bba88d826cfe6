package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/fps-core/internal/world"
	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "snapshot:"

// BadgerSnapshotRepo хранит снимки во встроенной BadgerDB
type BadgerSnapshotRepo struct {
	db      *badger.DB
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerSnapshotRepo открывает (или создаёт) базу в каталоге path
func NewBadgerSnapshotRepo(path string) (*BadgerSnapshotRepo, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerSnapshotRepo{db: db, isReady: true}, nil
}

func (r *BadgerSnapshotRepo) ready() error {
	if !r.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}

func (r *BadgerSnapshotRepo) Save(ctx context.Context, key string, snap *world.Snapshot) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("слот %s: %w", key, err)
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения слота %s: %w", key, err)
	}
	return nil
}

func (r *BadgerSnapshotRepo) Load(ctx context.Context, key string) (*world.Snapshot, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки слота %s: %w", key, err)
	}

	return DecodeSnapshot(data)
}

func (r *BadgerSnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return err
	}

	k := []byte(badgerKeyPrefix + key)
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления слота %s: %w", key, err)
	}
	return nil
}

// List перебирает ключи по префиксу; BadgerDB отдаёт их отсортированными
func (r *BadgerSnapshotRepo) List(ctx context.Context) ([]string, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if err := r.ready(); err != nil {
		return nil, err
	}

	var keys []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления слотов: %w", err)
	}
	return keys, nil
}

// Close закрывает базу
func (r *BadgerSnapshotRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}
	r.isReady = false
	return r.db.Close()
}
