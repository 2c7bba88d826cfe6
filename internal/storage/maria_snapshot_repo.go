package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/annel0/fps-core/internal/world"
	_ "github.com/go-sql-driver/mysql"
)

// MariaSnapshotRepo хранит снимки в таблице scene_snapshots MariaDB/MySQL
type MariaSnapshotRepo struct {
	db *sql.DB
}

// NewMariaSnapshotRepo подключается по dsn (user:pass@tcp(host:port)/dbname)
// и создаёт таблицу, если её нет.
func NewMariaSnapshotRepo(dsn string) (*MariaSnapshotRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := NewMariaSnapshotRepoWithDB(db)
	if err := repo.createTable(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// NewMariaSnapshotRepoWithDB использует готовое подключение; таблица должна существовать
func NewMariaSnapshotRepoWithDB(db *sql.DB) *MariaSnapshotRepo {
	return &MariaSnapshotRepo{db: db}
}

func (r *MariaSnapshotRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS scene_snapshots (
			slot       VARCHAR(128) PRIMARY KEY,
			scene      VARCHAR(128) NOT NULL,
			tick       BIGINT UNSIGNED NOT NULL,
			data       MEDIUMBLOB   NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы scene_snapshots: %w", err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE
func (r *MariaSnapshotRepo) Save(ctx context.Context, key string, snap *world.Snapshot) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("слот %s: %w", key, err)
	}

	query := `
		INSERT INTO scene_snapshots (slot, scene, tick, data)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			scene = VALUES(scene),
			tick = VALUES(tick),
			data = VALUES(data),
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, key, snap.Scene, snap.Tick, data); err != nil {
		return fmt.Errorf("ошибка сохранения слота %s: %w", key, err)
	}
	return nil
}

func (r *MariaSnapshotRepo) Load(ctx context.Context, key string) (*world.Snapshot, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM scene_snapshots WHERE slot = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки слота %s: %w", key, err)
	}

	return DecodeSnapshot(data)
}

func (r *MariaSnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM scene_snapshots WHERE slot = ?`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления слота %s: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	return nil
}

func (r *MariaSnapshotRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT slot FROM scene_snapshots ORDER BY slot`)
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления слотов: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("ошибка чтения слота: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close закрывает соединение с базой данных
func (r *MariaSnapshotRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
