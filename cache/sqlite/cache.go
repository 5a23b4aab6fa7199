package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cimnine/netbox-forager/cache"
	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/netbox/models"
)

// Store keeps snapshots in a SQLite file, one row per collection. Only the
// latest snapshot is kept.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger logger.Logger
}

var _ cache.Store = (*Store)(nil)

func New(config *cache.SQLiteConfig, ttl time.Duration, log logger.Logger) (*Store, error) {
	if config.Path == "" {
		return nil, errors.New("the sqlite cache needs a path")
	}

	db, err := sql.Open("sqlite", config.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, ttl: ttl, logger: logger.OrNoop(log)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		status JSON NOT NULL
	);

	CREATE TABLE IF NOT EXISTS collections (
		snapshot_id TEXT NOT NULL,
		collection TEXT NOT NULL,
		data JSON NOT NULL,
		PRIMARY KEY (snapshot_id, collection),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Save(ctx context.Context, snapshot *cache.Snapshot) error {
	status, err := json.Marshal(snapshot.Status)
	if err != nil {
		return fmt.Errorf("can't encode status of snapshot %s: %w", snapshot.Status.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, status) VALUES (?, ?, ?)`,
		snapshot.Status.ID, snapshot.Status.Created.Unix(), string(status),
	)
	if err != nil {
		return fmt.Errorf("can't insert snapshot %s: %w", snapshot.Status.ID, err)
	}

	for _, key := range snapshot.Collections.Keys() {
		data, err := json.Marshal(snapshot.Collections[key])
		if err != nil {
			return fmt.Errorf("can't encode %s: %w", key, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO collections (snapshot_id, collection, data) VALUES (?, ?, ?)`,
			snapshot.Status.ID, key.String(), string(data),
		)
		if err != nil {
			return fmt.Errorf("can't insert %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("Wrote snapshot to the cache.", zap.String("snapshot", snapshot.Status.ID), zap.Int("collections", len(snapshot.Collections)))

	return nil
}

func (s *Store) Load(ctx context.Context) (*cache.Snapshot, error) {
	var id, status string
	var created int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, status FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id, &created, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't read snapshot: %w", err)
	}

	if s.ttl > 0 && time.Since(time.Unix(created, 0)) > s.ttl {
		s.logger.Debug("The cached snapshot expired.", zap.String("snapshot", id), zap.Duration("ttl", s.ttl))
		return nil, cache.ErrNotFound
	}

	snapshot := &cache.Snapshot{Collections: make(models.Collections)}
	if err := json.Unmarshal([]byte(status), &snapshot.Status); err != nil {
		return nil, fmt.Errorf("can't decode status of snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT collection, data FROM collections WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("can't read collections of snapshot %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}

		key, err := models.ParseKey(name)
		if err != nil {
			return nil, err
		}

		var collection models.Collection
		if err := json.Unmarshal([]byte(data), &collection); err != nil {
			return nil, fmt.Errorf("can't decode %s of snapshot %s: %w", key, id, err)
		}
		snapshot.Collections[key] = collection
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", id, err)
	}

	return snapshot, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
