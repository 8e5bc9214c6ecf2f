// Package cache is the durable per-device mirror of the remote data.
//
// Records are stored one row per entity in a single table keyed by
// (collection, id), tagged with the owning user and a sync status. There is
// no eviction and no expiry: shopkeeper data volumes are small and offline
// data is valid until the next successful online read overwrites it.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"dokanhisab/m/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    collection  TEXT NOT NULL,
    id          TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    payload     TEXT NOT NULL,
    sync_status TEXT NOT NULL DEFAULT 'synced',
    created_at  TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_records_owner ON records (collection, user_id);
`

// Store wraps the SQLite file backing the local mirror.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the cache database at the given DSN and applies the
// schema. Safe to call repeatedly.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record is the raw stored form of an entity, used when enumerating without
// decoding into a concrete type.
type Record struct {
	Collection string          `db:"collection"`
	ID         string          `db:"id"`
	UserID     string          `db:"user_id"`
	Payload    string          `db:"payload"`
	SyncStatus string          `db:"sync_status"`
	CreatedAt  string          `db:"created_at"`
}

// Put upserts a record by id, overwriting any previous copy.
func (s *Store) Put(collection, id, owner string, status domain.SyncStatus, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO records (collection, id, user_id, payload, sync_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, id) DO UPDATE SET
			user_id     = excluded.user_id,
			payload     = excluded.payload,
			sync_status = excluded.sync_status`,
		collection, id, owner, string(payload), string(status), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store %s record %s: %w", collection, id, err)
	}
	return nil
}

// Replace deletes a record under its old id and stores it again under a new
// one, used when the remote service assigns an authoritative id to a record
// that was created with a client-generated one.
func (s *Store) Replace(collection, oldID, newID, owner string, status domain.SyncStatus, record any) error {
	if oldID != newID {
		if _, err := s.db.Exec(`DELETE FROM records WHERE collection = $1 AND id = $2`, collection, oldID); err != nil {
			return fmt.Errorf("drop superseded %s record %s: %w", collection, oldID, err)
		}
	}
	return s.Put(collection, newID, owner, status, record)
}

// Update merges partial fields into an existing record's payload. Unknown
// records return ErrNotFound. The sync status column is refreshed when the
// partial carries a sync_status field.
func (s *Store) Update(collection, id string, partial map[string]any) error {
	var raw string
	err := s.db.Get(&raw, `SELECT payload FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("update %s record %s: %w", collection, id, ErrNotFound)
	}
	merged := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return fmt.Errorf("decode %s record %s: %w", collection, id, err)
	}
	for k, v := range partial {
		merged[k] = v
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode %s record %s: %w", collection, id, err)
	}
	if status, ok := partial["sync_status"].(string); ok {
		_, err = s.db.Exec(`UPDATE records SET payload = $1, sync_status = $2 WHERE collection = $3 AND id = $4`,
			string(payload), status, collection, id)
	} else {
		_, err = s.db.Exec(`UPDATE records SET payload = $1 WHERE collection = $2 AND id = $3`,
			string(payload), collection, id)
	}
	if err != nil {
		return fmt.Errorf("update %s record %s: %w", collection, id, err)
	}
	return nil
}

// SetStatus retags a record's sync status both in the indexed column and in
// the payload itself, keeping the two views consistent.
func (s *Store) SetStatus(collection, id string, status domain.SyncStatus) error {
	return s.Update(collection, id, map[string]any{"sync_status": string(status)})
}

// Pending returns every record for the owner still waiting for a remote
// write. Nothing in the hybrid layer walks this automatically; it exists for
// an explicit reconciliation pass or operator tooling.
func (s *Store) Pending(owner string) ([]Record, error) {
	var out []Record
	err := s.db.Select(&out, `
		SELECT collection, id, user_id, payload, sync_status, created_at
		FROM records
		WHERE user_id = $1 AND sync_status = $2
		ORDER BY created_at ASC`, owner, string(domain.SyncPending))
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	return out, nil
}

// All decodes every record of a collection belonging to the owner. Order is
// unspecified; callers apply their own domain ordering.
func All[T any](s *Store, collection, owner string) ([]T, error) {
	var rows []string
	err := s.db.Select(&rows, `
		SELECT payload FROM records WHERE collection = $1 AND user_id = $2`,
		collection, owner)
	if err != nil {
		return nil, fmt.Errorf("read %s for %s: %w", collection, owner, err)
	}
	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Get decodes a single record by id.
func Get[T any](s *Store, collection, id string) (T, error) {
	var v T
	var raw string
	err := s.db.Get(&raw, `SELECT payload FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return v, ErrNotFound
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode %s record %s: %w", collection, id, err)
	}
	return v, nil
}
