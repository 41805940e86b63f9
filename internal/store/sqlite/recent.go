package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RecentStore persists one named recent list. It implements recent.Persister.
type RecentStore struct {
	db   *DB
	list string
}

// NewRecentStore creates a store for the list with the given name.
func NewRecentStore(db *DB, list string) *RecentStore {
	return &RecentStore{db: db, list: list}
}

// Load returns the list in stored order, or nil if it was never saved or has
// been erased.
func (r *RecentStore) Load(ctx context.Context) ([]string, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM recent_lists WHERE name = ?`, r.list)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query recent list %q: %w", r.list, err)
	}

	entries := []string{}
	query := `SELECT query FROM recent_entries WHERE list = ? ORDER BY position`
	if err := r.db.SelectContext(ctx, &entries, query, r.list); err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}

	return entries, nil
}

// Save replaces the stored list in a single transaction.
func (r *RecentStore) Save(ctx context.Context, entries []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	upsert := `
		INSERT INTO recent_lists (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, upsert, r.list); err != nil {
		return fmt.Errorf("upsert recent list: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recent_entries WHERE list = ?`, r.list); err != nil {
		return fmt.Errorf("delete recent entries: %w", err)
	}

	insert := `INSERT INTO recent_entries (list, position, query) VALUES (?, ?, ?)`
	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, insert, r.list, i, entry); err != nil {
			return fmt.Errorf("insert recent entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recent list: %w", err)
	}
	return nil
}

// Erase removes the list and its entries.
func (r *RecentStore) Erase(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM recent_entries WHERE list = ?`, r.list); err != nil {
		return fmt.Errorf("delete recent entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recent_lists WHERE name = ?`, r.list); err != nil {
		return fmt.Errorf("delete recent list: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit erase: %w", err)
	}
	return nil
}
