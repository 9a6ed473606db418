// Package remote implements the client side of the cloud collection store:
// per-entity tables addressed by the owning identity, supporting fetch-all,
// idempotent upsert and bulk delete. The server is plain Postgres.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hsalif/penna/internal/ledger"
)

// Collection table names.
const (
	TableTransactions      = "transactions"
	TableCategories        = "categories"
	TableRecurringExpenses = "recurring_expenses"
)

// Store talks to a single collection table. Rows are stored as the JSON
// payload of the entity plus the owner's user id; the entity identifier is
// the primary key.
type Store[T ledger.Entity] struct {
	db    *sql.DB
	table string
}

func NewStore[T ledger.Entity](db *sql.DB, table string) *Store[T] {
	return &Store[T]{db: db, table: table}
}

// FetchAll returns every row owned by userID, oldest write first.
func (s *Store[T]) FetchAll(ctx context.Context, userID string) ([]T, error) {
	query := fmt.Sprintf(
		"SELECT payload FROM %s WHERE user_id = $1 ORDER BY updated_at ASC",
		s.table,
	)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []T

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.table, err)
		}

		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", s.table, err)
		}

		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", s.table, err)
	}

	return out, nil
}

// Upsert inserts or replaces every row by its entity identifier. Replaying
// the same rows leaves the table unchanged.
func (s *Store[T]) Upsert(ctx context.Context, userID string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	var (
		values strings.Builder
		args   = make([]any, 0, len(items)*3)
	)

	for i, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding %s row %q: %w", s.table, item.EntityID(), err)
		}

		if i > 0 {
			values.WriteString(", ")
		}

		fmt.Fprintf(&values, "($%d, $%d, $%d, NOW())", i*3+1, i*3+2, i*3+3)
		args = append(args, item.EntityID(), userID, string(payload))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, payload, updated_at)
		VALUES %s
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id, payload = EXCLUDED.payload, updated_at = NOW()
	`, s.table, values.String())

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting %s: %w", s.table, err)
	}

	return nil
}

// DeleteByIDs removes the given identifiers. Absent identifiers are not an
// error.
func (s *Store[T]) DeleteByIDs(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)

	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE user_id = $1 AND id IN (%s)",
		s.table, strings.Join(placeholders, ", "),
	)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting from %s: %w", s.table, err)
	}

	return nil
}
