package remote

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the collection tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{TableTransactions, TableCategories, TableRecurringExpenses} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				payload JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)
		`, table)

		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("creating table %s: %w", table, err)
		}

		index := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s_user_id_idx ON %s (user_id)",
			table, table,
		)

		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("indexing table %s: %w", table, err)
		}
	}

	return nil
}
