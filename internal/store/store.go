package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// now is the store clock. Tests replace it.
var now = func() time.Time { return time.Now().UTC() }

// timeLayout is fixed width so that stored timestamps sort lexically in
// chronological order.
const timeLayout = "2006-01-02 15:04:05.000000"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// withTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back on every other path, including panics.
func withTx(ctx context.Context, database *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: beginning transaction: %w", op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) || errors.Is(err, ErrNotFound) {
			slog.Debug("transaction rolled back", "op", op, "reason", err.Error())
		} else {
			slog.Error("transaction rolled back", "op", op, "error", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Error("commit failed", "op", op, "error", err)
		return fmt.Errorf("%s: committing: %w", op, err)
	}
	return nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// stringPtr maps a NullString to *string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
