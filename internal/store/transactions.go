package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/auditmagic/internal/model"
)

// Default result caps.
const (
	DefaultTransactionLimit = 1000
	RecentTransactionLimit  = 50
)

func insertTransaction(ctx context.Context, q querier, t model.Transaction) error {
	var serial sql.NullString
	if t.SerialNumber != nil {
		serial = nullString(*t.SerialNumber)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions
		   (item_type_id, transaction_type, quantity_change, quantity_before, quantity_after,
		    serial_number, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ItemTypeID, t.Type, t.QuantityChange, t.QuantityBefore, t.QuantityAfter,
		serial, t.Notes, t.CreatedBy, timestamp(now()),
	)
	if err != nil {
		return fmt.Errorf("recording %s transaction: %w", t.Type, err)
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero values mean no constraint.
type TransactionFilter struct {
	TypeIDs []int64
	From    time.Time
	To      time.Time
	Limit   int
}

// ListTransactions returns transactions newest first, joined with the type's
// name and sub-type.
func ListTransactions(ctx context.Context, database *sql.DB, f TransactionFilter) ([]model.Transaction, error) {
	var conds []string
	var args []any

	if len(f.TypeIDs) > 0 {
		conds = append(conds, `tr.item_type_id IN (`+placeholders(len(f.TypeIDs))+`)`)
		for _, id := range f.TypeIDs {
			args = append(args, id)
		}
	}
	if !f.From.IsZero() {
		conds = append(conds, `tr.created_at >= ?`)
		args = append(args, timestamp(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, `tr.created_at <= ?`)
		args = append(args, timestamp(f.To))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}

	query := `SELECT tr.id, tr.item_type_id, tr.transaction_type, tr.quantity_change,
	                 tr.quantity_before, tr.quantity_after, tr.serial_number, tr.notes,
	                 tr.created_by, tr.created_at, t.name, t.sub_type
	          FROM transactions tr
	          JOIN item_types t ON t.id = tr.item_type_id`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY tr.created_at DESC, tr.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var serial sql.NullString
		var createdBy sql.NullInt64
		if err := rows.Scan(&t.ID, &t.ItemTypeID, &t.Type, &t.QuantityChange,
			&t.QuantityBefore, &t.QuantityAfter, &serial, &t.Notes,
			&createdBy, &t.CreatedAt, &t.TypeName, &t.SubType); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.SerialNumber = stringPtr(serial)
		if createdBy.Valid {
			id := createdBy.Int64
			t.CreatedBy = &id
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListRecentTransactions returns the newest transactions across all types.
func ListRecentTransactions(ctx context.Context, database *sql.DB, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = RecentTransactionLimit
	}
	return ListTransactions(ctx, database, TransactionFilter{Limit: limit})
}

// ListTransactionsForType returns a type's transactions within [from, to].
// Zero times leave that end open.
func ListTransactionsForType(ctx context.Context, database *sql.DB, typeID int64, from, to time.Time, limit int) ([]model.Transaction, error) {
	return ListTransactions(ctx, database, TransactionFilter{
		TypeIDs: []int64{typeID},
		From:    from,
		To:      to,
		Limit:   limit,
	})
}
