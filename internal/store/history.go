package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/auditmagic/internal/model"
)

// MaxSearchHistory is how many distinct searches are remembered.
const MaxSearchHistory = 5

const historyColumns = `id, search_query, search_field, searched_at`

// AddSearchHistory records a search. Repeating a (query, field) pair moves it
// to the top instead of adding a row. Only the newest MaxSearchHistory entries
// are kept.
func AddSearchHistory(ctx context.Context, database *sql.DB, query, field string) (*model.SearchHistory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("Search query is required")
	}

	var entry *model.SearchHistory
	err := withTx(ctx, database, "add search history", func(tx *sql.Tx) error {
		ts := timestamp(now())

		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM search_history
			 WHERE search_query = ? AND COALESCE(search_field, '') = ?`,
			query, field,
		).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO search_history (search_query, search_field, searched_at) VALUES (?, ?, ?)`,
				query, nullString(field), ts,
			)
			if err != nil {
				return fmt.Errorf("adding search history: %w", err)
			}
			if id, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("getting search history id: %w", err)
			}
		case err != nil:
			return fmt.Errorf("checking search history: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE search_history SET searched_at = ? WHERE id = ?`, ts, id,
			); err != nil {
				return fmt.Errorf("touching search history: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM search_history WHERE id NOT IN (
			   SELECT id FROM search_history ORDER BY searched_at DESC, id DESC LIMIT ?
			 )`, MaxSearchHistory,
		); err != nil {
			return fmt.Errorf("pruning search history: %w", err)
		}

		entry, err = scanHistory(tx.QueryRowContext(ctx,
			`SELECT `+historyColumns+` FROM search_history WHERE id = ?`, id,
		))
		if err != nil {
			return fmt.Errorf("reading search history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func scanHistory(s rowScanner) (*model.SearchHistory, error) {
	h := &model.SearchHistory{}
	var field sql.NullString
	if err := s.Scan(&h.ID, &h.Query, &field, &h.SearchedAt); err != nil {
		return nil, err
	}
	h.Field = stringPtr(field)
	return h, nil
}

// ListSearchHistory returns remembered searches, most recent first.
func ListSearchHistory(ctx context.Context, database *sql.DB, limit int) ([]model.SearchHistory, error) {
	if limit <= 0 {
		limit = MaxSearchHistory
	}
	rows, err := database.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM search_history
		 ORDER BY searched_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing search history: %w", err)
	}
	defer rows.Close()

	var out []model.SearchHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search history: %w", err)
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// ClearSearchHistory forgets every remembered search.
func ClearSearchHistory(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
		return fmt.Errorf("clearing search history: %w", err)
	}
	return nil
}
