package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: sub_type used to be nullable; the registry keys on
	// (name, sub_type) so NULL and '' must be the same value.
	`UPDATE item_types SET sub_type = '' WHERE sub_type IS NULL`,
	// Migration 2: transactions whose type was removed before the
	// item_type_id column became mandatory have nothing to point at.
	`DELETE FROM transactions WHERE item_type_id NOT IN (SELECT id FROM item_types)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
