package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: report and list queries filter on completion and creation
	// time, and line lookups go through the owning transfer.
	`CREATE INDEX IF NOT EXISTS idx_transfers_completed_created
	     ON transfers(completed, date_created)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_items_transfer
	     ON transfer_items(transfer_id)`,

	// Migration 2: location and item delete guards look up references.
	`CREATE INDEX IF NOT EXISTS idx_transfers_from_location
	     ON transfers(from_location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_to_location
	     ON transfers(to_location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_items_item
	     ON transfer_items(item_id)`,
}

func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
