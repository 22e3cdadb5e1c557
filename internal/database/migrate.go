package database

import (
	"context"
	"database/sql"
	"fmt"
)

// addColumn describes one column the current layout expects, together
// with the ALTER definition used when an older table is missing it.
// New columns are added NULL-able (or with a safe default) so the ALTER
// succeeds on populated tables; backfills then fill the gap exactly
// once.
type addColumn struct {
	name string
	def  string
}

var migrationColumns = map[string][]addColumn{
	"users": {
		{"phone", "VARCHAR(32) NOT NULL DEFAULT ''"},
		{"blocked", "TINYINT(1) NOT NULL DEFAULT 0"},
		{"blocked_reason", "TEXT NULL"},
	},
	"events": {
		{"caption", "TEXT NULL"},
		{"photo_file_id", "VARCHAR(255) NOT NULL DEFAULT ''"},
		{"early_bird_price_girl", "DOUBLE NULL"},
		{"regular_tier1_price", "DOUBLE NULL"},
		{"regular_tier1_price_girl", "DOUBLE NULL"},
		{"regular_tier1_qty", "INT NULL"},
		{"regular_tier2_price", "DOUBLE NULL"},
		{"regular_tier2_price_girl", "DOUBLE NULL"},
		{"regular_tier2_qty", "INT NULL"},
	},
	"reservations": {
		{"boys", "INT NOT NULL DEFAULT 0"},
		{"girls", "INT NOT NULL DEFAULT 0"},
		{"total_price", "DOUBLE NOT NULL DEFAULT 0"},
		{"payment_file_id", "VARCHAR(255) NOT NULL DEFAULT ''"},
		{"payment_file_type", "VARCHAR(32) NOT NULL DEFAULT ''"},
		{"admin_note", "TEXT NULL"},
		{"reviewed_at", "DATETIME NULL"},
		{"reviewed_by_tg_id", "BIGINT NULL"},
		{"hold_applied", "TINYINT(1) NULL"},
	},
	"attendees": {
		{"name", "VARCHAR(128) NULL"},
		{"surname", "VARCHAR(128) NULL"},
		{"full_name", "VARCHAR(255) NULL"},
		{"gender", "VARCHAR(16) NOT NULL DEFAULT 'unknown'"},
		{"ticket_tier", "VARCHAR(16) NULL"},
		{"created_at", "DATETIME NULL"},
	},
}

// backfills run after every missing column has been added.  Each
// statement is guarded (WHERE ... IS NULL or = '') so it fills a value
// exactly once and never overwrites data a previous run, or an admin,
// already wrote.  Statements referencing legacy columns are applied
// only when those columns exist.
type backfill struct {
	table    string
	requires []string // legacy columns that must be present
	stmt     string
}

var backfills = []backfill{
	// A legacy flat price seeds both gender prices of the early tier.
	{"events", nil,
		`UPDATE events SET early_bird_price_girl = early_bird_price WHERE early_bird_price_girl IS NULL`},
	// Pre-tier schemas carried one regular price and one capacity; they
	// seed regular tier-1.  Tier-2 starts empty.
	{"events", []string{"regular_price"},
		`UPDATE events SET regular_tier1_price = regular_price WHERE regular_tier1_price IS NULL`},
	{"events", []string{"regular_price"},
		`UPDATE events SET regular_tier1_price_girl = regular_price WHERE regular_tier1_price_girl IS NULL`},
	{"events", []string{"capacity"},
		`UPDATE events SET regular_tier1_qty = COALESCE(capacity, 0) WHERE regular_tier1_qty IS NULL`},
	{"events", nil,
		`UPDATE events SET regular_tier1_price = 0 WHERE regular_tier1_price IS NULL`},
	{"events", nil,
		`UPDATE events SET regular_tier1_price_girl = regular_tier1_price WHERE regular_tier1_price_girl IS NULL`},
	{"events", nil,
		`UPDATE events SET regular_tier1_qty = 0 WHERE regular_tier1_qty IS NULL`},
	{"events", nil,
		`UPDATE events SET regular_tier2_price = 0, regular_tier2_price_girl = 0, regular_tier2_qty = 0
		 WHERE regular_tier2_price IS NULL OR regular_tier2_price_girl IS NULL OR regular_tier2_qty IS NULL`},
	{"events", nil,
		`UPDATE events SET caption = '' WHERE caption IS NULL`},

	// Rows that predate hold tracking: an active reservation holds
	// inventory, a finalized one does not.
	{"reservations", nil,
		`UPDATE reservations SET hold_applied = CASE
			WHEN LOWER(TRIM(status)) IN ('pending_review','pending','reserved','awaiting_review',
			                             'approved','paid','confirmed','entered') THEN 1
			ELSE 0 END
		 WHERE hold_applied IS NULL`},
	// Legacy rows priced per ticket; total = price * quantity.
	{"reservations", []string{"price_per_ticket"},
		`UPDATE reservations SET total_price = price_per_ticket * quantity
		 WHERE total_price = 0 AND price_per_ticket > 0`},

	// Combined and split name columns seed each other, whichever way
	// the legacy table was shaped.
	{"attendees", nil,
		`UPDATE attendees SET full_name = TRIM(CONCAT(COALESCE(name, ''), ' ', COALESCE(surname, '')))
		 WHERE (full_name IS NULL OR full_name = '') AND COALESCE(name, '') <> ''`},
	{"attendees", nil,
		`UPDATE attendees SET
			name = SUBSTRING_INDEX(full_name, ' ', 1),
			surname = TRIM(SUBSTRING(full_name, LENGTH(SUBSTRING_INDEX(full_name, ' ', 1)) + 2))
		 WHERE (name IS NULL OR name = '') AND COALESCE(full_name, '') <> ''`},
	{"attendees", nil,
		`UPDATE attendees SET name = COALESCE(name, ''), surname = COALESCE(surname, ''),
			full_name = COALESCE(full_name, '')
		 WHERE name IS NULL OR surname IS NULL OR full_name IS NULL`},
	// An attendee's tier seeds from its reservation's display tier:
	// pre-migration rows cannot have spilled, so the mapping is exact.
	{"attendees", nil,
		`UPDATE attendees a JOIN reservations r ON r.id = a.reservation_id
		 SET a.ticket_tier = r.ticket_type
		 WHERE a.ticket_tier IS NULL OR a.ticket_tier = ''`},
	{"attendees", nil,
		`UPDATE attendees SET ticket_tier = '' WHERE ticket_tier IS NULL`},
	{"attendees", nil,
		`UPDATE attendees a JOIN reservations r ON r.id = a.reservation_id
		 SET a.created_at = r.created_at WHERE a.created_at IS NULL`},
	{"attendees", nil,
		`UPDATE attendees SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL`},
}

// Migrate brings an existing database forward to the current layout:
// create missing tables, add missing columns, backfill derived values.
// It never drops or rewrites existing data, and running it on an
// up-to-date store is a no-op, so it is called unconditionally on every
// startup.  Any error here is fatal to the caller: the store must not
// open half-migrated.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := CreateTables(ctx, db); err != nil {
		return err
	}

	for table, columns := range migrationColumns {
		existing, err := TableColumns(ctx, db, table)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		for _, col := range columns {
			if existing[col.name] {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col.name, col.def)
			if _, err := db.ExecContext(ctx, alter); err != nil {
				return fmt.Errorf("add %s.%s: %w", table, col.name, err)
			}
		}
	}

	for _, b := range backfills {
		if len(b.requires) > 0 {
			existing, err := TableColumns(ctx, db, b.table)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", b.table, err)
			}
			missing := false
			for _, req := range b.requires {
				if !existing[req] {
					missing = true
					break
				}
			}
			if missing {
				continue
			}
		}
		if _, err := db.ExecContext(ctx, b.stmt); err != nil {
			return fmt.Errorf("backfill %s: %w", b.table, err)
		}
	}
	return nil
}

// TableColumns returns the set of column names currently present on a
// table in the connected schema.
func TableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	const q = `SELECT COLUMN_NAME FROM information_schema.COLUMNS
	           WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`
	rows, err := db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
