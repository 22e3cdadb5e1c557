package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database integration tests")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Migrate runs unconditionally on every startup, so applying it to an
// already-current schema must be a clean no-op.
func TestMigrateIsIdempotent(t *testing.T) {
	db := migrateTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))
}

func TestMigrateProducesCurrentLayout(t *testing.T) {
	db := migrateTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	require.NoError(t, Migrate(ctx, db))

	expect := map[string][]string{
		"users":        {"tg_id", "phone", "blocked", "blocked_reason"},
		"events":       {"early_bird_price_girl", "regular_tier1_qty", "regular_tier2_price_girl", "status"},
		"reservations": {"code", "boys", "girls", "total_price", "hold_applied", "reviewed_by_tg_id"},
		"attendees":    {"gender", "ticket_tier", "full_name", "created_at"},
	}
	for table, columns := range expect {
		existing, err := TableColumns(ctx, db, table)
		require.NoError(t, err, table)
		for _, col := range columns {
			assert.True(t, existing[col], "%s.%s missing after migrate", table, col)
		}
	}
}
