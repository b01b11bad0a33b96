package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error)
}

func createAccountsTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT 'Guest',
		profile_picture_url TEXT,
		gender TEXT NOT NULL DEFAULT 'Unset',
		age INTEGER NOT NULL DEFAULT 3,
		current_plan TEXT NOT NULL DEFAULT 'Free',
		activated INTEGER NOT NULL DEFAULT 0,
		token TEXT,
		token_expire DATETIME NOT NULL,
		verification_code INTEGER,
		code_expire DATETIME,
		parent_password TEXT,
		reset_verified BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createSubscriptionTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		plan TEXT NOT NULL,
		status BOOLEAN NOT NULL DEFAULT 1,
		expire_at DATETIME,
		auto_renew BOOLEAN NOT NULL DEFAULT 0,
		next_billing_date DATETIME,
		next_billing_method TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE subscription_history (
		id TEXT PRIMARY KEY,
		sub_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		pre_plan TEXT NOT NULL,
		new_plan TEXT NOT NULL,
		created_at DATETIME
	);`)
}

func createProcessedEventsTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	mustExec(t, db, `CREATE TABLE processed_events (
		event_id TEXT PRIMARY KEY,
		created_at DATETIME
	);`)
}
