// Package dbtest opens throwaway SQLite databases for repository and service
// tests. The schema below mirrors the Postgres migrations table for table;
// those migrations use Postgres types and cannot run on SQLite.
package dbtest

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS merchants (
  id TEXT PRIMARY KEY,
  shop_domain TEXT NOT NULL UNIQUE,
  threshold NUMERIC NOT NULL DEFAULT 0,
  billing_plan TEXT NOT NULL DEFAULT 'STANDARD',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS entries (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
  order_id TEXT NOT NULL UNIQUE,
  customer_id TEXT,
  customer_email TEXT NOT NULL,
  customer_name TEXT,
  order_amount NUMERIC NOT NULL,
  period TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
  order_id TEXT NOT NULL UNIQUE,
  fee_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS prize_pools (
  id TEXT PRIMARY KEY,
  period TEXT NOT NULL UNIQUE,
  current_amount NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS prize_pool_contributions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  period TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  created_at DATETIME
);`}

// Open returns an isolated in-memory database named after the running test.
// The pool is capped at one connection, so concurrency tests against it only
// show that concurrent callers agree; pair them with CaptureInserts to check
// the statements themselves.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// CaptureInserts records the SQL of every INSERT issued through conn from now
// on. The returned func lists the statements seen so far.
func CaptureInserts(t *testing.T, conn *gorm.DB) func() []string {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []string
	)
	err := conn.Callback().Create().After("gorm:create").Register("dbtest:capture_inserts", func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("register capture callback: %v", err)
	}
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

// InsertInto returns the captured statements that insert into table.
func InsertInto(statements []string, table string) []string {
	var out []string
	for _, stmt := range statements {
		if strings.HasPrefix(stmt, "INSERT INTO `"+table+"`") || strings.HasPrefix(stmt, `INSERT INTO "`+table+`"`) {
			out = append(out, stmt)
		}
	}
	return out
}
