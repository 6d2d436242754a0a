package sqlitedb

import (
	"database/sql"
	"path/filepath"
	"testing"
)

var testMigrations = []Migration{
	{Version: 2, Description: "add notes", SQL: `ALTER TABLE things ADD COLUMN notes TEXT;`},
	{Version: 1, Description: "things table", SQL: `CREATE TABLE IF NOT EXISTS things (id TEXT PRIMARY KEY);`},
}

func testRawDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn, err := DSN(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateFreshDBInVersionOrder(t *testing.T) {
	db := testRawDB(t)

	if err := Migrate(db, testMigrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	version, err := CurrentVersion(db)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}

	if _, err := db.Exec("INSERT INTO things (id, notes) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("expected migrated columns: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := testRawDB(t)
	if err := Migrate(db, testMigrations); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Migrate(db, testMigrations); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestMigrateRollsBackFailedStep(t *testing.T) {
	db := testRawDB(t)
	broken := []Migration{
		{Version: 1, Description: "ok", SQL: `CREATE TABLE ok_table (id TEXT);`},
		{Version: 2, Description: "broken", SQL: `CREATE TABLE nope (`},
	}
	if err := Migrate(db, broken); err == nil {
		t.Fatal("expected migration error")
	}
	version, err := CurrentVersion(db)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1 after failed step, got %d", version)
	}
}

func TestPlan(t *testing.T) {
	db := testRawDB(t)

	status, err := Plan(db, testMigrations)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if status.CurrentVersion != 0 || status.AvailableVersion != 2 || len(status.Pending) != 2 {
		t.Fatalf("unexpected fresh plan: %#v", status)
	}
	if status.Pending[0].Version != 1 {
		t.Fatalf("expected pending sorted by version, got %#v", status.Pending)
	}

	if err := Migrate(db, testMigrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	status, err = Plan(db, testMigrations)
	if err != nil {
		t.Fatalf("plan after migrate: %v", err)
	}
	if status.CurrentVersion != 2 || len(status.Pending) != 0 {
		t.Fatalf("unexpected plan after migrate: %#v", status)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("", testMigrations); err == nil {
		t.Fatal("expected error for empty path")
	}
}
