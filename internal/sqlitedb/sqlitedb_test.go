package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"migrations/001_init.sql":  {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);")},
		"migrations/002_extra.sql": {Data: []byte("ALTER TABLE notes ADD COLUMN tag TEXT;")},
		"migrations/README.md":     {Data: []byte("ignored")},
	}
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := Open(ctx, dbPath, testMigrations(), "migrations")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO notes (body, tag) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(ctx, dbPath, testMigrations(), "migrations")
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer db.Close()

	versions, err := AppliedVersions(ctx, db)
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	if len(versions) != 2 || versions[0] != "001_init" || versions[1] != "002_extra" {
		t.Fatalf("unexpected versions %v", versions)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM notes").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected data to survive reopen, got %d rows", count)
	}
}

func TestOpenFailsOnBrokenMigration(t *testing.T) {
	fsys := fstest.MapFS{"migrations/001_bad.sql": {Data: []byte("CREATE TABLE (")}}
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "bad.db"), fsys, "migrations"); err == nil {
		t.Fatal("expected migration error")
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	if _, err := LoadMigrations(fstest.MapFS{}, "migrations"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
