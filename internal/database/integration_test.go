package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	tables := []string{
		"users", "sessions", "sermons", "sermon_notes", "events", "meetings",
		"prayers", "posts", "comments", "likes", "notifications", "conversations",
		"messages", "small_groups", "settings",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running twice is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	now := time.Now().UTC()

	err := db.WithTx(func(tx *Tx) error {
		_, err := tx.Exec("INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			"u1", "one@example.com", "One", now, now)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	err = db.WithTx(func(tx *Tx) error {
		if _, err := tx.Exec("INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			"u2", "two@example.com", "Two", now, now); err != nil {
			return err
		}
		// Duplicate email forces a rollback
		_, err := tx.Exec("INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			"u3", "two@example.com", "Three", now, now)
		return err
	})
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user after rollback, got %d", count)
	}
}

func TestUpsertAgainstSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	query := db.Dialect.UpsertQuery("settings",
		[]string{"setting_key", "setting_value", "updated_at"},
		[]string{"setting_key"},
		[]string{"setting_value", "updated_at"})

	for _, value := range []string{"first", "second"} {
		if _, err := db.Exec(query, "verse", value, time.Now().UTC()); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	var value string
	if err := db.QueryRow("SELECT setting_value FROM settings WHERE setting_key = ?", "verse").Scan(&value); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if value != "second" {
		t.Errorf("expected upsert to update value, got %q", value)
	}
}
