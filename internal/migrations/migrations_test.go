package migrations_test

import (
	"context"
	"testing"

	"github.com/houseparty/houseparty/internal/database"
	"github.com/houseparty/houseparty/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, database.SQLite.Dialect()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{"parties", "guests", "games", "predictions", "squares_grids", "square_claims"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}

	v, err := migrations.Version(db, database.SQLite.Dialect())
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, "sqlite3"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db, "sqlite3"); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
