package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestMigrationsDefineCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var combined strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		combined.Write(b)
	}
	sql := combined.String()

	for _, table := range []string{
		"registries",
		"registry_items",
		"registry_purchases",
		"group_gift_contributions",
		"registry_activities",
		"outbox_events",
		"outbox_dlq",
	} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Errorf("missing CREATE TABLE %s", table)
		}
	}

	// Load-bearing constraints.
	if !strings.Contains(sql, "registry_purchases_order_line_item_key UNIQUE (order_id, line_item_id)") {
		t.Errorf("missing purchase idempotency constraint")
	}
	if !strings.Contains(sql, "registries_shop_slug_key UNIQUE (shop_id, slug)") {
		t.Errorf("missing registry slug constraint")
	}
	if !strings.Contains(sql, "quantity_purchased INTEGER NOT NULL DEFAULT 0 CHECK (quantity_purchased >= 0)") {
		t.Errorf("missing quantity_purchased check")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Wish Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, "_add_wish_notes.sql") {
		t.Fatalf("unexpected filename %q", base)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("ValidateDir on created migration: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatalf("expected error for unsanitizable name")
	}
}
