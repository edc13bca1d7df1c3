package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smeazy/invoicing-backend/pkg/migrate"
)

func TestSchemaMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_invoicing_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CONSTRAINT users_username_key UNIQUE (username)",
		"CONSTRAINT users_phone_number_key UNIQUE (phone_number)",
		"CREATE TABLE IF NOT EXISTS user_stats",
		"CONSTRAINT user_stats_user_id_key UNIQUE (user_id)",
		"CREATE TABLE IF NOT EXISTS invoices",
		"CONSTRAINT invoices_invoice_number_key UNIQUE (invoice_number)",
		"FOREIGN KEY (business_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (customer_id) REFERENCES users(id) ON DELETE SET NULL",
		"CREATE TABLE IF NOT EXISTS line_items",
		"FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS line_items",
		"DROP TABLE IF EXISTS users",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
