package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_widgets.up.sql": {Data: []byte(`
			CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		`)},
		"20260101_000000_widgets.down.sql": {Data: []byte(`DROP TABLE widgets;`)},
		"20260102_120000_widget_colour.up.sql": {Data: []byte(`
			ALTER TABLE widgets ADD COLUMN colour TEXT;
		`)},
		"README.md": {Data: []byte("not a migration")},
	}
}

// TestMigrate verifies migrations apply in order and are idempotent.
func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Second migration depends on the first having run.
	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (name, colour) VALUES (?, ?)", "a", "red"); err != nil {
		t.Fatalf("INSERT after migrate error = %v", err)
	}

	applied, err := db.AppliedVersions(ctx)
	if err != nil {
		t.Fatalf("AppliedVersions() error = %v", err)
	}
	want := []string{"20260101_000000", "20260102_120000"}
	if len(applied) != len(want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Errorf("applied[%d] = %q, want %q", i, applied[i], want[i])
		}
	}

	if err := db.Migrate(ctx, testMigrations()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

// TestMigrateFailureKeepsEarlier verifies a failing migration does not
// undo the ones before it.
func TestMigrateFailureKeepsEarlier(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	fsys := testMigrations()
	fsys["20260103_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE nope (")}

	if err := db.Migrate(ctx, fsys); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}

	applied, err := db.AppliedVersions(ctx)
	if err != nil {
		t.Fatalf("AppliedVersions() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %v, want the 2 valid migrations", applied)
	}
}

// TestMigrateNilFS verifies a nil filesystem only creates the tracking table.
func TestMigrateNilFS(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate(nil) error = %v", err)
	}
	applied, err := db.AppliedVersions(context.Background())
	if err != nil {
		t.Fatalf("AppliedVersions() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}
}

// TestParseMigrationFilename verifies filename parsing.
func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"20260101_000000_audit_log.up.sql", "20260101_000000", "audit_log", true},
		{"20260101_000000.up.sql", "20260101_000000", "20260101_000000", true},
		{"20260101_000000_audit_log.down.sql", "", "", false},
		{"audit.up.sql", "", "", false},
		{"notes.txt", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK || version != tt.wantVersion || name != tt.wantName {
				t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
			}
		})
	}
}
