// Package database provides SQLite connectivity for the simulator's
// persistent state (currently the audit journal).
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Forward-only schema migrations read from an fs.FS
//   - In-memory databases for tests and ephemeral runs
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. Only the
// .up.sql files are applied; .down.sql files are kept for manual rollback.
package database
