// Package database provides SQLite connectivity for Gray Logic Edge.
//
// The device keeps a small local store on its storage card: provisioned
// credentials and the schema_migrations table. This package manages:
//   - Connection with optional WAL mode
//   - Embedded schema migrations
//   - Integrity checks used to decide whether the store must be reformatted
//   - Removal of the database and its sidecar files
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database directory is 0700 and the file 0600 (owner only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.IntegrityCheck(ctx); err != nil {
//	    // reformat: db.Close(); database.Remove(path); database.Open(...)
//	}
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and live in the top-level migrations package.
package database
