// Package database provides SQLite connectivity for the panel bridge.
//
// This package manages:
//   - Opening the database with WAL mode and a busy timeout
//   - Forward and rollback migrations read from an fs.FS
//   - Health checks
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be NULLABLE or have a
// DEFAULT, and every .up.sql should ship with a .down.sql.
package database
