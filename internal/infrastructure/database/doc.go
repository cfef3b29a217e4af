// Package database provides SQLite connectivity for IR Bridge Core.
//
// This package manages:
//   - Opening the database with WAL mode and busy timeout
//   - Schema migrations from embedded SQL files
//   - Connection lifecycle and health checks
//
// SQLite is the only persistence engine. The bridge runs on small
// single-node hardware where an embedded database with WAL mode covers
// the concurrency profile (many reads, single writer).
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
