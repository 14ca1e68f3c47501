// Package database opens the SQLite file that backs the controller event
// journal and applies its schema migrations.
//
// Migrations are read from an fs.FS (normally the embedded migrations
// package) and recorded in a schema_migrations table:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
