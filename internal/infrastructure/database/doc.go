// Package database manages the appliance's local SQLite database.
//
// The database holds the persisted device configuration (flat key/value
// rows). SQLite is used rather than a raw file because the config store
// needs atomic multi-key writes (a provisioning intake touches a dozen keys
// at once) and because WAL mode lets the debug console read state while the
// main loop writes.
//
// Schema migrations are embedded SQL files applied on startup:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
