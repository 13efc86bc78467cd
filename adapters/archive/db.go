package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"tamperstat/internal/errors"
	"tamperstat/internal/migration"
)

// Open connects to the archive database and brings its schema up to date.
// driver is "sqlite3" or "postgres".
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported archive driver %q", driver))
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.StorageError("connect", err)
	}
	if driver == "sqlite3" && strings.Contains(dsn, ":memory:") {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
