package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var migrations = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS chats (
            id TEXT PRIMARY KEY,
            owner_id INT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            pinned BOOLEAN NOT NULL DEFAULT FALSE,
            archived BOOLEAN NOT NULL DEFAULT FALSE,
            is_public BOOLEAN NOT NULL DEFAULT FALSE,
            hidden BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS chats_owner_activity_idx ON chats (owner_id, last_activity_at DESC);`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS chats (
            id TEXT PRIMARY KEY,
            owner_id INTEGER NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            pinned BOOLEAN NOT NULL DEFAULT FALSE,
            archived BOOLEAN NOT NULL DEFAULT FALSE,
            is_public BOOLEAN NOT NULL DEFAULT FALSE,
            hidden BOOLEAN NOT NULL DEFAULT FALSE,
            created_at DATETIME NOT NULL,
            last_activity_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS chats_owner_activity_idx ON chats (owner_id, last_activity_at DESC);`,
	},
}

// Connect opens the database for driver and runs migrations.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if _, ok := migrations[driver]; !ok {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and writes serialized
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for driver. It is safe to run repeatedly.
func Migrate(db *sqlx.DB, driver string) error {
	stmts, ok := migrations[driver]
	if !ok {
		return fmt.Errorf("unsupported db driver %q", driver)
	}
	for _, m := range stmts {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Printf("database migrations applied driver=%s", driver)
	return nil
}
