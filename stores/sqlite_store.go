package stores

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements MessageStore for SQLite databases
type SQLiteStore struct {
	gormStore
	path string
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(config *StoreConfig) (*SQLiteStore, error) {
	if config.Type != "sqlite" {
		return nil, fmt.Errorf("invalid store type for SQLite store: %s", config.Type)
	}

	store := &SQLiteStore{path: config.Connection}
	store.gormStore = gormStore{
		name: "SQLite",
		open: func() gorm.Dialector { return sqlite.Open(store.path) },
	}

	if err := store.Connect(); err != nil {
		return nil, err
	}

	// SQLite allows a single writer; serialise access through one connection.
	if sqlDB, err := store.db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	return store, nil
}

// NewSQLiteStoreSimple creates a new SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStore(NewStoreConfig("sqlite", dbPath))
}
