package stores

import (
	"fmt"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresStore implements MessageStore for PostgreSQL databases
type PostgresStore struct {
	gormStore
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store. The "max_open_conns"
// option caps the connection pool.
func NewPostgresStore(config *StoreConfig) (*PostgresStore, error) {
	if config.Type != "postgres" {
		return nil, fmt.Errorf("invalid store type for PostgreSQL store: %s", config.Type)
	}

	maxOpen := 0
	if v, ok := config.Options["max_open_conns"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid max_open_conns %q", v)
		}
		maxOpen = n
	}

	store := &PostgresStore{dsn: config.Connection}
	store.gormStore = gormStore{
		name: "PostgreSQL",
		open: func() gorm.Dialector { return postgres.Open(store.dsn) },
	}

	if err := store.Connect(); err != nil {
		return nil, err
	}

	if maxOpen > 0 {
		if sqlDB, err := store.db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(maxOpen)
		}
	}

	return store, nil
}
