package stores

import (
	"fmt"
)

// NewStore creates a new message store based on the configuration. An empty
// type means persistence is disabled and (nil, nil) is returned.
func NewStore(config *StoreConfig) (MessageStore, error) {
	if config == nil || config.Type == "" || config.Type == "none" {
		return nil, nil
	}
	switch config.Type {
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
