// Package storage opens the configured database driver.
package storage

import (
	"fmt"

	"github.com/promptsgo/promptsgo/internal/config"
	"github.com/promptsgo/promptsgo/internal/db"
	"github.com/promptsgo/promptsgo/internal/db/memory"
	dbRedis "github.com/promptsgo/promptsgo/internal/db/redis"
)

// Open creates the store for cfg.Driver. Valkey and Redis share the rueidis driver.
func Open(cfg *config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			ClientName: cfg.ClientName,
		})
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
		}
		return s, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
