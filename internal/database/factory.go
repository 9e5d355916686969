package database

import (
	"fmt"
	"path/filepath"

	"tc-go/internal/config"
	"tc-go/internal/tc"
)

// NewCatalogFromConfig creates a Catalog implementation based on the database config type.
func NewCatalogFromConfig(cfg config.DatabaseConfig) (tc.Catalog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteCatalog(filepath.Join(cfg.DataDir, "catalog.db"))
	case "memory":
		return NewSQLiteCatalog(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
