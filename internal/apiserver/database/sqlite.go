package database

import (
	"fmt"

	"github.com/amoylab/taskflow/internal/common/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewSQLite creates a SQLite backed Database.
//
// SQLite allows a single writer, and every connection to ":memory:" opens a
// separate database, so the pool is limited to one connection. Everything
// issued inside a Transaction must therefore go through the ctx transaction.
func NewSQLite(cfg *config.DatabaseConfig) (Database, error) {
	gormDB, err := gorm.Open(sqlite.Open(cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return newTableStore(gormDB, cfg)
}
