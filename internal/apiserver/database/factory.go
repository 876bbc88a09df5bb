package database

import (
	"fmt"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database based on configuration
func NewDatabase(cfg *config.DatabaseConfig) (Database, error) {
	switch cfg.Type {
	case cnst.DatabaseTypePostgres:
		return NewPostgres(cfg)
	case cnst.DatabaseTypeSQLite:
		return NewSQLite(cfg)
	case cnst.DatabaseTypeMySQL:
		return NewMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
}
