package database

import (
	"context"
	"fmt"

	"github.com/amoylab/taskflow/internal/common/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMySQL creates a MySQL backed Database. Task numbers come from a
// row-locked counter in task_counters.
func NewMySQL(cfg *config.DatabaseConfig) (Database, error) {
	gormDB, err := gorm.Open(mysql.Open(cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return newTableStore(gormDB, cfg)
}

// newTableStore wires the task_counters counter used by dialects without sequences
func newTableStore(gormDB *gorm.DB, cfg *config.DatabaseConfig) (*store, error) {
	s, err := newStore(gormDB, cfg)
	if err != nil {
		return nil, err
	}
	counter := newTableCounter(gormDB, counterName(cfg.Type))
	if err := counter.seed(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to seed task counter: %w", err)
	}
	s.counter = counter
	return s, nil
}
