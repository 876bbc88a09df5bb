package database

import (
	"context"
	"fmt"

	"github.com/amoylab/taskflow/internal/common/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgres creates a PostgreSQL backed Database. Task numbers come from
// the task_num_seq sequence.
func NewPostgres(cfg *config.DatabaseConfig) (Database, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.GetDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newPostgresStore(gormDB, cfg)
}

func newPostgresStore(gormDB *gorm.DB, cfg *config.DatabaseConfig) (*store, error) {
	s, err := newStore(gormDB, cfg)
	if err != nil {
		return nil, err
	}
	counter := newSequenceCounter(gormDB, counterName(cfg.Type))
	if err := counter.seed(context.Background()); err != nil {
		return nil, err
	}
	s.counter = counter
	return s, nil
}
