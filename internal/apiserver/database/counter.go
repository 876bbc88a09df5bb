package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoylab/taskflow/internal/common/cnst"

	"gorm.io/gorm"
)

// firstTaskNum is the number handed out by an empty store
const firstTaskNum int64 = 10

// taskNumCounter hands out task numbers from the relational store
type taskNumCounter interface {
	// seed moves the counter above every task number already in use
	seed(ctx context.Context) error
	next(ctx context.Context) (int64, error)
}

// sequenceCounter draws numbers from a PostgreSQL sequence. nextval is
// atomic across sessions and is never rolled back.
type sequenceCounter struct {
	db   *gorm.DB
	name string
}

func newSequenceCounter(db *gorm.DB, name string) *sequenceCounter {
	return &sequenceCounter{db: db, name: name}
}

func (c *sequenceCounter) seed(ctx context.Context) error {
	db := c.db.WithContext(ctx)
	create := fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH %d MINVALUE 1", c.name, firstTaskNum)
	if err := db.Exec(create).Error; err != nil {
		return fmt.Errorf("failed to create sequence %s: %w", c.name, err)
	}

	max, err := maxTaskNum(db)
	if err != nil {
		return fmt.Errorf("failed to read max task number: %w", err)
	}

	var state sequenceState
	query := fmt.Sprintf("SELECT last_value, is_called FROM %s", c.name)
	if err := db.Raw(query).Scan(&state).Error; err != nil {
		return fmt.Errorf("failed to read sequence %s: %w", c.name, err)
	}
	upcoming := state.LastValue
	if state.IsCalled {
		upcoming++
	}
	if max < upcoming {
		return nil
	}
	return db.Exec("SELECT setval(?, ?, true)", c.name, max).Error
}

func (c *sequenceCounter) next(ctx context.Context) (int64, error) {
	var n int64
	err := getDBFromContext(ctx, c.db).Raw("SELECT nextval(?)", c.name).Scan(&n).Error
	return n, err
}

type sequenceState struct {
	LastValue int64
	IsCalled  bool
}

// tableCounter keeps the last issued number in a task_counters row. The
// increment and the read happen in one transaction, so the row lock makes
// them atomic against concurrent allocators.
type tableCounter struct {
	db   *gorm.DB
	name string
}

func newTableCounter(db *gorm.DB, name string) *tableCounter {
	return &tableCounter{db: db, name: name}
}

func (c *tableCounter) seed(ctx context.Context) error {
	return runInTransaction(ctx, c.db, func(ctx context.Context) error {
		db := getDBFromContext(ctx, c.db)
		max, err := maxTaskNum(db)
		if err != nil {
			return fmt.Errorf("failed to read max task number: %w", err)
		}
		floor := max
		if floor < firstTaskNum-1 {
			floor = firstTaskNum - 1
		}

		var row TaskCounter
		err = db.Where("name = ?", c.name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(&TaskCounter{Name: c.name, Value: floor}).Error
		}
		if err != nil {
			return err
		}
		if row.Value >= floor {
			return nil
		}
		return db.Model(&TaskCounter{}).Where("name = ?", c.name).Update("value", floor).Error
	})
}

func (c *tableCounter) next(ctx context.Context) (int64, error) {
	var n int64
	err := runInTransaction(ctx, c.db, func(ctx context.Context) error {
		db := getDBFromContext(ctx, c.db)
		res := db.Model(&TaskCounter{}).Where("name = ?", c.name).
			Update("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("task counter %q is not seeded", c.name)
		}
		return db.Model(&TaskCounter{}).Select("value").Where("name = ?", c.name).Scan(&n).Error
	})
	return n, err
}

// counterName returns the counter identifier used by each dialect
func counterName(dialect string) string {
	if dialect == cnst.DatabaseTypePostgres {
		return cnst.TaskNumSequence
	}
	return cnst.TaskNumCounter
}
