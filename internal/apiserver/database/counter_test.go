package database

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	apperr "github.com/amoylab/taskflow/pkg/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestTableCounter_StartsAtTen(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	n, err := db.NextTaskNum(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)

	n, err = db.NextTaskNum(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 11, n)
}

func TestTableCounter_ConcurrentAllocationsAreDistinct(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	const workers, perWorker = 8, 25
	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{})
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := db.NextTaskNum(ctx)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestTableCounter_SeedsAboveExistingTasks(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	s := db.(*store)

	require.NoError(t, db.CreateTask(ctx, &Task{
		TaskNum: 500, TaskCode: "T000500", CompanyID: 1, AssignedUserID: 1,
		Category: "visits", TaskDate: "2024-05-01", Title: "imported", Status: cnst.TaskStatusTodo,
	}))
	require.NoError(t, s.counter.seed(ctx))

	n, err := db.NextTaskNum(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 501, n)

	// reseeding never moves the counter backwards
	require.NoError(t, s.counter.seed(ctx))
	n, err = db.NextTaskNum(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 502, n)
}

func TestTableCounter_RollbackInsideTransaction(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	_ = db.Transaction(ctx, func(ctx context.Context) error {
		_, err := db.NextTaskNum(ctx)
		require.NoError(t, err)
		return assert.AnError
	})
	n, err := db.NextTaskNum(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)
}

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	require.NoError(t, err)
	return gdb, mock
}

func TestSequenceCounter_SeedMovesPastExistingMax(t *testing.T) {
	gdb, mock := newMockPostgres(t)
	counter := newSequenceCounter(gdb, counterName(cnst.DatabaseTypePostgres))

	mock.ExpectExec(regexp.QuoteMeta("CREATE SEQUENCE IF NOT EXISTS task_num_seq START WITH 10 MINVALUE 1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(task_num), 0) FROM "tasks"`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT last_value, is_called FROM task_num_seq")).
		WillReturnRows(sqlmock.NewRows([]string{"last_value", "is_called"}).AddRow(10, false))
	mock.ExpectExec(regexp.QuoteMeta("SELECT setval($1, $2, true)")).
		WithArgs("task_num_seq", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, counter.seed(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceCounter_SeedLeavesFreshSequence(t *testing.T) {
	gdb, mock := newMockPostgres(t)
	counter := newSequenceCounter(gdb, cnst.TaskNumSequence)

	mock.ExpectExec(regexp.QuoteMeta("CREATE SEQUENCE IF NOT EXISTS task_num_seq")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(task_num), 0) FROM "tasks"`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT last_value, is_called FROM task_num_seq")).
		WillReturnRows(sqlmock.NewRows([]string{"last_value", "is_called"}).AddRow(10, false))

	require.NoError(t, counter.seed(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceCounter_Next(t *testing.T) {
	gdb, mock := newMockPostgres(t)
	counter := newSequenceCounter(gdb, cnst.TaskNumSequence)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval($1)")).
		WithArgs("task_num_seq").
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(43))

	n, err := counter.next(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 43, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterName(t *testing.T) {
	assert.Equal(t, "task_num_seq", counterName(cnst.DatabaseTypePostgres))
	assert.Equal(t, "task_num", counterName(cnst.DatabaseTypeMySQL))
	assert.Equal(t, "task_num", counterName(cnst.DatabaseTypeSQLite))
}

func TestGetTaskByNumForUpdate_LocksRow(t *testing.T) {
	gdb, mock := newMockPostgres(t)
	s := &store{db: gdb, cfg: &config.DatabaseConfig{Type: cnst.DatabaseTypePostgres}}

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE task_num = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_num", "task_code"}).AddRow(3, 12, "T000012"))

	task, err := s.GetTaskByNumForUpdate(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "T000012", task.TaskCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTaskByNumForUpdate_NotFound(t *testing.T) {
	db := newTestSQLite(t)
	_, err := db.GetTaskByNumForUpdate(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
