package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/metrics"
)

func newTestRecorder(t *testing.T) (*Recorder, database.Database, *metrics.Metrics) {
	t.Helper()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	m := metrics.New(config.MetricsConfig{Namespace: "audit_test"})
	return NewRecorder(db, zap.NewNop(), m), db, m
}

func uintPtr(v uint) *uint { return &v }

func TestRecord_CommitPersists(t *testing.T) {
	r, db, m := newTestRecorder(t)
	ctx := context.Background()
	rc := actor.New(7, cnst.RoleAdmin, "10.0.0.1", "curl/8")

	err := db.Transaction(ctx, func(ctx context.Context) error {
		return r.Record(ctx, rc, cnst.ActionCreateTask, Targets{TaskID: uintPtr(3)}, Meta{cnst.MetaTaskCode: "T000010", cnst.MetaCategory: "office"})
	})
	require.NoError(t, err)

	entries, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, cnst.ActionCreateTask, e.Action)
	assert.Equal(t, uint(7), *e.ActorUserID)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Equal(t, "T000010", e.Meta[cnst.MetaTaskCode])
	assert.Equal(t, "office", e.Meta[cnst.MetaCategory])
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `audit_test_audit_entries_total{action="CREATE_TASK"} 1`)
}

func TestRecord_RollbackDiscards(t *testing.T) {
	r, db, _ := newTestRecorder(t)
	ctx := context.Background()
	boom := errors.New("mutation failed")

	err := db.Transaction(ctx, func(ctx context.Context) error {
		if err := r.Record(ctx, actor.New(1, cnst.RoleAdmin, "", ""), cnst.ActionDeleteTask, Targets{}, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecord_UnknownMetaKeyAbortsTransaction(t *testing.T) {
	r, db, _ := newTestRecorder(t)
	ctx := context.Background()

	err := db.Transaction(ctx, func(ctx context.Context) error {
		if err := db.CreateCompany(ctx, &database.Company{Slug: "acme", Name: "Acme", Active: true}); err != nil {
			return err
		}
		return r.Record(ctx, actor.System("", ""), cnst.ActionAssignCompany, Targets{}, Meta{"patient_name": "Jane"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t, []string{"patient_name"}, apperr.DetailsOf(err)["unknown_meta_keys"])

	_, err = db.GetCompanyBySlug(ctx, "acme")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecord_RejectsUnknownAction(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	err := r.Record(context.Background(), actor.System("", ""), cnst.AuditAction("REBOOT"), Targets{}, nil)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestRecord_TruncatesUserAgent(t *testing.T) {
	r, _, _ := newTestRecorder(t)
	ctx := context.Background()
	ua := strings.Repeat("a", 500)

	require.NoError(t, r.Record(ctx, actor.System("1.2.3.4", ua), cnst.ActionLogin, Targets{}, nil))
	entries, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].UserAgent, MaxUserAgent)
	assert.Nil(t, entries[0].ActorUserID)
	assert.Empty(t, entries[0].Meta)
}

func TestList_NewestFirstAndFilters(t *testing.T) {
	r, db, _ := newTestRecorder(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	r.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	task := &database.Task{
		TaskNum: 10, TaskCode: "T000010", CompanyID: 1, AssignedUserID: 2,
		Category: "office", TaskDate: "2026-03-01", Title: "Call", Status: cnst.TaskStatusTodo,
	}
	require.NoError(t, db.CreateTask(ctx, task))

	rc := actor.New(1, cnst.RoleAdmin, "", "")
	require.NoError(t, r.Record(ctx, rc, cnst.ActionLogin, Targets{}, nil))
	require.NoError(t, r.Record(ctx, rc, cnst.ActionCreateTask, Targets{TaskID: &task.ID}, Meta{cnst.MetaTaskCode: task.TaskCode}))
	require.NoError(t, r.Record(ctx, rc, cnst.ActionForceDoneTask, Targets{TaskID: &task.ID}, Meta{cnst.MetaTaskCode: task.TaskCode}))

	all, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, cnst.ActionForceDoneTask, all[0].Action)
	assert.Equal(t, cnst.ActionLogin, all[2].Action)

	byTask, err := r.List(ctx, Filter{TaskCode: "T000010"})
	require.NoError(t, err)
	assert.Len(t, byTask, 2)

	byAction, err := r.List(ctx, Filter{Action: cnst.ActionLogin})
	require.NoError(t, err)
	assert.Len(t, byAction, 1)

	limited, err := r.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	for _, code := range []string{"T999999", "t000010", "nope"} {
		none, err := r.List(ctx, Filter{TaskCode: code})
		require.NoError(t, err)
		assert.Empty(t, none, code)
	}

	_, err = r.List(ctx, Filter{Action: cnst.AuditAction("NOPE")})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, 50, clampLimit(50))
	assert.Equal(t, MaxListLimit, clampLimit(5000))
}
