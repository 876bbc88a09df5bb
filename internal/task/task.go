// Package task owns the task lifecycle: bulk creation, lookup by code,
// time-windowed listings, completion, administrative overrides and
// soft deletion. Every mutation is authorized, written and audited in one
// transaction; notifications are published only after it commits.
package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/ident"
	"github.com/amoylab/taskflow/internal/notify"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/metrics"
)

const (
	// DefaultCategory is used when a create request names none
	DefaultCategory = "general"
	// DefaultMaxBatch caps the assignees of one bulk create
	DefaultMaxBatch = 200
	// DefaultRecentLimit and MaxRecentLimit bound ListRecent
	DefaultRecentLimit = 200
	MaxRecentLimit     = 1000

	maxTitleLen = 200
)

// Listing windows, in days relative to the as-of date
const (
	assigneeDaysBack  = 2
	assigneeDaysAhead = 7
	companyDaysBack   = 7
	companyDaysAhead  = 14
)

// Publisher receives domain events after a mutation commits. Publish must
// not block; its outcome never affects the mutation.
type Publisher interface {
	Publish(ev notify.Event) bool
}

// Service implements the task operations
type Service struct {
	db       database.Database
	guard    *tenancy.Guard
	audit    *audit.Recorder
	alloc    *ident.Allocator
	events   Publisher
	logger   *zap.Logger
	metrics  *metrics.Metrics
	maxBatch int
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithMaxBatch limits the number of assignees per bulk create
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithMetrics records task counters on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the source of the current time
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a task service. events may be nil, in which case no
// notifications are published.
func NewService(db database.Database, guard *tenancy.Guard, rec *audit.Recorder, alloc *ident.Allocator, events Publisher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:       db,
		guard:    guard,
		audit:    rec,
		alloc:    alloc,
		events:   events,
		logger:   logger.Named("task"),
		maxBatch: DefaultMaxBatch,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByCode returns the task with the given code, soft-deleted or not. A
// malformed code is reported exactly like an unknown one.
func (s *Service) GetByCode(ctx context.Context, code string) (*database.Task, error) {
	return s.loadByCode(ctx, code, s.db.GetTaskByNum)
}

// lockByCode is GetByCode for mutations: the row stays locked until the
// surrounding transaction ends, so concurrent writers apply in turn.
func (s *Service) lockByCode(ctx context.Context, code string) (*database.Task, error) {
	return s.loadByCode(ctx, code, s.db.GetTaskByNumForUpdate)
}

func (s *Service) loadByCode(ctx context.Context, code string, get func(context.Context, int64) (*database.Task, error)) (*database.Task, error) {
	num, err := ident.Decode(code)
	if err != nil {
		return nil, apperr.NotFound("task", code)
	}
	t, err := get(ctx, num)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("task", code)
		}
		return nil, err
	}
	return t, nil
}

// taskInCompany loads a task by code and hides it unless it belongs to
// company. With lock set the row is loaded through lockByCode.
func (s *Service) taskInCompany(ctx context.Context, company *database.Company, code string, lock bool) (*database.Task, error) {
	load := s.GetByCode
	if lock {
		load = s.lockByCode
	}
	t, err := load(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.CompanyID != company.ID {
		return nil, apperr.NotFound("task", code)
	}
	return t, nil
}

func window(asOf time.Time, back, ahead int) (string, string) {
	return dateString(asOf.AddDate(0, 0, -back)), dateString(asOf.AddDate(0, 0, ahead))
}
