package task

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/policy"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/trace"
)

// MarkDone sets or clears the completion of a task. Only the assignee may
// do this, whatever their role.
func (s *Service) MarkDone(ctx context.Context, rc actor.RequestContext, slug, code string, done bool) (*database.Task, error) {
	span := trace.Tracer(cnst.TraceTask).Start(ctx, cnst.SpanTaskMarkDone).
		WithAttrs(attribute.String(cnst.AttrTaskCode, code), attribute.Bool("done", done))
	defer span.End()
	ctx = span.Ctx

	action := cnst.ActionUncompleteTask
	if done {
		action = cnst.ActionCompleteTask
	}

	var t *database.Task
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		company, err := s.guard.ResolveScope(ctx, rc.Actor, slug, tenancy.ScopeTask)
		if err != nil {
			return err
		}
		if t, err = s.taskInCompany(ctx, company, code, true); err != nil {
			return err
		}
		if t.DeletedAt != nil {
			return apperr.NotFound("task", code)
		}
		if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionCompleteTask, TaskAssigneeID: t.AssignedUserID}); err != nil {
			return err
		}

		if done {
			now := s.now().UTC()
			t.Status = cnst.TaskStatusDone
			t.CompletedAt = &now
		} else {
			t.Status = cnst.TaskStatusTodo
			t.CompletedAt = nil
		}
		if err := s.db.UpdateTask(ctx, t); err != nil {
			return err
		}
		return s.recordTransition(ctx, rc, action, t)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.TaskTransition(action.String())
	return t, nil
}

// ForceDone overrides the status of a task as an administrator. Forcing
// completion sets the forced markers next to the completion timestamp;
// forcing it back to todo clears all of them.
func (s *Service) ForceDone(ctx context.Context, rc actor.RequestContext, code string, done bool) (*database.Task, error) {
	span := trace.Tracer(cnst.TraceTask).Start(ctx, cnst.SpanTaskForceDone).
		WithAttrs(attribute.String(cnst.AttrTaskCode, code), attribute.Bool("done", done))
	defer span.End()
	ctx = span.Ctx

	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}); err != nil {
		return nil, err
	}
	action := cnst.ActionUnforceDoneTask
	if done {
		action = cnst.ActionForceDoneTask
	}

	var t *database.Task
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		var err error
		if t, err = s.lockByCode(ctx, code); err != nil {
			return err
		}
		if done {
			now := s.now().UTC()
			by := rc.Actor.UserID
			t.Status = cnst.TaskStatusDone
			t.CompletedAt = &now
			t.ForcedDoneAt = &now
			t.ForcedDoneByUserID = &by
		} else {
			t.Status = cnst.TaskStatusTodo
			t.CompletedAt = nil
			t.ForcedDoneAt = nil
			t.ForcedDoneByUserID = nil
		}
		if err := s.db.UpdateTask(ctx, t); err != nil {
			return err
		}
		return s.recordTransition(ctx, rc, action, t)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.TaskTransition(action.String())
	s.logger.Info("task status overridden",
		zap.String("task_code", t.TaskCode),
		zap.Bool("done", done),
		zap.Uint("actor_id", rc.Actor.UserID))
	return t, nil
}

// SoftDelete hides a task from listings. Deleting an already deleted task
// changes nothing and records nothing; deleted reports whether this call
// did the deletion.
func (s *Service) SoftDelete(ctx context.Context, rc actor.RequestContext, code string) (deleted bool, err error) {
	span := trace.Tracer(cnst.TraceTask).Start(ctx, cnst.SpanTaskSoftDelete).
		WithAttrs(attribute.String(cnst.AttrTaskCode, code))
	defer span.End()
	ctx = span.Ctx

	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}); err != nil {
		return false, err
	}

	err = s.db.Transaction(ctx, func(ctx context.Context) error {
		t, err := s.lockByCode(ctx, code)
		if err != nil {
			return err
		}
		if t.DeletedAt != nil {
			return nil
		}
		now := s.now().UTC()
		by := rc.Actor.UserID
		t.DeletedAt = &now
		t.DeletedByUserID = &by
		if err := s.db.UpdateTask(ctx, t); err != nil {
			return err
		}
		deleted = true
		return s.recordTransition(ctx, rc, cnst.ActionDeleteTask, t)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if deleted {
		s.metrics.TaskTransition(cnst.ActionDeleteTask.String())
	}
	return deleted, nil
}

func (s *Service) recordTransition(ctx context.Context, rc actor.RequestContext, action cnst.AuditAction, t *database.Task) error {
	companyID, taskID := t.CompanyID, t.ID
	return s.audit.Record(ctx, rc, action,
		audit.Targets{CompanyID: &companyID, TaskID: &taskID},
		audit.Meta{cnst.MetaTaskCode: t.TaskCode})
}
