package task

import (
	"context"
	"strings"
	"time"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/policy"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// Detail is a task together with the company it belongs to
type Detail struct {
	*database.Task
	Company *database.Company
}

// View returns one task of a company. Admin-tier callers see any task of
// the company; everyone else only tasks assigned to them.
func (s *Service) View(ctx context.Context, rc actor.RequestContext, slug, code string) (*Detail, error) {
	company, err := s.guard.ResolveScope(ctx, rc.Actor, slug, tenancy.ScopeTask)
	if err != nil {
		return nil, err
	}
	t, err := s.taskInCompany(ctx, company, code, false)
	if err != nil {
		return nil, err
	}

	if policy.Allowed(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}) {
		return &Detail{Task: t, Company: company}, nil
	}
	if t.DeletedAt != nil {
		return nil, apperr.NotFound("task", code)
	}
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionViewTask, TaskAssigneeID: t.AssignedUserID}); err != nil {
		return nil, err
	}
	return &Detail{Task: t, Company: company}, nil
}

// List returns the task listing of a company for the caller: the whole
// company for admin-tier, the caller's own tasks otherwise
func (s *Service) List(ctx context.Context, rc actor.RequestContext, slug string, asOf time.Time) ([]*database.Task, error) {
	if rc.Actor.IsAdminTier() {
		return s.ListForCompany(ctx, rc, slug, asOf, false)
	}
	return s.ListForAssignee(ctx, rc, slug, asOf)
}

// ListForAssignee lists the caller's tasks in a company dated within
// [asOf-2d, asOf+7d], excluding deleted ones
func (s *Service) ListForAssignee(ctx context.Context, rc actor.RequestContext, slug string, asOf time.Time) ([]*database.Task, error) {
	company, err := s.guard.ResolveScope(ctx, rc.Actor, slug, tenancy.ScopeList)
	if err != nil {
		return nil, err
	}
	from, to := window(asOf, assigneeDaysBack, assigneeDaysAhead)
	companyID, userID := company.ID, rc.Actor.UserID
	return s.db.ListTasks(ctx, database.TaskQuery{
		CompanyID:  &companyID,
		AssigneeID: &userID,
		From:       from,
		To:         to,
	})
}

// ListForCompany lists every task of a company dated within
// [asOf-7d, asOf+14d]. Admin-tier only.
func (s *Service) ListForCompany(ctx context.Context, rc actor.RequestContext, slug string, asOf time.Time, includeDeleted bool) ([]*database.Task, error) {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}); err != nil {
		return nil, err
	}
	company, err := s.guard.ResolveScope(ctx, rc.Actor, slug, tenancy.ScopeList)
	if err != nil {
		return nil, err
	}
	return s.listCompany(ctx, company, asOf, includeDeleted)
}

func (s *Service) listCompany(ctx context.Context, company *database.Company, asOf time.Time, includeDeleted bool) ([]*database.Task, error) {
	from, to := window(asOf, companyDaysBack, companyDaysAhead)
	companyID := company.ID
	return s.db.ListTasks(ctx, database.TaskQuery{
		CompanyID:      &companyID,
		From:           from,
		To:             to,
		IncludeDeleted: includeDeleted,
	})
}

// RecentQuery filters the admin task overview
type RecentQuery struct {
	CompanySlug    string // all companies when empty
	IncludeDeleted bool
	Limit          int
}

// Listing is a task with the names an overview needs
type Listing struct {
	*database.Task
	CompanySlug      string `json:"companySlug"`
	AssignedUsername string `json:"assignedUsername"`
}

// ListRecent is the admin overview. With a company it is that company's
// window; without one it is every company's window, newest first, at
// most q.Limit rows.
func (s *Service) ListRecent(ctx context.Context, rc actor.RequestContext, q RecentQuery, asOf time.Time) ([]*Listing, error) {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}); err != nil {
		return nil, err
	}

	var (
		tasks []*database.Task
		err   error
	)
	if slug := strings.TrimSpace(q.CompanySlug); slug != "" {
		company, err := s.guard.ResolveScope(ctx, rc.Actor, slug, tenancy.ScopeManage)
		if err != nil {
			return nil, err
		}
		tasks, err = s.listCompany(ctx, company, asOf, q.IncludeDeleted)
		if err != nil {
			return nil, err
		}
	} else {
		from, to := window(asOf, companyDaysBack, companyDaysAhead)
		tasks, err = s.db.ListTasks(ctx, database.TaskQuery{
			From:           from,
			To:             to,
			IncludeDeleted: q.IncludeDeleted,
			NewestFirst:    true,
			Limit:          clampLimit(q.Limit),
		})
		if err != nil {
			return nil, err
		}
	}
	return s.hydrate(ctx, tasks)
}

func (s *Service) hydrate(ctx context.Context, tasks []*database.Task) ([]*Listing, error) {
	slugs := make(map[uint]string)
	var userIDs []uint
	for _, t := range tasks {
		if _, ok := slugs[t.CompanyID]; !ok {
			c, err := s.db.GetCompanyByID(ctx, t.CompanyID)
			switch {
			case err == nil:
				slugs[t.CompanyID] = c.Slug
			case apperr.KindOf(err) == apperr.KindNotFound:
				slugs[t.CompanyID] = ""
			default:
				return nil, err
			}
		}
		userIDs = append(userIDs, t.AssignedUserID)
	}

	names := make(map[uint]string)
	if len(userIDs) > 0 {
		users, err := s.db.GetUsersByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Username
		}
	}

	out := make([]*Listing, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, &Listing{Task: t, CompanySlug: slugs[t.CompanyID], AssignedUsername: names[t.AssignedUserID]})
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
