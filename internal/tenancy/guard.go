// Package tenancy scopes every request to one company and owns the
// per-company catalog (companies, categories, patients).
package tenancy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/policy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/utils"
)

// Purpose says why a company scope is being resolved
type Purpose int

const (
	// ScopeList lists tasks of a company; admin-tier needs an active company
	ScopeList Purpose = iota
	// ScopeTask reads or completes one task of a company
	ScopeTask
	// ScopeManage changes the company catalog; admin-tier only, inactive allowed
	ScopeManage
)

// Guard resolves company scopes and validates company-bound input
type Guard struct {
	db     database.Database
	audit  *audit.Recorder
	logger *zap.Logger
}

// NewGuard creates a tenancy guard
func NewGuard(db database.Database, rec *audit.Recorder, logger *zap.Logger) *Guard {
	return &Guard{
		db:     db,
		audit:  rec,
		logger: logger.Named("tenancy"),
	}
}

// ResolveScope returns the company named by slug if p may act in it.
//
// Employees need a membership and an active company. Admin-tier principals
// bypass membership; the company must exist and, for listing, be active.
// Unknown slugs are NotFound, every other refusal is Forbidden.
func (g *Guard) ResolveScope(ctx context.Context, p *actor.Principal, slug string, purpose Purpose) (*database.Company, error) {
	if p == nil {
		return nil, apperr.ErrUnauthenticated
	}
	company, err := g.db.GetCompanyBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if p.IsAdminTier() {
		if purpose == ScopeList && !company.Active {
			return nil, apperr.Forbidden("company is inactive")
		}
		return company, nil
	}

	if purpose == ScopeManage {
		return nil, apperr.Forbidden("admin role required")
	}
	member, err := g.db.HasMembership(ctx, p.UserID, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, apperr.Forbidden("not a member of this company")
	}
	if !company.Active {
		return nil, apperr.Forbidden("company is inactive")
	}
	return company, nil
}

// ValidateCategory returns the named category of company. Inactive
// categories are accepted; unknown names fail the call.
func (g *Guard) ValidateCategory(ctx context.Context, company *database.Company, name string) (*database.TaskCategory, error) {
	category, err := g.db.GetCategory(ctx, company.ID, name)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.UnknownCategory(company.Slug, name)
		}
		return nil, err
	}
	return category, nil
}

// ValidateAssignees returns the users for ids in input order, deduplicated.
// A single unknown id fails the whole set and every missing id is reported.
func (g *Guard) ValidateAssignees(ctx context.Context, ids []uint) ([]*database.User, error) {
	ids = utils.UniqueUints(ids)
	if len(ids) == 0 {
		return nil, apperr.Invalid("assignee_user_ids", "at least one assignee is required")
	}
	users, err := g.db.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*database.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	var missing []uint
	ordered := make([]*database.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, u)
	}
	if len(missing) > 0 {
		return nil, apperr.UnknownAssignees(missing)
	}
	return ordered, nil
}

// ResolveCompanies returns the companies for slugs or fails naming every
// unknown slug
func (g *Guard) ResolveCompanies(ctx context.Context, slugs []string) ([]*database.Company, error) {
	slugs = utils.NormalizeSlugs(slugs)
	if len(slugs) == 0 {
		return []*database.Company{}, nil
	}
	companies, err := g.db.GetCompaniesBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		found[c.Slug] = struct{}{}
	}
	var missing []string
	for _, s := range slugs {
		if _, ok := found[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.UnknownCompanies(missing)
	}
	return companies, nil
}

// ReplaceMemberships makes slugs the exact company set of a user.
//
// Stale memberships are removed and new ones added in one transaction, so
// concurrent readers never see an intermediate set. Every resulting and
// every removed company gets one ASSIGN_COMPANY entry, removals marked with
// removed=true. Clearing an already empty set still records one entry
// naming only the user.
func (g *Guard) ReplaceMemberships(ctx context.Context, rc actor.RequestContext, userID uint, slugs []string) ([]*database.Company, error) {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageUsers}); err != nil {
		return nil, err
	}

	var result []*database.Company
	err := g.db.Transaction(ctx, func(ctx context.Context) error {
		if _, err := g.db.GetUserByID(ctx, userID); err != nil {
			return err
		}
		companies, err := g.ResolveCompanies(ctx, slugs)
		if err != nil {
			return err
		}
		existing, err := g.db.ListUserCompanies(ctx, userID)
		if err != nil {
			return err
		}

		wanted := make(map[uint]bool, len(companies))
		for _, c := range companies {
			wanted[c.ID] = true
		}
		have := make(map[uint]bool, len(existing))
		var (
			stale   []uint
			removed []*database.Company
		)
		for _, c := range existing {
			have[c.ID] = true
			if !wanted[c.ID] {
				stale = append(stale, c.ID)
				removed = append(removed, c)
			}
		}
		if err := g.db.RemoveMemberships(ctx, userID, stale); err != nil {
			return err
		}
		for _, c := range companies {
			if !have[c.ID] {
				if err := g.db.AddMembership(ctx, userID, c.ID); err != nil {
					return err
				}
			}
		}

		target := userID
		record := func(c *database.Company, meta audit.Meta) error {
			companyID := c.ID
			meta[cnst.MetaCompanySlug] = c.Slug
			return g.audit.Record(ctx, rc, cnst.ActionAssignCompany,
				audit.Targets{UserID: &target, CompanyID: &companyID}, meta)
		}
		for _, c := range companies {
			if err := record(c, audit.Meta{}); err != nil {
				return err
			}
		}
		for _, c := range removed {
			if err := record(c, audit.Meta{cnst.MetaRemoved: true}); err != nil {
				return err
			}
		}
		if len(companies) == 0 && len(removed) == 0 {
			if err := g.audit.Record(ctx, rc, cnst.ActionAssignCompany,
				audit.Targets{UserID: &target}, nil); err != nil {
				return err
			}
		}
		result = companies
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("replaced company memberships",
		zap.Uint("user_id", userID),
		zap.Int("companies", len(result)))
	return result, nil
}

// CompanyOverview is one company visible to a principal with its due count
type CompanyOverview struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	DueCount     int64  `json:"due_count"`
	HasAttention bool   `json:"has_attention"`
}

// CompaniesOverview lists the active companies visible to p. DueCount is
// the number of open tasks of p dated on or before today.
func (g *Guard) CompaniesOverview(ctx context.Context, p *actor.Principal, today time.Time) ([]*CompanyOverview, error) {
	if p == nil {
		return nil, apperr.ErrUnauthenticated
	}
	var (
		companies []*database.Company
		err       error
	)
	if p.IsAdminTier() {
		companies, err = g.db.ListCompanies(ctx, true)
	} else {
		companies, err = g.db.ListUserCompanies(ctx, p.UserID)
	}
	if err != nil {
		return nil, err
	}

	day := today.Format(cnst.DateLayout)
	out := make([]*CompanyOverview, 0, len(companies))
	for _, c := range companies {
		if !c.Active {
			continue
		}
		n, err := g.db.CountDueTasks(ctx, p.UserID, c.ID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, &CompanyOverview{Slug: c.Slug, Name: c.Name, DueCount: n, HasAttention: n > 0})
	}
	return out, nil
}
