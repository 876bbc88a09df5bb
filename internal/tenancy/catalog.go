package tenancy

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/policy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,79}$`)

// DefaultCategory is seeded into every new company
type DefaultCategory struct {
	Name      string
	SortOrder int
}

// DefaultCategories are created with every new company
var DefaultCategories = []DefaultCategory{
	{Name: "visits", SortOrder: 10},
	{Name: "office", SortOrder: 20},
	{Name: "notes", SortOrder: 30},
	{Name: "general", SortOrder: 40},
}

// MapsURL derives a map search link from a street address. A blank
// address yields "".
func MapsURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	return mapsSearchURL + url.QueryEscape(address)
}

// Catalog manages companies, categories and patients. Every operation is
// admin-tier only.
type Catalog struct {
	db     database.Database
	guard  *Guard
	logger *zap.Logger
}

// NewCatalog creates a catalog on top of a guard
func NewCatalog(db database.Database, guard *Guard, logger *zap.Logger) *Catalog {
	return &Catalog{
		db:     db,
		guard:  guard,
		logger: logger.Named("catalog"),
	}
}

func (c *Catalog) authorize(rc actor.RequestContext) error {
	return policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageCatalog})
}

// UpsertCompany creates a company with the default categories or renames
// an existing one. created reports which happened.
func (c *Catalog) UpsertCompany(ctx context.Context, rc actor.RequestContext, slug, name string) (company *database.Company, created bool, err error) {
	if err := c.authorize(rc); err != nil {
		return nil, false, err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	name = strings.TrimSpace(name)
	if !slugPattern.MatchString(slug) {
		return nil, false, apperr.Invalid("slug", "must be lowercase letters, digits, '-' or '_'")
	}
	if name == "" {
		return nil, false, apperr.Invalid("name", "must not be empty")
	}

	err = c.db.Transaction(ctx, func(ctx context.Context) error {
		existing, err := c.db.GetCompanyBySlug(ctx, slug)
		if err == nil {
			existing.Name = name
			company = existing
			return c.db.UpdateCompany(ctx, existing)
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}

		company = &database.Company{Slug: slug, Name: name, Active: true}
		if err := c.db.CreateCompany(ctx, company); err != nil {
			return err
		}
		for _, d := range DefaultCategories {
			if err := c.db.CreateCategory(ctx, &database.TaskCategory{
				CompanyID: company.ID,
				Name:      d.Name,
				SortOrder: d.SortOrder,
				Active:    true,
			}); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		c.logger.Info("created company", zap.String("slug", slug))
	}
	return company, created, nil
}

// ListCompanies lists every company, active or not, by name
func (c *Catalog) ListCompanies(ctx context.Context, rc actor.RequestContext) ([]*database.Company, error) {
	if err := c.authorize(rc); err != nil {
		return nil, err
	}
	return c.db.ListCompanies(ctx, false)
}

// SetCompanyActive activates or deactivates a company. Tasks and
// memberships are left untouched.
func (c *Catalog) SetCompanyActive(ctx context.Context, rc actor.RequestContext, slug string, active bool) (*database.Company, error) {
	company, err := c.guard.ResolveScope(ctx, rc.Actor, slug, ScopeManage)
	if err != nil {
		return nil, err
	}
	company.Active = active
	if err := c.db.UpdateCompany(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// ListCategories lists the categories of a company by sort order
func (c *Catalog) ListCategories(ctx context.Context, rc actor.RequestContext, slug string) ([]*database.TaskCategory, error) {
	company, err := c.guard.ResolveScope(ctx, rc.Actor, slug, ScopeManage)
	if err != nil {
		return nil, err
	}
	return c.db.ListCategories(ctx, company.ID)
}

// CreateCategory adds an active category. Duplicate names are a Conflict.
func (c *Catalog) CreateCategory(ctx context.Context, rc actor.RequestContext, slug, name string, sortOrder int) (*database.TaskCategory, error) {
	company, err := c.guard.ResolveScope(ctx, rc.Actor, slug, ScopeManage)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name", "must not be empty")
	}
	category := &database.TaskCategory{CompanyID: company.ID, Name: name, SortOrder: sortOrder, Active: true}
	if err := c.db.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// CategoryUpdate holds the fields to change; nil leaves a field as is
type CategoryUpdate struct {
	Name      *string
	SortOrder *int
	Active    *bool
}

// UpdateCategory changes a category. A blank name is ignored.
func (c *Catalog) UpdateCategory(ctx context.Context, rc actor.RequestContext, id uint, upd CategoryUpdate) (*database.TaskCategory, error) {
	if err := c.authorize(rc); err != nil {
		return nil, err
	}
	category, err := c.db.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name != "" {
			category.Name = name
		}
	}
	if upd.SortOrder != nil {
		category.SortOrder = *upd.SortOrder
	}
	if upd.Active != nil {
		category.Active = *upd.Active
	}
	if err := c.db.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// PatientInput describes a new patient
type PatientInput struct {
	Name    string
	Phone   string
	Address string
	MapsURL string
	Notes   string
}

// ListPatients lists the patients of a company by name
func (c *Catalog) ListPatients(ctx context.Context, rc actor.RequestContext, slug string, includeInactive bool) ([]*database.Patient, error) {
	company, err := c.guard.ResolveScope(ctx, rc.Actor, slug, ScopeManage)
	if err != nil {
		return nil, err
	}
	return c.db.ListPatients(ctx, company.ID, includeInactive)
}

// CreatePatient adds an active patient. The maps link is derived from the
// address when none is given.
func (c *Catalog) CreatePatient(ctx context.Context, rc actor.RequestContext, slug string, in PatientInput) (*database.Patient, error) {
	company, err := c.guard.ResolveScope(ctx, rc.Actor, slug, ScopeManage)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "must not be empty")
	}
	address := strings.TrimSpace(in.Address)
	mapsURL := strings.TrimSpace(in.MapsURL)
	if mapsURL == "" {
		mapsURL = MapsURL(address)
	}
	patient := &database.Patient{
		CompanyID: company.ID,
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   address,
		MapsURL:   mapsURL,
		Notes:     in.Notes,
		Active:    true,
	}
	if err := c.db.CreatePatient(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// PatientUpdate holds the fields to change; nil leaves a field as is
type PatientUpdate struct {
	Name    *string
	Phone   *string
	Address *string
	MapsURL *string
	Notes   *string
	Active  *bool
}

// UpdatePatient changes a patient. An empty maps link is re-derived from
// the address.
func (c *Catalog) UpdatePatient(ctx context.Context, rc actor.RequestContext, id uint, upd PatientUpdate) (*database.Patient, error) {
	if err := c.authorize(rc); err != nil {
		return nil, err
	}
	patient, err := c.db.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "must not be empty")
		}
		patient.Name = name
	}
	if upd.Phone != nil {
		patient.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Address != nil {
		patient.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.MapsURL != nil {
		patient.MapsURL = strings.TrimSpace(*upd.MapsURL)
	}
	if patient.MapsURL == "" {
		patient.MapsURL = MapsURL(patient.Address)
	}
	if upd.Notes != nil {
		patient.Notes = *upd.Notes
	}
	if upd.Active != nil {
		patient.Active = *upd.Active
	}
	if err := c.db.UpdatePatient(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}
