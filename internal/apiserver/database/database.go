package database

import (
	"context"

	"github.com/amoylab/taskflow/internal/common/cnst"
)

// Database defines the methods for database operations.
//
// Every method runs on the transaction carried by ctx when there is one,
// so callers compose several calls into one atomic unit via Transaction.
type Database interface {
	// Close closes the database connection.
	Close() error

	// Dialect returns the configured database type.
	Dialect() string

	// Transaction runs fn inside a transaction. A transaction already present
	// in ctx is reused, so nested calls join the outer unit of work.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// CreateUser creates a new user.
	CreateUser(ctx context.Context, user *User) error
	// UpdateUser saves every field of an existing user.
	UpdateUser(ctx context.Context, user *User) error
	// GetUserByID gets a user by id.
	GetUserByID(ctx context.Context, id uint) (*User, error)
	// GetUserByUsername gets a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetUsersByIDs gets the users that exist among ids.
	GetUsersByIDs(ctx context.Context, ids []uint) ([]*User, error)
	// ListUsers lists all users ordered by username.
	ListUsers(ctx context.Context) ([]*User, error)
	// CountUsersByRole counts users with the given role.
	CountUsersByRole(ctx context.Context, role cnst.Role) (int64, error)

	// CreateCompany creates a new company.
	CreateCompany(ctx context.Context, company *Company) error
	// UpdateCompany saves every field of an existing company.
	UpdateCompany(ctx context.Context, company *Company) error
	// GetCompanyByID gets a company by id.
	GetCompanyByID(ctx context.Context, id uint) (*Company, error)
	// GetCompanyBySlug gets a company by slug.
	GetCompanyBySlug(ctx context.Context, slug string) (*Company, error)
	// GetCompaniesBySlugs gets the companies that exist among slugs.
	GetCompaniesBySlugs(ctx context.Context, slugs []string) ([]*Company, error)
	// ListCompanies lists companies ordered by name.
	ListCompanies(ctx context.Context, activeOnly bool) ([]*Company, error)

	// ListUserCompanies lists the companies a user is a member of, ordered by name.
	ListUserCompanies(ctx context.Context, userID uint) ([]*Company, error)
	// HasMembership reports whether a user is a member of a company.
	HasMembership(ctx context.Context, userID, companyID uint) (bool, error)
	// AddMembership adds a user to a company.
	AddMembership(ctx context.Context, userID, companyID uint) error
	// RemoveMemberships removes a user from the given companies.
	RemoveMemberships(ctx context.Context, userID uint, companyIDs []uint) error

	// CreateCategory creates a new task category.
	CreateCategory(ctx context.Context, category *TaskCategory) error
	// UpdateCategory saves every field of an existing category.
	UpdateCategory(ctx context.Context, category *TaskCategory) error
	// GetCategory gets a category of a company by name.
	GetCategory(ctx context.Context, companyID uint, name string) (*TaskCategory, error)
	// GetCategoryByID gets a category by id.
	GetCategoryByID(ctx context.Context, id uint) (*TaskCategory, error)
	// ListCategories lists the categories of a company by sort order.
	ListCategories(ctx context.Context, companyID uint) ([]*TaskCategory, error)

	// CreatePatient creates a new patient.
	CreatePatient(ctx context.Context, patient *Patient) error
	// UpdatePatient saves every field of an existing patient.
	UpdatePatient(ctx context.Context, patient *Patient) error
	// GetPatientByID gets a patient by id.
	GetPatientByID(ctx context.Context, id uint) (*Patient, error)
	// ListPatients lists the patients of a company ordered by name.
	ListPatients(ctx context.Context, companyID uint, includeInactive bool) ([]*Patient, error)

	// CreateTask creates a new task.
	CreateTask(ctx context.Context, task *Task) error
	// UpdateTask saves every field of an existing task.
	UpdateTask(ctx context.Context, task *Task) error
	// GetTaskByNum gets a task by its number, including soft-deleted tasks.
	GetTaskByNum(ctx context.Context, num int64) (*Task, error)
	// GetTaskByNumForUpdate is GetTaskByNum holding a row lock until the
	// surrounding transaction ends.
	GetTaskByNumForUpdate(ctx context.Context, num int64) (*Task, error)
	// ListTasks lists tasks matching the query.
	ListTasks(ctx context.Context, q TaskQuery) ([]*Task, error)
	// CountDueTasks counts open, non-deleted tasks of a user in a company dated on or before today.
	CountDueTasks(ctx context.Context, userID, companyID uint, today string) (int64, error)
	// NextTaskNum atomically allocates the next task number.
	NextTaskNum(ctx context.Context) (int64, error)
	// MaxTaskNum returns the highest task number in use, or 0.
	MaxTaskNum(ctx context.Context) (int64, error)

	// CreateAuditLog appends an audit entry. There is no update or delete.
	CreateAuditLog(ctx context.Context, entry *AuditLog) error
	// ListAuditLogs lists audit entries newest first.
	ListAuditLogs(ctx context.Context, q AuditQuery) ([]*AuditLog, error)

	// GetPushSubscription gets a subscription by user and endpoint.
	GetPushSubscription(ctx context.Context, userID uint, endpoint string) (*PushSubscription, error)
	// SavePushSubscription creates or updates a subscription.
	SavePushSubscription(ctx context.Context, sub *PushSubscription) error
	// ListActivePushSubscriptions lists the active subscriptions of a user.
	ListActivePushSubscriptions(ctx context.Context, userID uint) ([]*PushSubscription, error)
}
