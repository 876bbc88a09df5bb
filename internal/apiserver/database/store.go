package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store implements Database on top of gorm. The dialect specific parts
// (connection, task number counter) are supplied by the constructors in
// postgres.go, mysql.go and sqlite.go.
type store struct {
	db      *gorm.DB
	cfg     *config.DatabaseConfig
	counter taskNumCounter
}

func newStore(gormDB *gorm.DB, cfg *config.DatabaseConfig) (*store, error) {
	if err := gormDB.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &store{db: gormDB, cfg: cfg}, nil
}

// Close closes the database connection
func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *store) Dialect() string {
	return s.cfg.Type
}

func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, s.db, fn)
}

func (s *store) CreateUser(ctx context.Context, user *User) error {
	return translateError(getDBFromContext(ctx, s.db).Create(user).Error, "user")
}

func (s *store) UpdateUser(ctx context.Context, user *User) error {
	return translateError(getDBFromContext(ctx, s.db).Save(user).Error, "user")
}

func (s *store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return &user, nil
}

func (s *store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFoundOr(err, "user", username)
	}
	return &user, nil
}

func (s *store) GetUsersByIDs(ctx context.Context, ids []uint) ([]*User, error) {
	var users []*User
	if len(ids) == 0 {
		return users, nil
	}
	err := getDBFromContext(ctx, s.db).Where("id IN ?", ids).Order("id asc").Find(&users).Error
	return users, err
}

func (s *store) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).Order("username asc").Find(&users).Error
	return users, err
}

func (s *store) CountUsersByRole(ctx context.Context, role cnst.Role) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (s *store) CreateCompany(ctx context.Context, company *Company) error {
	return translateError(getDBFromContext(ctx, s.db).Create(company).Error, "company")
}

func (s *store) UpdateCompany(ctx context.Context, company *Company) error {
	return translateError(getDBFromContext(ctx, s.db).Save(company).Error, "company")
}

func (s *store) GetCompanyByID(ctx context.Context, id uint) (*Company, error) {
	var company Company
	err := getDBFromContext(ctx, s.db).Where("id = ?", id).First(&company).Error
	if err != nil {
		return nil, notFoundOr(err, "company", id)
	}
	return &company, nil
}

func (s *store) GetCompanyBySlug(ctx context.Context, slug string) (*Company, error) {
	var company Company
	err := getDBFromContext(ctx, s.db).Where("slug = ?", slug).First(&company).Error
	if err != nil {
		return nil, notFoundOr(err, "company", slug)
	}
	return &company, nil
}

func (s *store) GetCompaniesBySlugs(ctx context.Context, slugs []string) ([]*Company, error) {
	var companies []*Company
	if len(slugs) == 0 {
		return companies, nil
	}
	err := getDBFromContext(ctx, s.db).Where("slug IN ?", slugs).Order("name asc").Find(&companies).Error
	return companies, err
}

func (s *store) ListCompanies(ctx context.Context, activeOnly bool) ([]*Company, error) {
	var companies []*Company
	q := getDBFromContext(ctx, s.db).Order("name asc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&companies).Error
	return companies, err
}

func (s *store) ListUserCompanies(ctx context.Context, userID uint) ([]*Company, error) {
	var companies []*Company
	err := getDBFromContext(ctx, s.db).
		Joins("JOIN company_memberships ON company_memberships.company_id = companies.id").
		Where("company_memberships.user_id = ?", userID).
		Order("companies.name asc").
		Find(&companies).Error
	return companies, err
}

func (s *store) HasMembership(ctx context.Context, userID, companyID uint) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&CompanyMembership{}).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&count).Error
	return count > 0, err
}

func (s *store) AddMembership(ctx context.Context, userID, companyID uint) error {
	m := &CompanyMembership{UserID: userID, CompanyID: companyID}
	return translateError(getDBFromContext(ctx, s.db).Create(m).Error, "membership")
}

func (s *store) RemoveMemberships(ctx context.Context, userID uint, companyIDs []uint) error {
	if len(companyIDs) == 0 {
		return nil
	}
	return getDBFromContext(ctx, s.db).
		Where("user_id = ? AND company_id IN ?", userID, companyIDs).
		Delete(&CompanyMembership{}).Error
}

func (s *store) CreateCategory(ctx context.Context, category *TaskCategory) error {
	return translateError(getDBFromContext(ctx, s.db).Create(category).Error, "category")
}

func (s *store) UpdateCategory(ctx context.Context, category *TaskCategory) error {
	return translateError(getDBFromContext(ctx, s.db).Save(category).Error, "category")
}

func (s *store) GetCategory(ctx context.Context, companyID uint, name string) (*TaskCategory, error) {
	var category TaskCategory
	err := getDBFromContext(ctx, s.db).
		Where("company_id = ? AND name = ?", companyID, name).
		First(&category).Error
	if err != nil {
		return nil, notFoundOr(err, "category", name)
	}
	return &category, nil
}

func (s *store) GetCategoryByID(ctx context.Context, id uint) (*TaskCategory, error) {
	var category TaskCategory
	err := getDBFromContext(ctx, s.db).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return &category, nil
}

func (s *store) ListCategories(ctx context.Context, companyID uint) ([]*TaskCategory, error) {
	var categories []*TaskCategory
	err := getDBFromContext(ctx, s.db).
		Where("company_id = ?", companyID).
		Order("sort_order asc, name asc").
		Find(&categories).Error
	return categories, err
}

func (s *store) CreatePatient(ctx context.Context, patient *Patient) error {
	return translateError(getDBFromContext(ctx, s.db).Create(patient).Error, "patient")
}

func (s *store) UpdatePatient(ctx context.Context, patient *Patient) error {
	return translateError(getDBFromContext(ctx, s.db).Save(patient).Error, "patient")
}

func (s *store) GetPatientByID(ctx context.Context, id uint) (*Patient, error) {
	var patient Patient
	err := getDBFromContext(ctx, s.db).Where("id = ?", id).First(&patient).Error
	if err != nil {
		return nil, notFoundOr(err, "patient", id)
	}
	return &patient, nil
}

func (s *store) ListPatients(ctx context.Context, companyID uint, includeInactive bool) ([]*Patient, error) {
	var patients []*Patient
	q := getDBFromContext(ctx, s.db).Where("company_id = ?", companyID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	err := q.Order("name asc").Find(&patients).Error
	return patients, err
}

func (s *store) CreateTask(ctx context.Context, task *Task) error {
	return translateError(getDBFromContext(ctx, s.db).Create(task).Error, "task")
}

func (s *store) UpdateTask(ctx context.Context, task *Task) error {
	return translateError(getDBFromContext(ctx, s.db).Save(task).Error, "task")
}

func (s *store) GetTaskByNum(ctx context.Context, num int64) (*Task, error) {
	var task Task
	err := getDBFromContext(ctx, s.db).Where("task_num = ?", num).First(&task).Error
	if err != nil {
		return nil, notFoundOr(err, "task", num)
	}
	return &task, nil
}

func (s *store) GetTaskByNumForUpdate(ctx context.Context, num int64) (*Task, error) {
	var task Task
	err := getDBFromContext(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("task_num = ?", num).
		First(&task).Error
	if err != nil {
		return nil, notFoundOr(err, "task", num)
	}
	return &task, nil
}

func (s *store) ListTasks(ctx context.Context, q TaskQuery) ([]*Task, error) {
	var tasks []*Task
	db := getDBFromContext(ctx, s.db)
	if q.CompanyID != nil {
		db = db.Where("company_id = ?", *q.CompanyID)
	}
	if q.AssigneeID != nil {
		db = db.Where("assigned_user_id = ?", *q.AssigneeID)
	}
	if q.From != "" {
		db = db.Where("task_date >= ?", q.From)
	}
	if q.To != "" {
		db = db.Where("task_date <= ?", q.To)
	}
	if !q.IncludeDeleted {
		db = db.Where("deleted_at IS NULL")
	}
	if q.NewestFirst {
		db = db.Order("task_date desc").Order("task_num desc")
	} else {
		// tasks without a time sort after the timed ones of the same day
		db = db.Order("task_date asc").
			Order("CASE WHEN task_time IS NULL THEN 1 ELSE 0 END").
			Order("task_time asc").
			Order("category asc").
			Order("task_num asc")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	err := db.Find(&tasks).Error
	return tasks, err
}

func (s *store) CountDueTasks(ctx context.Context, userID, companyID uint, today string) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).Model(&Task{}).
		Where("assigned_user_id = ? AND company_id = ?", userID, companyID).
		Where("status = ? AND deleted_at IS NULL AND task_date <= ?", cnst.TaskStatusTodo, today).
		Count(&count).Error
	return count, err
}

func (s *store) NextTaskNum(ctx context.Context) (int64, error) {
	if s.counter == nil {
		return 0, errors.New("task number counter not configured")
	}
	return s.counter.next(ctx)
}

func (s *store) MaxTaskNum(ctx context.Context) (int64, error) {
	return maxTaskNum(getDBFromContext(ctx, s.db))
}

func (s *store) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	return getDBFromContext(ctx, s.db).Create(entry).Error
}

func (s *store) ListAuditLogs(ctx context.Context, q AuditQuery) ([]*AuditLog, error) {
	var entries []*AuditLog
	db := getDBFromContext(ctx, s.db)
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.TaskID != nil {
		db = db.Where("task_id = ?", *q.TaskID)
	}
	if q.ActorID != nil {
		db = db.Where("actor_user_id = ?", *q.ActorID)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	err := db.Order("timestamp desc").Order("id desc").Find(&entries).Error
	return entries, err
}

func (s *store) GetPushSubscription(ctx context.Context, userID uint, endpoint string) (*PushSubscription, error) {
	var sub PushSubscription
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		First(&sub).Error
	if err != nil {
		return nil, notFoundOr(err, "push subscription", endpoint)
	}
	return &sub, nil
}

func (s *store) SavePushSubscription(ctx context.Context, sub *PushSubscription) error {
	return translateError(getDBFromContext(ctx, s.db).Save(sub).Error, "push subscription")
}

func (s *store) ListActivePushSubscriptions(ctx context.Context, userID uint) ([]*PushSubscription, error) {
	var subs []*PushSubscription
	err := getDBFromContext(ctx, s.db).
		Where("user_id = ? AND active = ?", userID, true).
		Order("id asc").
		Find(&subs).Error
	return subs, err
}

func maxTaskNum(db *gorm.DB) (int64, error) {
	var max int64
	err := db.Model(&Task{}).Select("COALESCE(MAX(task_num), 0)").Scan(&max).Error
	return max, err
}
