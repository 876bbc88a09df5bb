package database

import (
	"time"

	"github.com/amoylab/taskflow/internal/common/cnst"
)

// User represents an account of any role
type User struct {
	ID                 uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username           string     `json:"username" gorm:"type:varchar(190);not null;uniqueIndex"`
	DisplayName        string     `json:"displayName" gorm:"type:varchar(190);not null"`
	Password           string     `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never exposed in JSON
	Role               cnst.Role  `json:"role" gorm:"type:varchar(20);not null;index"`
	MustChangePassword bool       `json:"mustChangePassword" gorm:"not null"`
	Disabled           bool       `json:"disabled" gorm:"not null"`
	ExternalID         string     `json:"externalId" gorm:"type:varchar(190);not null"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLoginAt        *time.Time `json:"lastLoginAt"`
}

// Company is a tenant organization
type Company struct {
	ID     uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug   string `json:"slug" gorm:"type:varchar(80);not null;uniqueIndex"`
	Name   string `json:"name" gorm:"type:varchar(190);not null"`
	Active bool   `json:"active" gorm:"not null;index"`
}

// CompanyMembership grants an employee access to a company
type CompanyMembership struct {
	ID        uint `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint `json:"userId" gorm:"not null;uniqueIndex:uq_user_company"`
	CompanyID uint `json:"companyId" gorm:"not null;uniqueIndex:uq_user_company;index"`
}

// TaskCategory is a per-company task classification
type TaskCategory struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID uint   `json:"companyId" gorm:"not null;uniqueIndex:uq_category_company_name"`
	Name      string `json:"name" gorm:"type:varchar(80);not null;uniqueIndex:uq_category_company_name"`
	SortOrder int    `json:"sortOrder" gorm:"not null"`
	Active    bool   `json:"active" gorm:"not null"`
}

// Patient is a visit subject belonging to one company
type Patient struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID uint      `json:"companyId" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(60);not null"`
	Address   string    `json:"address" gorm:"type:varchar(500);not null"`
	MapsURL   string    `json:"mapsUrl" gorm:"type:varchar(1000);not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	Active    bool      `json:"active" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task is one unit of field work assigned to exactly one user.
// DeletedAt is a plain column: soft-deleted tasks stay addressable by code.
type Task struct {
	ID                 uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskNum            int64           `json:"taskNum" gorm:"not null;uniqueIndex"`
	TaskCode           string          `json:"taskCode" gorm:"type:varchar(16);not null;uniqueIndex"`
	CompanyID          uint            `json:"companyId" gorm:"not null;index"`
	AssignedUserID     uint            `json:"assignedUserId" gorm:"not null;index"`
	Category           string          `json:"category" gorm:"type:varchar(80);not null;index"`
	TaskDate           string          `json:"taskDate" gorm:"type:varchar(10);not null;index"` // YYYY-MM-DD
	TaskTime           *string         `json:"taskTime" gorm:"type:varchar(5)"`                 // HH:MM
	Title              string          `json:"title" gorm:"type:varchar(200);not null"`
	MapsURL            string          `json:"mapsUrl" gorm:"type:varchar(1000);not null"`
	PatientID          *uint           `json:"patientId" gorm:"index"`
	PatientName        string          `json:"patientName" gorm:"type:varchar(200);not null"`
	PatientAddress     string          `json:"patientAddress" gorm:"type:varchar(500);not null"`
	PatientPhone       string          `json:"patientPhone" gorm:"type:varchar(60);not null"`
	BonusDetails       string          `json:"bonusDetails" gorm:"type:text"`
	Status             cnst.TaskStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	CompletedAt        *time.Time      `json:"completedAt"`
	CreatedAt          time.Time       `json:"createdAt"`
	DeletedAt          *time.Time      `json:"deletedAt" gorm:"index"`
	DeletedByUserID    *uint           `json:"deletedByUserId"`
	ForcedDoneAt       *time.Time      `json:"forcedDoneAt"`
	ForcedDoneByUserID *uint           `json:"forcedDoneByUserId"`
}

// AuditLog is one append-only audit entry. Meta holds a JSON object.
type AuditLog struct {
	ID           uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	Timestamp    time.Time        `json:"timestamp" gorm:"not null;index"`
	ActorUserID  *uint            `json:"actorUserId" gorm:"index"`
	Action       cnst.AuditAction `json:"action" gorm:"type:varchar(40);not null;index"`
	TargetUserID *uint            `json:"targetUserId"`
	CompanyID    *uint            `json:"companyId" gorm:"index"`
	TaskID       *uint            `json:"taskId" gorm:"index"`
	IP           string           `json:"ip" gorm:"type:varchar(80);not null"`
	UserAgent    string           `json:"userAgent" gorm:"type:varchar(300);not null"`
	Meta         string           `json:"meta" gorm:"type:text"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// PushSubscription is a browser push endpoint registered by a user
type PushSubscription struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:uq_push_user_endpoint"`
	Endpoint  string    `json:"endpoint" gorm:"type:varchar(700);not null;uniqueIndex:uq_push_user_endpoint"`
	P256dh    string    `json:"p256dh" gorm:"type:varchar(255);not null"`
	Auth      string    `json:"auth" gorm:"type:varchar(255);not null"`
	UserAgent string    `json:"userAgent" gorm:"type:varchar(300);not null"`
	Active    bool      `json:"active" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskCounter is a named counter row for stores without native sequences
type TaskCounter struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null"`
}

// TaskQuery filters task listings. Zero values mean no constraint.
type TaskQuery struct {
	CompanyID      *uint
	AssigneeID     *uint
	From           string // inclusive YYYY-MM-DD
	To             string // inclusive YYYY-MM-DD
	IncludeDeleted bool
	NewestFirst    bool // latest date and number first instead of schedule order
	Limit          int
}

// AuditQuery filters audit listings, newest first
type AuditQuery struct {
	Action  cnst.AuditAction
	TaskID  *uint
	ActorID *uint
	Limit   int
}

func allModels() []any {
	return []any{
		&User{}, &Company{}, &CompanyMembership{}, &TaskCategory{}, &Patient{},
		&Task{}, &AuditLog{}, &PushSubscription{}, &TaskCounter{},
	}
}
