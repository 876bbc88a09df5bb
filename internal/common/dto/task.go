package dto

// BulkCreateTasksRequest creates the same task for every assignee. Either
// PatientID or the inline patient fields may be given, not both.
type BulkCreateTasksRequest struct {
	CompanySlug    string `json:"companySlug" binding:"required"`
	AssigneeIDs    []uint `json:"assigneeIds" binding:"required,min=1"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time"`
	Category       string `json:"category"`
	Title          string `json:"title" binding:"required"`
	MapsURL        string `json:"mapsUrl"`
	PatientID      *uint  `json:"patientId"`
	PatientName    string `json:"patientName"`
	PatientAddress string `json:"patientAddress"`
	PatientPhone   string `json:"patientPhone"`
	BonusDetails   string `json:"bonusDetails"`
}

// MarkDoneRequest sets or clears completion
type MarkDoneRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// ListTasksQuery are the query parameters of the task listings
type ListTasksQuery struct {
	Date           string `form:"date"` // YYYY-MM-DD, defaults to today
	Company        string `form:"company"`
	IncludeDeleted bool   `form:"include_deleted"`
	Limit          int    `form:"limit"`
}

// AuditQuery are the query parameters of the audit listing
type AuditQuery struct {
	Action   string `form:"action"`
	TaskCode string `form:"task_code"`
	ActorID  *uint  `form:"actor_id"`
	Limit    int    `form:"limit"`
}
