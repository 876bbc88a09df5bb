package task

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/notify"
	"github.com/amoylab/taskflow/internal/policy"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/trace"
	"github.com/amoylab/taskflow/pkg/utils"
)

// PatientSource says where the patient fields of new tasks come from.
// It is either a PatientRef or a PatientSnapshot.
type PatientSource interface {
	patientSource()
}

// PatientRef names a stored patient whose current fields are copied into
// every created task
type PatientRef struct {
	ID uint
}

// PatientSnapshot supplies the patient fields directly
type PatientSnapshot struct {
	Name    string
	Address string
	Phone   string
}

func (PatientRef) patientSource()      {}
func (PatientSnapshot) patientSource() {}

// CreateRequest describes one bulk creation: the same task for every
// assignee
type CreateRequest struct {
	CompanySlug  string
	AssigneeIDs  []uint
	Date         string // YYYY-MM-DD
	Time         string // HH:MM, optional
	Category     string // defaults to "general"
	Title        string
	MapsURL      string // derived from the patient address when empty
	Patient      PatientSource
	BonusDetails string
}

// draft is a validated CreateRequest, ready to be written once per assignee
type draft struct {
	company   *database.Company
	assignees []*database.User
	date      string
	time      *string
	category  string
	title     string
	mapsURL   string
	patientID *uint
	patient   PatientSnapshot
	bonus     string
}

// CreateBulk creates one task per distinct assignee.
//
// The batch is all-or-nothing: any unknown assignee, unknown category or
// invalid patient fails the call before a single number is allocated.
// One CREATE_TASK entry is recorded per task and, after commit, each
// assignee gets one TasksAssigned event.
func (s *Service) CreateBulk(ctx context.Context, rc actor.RequestContext, req CreateRequest) ([]*database.Task, error) {
	span := trace.Tracer(cnst.TraceTask).Start(ctx, cnst.SpanTaskBulkCreate).
		WithAttrs(attribute.String(cnst.AttrCompanySlug, req.CompanySlug))
	defer span.End()
	ctx = span.Ctx

	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageTasks}); err != nil {
		return nil, err
	}

	var created []*database.Task
	var company *database.Company
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		d, err := s.prepare(ctx, rc, req)
		if err != nil {
			return err
		}
		company = d.company

		created = make([]*database.Task, 0, len(d.assignees))
		for _, u := range d.assignees {
			t, err := s.insert(ctx, rc, d, u)
			if err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.WithAttrs(attribute.Int(cnst.AttrTaskCount, len(created)))
	s.metrics.TasksCreated(company.Slug, len(created))
	s.logger.Info("tasks created",
		zap.String("company", company.Slug),
		zap.Int("count", len(created)),
		zap.Uintp("actor_id", rc.ActorID()))

	s.publishAssigned(company, created)
	return created, nil
}

// prepare validates req against the store. It runs inside the creating
// transaction, before any allocation.
func (s *Service) prepare(ctx context.Context, rc actor.RequestContext, req CreateRequest) (*draft, error) {
	company, err := s.guard.ResolveScope(ctx, rc.Actor, strings.TrimSpace(req.CompanySlug), tenancy.ScopeManage)
	if err != nil {
		return nil, err
	}

	d := &draft{company: company}
	if d.date, err = parseDate(req.Date); err != nil {
		return nil, err
	}
	if d.time, err = parseTime(req.Time); err != nil {
		return nil, err
	}
	d.title = strings.TrimSpace(req.Title)
	if d.title == "" {
		return nil, apperr.Invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(d.title) > maxTitleLen {
		return nil, apperr.Invalid("title", "too long")
	}
	if n := len(utils.UniqueUints(req.AssigneeIDs)); n > s.maxBatch {
		return nil, apperr.Invalid("assignee_user_ids", "too many assignees in one batch")
	}

	if d.assignees, err = s.guard.ValidateAssignees(ctx, req.AssigneeIDs); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Category)
	if name == "" {
		name = DefaultCategory
	}
	category, err := s.guard.ValidateCategory(ctx, company, name)
	if err != nil {
		return nil, err
	}
	d.category = category.Name

	d.mapsURL = strings.TrimSpace(req.MapsURL)
	switch p := req.Patient.(type) {
	case PatientRef:
		stored, err := s.db.GetPatientByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if stored.CompanyID != company.ID || !stored.Active {
			return nil, apperr.Invalid("patient_id", "invalid patient for company")
		}
		id := stored.ID
		d.patientID = &id
		d.patient = PatientSnapshot{Name: stored.Name, Address: stored.Address, Phone: stored.Phone}
		if d.mapsURL == "" {
			d.mapsURL = stored.MapsURL
		}
	case PatientSnapshot:
		d.patient = PatientSnapshot{
			Name:    strings.TrimSpace(p.Name),
			Address: strings.TrimSpace(p.Address),
			Phone:   strings.TrimSpace(p.Phone),
		}
	case nil:
	default:
		return nil, apperr.Invalid("patient", "unsupported patient source")
	}
	if d.mapsURL == "" {
		d.mapsURL = tenancy.MapsURL(d.patient.Address)
	}
	d.bonus = strings.TrimSpace(req.BonusDetails)
	return d, nil
}

func (s *Service) insert(ctx context.Context, rc actor.RequestContext, d *draft, assignee *database.User) (*database.Task, error) {
	num, code, err := s.alloc.Allocate(ctx)
	if err != nil {
		return nil, err
	}
	t := &database.Task{
		TaskNum:        num,
		TaskCode:       code,
		CompanyID:      d.company.ID,
		AssignedUserID: assignee.ID,
		Category:       d.category,
		TaskDate:       d.date,
		TaskTime:       d.time,
		Title:          d.title,
		MapsURL:        d.mapsURL,
		PatientID:      d.patientID,
		PatientName:    d.patient.Name,
		PatientAddress: d.patient.Address,
		PatientPhone:   d.patient.Phone,
		BonusDetails:   d.bonus,
		Status:         cnst.TaskStatusTodo,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.db.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	userID, companyID, taskID := assignee.ID, d.company.ID, t.ID
	err = s.audit.Record(ctx, rc, cnst.ActionCreateTask,
		audit.Targets{UserID: &userID, CompanyID: &companyID, TaskID: &taskID},
		audit.Meta{cnst.MetaTaskCode: code, cnst.MetaCategory: d.category})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// publishAssigned hands one event per distinct assignee to the publisher
func (s *Service) publishAssigned(company *database.Company, tasks []*database.Task) {
	if s.events == nil {
		return
	}
	counts := make(map[uint]int, len(tasks))
	order := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		if counts[t.AssignedUserID] == 0 {
			order = append(order, t.AssignedUserID)
		}
		counts[t.AssignedUserID]++
	}
	for _, uid := range order {
		s.events.Publish(notify.Event{
			Kind:        notify.EventTasksAssigned,
			UserID:      uid,
			CompanySlug: company.Slug,
			TaskCount:   counts[uid],
		})
	}
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Invalid("task_date", "must not be empty")
	}
	d, err := time.Parse(cnst.DateLayout, s)
	if err != nil {
		return "", apperr.Invalid("task_date", "expected YYYY-MM-DD")
	}
	return dateString(d), nil
}

func parseTime(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(cnst.TimeLayout, s)
	if err != nil {
		return nil, apperr.Invalid("task_time", "expected HH:MM")
	}
	out := t.Format(cnst.TimeLayout)
	return &out, nil
}

func dateString(t time.Time) string {
	return t.Format(cnst.DateLayout)
}
