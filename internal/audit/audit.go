// Package audit appends entries to the append-only audit log.
//
// Record always writes through the transaction carried by ctx, so an entry
// exists if and only if the mutation it describes commits.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/ident"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/utils"
)

const (
	// MaxUserAgent is the stored length of the user agent
	MaxUserAgent = 300
	// DefaultListLimit is used when a listing asks for no explicit limit
	DefaultListLimit = 200
	// MaxListLimit caps every listing
	MaxListLimit = 1000
)

var allowedMetaKeys = map[string]struct{}{
	cnst.MetaTaskCode:    {},
	cnst.MetaCategory:    {},
	cnst.MetaNewRole:     {},
	cnst.MetaDisabled:    {},
	cnst.MetaCompanySlug: {},
	cnst.MetaRemoved:     {},
}

// Targets are the optional entities an entry refers to
type Targets struct {
	UserID    *uint
	CompanyID *uint
	TaskID    *uint
}

// Meta is the small structured value attached to an entry. Keys outside
// the allowed set are rejected.
type Meta map[string]any

// Entry is a decoded audit log row
type Entry struct {
	ID           uint             `json:"id"`
	Timestamp    time.Time        `json:"timestamp"`
	ActorUserID  *uint            `json:"actorUserId"`
	Action       cnst.AuditAction `json:"action"`
	TargetUserID *uint            `json:"targetUserId"`
	CompanyID    *uint            `json:"companyId"`
	TaskID       *uint            `json:"taskId"`
	IP           string           `json:"ip"`
	UserAgent    string           `json:"userAgent"`
	Meta         map[string]any   `json:"meta"`
}

// Filter narrows a listing. TaskCode is resolved to the task it names.
type Filter struct {
	Action   cnst.AuditAction
	TaskCode string
	ActorID  *uint
	Limit    int
}

// Recorder writes and lists audit entries
type Recorder struct {
	db      database.Database
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRecorder creates a recorder. m may be nil.
func NewRecorder(db database.Database, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{
		db:      db,
		logger:  logger.Named("audit"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry. Any error must abort the caller's transaction.
func (r *Recorder) Record(ctx context.Context, rc actor.RequestContext, action cnst.AuditAction, targets Targets, meta Meta) error {
	if !action.Valid() {
		return apperr.Invalid("action", fmt.Sprintf("unknown audit action %q", action))
	}
	encoded, err := encodeMeta(meta)
	if err != nil {
		return err
	}

	entry := &database.AuditLog{
		Timestamp:    r.now(),
		ActorUserID:  rc.ActorID(),
		Action:       action,
		TargetUserID: targets.UserID,
		CompanyID:    targets.CompanyID,
		TaskID:       targets.TaskID,
		IP:           utils.Truncate(rc.IP, 80),
		UserAgent:    utils.Truncate(rc.UserAgent, MaxUserAgent),
		Meta:         encoded,
	}
	if err := r.db.CreateAuditLog(ctx, entry); err != nil {
		r.logger.Error("failed to append audit entry",
			zap.String("action", action.String()),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	r.metrics.AuditRecorded(action.String())
	return nil
}

// List returns entries newest first
func (r *Recorder) List(ctx context.Context, f Filter) ([]*Entry, error) {
	q := database.AuditQuery{
		Action:  f.Action,
		ActorID: f.ActorID,
		Limit:   clampLimit(f.Limit),
	}
	if f.Action != "" && !f.Action.Valid() {
		return nil, apperr.Invalid("action", fmt.Sprintf("unknown audit action %q", f.Action))
	}
	if f.TaskCode != "" {
		num, err := ident.Decode(f.TaskCode)
		if err != nil {
			return []*Entry{}, nil
		}
		task, err := r.db.GetTaskByNum(ctx, num)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return []*Entry{}, nil
			}
			return nil, err
		}
		q.TaskID = &task.ID
	}

	rows, err := r.db.ListAuditLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	out := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, decode(row))
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func encodeMeta(meta Meta) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	var unknown []string
	for k := range meta {
		if _, ok := allowedMetaKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return "", apperr.ErrValidationFailed.WithDetail("unknown_meta_keys", unknown)
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", apperr.Invalid("meta", err.Error())
	}
	return string(b), nil
}

func decode(row *database.AuditLog) *Entry {
	meta := map[string]any{}
	if parsed := gjson.Parse(row.Meta); parsed.IsObject() {
		parsed.ForEach(func(key, value gjson.Result) bool {
			meta[key.String()] = value.Value()
			return true
		})
	}
	return &Entry{
		ID:           row.ID,
		Timestamp:    row.Timestamp,
		ActorUserID:  row.ActorUserID,
		Action:       row.Action,
		TargetUserID: row.TargetUserID,
		CompanyID:    row.CompanyID,
		TaskID:       row.TaskID,
		IP:           row.IP,
		UserAgent:    row.UserAgent,
		Meta:         meta,
	}
}
