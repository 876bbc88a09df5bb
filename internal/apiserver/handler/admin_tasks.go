package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
	"github.com/amoylab/taskflow/internal/policy"
	"github.com/amoylab/taskflow/internal/task"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// BulkCreateTasks creates the same task for every assignee
func (h *Handler) BulkCreateTasks(c *gin.Context) {
	var req dto.BulkCreateTasksRequest
	if !h.bindJSON(c, &req) {
		return
	}
	patient, err := patientSource(&req)
	if err != nil {
		h.fail(c, err)
		return
	}

	tasks, err := h.tasks.CreateBulk(c.Request.Context(), middleware.RequestContext(c), task.CreateRequest{
		CompanySlug:  req.CompanySlug,
		AssigneeIDs:  req.AssigneeIDs,
		Date:         req.Date,
		Time:         req.Time,
		Category:     req.Category,
		Title:        req.Title,
		MapsURL:      req.MapsURL,
		Patient:      patient,
		BonusDetails: req.BonusDetails,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	codes := make([]string, 0, len(tasks))
	for _, t := range tasks {
		codes = append(codes, t.TaskCode)
	}
	i18n.RespondCreated(c, i18n.MsgTasksCreated, map[string]any{"count": len(codes)}, gin.H{"codes": codes})
}

// patientSource picks the patient variant of a create request
func patientSource(req *dto.BulkCreateTasksRequest) (task.PatientSource, error) {
	inline := req.PatientName != "" || req.PatientAddress != "" || req.PatientPhone != ""
	switch {
	case req.PatientID != nil && inline:
		return nil, apperr.Invalid("patient", "give either patientId or patient fields, not both")
	case req.PatientID != nil:
		return task.PatientRef{ID: *req.PatientID}, nil
	case inline:
		return task.PatientSnapshot{Name: req.PatientName, Address: req.PatientAddress, Phone: req.PatientPhone}, nil
	default:
		return nil, nil
	}
}

// ListRecentTasks is the admin task overview
func (h *Handler) ListRecentTasks(c *gin.Context) {
	var q dto.ListTasksQuery
	if !h.bindQuery(c, &q) {
		return
	}
	asOf, ok := h.asOf(c, q.Date)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListRecent(c.Request.Context(), middleware.RequestContext(c), task.RecentQuery{
		CompanySlug:    q.Company,
		IncludeDeleted: q.IncludeDeleted,
		Limit:          q.Limit,
	}, asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// ForceDoneTask overrides the status of any task
func (h *Handler) ForceDoneTask(c *gin.Context) {
	var req dto.MarkDoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.tasks.ForceDone(c.Request.Context(), middleware.RequestContext(c), c.Param("code"), *req.Done)
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgTaskUpdated, nil, gin.H{"task": t})
}

// DeleteTask soft-deletes a task. Repeating the call is harmless.
func (h *Handler) DeleteTask(c *gin.Context) {
	code := c.Param("code")
	deleted, err := h.tasks.SoftDelete(c.Request.Context(), middleware.RequestContext(c), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := i18n.MsgTaskDeleted
	if !deleted {
		msg = i18n.MsgTaskAlreadyGone
	}
	i18n.RespondOK(c, msg, nil, gin.H{"code": code, "deleted": deleted})
}

// ListAudit lists audit entries, newest first
func (h *Handler) ListAudit(c *gin.Context) {
	rc := middleware.RequestContext(c)
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionViewAudit}); err != nil {
		h.fail(c, err)
		return
	}
	var q dto.AuditQuery
	if !h.bindQuery(c, &q) {
		return
	}
	entries, err := h.audit.List(c.Request.Context(), audit.Filter{
		Action:   cnst.AuditAction(q.Action),
		TaskCode: q.TaskCode,
		ActorID:  q.ActorID,
		Limit:    q.Limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
