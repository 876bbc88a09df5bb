package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
)

// ListCompanies returns the companies of the caller with their due counts
func (h *Handler) ListCompanies(c *gin.Context) {
	out, err := h.guard.CompaniesOverview(c.Request.Context(), middleware.Principal(c), h.now().In(h.loc))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": out})
}

// ListCompanyTasks lists the tasks of a company visible to the caller
func (h *Handler) ListCompanyTasks(c *gin.Context) {
	var q dto.ListTasksQuery
	if !h.bindQuery(c, &q) {
		return
	}
	asOf, ok := h.asOf(c, q.Date)
	if !ok {
		return
	}
	rc := middleware.RequestContext(c)

	tasks, err := h.tasks.List(c.Request.Context(), rc, c.Param("slug"), asOf)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetCompanyTask returns one task of a company
func (h *Handler) GetCompanyTask(c *gin.Context) {
	detail, err := h.tasks.View(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": detail.Task, "company": detail.Company})
}

// MarkTaskDone sets or clears the completion of the caller's task
func (h *Handler) MarkTaskDone(c *gin.Context) {
	var req dto.MarkDoneRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.tasks.MarkDone(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), c.Param("code"), *req.Done)
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgTaskUpdated, nil, gin.H{"task": t})
}
