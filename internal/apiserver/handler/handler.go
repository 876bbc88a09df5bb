// Package handler exposes the task scheduler over HTTP.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/account"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/common/errorx"
	"github.com/amoylab/taskflow/internal/notify"
	"github.com/amoylab/taskflow/internal/task"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// Deps are the services behind the API
type Deps struct {
	Accounts *account.Service
	Tasks    *task.Service
	Guard    *tenancy.Guard
	Catalog  *tenancy.Catalog
	Audit    *audit.Recorder
	Push     *notify.Dispatcher
	Errors   *errorx.ErrorHandler
	Server   config.ServerConfig
	TokenTTL time.Duration
	Logger   *zap.Logger
}

// Handler implements every route
type Handler struct {
	accounts *account.Service
	tasks    *task.Service
	guard    *tenancy.Guard
	catalog  *tenancy.Catalog
	audit    *audit.Recorder
	push     *notify.Dispatcher
	errs     *errorx.ErrorHandler
	server   config.ServerConfig
	loc      *time.Location
	tokenTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		accounts: d.Accounts,
		tasks:    d.Tasks,
		guard:    d.Guard,
		catalog:  d.Catalog,
		audit:    d.Audit,
		push:     d.Push,
		errs:     d.Errors,
		server:   d.Server,
		loc:      d.Server.Location(),
		tokenTTL: d.TokenTTL,
		logger:   d.Logger.Named("handler"),
		now:      time.Now,
	}
}

// fail renders err and stops the request
func (h *Handler) fail(c *gin.Context, err error) {
	h.errs.HandleError(c, err)
}

// bindJSON binds the body or renders a malformed request error
func (h *Handler) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.fail(c, errorx.Malformed(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		h.fail(c, errorx.Malformed(err))
		return false
	}
	return true
}

// idParam parses a numeric path parameter
func (h *Handler) idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, apperr.NotFound(name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// asOf is the date the listings are anchored to: the date query parameter
// or today in the configured time zone
func (h *Handler) asOf(c *gin.Context, date string) (time.Time, bool) {
	if date == "" {
		return h.now().In(h.loc), true
	}
	t, err := time.ParseInLocation(cnst.DateLayout, date, h.loc)
	if err != nil {
		h.fail(c, apperr.Invalid("date", "must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return t, true
}

func toUserInfo(u *database.User, slugs []string) *dto.UserInfo {
	return &dto.UserInfo{
		ID:                 u.ID,
		Username:           u.Username,
		DisplayName:        u.DisplayName,
		Role:               u.Role.String(),
		MustChangePassword: u.MustChangePassword,
		Disabled:           u.Disabled,
		ExternalID:         u.ExternalID,
		CreatedAt:          u.CreatedAt,
		LastLoginAt:        u.LastLoginAt,
		CompanySlugs:       slugs,
	}
}
