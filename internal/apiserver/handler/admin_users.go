package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/account"
	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
)

// ListUsers lists every user
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context(), middleware.RequestContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]*dto.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, toUserInfo(u, nil))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// GetUser returns one user with its companies
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.accounts.GetUser(c.Request.Context(), middleware.RequestContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(detail.User, detail.CompanySlugs))
}

// CreateUser handles user creation
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.CreateUser(c.Request.Context(), middleware.RequestContext(c), account.NewUser{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		ExternalID:   req.ExternalID,
		Role:         cnst.Role(req.Role),
		Password:     req.Password,
		CompanySlugs: req.CompanySlugs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondCreated(c, i18n.MsgUserCreated, nil, gin.H{"user": toUserInfo(u, nil)})
}

// UpdateUser changes the profile of a user
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.RequestContext(c), id, account.ProfileUpdate{
		DisplayName: req.DisplayName,
		ExternalID:  req.ExternalID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgUserUpdated, nil, gin.H{"user": toUserInfo(u, nil)})
}

// ResetPassword issues a temporary password
func (h *Handler) ResetPassword(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	temp, err := h.accounts.ResetPassword(c.Request.Context(), middleware.RequestContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgPasswordReset, nil, gin.H{"temporaryPassword": temp})
}

// SetRole grants a role
func (h *Handler) SetRole(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.accounts.SetRole(c.Request.Context(), middleware.RequestContext(c), id, cnst.Role(req.Role)); err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgUserUpdated, nil, nil)
}

// SetDisabled disables or re-enables a user
func (h *Handler) SetDisabled(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetDisabledRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.accounts.SetDisabled(c.Request.Context(), middleware.RequestContext(c), id, *req.Disabled); err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgUserUpdated, nil, nil)
}

// SetUserCompanies replaces the companies of a user
func (h *Handler) SetUserCompanies(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetCompaniesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	companies, err := h.accounts.SetCompanies(c.Request.Context(), middleware.RequestContext(c), id, req.CompanySlugs)
	if err != nil {
		h.fail(c, err)
		return
	}
	slugs := make([]string, 0, len(companies))
	for _, co := range companies {
		slugs = append(slugs, co.Slug)
	}
	i18n.RespondOK(c, i18n.MsgUserUpdated, nil, gin.H{"companySlugs": slugs})
}
