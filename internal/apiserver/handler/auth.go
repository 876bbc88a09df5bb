package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
)

// Login handles user login. The token is returned in the body and set as
// an HttpOnly session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	token, user, err := h.accounts.Login(c.Request.Context(), middleware.RequestContext(c), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.tokenTTL.Seconds()))
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: toUserInfo(user, nil)})
}

// Logout records the logout and clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), middleware.RequestContext(c)); err != nil {
		h.fail(c, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	i18n.RespondOK(c, i18n.MsgLoggedOut, nil, nil)
}

// ChangePassword replaces the caller's password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), middleware.RequestContext(c), req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgPasswordChanged, nil, nil)
}

// Me returns the signed-in user
func (h *Handler) Me(c *gin.Context) {
	user, err := h.accounts.Me(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(user, nil))
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.server.SessionCookie, value, maxAge, "/", "", h.server.CookieSecure, true)
}
