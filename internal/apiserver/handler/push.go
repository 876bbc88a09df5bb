package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
	"github.com/amoylab/taskflow/internal/notify"
)

// PushPublicKey returns the VAPID public key browsers subscribe with
func (h *Handler) PushPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PushPublicKeyResponse{
		PublicKey: h.push.PublicKey(),
		Enabled:   h.push.Enabled(),
	})
}

// PushSubscribe stores a push subscription of the caller
func (h *Handler) PushSubscribe(c *gin.Context) {
	var req dto.PushSubscribeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.push.Subscribe(c.Request.Context(), middleware.Principal(c).UserID, notify.SubscriptionInput{
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgSubscribed, nil, gin.H{"id": sub.ID})
}

// PushUnsubscribe deactivates a push subscription of the caller
func (h *Handler) PushUnsubscribe(c *gin.Context) {
	var req dto.PushUnsubscribeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	found, err := h.push.Unsubscribe(c.Request.Context(), middleware.Principal(c).UserID, req.Endpoint)
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgUnsubscribed, nil, gin.H{"found": found})
}

// PushTest sends a test notification to every device of the caller
func (h *Handler) PushTest(c *gin.Context) {
	queued := h.push.SendTest(c.Request.Context(), middleware.Principal(c).UserID)
	i18n.RespondOK(c, i18n.MsgTestNotification, map[string]any{"queued": queued}, nil)
}
