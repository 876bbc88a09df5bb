package i18n

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success message IDs
const (
	MsgLoggedIn          = "SuccessLoggedIn"
	MsgLoggedOut         = "SuccessLoggedOut"
	MsgPasswordChanged   = "SuccessPasswordChanged"
	MsgTasksCreated      = "SuccessTasksCreated"
	MsgTaskUpdated       = "SuccessTaskUpdated"
	MsgTaskDeleted       = "SuccessTaskDeleted"
	MsgTaskAlreadyGone   = "SuccessTaskAlreadyDeleted"
	MsgUserCreated       = "SuccessUserCreated"
	MsgUserUpdated       = "SuccessUserUpdated"
	MsgPasswordReset     = "SuccessPasswordReset"
	MsgSubscribed        = "SuccessPushSubscribed"
	MsgUnsubscribed      = "SuccessPushUnsubscribed"
	MsgTestNotification  = "SuccessTestNotificationQueued"
	MsgOperationComplete = "SuccessOperationCompleted"
)

// RespondWithSuccess writes a translated message next to payload. Map
// payloads are merged at the top level, anything else goes under "data".
func RespondWithSuccess(c *gin.Context, statusCode int, msgID string, data map[string]any, payload any) {
	response := gin.H{
		"message": TranslateMessage(c, msgID, data),
	}
	for k, v := range data {
		response[k] = v
	}

	switch p := payload.(type) {
	case nil:
	case gin.H:
		for k, v := range p {
			response[k] = v
		}
	case map[string]any:
		for k, v := range p {
			response[k] = v
		}
	default:
		response["data"] = payload
	}

	c.JSON(statusCode, response)
}

// RespondOK sends a success HTTP response with status code 200
func RespondOK(c *gin.Context, msgID string, data map[string]any, payload any) {
	RespondWithSuccess(c, http.StatusOK, msgID, data, payload)
}

// RespondCreated sends a success HTTP response with status code 201
func RespondCreated(c *gin.Context, msgID string, data map[string]any, payload any) {
	RespondWithSuccess(c, http.StatusCreated, msgID, data, payload)
}
