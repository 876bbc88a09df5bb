package errorx

import (
	"github.com/amoylab/taskflow/internal/i18n"
)

// Localize returns a copy of err whose Message is translated into lang.
// Details are available to the message template.
func Localize(err *APIError, translator *i18n.I18n, lang string) *APIError {
	out := *err
	if err.messageID == "" {
		return &out
	}
	out.Message = translator.Translate(err.messageID, lang, err.Details)
	if out.Message == err.messageID {
		out.Message = fallbackMessages[err.Category]
	}
	return &out
}

// fallbackMessages are used when no translation bundle is loaded
var fallbackMessages = map[ErrorCategory]string{
	CategoryValidation:     "The request is invalid",
	CategoryAuthentication: "Authentication required",
	CategoryAuthorization:  "You are not allowed to do this",
	CategoryNotFound:       "Resource not found",
	CategoryConflict:       "Resource already exists",
	CategoryInternal:       "Internal server error",
}
