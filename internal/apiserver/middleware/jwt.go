package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/common/errorx"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

const (
	ctxKeyPrincipal = "principal"
	ctxKeyToken     = "session_token"
)

// Authenticator resolves a session token to a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*actor.Principal, error)
}

// JWTAuthMiddleware requires a valid session. The token is read from the
// Authorization bearer header, then from the session cookie.
func JWTAuthMiddleware(auth Authenticator, cookieName string, errs *errorx.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			errs.HandleError(c, apperr.ErrUnauthenticated)
			return
		}

		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			errs.HandleError(c, err)
			return
		}
		c.Set(ctxKeyPrincipal, p)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// AdminAuthMiddleware lets only admin and super_admin through. It must run
// after JWTAuthMiddleware.
func AdminAuthMiddleware(errs *errorx.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p == nil {
			errs.HandleError(c, apperr.ErrUnauthenticated)
			return
		}
		if !p.IsAdminTier() {
			errs.HandleError(c, apperr.Forbidden("admin role required"))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, or nil
func Principal(c *gin.Context) *actor.Principal {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*actor.Principal)
	return p
}

// RequestContext builds the provenance of the current request
func RequestContext(c *gin.Context) actor.RequestContext {
	return actor.RequestContext{
		Actor:     Principal(c),
		IP:        ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}

// ClientIP prefers the first X-Forwarded-For hop over the socket address
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	return c.ClientIP()
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
