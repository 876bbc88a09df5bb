// Package actor carries the authenticated caller and request provenance
// explicitly through every mutating operation.
package actor

import (
	"github.com/amoylab/taskflow/internal/common/cnst"
)

// Principal is an authenticated user
type Principal struct {
	UserID uint
	Role   cnst.Role
}

// IsAdminTier reports whether the principal is admin or super_admin
func (p *Principal) IsAdminTier() bool {
	return p != nil && p.Role.IsAdminTier()
}

// RequestContext identifies who performs an action and from where.
// Actor is nil for system actions such as bootstrap and failed logins.
type RequestContext struct {
	Actor     *Principal
	IP        string
	UserAgent string
}

// ActorID returns the id of the acting user, or nil for system actions
func (rc RequestContext) ActorID() *uint {
	if rc.Actor == nil {
		return nil
	}
	id := rc.Actor.UserID
	return &id
}

// Role returns the role of the acting user, or "" for system actions
func (rc RequestContext) Role() cnst.Role {
	if rc.Actor == nil {
		return ""
	}
	return rc.Actor.Role
}

// New builds a request context for an authenticated caller
func New(userID uint, role cnst.Role, ip, userAgent string) RequestContext {
	return RequestContext{
		Actor:     &Principal{UserID: userID, Role: role},
		IP:        ip,
		UserAgent: userAgent,
	}
}

// System builds a request context without an acting user
func System(ip, userAgent string) RequestContext {
	return RequestContext{IP: ip, UserAgent: userAgent}
}
