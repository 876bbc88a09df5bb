// Package policy is the single authorization decision table.
//
// Decide is pure: it never touches storage. Callers load whatever the
// request needs (task assignee, target user role) before asking.
package policy

import (
	"fmt"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/common/cnst"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// Action is something a principal wants to do
type Action string

const (
	ActionViewTask          Action = "view_task"
	ActionCompleteTask      Action = "complete_task"
	ActionManageTasks       Action = "manage_tasks"
	ActionManageCatalog     Action = "manage_catalog"
	ActionManageUsers       Action = "manage_users"
	ActionAssignRole        Action = "assign_role"
	ActionModifyUser        Action = "modify_user"
	ActionResetPassword     Action = "reset_password"
	ActionDisableUser       Action = "disable_user"
	ActionChangeOwnPassword Action = "change_own_password"
	ActionViewAudit         Action = "view_audit"
)

// Request is one authorization question.
//
// TaskAssigneeID is set for task view/complete. TargetRole is the current
// role of an existing target user. NewRole is the role being created or
// granted.
type Request struct {
	Actor          *actor.Principal
	Action         Action
	TaskAssigneeID uint
	TargetRole     cnst.Role
	NewRole        cnst.Role
}

// Rule is a named predicate. It returns "" to allow or a denial reason.
type Rule struct {
	Name  string
	Check func(Request) string
}

var (
	// OwnTask: any role may view or complete a task only when assigned to it
	OwnTask = Rule{Name: "own_task", Check: func(r Request) string {
		if r.Actor.UserID != r.TaskAssigneeID {
			return "task is not assigned to you"
		}
		return ""
	}}

	// AdminTier: tasks, categories, patients, companies, user listing and audit
	AdminTier = Rule{Name: "admin_tier", Check: func(r Request) string {
		if !r.Actor.IsAdminTier() {
			return "admin role required"
		}
		return ""
	}}

	// GrantRole: admin-tier may create or grant employee and admin,
	// only super_admin may create or grant super_admin
	GrantRole = Rule{Name: "grant_role", Check: func(r Request) string {
		if !r.NewRole.Valid() {
			return fmt.Sprintf("unknown role %q", r.NewRole)
		}
		if r.NewRole == cnst.RoleSuperAdmin && r.Actor.Role != cnst.RoleSuperAdmin {
			return "only super_admin may grant super_admin"
		}
		return ""
	}}

	// ProtectSuperAdmin: an existing super_admin account is never modified here
	ProtectSuperAdmin = Rule{Name: "protect_super_admin", Check: func(r Request) string {
		if r.TargetRole == cnst.RoleSuperAdmin {
			return "super_admin accounts cannot be modified"
		}
		return ""
	}}

	// SelfPassword: super_admin passwords are rotated out of band
	SelfPassword = Rule{Name: "self_password", Check: func(r Request) string {
		if r.Actor.Role == cnst.RoleSuperAdmin {
			return "super_admin cannot change password here"
		}
		return ""
	}}
)

var table = map[Action][]Rule{
	ActionViewTask:          {OwnTask},
	ActionCompleteTask:      {OwnTask},
	ActionManageTasks:       {AdminTier},
	ActionManageCatalog:     {AdminTier},
	ActionManageUsers:       {AdminTier},
	ActionAssignRole:        {AdminTier, ProtectSuperAdmin, GrantRole},
	ActionModifyUser:        {AdminTier, ProtectSuperAdmin},
	ActionResetPassword:     {AdminTier, ProtectSuperAdmin},
	ActionDisableUser:       {AdminTier, ProtectSuperAdmin},
	ActionChangeOwnPassword: {SelfPassword},
	ActionViewAudit:         {AdminTier},
}

// Rules returns the predicates evaluated for action
func Rules(action Action) []Rule {
	return table[action]
}

// Decide allows the request or returns a forbidden error naming the first
// failed rule. Unknown actions and missing principals are denied.
func Decide(r Request) error {
	if r.Actor == nil {
		return apperr.Forbidden("no principal")
	}
	rules, ok := table[r.Action]
	if !ok {
		return apperr.Forbidden(fmt.Sprintf("unknown action %q", r.Action))
	}
	for _, rule := range rules {
		if reason := rule.Check(r); reason != "" {
			return &apperr.Error{
				Kind:    apperr.KindForbidden,
				Message: "forbidden: " + reason,
				Details: map[string]any{"rule": rule.Name},
			}
		}
	}
	return nil
}

// Allowed reports whether Decide would allow the request
func Allowed(r Request) bool {
	return Decide(r) == nil
}
