package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/common/cnst"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

var (
	employee   = &actor.Principal{UserID: 1, Role: cnst.RoleEmployee}
	admin      = &actor.Principal{UserID: 2, Role: cnst.RoleAdmin}
	superAdmin = &actor.Principal{UserID: 3, Role: cnst.RoleSuperAdmin}
)

func TestDecide_OwnTask(t *testing.T) {
	for _, p := range []*actor.Principal{employee, admin, superAdmin} {
		for _, action := range []Action{ActionViewTask, ActionCompleteTask} {
			assert.NoError(t, Decide(Request{Actor: p, Action: action, TaskAssigneeID: p.UserID}), "%s %s", p.Role, action)

			err := Decide(Request{Actor: p, Action: action, TaskAssigneeID: 99})
			require.Error(t, err, "%s %s", p.Role, action)
			assert.ErrorIs(t, err, apperr.ErrForbidden)
			assert.Equal(t, "own_task", apperr.DetailsOf(err)["rule"])
		}
	}
}

func TestDecide_AdminTierActions(t *testing.T) {
	actions := []Action{ActionManageTasks, ActionManageCatalog, ActionManageUsers, ActionViewAudit}
	for _, action := range actions {
		err := Decide(Request{Actor: employee, Action: action})
		assert.ErrorIs(t, err, apperr.ErrForbidden, action)
		assert.NoError(t, Decide(Request{Actor: admin, Action: action}), action)
		assert.NoError(t, Decide(Request{Actor: superAdmin, Action: action}), action)
	}
}

func TestDecide_AssignRole(t *testing.T) {
	tests := []struct {
		name    string
		actor   *actor.Principal
		target  cnst.Role
		newRole cnst.Role
		allowed bool
	}{
		{"employee cannot create admin", employee, "", cnst.RoleAdmin, false},
		{"admin creates employee", admin, "", cnst.RoleEmployee, true},
		{"admin creates admin", admin, "", cnst.RoleAdmin, true},
		{"admin cannot create super_admin", admin, "", cnst.RoleSuperAdmin, false},
		{"admin cannot promote to super_admin", admin, cnst.RoleEmployee, cnst.RoleSuperAdmin, false},
		{"super_admin creates super_admin", superAdmin, "", cnst.RoleSuperAdmin, true},
		{"super_admin promotes admin", superAdmin, cnst.RoleAdmin, cnst.RoleSuperAdmin, true},
		{"super_admin cannot demote super_admin", superAdmin, cnst.RoleSuperAdmin, cnst.RoleAdmin, false},
		{"unknown role", superAdmin, "", cnst.Role("root"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decide(Request{Actor: tt.actor, Action: ActionAssignRole, TargetRole: tt.target, NewRole: tt.newRole})
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrForbidden)
		})
	}
}

func TestDecide_SuperAdminTargetsAreProtected(t *testing.T) {
	for _, action := range []Action{ActionModifyUser, ActionResetPassword, ActionDisableUser} {
		for _, p := range []*actor.Principal{admin, superAdmin} {
			err := Decide(Request{Actor: p, Action: action, TargetRole: cnst.RoleSuperAdmin})
			require.Error(t, err)
			assert.Equal(t, "protect_super_admin", apperr.DetailsOf(err)["rule"])

			assert.NoError(t, Decide(Request{Actor: p, Action: action, TargetRole: cnst.RoleAdmin}))
			assert.NoError(t, Decide(Request{Actor: p, Action: action, TargetRole: cnst.RoleEmployee}))
		}
		err := Decide(Request{Actor: employee, Action: action, TargetRole: cnst.RoleEmployee})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	}
}

func TestDecide_ChangeOwnPassword(t *testing.T) {
	assert.NoError(t, Decide(Request{Actor: employee, Action: ActionChangeOwnPassword}))
	assert.NoError(t, Decide(Request{Actor: admin, Action: ActionChangeOwnPassword}))
	assert.ErrorIs(t, Decide(Request{Actor: superAdmin, Action: ActionChangeOwnPassword}), apperr.ErrForbidden)
}

func TestDecide_Unknown(t *testing.T) {
	assert.ErrorIs(t, Decide(Request{Action: ActionManageTasks}), apperr.ErrForbidden)
	assert.ErrorIs(t, Decide(Request{Actor: superAdmin, Action: Action("launch")}), apperr.ErrForbidden)
	assert.False(t, Allowed(Request{Actor: superAdmin, Action: Action("launch")}))
}

func TestRules_IndependentlyTestable(t *testing.T) {
	assert.Equal(t, "", GrantRole.Check(Request{Actor: admin, NewRole: cnst.RoleAdmin}))
	assert.NotEmpty(t, GrantRole.Check(Request{Actor: admin, NewRole: cnst.RoleSuperAdmin}))
	assert.NotEmpty(t, ProtectSuperAdmin.Check(Request{Actor: superAdmin, TargetRole: cnst.RoleSuperAdmin}))
	assert.NotEmpty(t, AdminTier.Check(Request{Actor: employee}))
	assert.Equal(t, "", OwnTask.Check(Request{Actor: employee, TaskAssigneeID: employee.UserID}))
	assert.Len(t, Rules(ActionAssignRole), 3)
}
