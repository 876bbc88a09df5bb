package cnst

// AuditAction is the closed set of actions recorded in the audit log
type AuditAction string

const (
	ActionLogin           AuditAction = "LOGIN"
	ActionLogout          AuditAction = "LOGOUT"
	ActionCreateUser      AuditAction = "CREATE_USER"
	ActionResetPassword   AuditAction = "RESET_PASSWORD"
	ActionChangePassword  AuditAction = "CHANGE_PASSWORD"
	ActionDisableUser     AuditAction = "DISABLE_USER"
	ActionSetRole         AuditAction = "SET_ROLE"
	ActionAssignCompany   AuditAction = "ASSIGN_COMPANY"
	ActionCreateTask      AuditAction = "CREATE_TASK"
	ActionCompleteTask    AuditAction = "COMPLETE_TASK"
	ActionUncompleteTask  AuditAction = "UNCOMPLETE_TASK"
	ActionDeleteTask      AuditAction = "DELETE_TASK"
	ActionForceDoneTask   AuditAction = "FORCE_DONE_TASK"
	ActionUnforceDoneTask AuditAction = "UNFORCE_DONE_TASK"
)

// AuditActions lists every known action in declaration order
var AuditActions = []AuditAction{
	ActionLogin, ActionLogout, ActionCreateUser, ActionResetPassword,
	ActionChangePassword, ActionDisableUser, ActionSetRole, ActionAssignCompany,
	ActionCreateTask, ActionCompleteTask, ActionUncompleteTask, ActionDeleteTask,
	ActionForceDoneTask, ActionUnforceDoneTask,
}

func (a AuditAction) String() string {
	return string(a)
}

// Valid reports whether a is one of the known audit actions
func (a AuditAction) Valid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

// Audit metadata keys. Only these keys are persisted with an audit entry.
const (
	MetaTaskCode    = "task_code"
	MetaCategory    = "category"
	MetaNewRole     = "new_role"
	MetaDisabled    = "disabled"
	MetaCompanySlug = "company_slug"
	MetaRemoved     = "removed"
)
