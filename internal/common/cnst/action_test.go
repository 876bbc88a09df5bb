package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditAction_Valid(t *testing.T) {
	assert.Len(t, AuditActions, 14)
	for _, a := range AuditActions {
		assert.True(t, a.Valid(), a.String())
	}
	assert.False(t, AuditAction("DROP_TABLE").Valid())
	assert.False(t, AuditAction("").Valid())
	assert.False(t, AuditAction("login").Valid())
}

func TestAuditAction_String(t *testing.T) {
	assert.Equal(t, "CREATE_TASK", ActionCreateTask.String())
	assert.Equal(t, "UNFORCE_DONE_TASK", ActionUnforceDoneTask.String())
	assert.Equal(t, "ASSIGN_COMPANY", ActionAssignCompany.String())
}
