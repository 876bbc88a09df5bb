package actor

import (
	"testing"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext(t *testing.T) {
	rc := New(7, cnst.RoleAdmin, "10.0.0.1", "curl")
	require.NotNil(t, rc.ActorID())
	assert.EqualValues(t, 7, *rc.ActorID())
	assert.Equal(t, cnst.RoleAdmin, rc.Role())
	assert.True(t, rc.Actor.IsAdminTier())

	sys := System("", "")
	assert.Nil(t, sys.ActorID())
	assert.Equal(t, cnst.Role(""), sys.Role())
	assert.False(t, sys.Actor.IsAdminTier())
}
