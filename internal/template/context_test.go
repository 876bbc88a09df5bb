package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext("taskflow", "https://tasks.example")
	assert.Equal(t, "taskflow", ctx.AppName)
	assert.Equal(t, "https://tasks.example", ctx.BaseURL)
	assert.NotNil(t, ctx.Env)
	assert.Zero(t, ctx.TaskCount)
}
