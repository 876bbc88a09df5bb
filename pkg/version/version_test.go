package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Get())
}

func TestVersionIsTrimmedAndPrefixed(t *testing.T) {
	s := Get()
	assert.NotEmpty(t, s)
	assert.True(t, strings.HasPrefix(s, "v"))
	assert.Equal(t, strings.TrimSpace(s), s)
}
