package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("task", "T000042")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "T000042", DetailsOf(wrapped)["identifier"])
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Nil(t, DetailsOf(errors.New("boom")))
}

func TestUnknownAssigneesListsEveryMissingID(t *testing.T) {
	err := UnknownAssignees([]uint{9, 3, 7})
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, []uint{3, 7, 9}, DetailsOf(err)["missing_user_ids"])
	assert.Equal(t, "unknown user ids: [3 7 9]", err.Error())
}

func TestUnknownCategoryAndCompanies(t *testing.T) {
	err := UnknownCategory("acme", "bogus")
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "bogus", DetailsOf(err)["category"])

	err = UnknownCompanies([]string{"zeta", "alpha"})
	assert.Equal(t, []string{"alpha", "zeta"}, DetailsOf(err)["missing_company_slugs"])
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrAllocationExhausted.WithDetail("task_num", int64(1000000))
	assert.True(t, errors.Is(err, ErrAllocationExhausted))
	assert.Nil(t, ErrAllocationExhausted.Details)
	assert.Equal(t, int64(1000000), err.Details["task_num"])
}

func TestForbiddenConflictInvalid(t *testing.T) {
	assert.True(t, errors.Is(Forbidden("employees cannot manage tasks"), ErrForbidden))
	assert.True(t, errors.Is(Conflict("category"), ErrConflict))
	assert.True(t, errors.Is(Invalid("task_time", "expected HH:MM"), ErrValidationFailed))
}
