package database

import (
	"errors"
	"strings"

	apperr "github.com/amoylab/taskflow/pkg/errors"

	"gorm.io/gorm"
)

// notFoundOr maps gorm's record-not-found onto the domain taxonomy
func notFoundOr(err error, resource string, identifier any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, identifier)
	}
	return err
}

// translateError maps unique key violations onto a Conflict error
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return apperr.Conflict(resource)
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}
