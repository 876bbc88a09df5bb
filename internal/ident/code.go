package ident

import (
	"fmt"
	"regexp"
	"strconv"

	apperr "github.com/amoylab/taskflow/pkg/errors"
)

const (
	// CodePrefix is the constant letter of every task code
	CodePrefix = "T"
	// MaxNumber is the largest number representable in a task code
	MaxNumber int64 = 999999
	// FirstNumber is the first number handed out by an empty store
	FirstNumber int64 = 10
)

var codePattern = regexp.MustCompile(`^T[0-9]{6}$`)

// ErrMalformedCode is returned for strings that are not task codes. It has
// the not-found kind: an invalid code never names an existing task.
var ErrMalformedCode = &apperr.Error{Kind: apperr.KindNotFound, Message: "malformed task code"}

// Encode renders a task number as its code, e.g. 42 -> T000042
func Encode(n int64) (string, error) {
	if n < 0 || n > MaxNumber {
		return "", apperr.ErrAllocationExhausted.WithDetail("task_num", n)
	}
	return fmt.Sprintf("%s%06d", CodePrefix, n), nil
}

// Decode parses a task code back into its number. Only the exact form
// T followed by six digits is accepted: no trimming, no case folding.
func Decode(code string) (int64, error) {
	if !codePattern.MatchString(code) {
		return 0, ErrMalformedCode.WithDetail("code", code)
	}
	n, err := strconv.ParseInt(code[len(CodePrefix):], 10, 64)
	if err != nil {
		return 0, ErrMalformedCode.WithDetail("code", code)
	}
	return n, nil
}
