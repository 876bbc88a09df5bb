package ident

import (
	"errors"
	"testing"

	apperr "github.com/amoylab/taskflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := map[int64]string{
		0:      "T000000",
		10:     "T000010",
		42:     "T000042",
		123456: "T123456",
		999999: "T999999",
	}
	for n, want := range tests {
		got, err := Encode(n)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Encode(1000000)
	assert.True(t, errors.Is(err, apperr.ErrAllocationExhausted))
	_, err = Encode(-1)
	assert.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 10, 11, 4242, 999999} {
		code, err := Encode(n)
		require.NoError(t, err)
		got, err := Decode(code)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, code := range []string{
		"",
		"T",
		"T12345",
		"T1234567",
		"t000042",
		"X000042",
		" T000042",
		"T000042 ",
		"T00004a",
		"T-00042",
		"T+00042",
		"000042",
		"TT000042",
		"T٠٠٠٠٤٢",
	} {
		_, err := Decode(code)
		assert.True(t, errors.Is(err, apperr.ErrNotFound), "code %q", code)
		assert.True(t, errors.Is(err, ErrMalformedCode), "code %q", code)
	}
}
