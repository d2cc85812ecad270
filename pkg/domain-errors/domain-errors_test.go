package domainerrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageAndCode(t *testing.T) {
	err := New(CodeUnauthorized, "bad credential")
	assert.Equal(t, "bad credential", err.Error())

	bare := &Error{Code: CodeNotFound}
	assert.Equal(t, "not_found", bare.Error())
}

func TestWrap_PreservesOriginalCode(t *testing.T) {
	inner := New(CodeNotFound, "installation missing")
	wrapped := Wrap(inner, CodeInternal, "token exchange failed")

	assert.True(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrap_PlainError(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := Wrap(inner, CodeInternal, "probe failed")

	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.ErrorIs(t, wrapped, inner)
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(CodeUnauthorized, "one")
	b := New(CodeUnauthorized, "two")
	assert.ErrorIs(t, a, b)

	c := New(CodeForbidden, "three")
	assert.NotErrorIs(t, a, c)
}

func TestRateLimited_CarriesResetTime(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	err := RateLimited(reset)

	var dErr *Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, CodeRateLimited, dErr.Code)
	assert.Equal(t, reset, dErr.ResetAt)
}

func TestAPI_CarriesStatus(t *testing.T) {
	err := API(502, "bad gateway")
	var dErr *Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, 502, dErr.HTTPStatus)
	assert.True(t, HasCode(err, CodeAPI))
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeCrypto, "bad pem"))
	assert.True(t, HasCode(err, CodeCrypto))
	assert.False(t, HasCode(errors.New("plain"), CodeCrypto))
}
