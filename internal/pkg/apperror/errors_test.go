package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_HTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:      http.StatusNotFound,
		ErrCodeUnauthorized:  http.StatusUnauthorized,
		ErrCodeForbidden:     http.StatusForbidden,
		ErrCodeBadRequest:    http.StatusBadRequest,
		ErrCodeValidation:    http.StatusBadRequest,
		ErrCodeInvalidState:  http.StatusBadRequest,
		ErrCodeConflict:      http.StatusConflict,
		ErrCodeDatabaseError: http.StatusInternalServerError,
		ErrCodeInternal:      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, string(code))
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "не удалось сохранить")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, ErrCodeDatabaseError, CodeOf(fmt.Errorf("outer: %w", err)))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrListingNotFound))
	assert.True(t, IsForbidden(ErrForbidden))
	assert.True(t, IsConflict(ErrDuplicateOffer))
	assert.True(t, IsInvalidState(ErrOfferAlreadyHandled))
	assert.True(t, IsValidation(New(ErrCodeValidation, "bad")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
