package errors

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeInvalidInput, "missing file"),
			expected: "[INVALID_INPUT] missing file",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIOFailure, "failed to open gc.log", errors.New("permission denied")),
			expected: "[IO_FAILURE] failed to open gc.log: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := Wrap(CodeIOFailure, "failed to open", os.ErrNotExist)

	assert.Equal(t, os.ErrNotExist, err.Unwrap())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeIOFailure, "error 1")
	err2 := New(CodeIOFailure, "error 2")
	err3 := New(CodeStorageError, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsIOFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "io failure",
			err:      ErrIOFailure,
			expected: true,
		},
		{
			name:     "wrapped io failure",
			err:      fmt.Errorf("parse: %w", Wrap(CodeIOFailure, "read", errors.New("unexpected EOF"))),
			expected: true,
		},
		{
			name:     "other error",
			err:      ErrParseError,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsIOFailure(tt.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsParseError(ErrParseError))
	assert.True(t, IsInvalidInput(ErrInvalidInput))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsDatabaseError(ErrDatabaseError))
	assert.True(t, IsStorageError(ErrStorageError))

	assert.False(t, IsNotFound(ErrDatabaseError))
	assert.False(t, IsStorageError(ErrIOFailure))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeNotFound, "no snapshot"),
			expected: CodeNotFound,
		},
		{
			name:     "wrapped app error",
			err:      fmt.Errorf("outer: %w", Wrap(CodeStorageError, "put", errors.New("inner"))),
			expected: CodeStorageError,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: CodeUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "bad config", GetErrorMessage(New(CodeConfigError, "bad config")))
	assert.Equal(t, "standard error", GetErrorMessage(errors.New("standard error")))
	assert.Equal(t, "", GetErrorMessage(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidInput))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrParseError))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrIOFailure))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
