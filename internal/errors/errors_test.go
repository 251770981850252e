package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorMessage(t *testing.T) {
	cause := stderrors.New("connection refused")

	err := Backend("Failed to fetch jobs", cause)
	assert.Equal(t, "BACKEND: Failed to fetch jobs: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.StackTrace())

	bare := NotAuthenticated("Not authenticated", nil)
	assert.Equal(t, "NOT_AUTHENTICATED: Not authenticated", bare.Error())
	assert.NotEmpty(t, bare.StackTrace())
}

func TestTypeOfFindsWrappedDomainError(t *testing.T) {
	err := fmt.Errorf("update job: %w", NotFound("no such job", nil))

	require.True(t, IsType(err, ErrTypeNotFound))
	assert.False(t, IsType(err, ErrTypeBackend))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}
