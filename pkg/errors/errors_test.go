package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	err := Clone(ErrInvalidDepartment, "Invalid department: Space Agency")
	assert.True(t, errors.Is(err, ErrInvalidDepartment))
	assert.False(t, errors.Is(err, ErrInvalidStatus))
	assert.Equal(t, "Invalid department: Space Agency", err.Message)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestStorageWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "failed to save grievance")
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}
