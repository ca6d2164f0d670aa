package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingErrorWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewStorageFailedError("job-1", cause)

	assert.Equal(t, ErrorStorageFailed, err.Code)
	assert.Contains(t, err.Error(), "STORAGE_FAILED")
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, stderrors.Is(err, cause))
}

func TestProcessingErrorToMap(t *testing.T) {
	err := NewUnsupportedFusionMethodError("job-2", "majority")

	m := err.ToMap()
	assert.Equal(t, "UNSUPPORTED_FUSION_METHOD", m["error_code"])
	assert.Equal(t, "majority", m["fusion_method"])
	require.Contains(t, m, "message")
	assert.NotContains(t, m, "cause")
}

func TestEmptyInputError(t *testing.T) {
	err := NewEmptyInputError("job-3", "job carries no images")

	assert.Equal(t, ErrorEmptyInput, err.Code)
	assert.Equal(t, "job-3", err.JobID)
	assert.Contains(t, err.Error(), "job carries no images")
}
