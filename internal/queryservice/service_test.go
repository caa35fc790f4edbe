package queryservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard_agent/pkg"
)

func TestValidateRequiresSelect(t *testing.T) {
	err := QueryPayload{}.Validate()
	assert.Error(t, err)
}

func TestValidateAcceptsMinimalPayload(t *testing.T) {
	err := QueryPayload{Select: []string{"*"}}.Validate()
	assert.NoError(t, err)
}

func TestValidateLimitBounds(t *testing.T) {
	assert.NoError(t, QueryPayload{Select: []string{"*"}, Limit: 1000}.Validate())
	assert.Error(t, QueryPayload{Select: []string{"*"}, Limit: 1001}.Validate())
	assert.Error(t, QueryPayload{Select: []string{"*"}, Limit: -1}.Validate())
}

func TestExecuteRejectsInvalidPayloadBeforeDatabase(t *testing.T) {
	// A nil pool is safe here: validation fails before any query runs.
	s := NewService(nil)

	_, err := s.Execute(context.Background(), QueryPayload{})
	var perr *pkg.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkg.KindClientError, perr.Kind)
	assert.Equal(t, pkg.StageValidation, perr.Stage)
}
