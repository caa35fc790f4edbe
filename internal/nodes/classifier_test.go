package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard_agent/pkg"
)

func TestClassifyParsesSchema(t *testing.T) {
	m := &stubModel{reply: `{"intent": "table_insights", "reason": "data request"}`}
	c := NewIntentClassifier(m)

	result, err := c.Classify(context.Background(), "show me pending orders")
	require.NoError(t, err)
	assert.Equal(t, pkg.IntentTableInsights, result.Intent)
	assert.Equal(t, "data request", result.Reason)
}

func TestClassifyStripsCodeFence(t *testing.T) {
	m := &stubModel{reply: "```json\n{\"intent\": \"small_talk\", \"reason\": \"greeting\"}\n```"}
	c := NewIntentClassifier(m)

	result, err := c.Classify(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, pkg.IntentSmallTalk, result.Intent)
}

func TestClassifyUnknownIntentPassesThrough(t *testing.T) {
	// Validity is the orchestrator's call; the classifier only enforces shape.
	m := &stubModel{reply: `{"intent": "weather_report", "reason": "?"}`}
	c := NewIntentClassifier(m)

	result, err := c.Classify(context.Background(), "what's the weather")
	require.NoError(t, err)
	assert.False(t, result.Intent.Valid())
}

func TestClassifyModelError(t *testing.T) {
	m := &stubModel{err: errors.New("connection refused")}
	c := NewIntentClassifier(m)

	_, err := c.Classify(context.Background(), "show orders")
	assert.Error(t, err)
}

func TestClassifyNonJSONOutput(t *testing.T) {
	m := &stubModel{reply: "I think this is a data question."}
	c := NewIntentClassifier(m)

	_, err := c.Classify(context.Background(), "show orders")
	assert.Error(t, err)
}

func TestClassifySendsUserPrompt(t *testing.T) {
	m := &stubModel{reply: `{"intent": "table_insights", "reason": "ok"}`}
	c := NewIntentClassifier(m)

	_, err := c.Classify(context.Background(), "orders shipped June 2025")
	require.NoError(t, err)
	require.Len(t, m.calls, 1)
	require.Len(t, m.calls[0], 2)
	assert.Equal(t, "orders shipped June 2025", m.calls[0][1].Content)
}
