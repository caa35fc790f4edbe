package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractParsesSchema(t *testing.T) {
	m := &stubModel{reply: `{
		"select": ["*"],
		"from": ["orders"],
		"where": ["o.status = 'Printed'"],
		"group_by": [],
		"order_by": ["o.last_updated DESC"],
		"limit": 5
	}`}
	e := NewArgumentExtractor(m)

	args, err := e.Extract(context.Background(), "Show me the last 5 printed orders", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, args.Select)
	assert.Equal(t, []string{"o.status = 'Printed'"}, args.Where)
	assert.Equal(t, 5, args.Limit)
}

func TestExtractSubstitutesToday(t *testing.T) {
	m := &stubModel{reply: `{"select":["*"],"from":["orders"],"where":[],"group_by":[],"order_by":[],"limit":50}`}
	e := NewArgumentExtractor(m)
	e.now = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }

	_, err := e.Extract(context.Background(), "orders from last week", nil)
	require.NoError(t, err)
	require.Len(t, m.calls, 1)

	system := m.calls[0][0].Content
	assert.Contains(t, system, "2025-07-10")
	assert.NotContains(t, system, "{TODAY}")
}

func TestExtractWrapsUserQuestion(t *testing.T) {
	m := &stubModel{reply: `{"select":["*"],"from":["orders"],"where":[],"group_by":[],"order_by":[],"limit":10}`}
	e := NewArgumentExtractor(m)

	_, err := e.Extract(context.Background(), "show 10 orders", nil)
	require.NoError(t, err)

	last := m.calls[0][len(m.calls[0])-1]
	assert.True(t, strings.HasPrefix(last.Content, "The user question is: "))
	assert.Contains(t, last.Content, "show 10 orders")
}

func TestExtractModelError(t *testing.T) {
	m := &stubModel{err: errors.New("rate limited")}
	e := NewArgumentExtractor(m)

	_, err := e.Extract(context.Background(), "show orders", nil)
	assert.Error(t, err)
}

func TestExtractNonSchemaOutput(t *testing.T) {
	m := &stubModel{reply: "SELECT * FROM orders"}
	e := NewArgumentExtractor(m)

	_, err := e.Extract(context.Background(), "show orders", nil)
	assert.Error(t, err)
}
