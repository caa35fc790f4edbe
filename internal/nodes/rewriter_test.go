package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard_agent/internal/language"
	"orderboard_agent/pkg"
)

func newTestRewriter(m *stubModel) *QueryRewriter {
	return NewQueryRewriter(m, language.NewDetector())
}

func TestRewriteParsesSchema(t *testing.T) {
	m := &stubModel{reply: `{"rewritten_question": "Show me all pending orders for Canva", "language": "English"}`}
	r := newTestRewriter(m)

	result := r.Rewrite(context.Background(), "only for Canva", nil)
	assert.Equal(t, "Show me all pending orders for Canva", result.RewrittenQuestion)
	assert.Equal(t, "English", result.Language)
}

func TestRewriteModelErrorPassesPromptThrough(t *testing.T) {
	m := &stubModel{err: errors.New("timeout")}
	r := newTestRewriter(m)

	result := r.Rewrite(context.Background(), "show me all pending orders", nil)
	assert.Equal(t, "show me all pending orders", result.RewrittenQuestion)
	assert.NotEmpty(t, result.Language)
}

func TestRewritePlainTextTreatedAsRewrite(t *testing.T) {
	m := &stubModel{reply: "Show me all printed orders from Etsy"}
	r := newTestRewriter(m)

	result := r.Rewrite(context.Background(), "now Etsy", nil)
	assert.Equal(t, "Show me all printed orders from Etsy", result.RewrittenQuestion)
}

func TestRewriteLocalDetectionOverridesEnglishClaim(t *testing.T) {
	m := &stubModel{reply: `{"rewritten_question": "Show me all pending orders", "language": "English"}`}
	r := newTestRewriter(m)

	result := r.Rewrite(context.Background(), "muéstrame todos los pedidos pendientes por favor", nil)
	assert.Equal(t, "Spanish", result.Language)
}

func TestRewriteExplicitClaimWins(t *testing.T) {
	m := &stubModel{reply: `{"rewritten_question": "Show me all orders", "language": "Italian"}`}
	r := newTestRewriter(m)

	result := r.Rewrite(context.Background(), "tutti gli ordini", nil)
	assert.Equal(t, "Italian", result.Language)
}

func TestRewriteIncludesHistory(t *testing.T) {
	m := &stubModel{reply: `{"rewritten_question": "Show me pending orders for Canva", "language": "English"}`}
	r := newTestRewriter(m)

	history := []pkg.Turn{
		{Role: pkg.RoleUser, Content: "Show me all pending orders"},
		{Role: pkg.RoleAssistant, Content: `{"select":["*"]}`},
	}
	r.Rewrite(context.Background(), "only for Canva", history)

	require.Len(t, m.calls, 1)
	// system prompt + two history turns + current prompt
	require.Len(t, m.calls[0], 4)
	assert.Equal(t, "Show me all pending orders", m.calls[0][1].Content)
	assert.Equal(t, "only for Canva", m.calls[0][3].Content)
}

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		name     string
		claimed  string
		detected string
		want     string
	}{
		{"empty claim falls back", "", "Spanish", "Spanish"},
		{"english claim overridden", "English", "German", "German"},
		{"english claim kept for english", "English", "English", "English"},
		{"explicit claim wins", "Portuguese", "Spanish", "Portuguese"},
		{"both empty defaults", "", "English", "English"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveLanguage(tc.claimed, tc.detected))
		})
	}
}
