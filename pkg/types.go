package pkg

// Core types shared between the agent pipeline and the query service.

// Intent is the closed set of request categories the classifier may emit.
type Intent string

const (
	IntentSmallTalk     Intent = "small_talk"
	IntentTableInsights Intent = "table_insights"
	IntentVisualInsight Intent = "visual_insight"
)

// Valid reports whether the intent is one of the three known categories.
func (i Intent) Valid() bool {
	switch i {
	case IntentSmallTalk, IntentTableInsights, IntentVisualInsight:
		return true
	}
	return false
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in the conversation history. Immutable once created.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IntentResult is the structured output of the intent classifier.
type IntentResult struct {
	Intent Intent `json:"intent"`
	Reason string `json:"reason"`
}

// RewriteResult is the structured output of the query rewriter.
type RewriteResult struct {
	RewrittenQuestion string `json:"rewritten_question"`
	Language          string `json:"language"`
}

// QueryArgs is the structured query specification produced by the argument
// extractor. All six fields are required in the model output schema; empty
// arrays mean "omit clause" and are stripped before the payload is forwarded
// to the query service.
type QueryArgs struct {
	Select  []string `json:"select"`
	From    []string `json:"from"`
	Where   []string `json:"where"`
	GroupBy []string `json:"group_by"`
	OrderBy []string `json:"order_by"`
	Limit   int      `json:"limit"`
}

// Payload returns the argument set forwarded downstream: empty-array fields
// are dropped entirely and a non-positive limit is dropped.
func (a QueryArgs) Payload() map[string]any {
	payload := make(map[string]any)
	if len(a.Select) > 0 {
		payload["select"] = a.Select
	}
	if len(a.From) > 0 {
		payload["from"] = a.From
	}
	if len(a.Where) > 0 {
		payload["where"] = a.Where
	}
	if len(a.GroupBy) > 0 {
		payload["group_by"] = a.GroupBy
	}
	if len(a.OrderBy) > 0 {
		payload["order_by"] = a.OrderBy
	}
	if a.Limit > 0 {
		payload["limit"] = a.Limit
	}
	return payload
}

// NLRequest is the inbound request to the agent.
type NLRequest struct {
	Prompt       string `json:"prompt"`
	IsTranscript bool   `json:"is_transcript,omitempty"`
}

// QueryResponse is the agent's response envelope. For small talk, Data holds
// a single reply string and SQL is the sentinel "SMALL_TALK".
type QueryResponse struct {
	Success     bool           `json:"success"`
	Data        []any          `json:"data"`
	Count       int            `json:"count"`
	SQL         string         `json:"sql"`
	Args        map[string]any `json:"args"`
	Insights    string         `json:"insights"`
	DisplayMode string         `json:"display_mode"` // table or chart
	Language    string         `json:"language"`
}

// ExecuteResult is the response shape of the query-execution service.
type ExecuteResult struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Count   int              `json:"count"`
	SQL     string           `json:"sql"`
}
