package nodes

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"orderboard_agent/internal/llm"
	"orderboard_agent/internal/logger"
	"orderboard_agent/pkg"
)

// TranscriptCleaner normalizes raw voice-to-text transcripts into readable
// prompts before the pipeline runs. Failures are fatal for the request since
// a garbled transcript cannot be safely classified.
type TranscriptCleaner struct {
	model model.BaseChatModel
}

// NewTranscriptCleaner creates a cleaner backed by the given chat model.
func NewTranscriptCleaner(m model.BaseChatModel) *TranscriptCleaner {
	return &TranscriptCleaner{model: m}
}

// Clean returns the cleaned-up prompt text extracted from the transcript.
func (t *TranscriptCleaner) Clean(ctx context.Context, transcript string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(speechCleanupPrompt),
		schema.UserMessage(transcript),
	}

	out, err := t.model.Generate(ctx, messages)
	if err != nil {
		return "", pkg.NewPipelineError(pkg.StageSpeech, pkg.KindInternal,
			fmt.Errorf("transcript cleanup call failed: %w", err))
	}

	content := llm.StripCodeFence(out.Content)
	var result struct {
		Text string `json:"text"`
	}
	if err := sonic.Unmarshal([]byte(content), &result); err != nil {
		return "", pkg.NewPipelineError(pkg.StageSpeech, pkg.KindInternal,
			fmt.Errorf("transcript cleanup returned non-schema output: %w", err))
	}
	if result.Text == "" {
		return "", pkg.NewPipelineError(pkg.StageSpeech, pkg.KindInternal,
			fmt.Errorf("transcript cleanup returned empty text"))
	}

	logger.Debug().Str("text", result.Text).Msg("transcript cleaned")
	return result.Text, nil
}

const speechCleanupPrompt = `
You are a high-accuracy voice-to-text transcription assistant for a printing order management system.

Your job is to convert spoken user input into clean, readable written text. The transcription should preserve the user's intent and meaning while correcting filler words, minor grammar issues, and disfluencies.

Guidelines:
- Return the transcription as a single natural-language string inside a "text" field.
- Do NOT return structured JSON (no 'select', 'where', 'action', etc.).
- Do NOT interpret, categorize, or modify the meaning of the original statement.
- Your only job is to clean up the voice-to-text result and make it readable.

Examples:

Input (spoken): "uh yeah show me the orders from estsyy that were printed last week"
→ Output:
{ "text": "Show me the orders from Etsy that were printed last week" }

Input (spoken): "pending ones only and exclude Canva I guess"
→ Output:
{ "text": "Pending ones only, excluding Canva" }

Input (spoken): "get me all the zazzle urgent orders shipped yesterday"
→ Output:
{ "text": "Get me all the Zazzle urgent orders shipped yesterday" }

Input (spoken): "wait no show everything again"
→ Output:
{ "text": "Show everything again" }

Input (spoken): "uhm print all due orders for next week only"
→ Output:
{ "text": "Print all due orders for next week only" }
`
