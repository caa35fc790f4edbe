package nodes

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"orderboard_agent/internal/language"
	"orderboard_agent/internal/llm"
	"orderboard_agent/internal/logger"
	"orderboard_agent/pkg"
)

// QueryRewriter folds conversation history into the current prompt so the
// downstream extractor always sees a self-contained question. It never fails:
// any model or parse problem degrades to passing the prompt through untouched
// with a locally detected language.
type QueryRewriter struct {
	model    model.BaseChatModel
	detector *language.Detector
}

// NewQueryRewriter creates a rewriter backed by the given chat model and
// language detector.
func NewQueryRewriter(m model.BaseChatModel, d *language.Detector) *QueryRewriter {
	return &QueryRewriter{model: m, detector: d}
}

// Rewrite returns the contextualized prompt and the language the answer should
// be written in. The model's own language claim is overridden by local
// detection when the model defaults to English but the prompt clearly is not.
func (r *QueryRewriter) Rewrite(ctx context.Context, prompt string, history []pkg.Turn) pkg.RewriteResult {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(rewriterPrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, schema.UserMessage(prompt))

	detected := r.detector.Detect(prompt)

	out, err := r.model.Generate(ctx, messages)
	if err != nil {
		logger.Warn().Err(err).Msg("rewrite call failed, passing prompt through")
		return pkg.RewriteResult{RewrittenQuestion: prompt, Language: detected}
	}

	content := llm.StripCodeFence(out.Content)

	var parsed pkg.RewriteResult
	if llm.LooksLikeJSONObject(content) {
		if err := sonic.Unmarshal([]byte(content), &parsed); err != nil {
			logger.Warn().Err(err).Msg("rewrite response unparseable, passing prompt through")
			return pkg.RewriteResult{RewrittenQuestion: prompt, Language: detected}
		}
	} else {
		// Plain-text answer: take it as the rewrite itself.
		parsed = pkg.RewriteResult{
			RewrittenQuestion: content,
			Language:          r.detector.Detect(content),
		}
	}

	rewritten := strings.TrimSpace(parsed.RewrittenQuestion)
	if rewritten == "" {
		rewritten = prompt
	}

	return pkg.RewriteResult{
		RewrittenQuestion: rewritten,
		Language:          resolveLanguage(strings.TrimSpace(parsed.Language), detected),
	}
}

// resolveLanguage reconciles the model's language claim with local detection.
// Models habitually answer "English" for short non-English prompts, so a
// non-English local detection wins over an empty or English claim.
func resolveLanguage(claimed, detected string) string {
	lower := strings.ToLower(claimed)
	if (lower == "" || lower == "english") && detected != language.DefaultLanguage {
		return detected
	}
	if claimed != "" {
		return claimed
	}
	return detected
}

// historyMessages converts stored turns into chat messages, preserving roles.
func historyMessages(history []pkg.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == pkg.RoleAssistant {
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		} else {
			messages = append(messages, schema.UserMessage(turn.Content))
		}
	}
	return messages
}

const rewriterPrompt = `
You are an assistant that rewrites user prompts into clear, complete order queries using context from the previous conversation.

Your goal is to return a **single, clear, rewritten prompt in natural language** — **no SQL**, **no explanations**, **no JSON unless instructed**.

---

**How to handle vague or partial follow-ups:**

- Use the **most recent relevant query** to clarify incomplete prompts like:
- "for Canva"
- "now only printed"
- "only those that are ready"
- "exclude Minted"
- "add Zazzle too"
- Carry over customer, tag, status, or action-based filters only if **the current user prompt is vague or extending** the last request.
- Merge new input **only if it's a refinement**, not a reset.

---

**When to reset context:**

If the user prompt indicates a reset (like "show all orders", "start over", "get everything", "すべての注文を表示", "muestrame todos los pedidos", "tutti gli ordini"), then:
- **Ignore all previous conversation**.
- Do **not** carry over any filters (customer, tags, dates, etc.).
- Rewrite the query as a fresh, complete prompt.

---

**Negation / exclusion rules:**

If the user says things like:
- "remove Zazzle"
- "not from Etsy"
- "exclude Minted"
- "without Canva"

You must rewrite the prompt using:
→ "excluding [X]"

---

**Fix errors silently:**

Fix minor spelling and grammar automatically.
- "arent" → "aren't"
- "taht" → "that"
- "pront ready" → "print ready"

---

**Examples:**

**Previous:** "Show me all pending orders"
**User prompt:** "only for Canva"
→ Rewritten: "Show me all pending orders for Canva"

**Previous:** "now for Minted"
**User prompt:** "only those that are ready for printing"
→ Rewritten: "Show me Minted orders that are ready for printing"

**Previous:** "Orders from Zazzle with urgent tag"
**User prompt:** "also those that were printed last week"
→ Rewritten: "Show me Zazzle urgent orders that were printed last week"

**Previous:** "orders due next week"
**User prompt:** "only the ones from John"
→ Rewritten: "Show me orders due next week from John"

**Previous:** "Only Etsy orders that shipped last week"
**User prompt:** "show all orders"
→ Rewritten: "Show me all orders"

**Previous:** "Pending orders including Canva and Zazzle"
**User prompt:** "remove those from Canva"
→ Rewritten: "Show me pending orders excluding Canva"

Past conversation: "Show me print ready orders from Minted"
User prompt: "add print ready orders from other customers"
Rewritten: "Show me all print ready orders"

Past conversation: "Show me all pending orders from Etsy"
User prompt: "include other customers too"
Rewritten: "Show me all pending orders"

Past conversation: "Orders from Canva with urgent tag"
User prompt: "also show other customers"
Rewritten: "Show me all urgent orders"

Past conversation: "Only Zazzle orders that shipped last week"
User prompt: "include others too"
Rewritten: "Show me all orders that shipped last week"

Past conversation: "show me all printed orders"
User prompt: "now for pending orders"
Rewritten: "Show me all pending orders"

---

**Language detection:**

- Detect the user's language based on the prompt + history.
- Return the language name using ISO format (e.g., "English", "Spanish", "Italian").
- If confidence in detection is below 70%, return "English".

---

**Final response format:**

Return **exactly** this JSON:

{
"rewritten_question": "clear rewritten prompt in English",
"language": "English"
}
`
