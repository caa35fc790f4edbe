package llm

import "strings"

// StripCodeFence removes an accidental markdown code block wrapper from a
// model response, including an optional "json" language annotation, so the
// payload can be handed to the JSON decoder. Text without a fence passes
// through trimmed.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.Trim(content, "`")
	content = strings.TrimSpace(content)
	if len(content) >= 4 && strings.EqualFold(content[:4], "json") {
		content = strings.TrimSpace(content[4:])
	}
	return content
}

// LooksLikeJSONObject reports whether the trimmed content starts a JSON
// object. Callers use it to decide between structured parsing and treating
// the payload as raw text.
func LooksLikeJSONObject(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "{")
}
