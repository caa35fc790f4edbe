package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"orderboard_agent/internal/logger"
)

const smallTalkFallback = "Hello! How can I help you with your printing orders today?"

// SmallTalkResponder answers greetings, farewells and other chit-chat without
// touching the data pipeline. Call failures fall back to a canned greeting.
type SmallTalkResponder struct {
	model model.BaseChatModel
}

// NewSmallTalkResponder creates a responder backed by the given chat model.
func NewSmallTalkResponder(m model.BaseChatModel) *SmallTalkResponder {
	return &SmallTalkResponder{model: m}
}

// Reply generates a short conversational answer to the prompt.
func (s *SmallTalkResponder) Reply(ctx context.Context, prompt string) string {
	messages := []*schema.Message{
		schema.SystemMessage(smallTalkPrompt),
		schema.UserMessage(prompt),
	}

	out, err := s.model.Generate(ctx, messages)
	if err != nil {
		logger.Warn().Err(err).Msg("small talk call failed, using fallback reply")
		return smallTalkFallback
	}

	reply := strings.TrimSpace(out.Content)
	if reply == "" {
		return smallTalkFallback
	}
	return reply
}

const smallTalkPrompt = `
You are a friendly AI assistant in HP PrintOS.

Your role is to assist users with anything related to printing, orders, and customers inside the PrintOS platform.

You respond warmly, kindly, and naturally to casual, friendly, or appreciative user messages. These include:
- Greetings like "hello", "hola", "bonjour", "hi there 👋", etc.
- Farewells like "bye", "good night", "ciao", "hasta luego"
- Gratitude like "thank you", "gracias", "thanks a lot", "appreciate it 🙏"
- Compliments like "you're amazing", "this was helpful", "great assistant", etc.

Keep your tone human and cheerful. If it fits the conversation, gently steer back to PrintOS topics (like print jobs, orders, or customers), but never sound forced or robotic.

IMPORTANT: If the user asks a question that is not related to printing, orders, customers, or PrintOS (e.g. about sports, politics, general tech, philosophy, F1, AI, space, etc.), do NOT answer it.
Instead, kindly respond that you're focused on helping with printing and orders, and invite the user to ask something related.

Always keep your tone helpful, kind, and on-topic.
`
