package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyReturnsModelAnswer(t *testing.T) {
	m := &stubModel{reply: "Hello! Happy to help with your print jobs."}
	s := NewSmallTalkResponder(m)

	assert.Equal(t, "Hello! Happy to help with your print jobs.",
		s.Reply(context.Background(), "hi there"))
}

func TestReplyFallbackOnError(t *testing.T) {
	m := &stubModel{err: errors.New("unavailable")}
	s := NewSmallTalkResponder(m)

	assert.Equal(t, smallTalkFallback, s.Reply(context.Background(), "hola"))
}

func TestReplyFallbackOnEmptyAnswer(t *testing.T) {
	m := &stubModel{reply: "   "}
	s := NewSmallTalkResponder(m)

	assert.Equal(t, smallTalkFallback, s.Reply(context.Background(), "thanks"))
}
