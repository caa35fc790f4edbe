package memory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard_agent/pkg"
)

func TestAppendEvictsOldestAtCapacity(t *testing.T) {
	m := NewConversationMemory(4)
	for i := 0; i < 6; i++ {
		m.Append(pkg.Turn{Role: pkg.RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	require.Equal(t, 4, m.Len())
	turns := m.Recent(2)
	assert.Equal(t, "msg-2", turns[0].Content)
	assert.Equal(t, "msg-5", turns[3].Content)
}

func TestRecentPreservesOrder(t *testing.T) {
	m := NewConversationMemory(8)
	m.Append(pkg.Turn{Role: pkg.RoleUser, Content: "first"})
	m.Append(pkg.Turn{Role: pkg.RoleAssistant, Content: "second"})
	m.Append(pkg.Turn{Role: pkg.RoleUser, Content: "third"})

	turns := m.Recent(4)
	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "third", turns[2].Content)
}

func TestRecentLimitsToRequestedPairs(t *testing.T) {
	m := NewConversationMemory(8)
	for i := 0; i < 8; i++ {
		m.Append(pkg.Turn{Role: pkg.RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}

	turns := m.Recent(1)
	require.Len(t, turns, 2)
	assert.Equal(t, "msg-6", turns[0].Content)
	assert.Equal(t, "msg-7", turns[1].Content)
}

func TestRecentReturnsCopy(t *testing.T) {
	m := NewConversationMemory(8)
	m.Append(pkg.Turn{Role: pkg.RoleUser, Content: "original"})

	turns := m.Recent(4)
	turns[0].Content = "mutated"
	assert.Equal(t, "original", m.Recent(4)[0].Content)
}

func TestClearIsIdempotent(t *testing.T) {
	m := NewConversationMemory(8)
	m.Append(pkg.Turn{Role: pkg.RoleUser, Content: "hello"})

	m.Clear()
	assert.Zero(t, m.Len())
	m.Clear()
	assert.Zero(t, m.Len())
}

func TestSnapshotTruncatesContent(t *testing.T) {
	m := NewConversationMemory(8)
	long := strings.Repeat("x", 800)
	m.Append(pkg.Turn{Role: pkg.RoleAssistant, Content: long})

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Len(t, snap[0].Content, snapshotPreviewLimit)
	assert.Equal(t, pkg.RoleAssistant, snap[0].Role)
}

func TestNonPositiveCapacityFallsBack(t *testing.T) {
	m := NewConversationMemory(0)
	for i := 0; i < DefaultCapacity+2; i++ {
		m.Append(pkg.Turn{Role: pkg.RoleUser, Content: "x"})
	}
	assert.Equal(t, DefaultCapacity, m.Len())
}
