package memory

import (
	"orderboard_agent/pkg"
)

// DefaultCapacity is the number of turns kept, i.e. 4 user/assistant pairs.
const DefaultCapacity = 8

// snapshotPreviewLimit caps the content length exposed by Snapshot.
const snapshotPreviewLimit = 500

// ConversationMemory is a bounded, ordered buffer of recent turns with FIFO
// eviction. It is a single process-wide instance shared by all requests and
// is not keyed by session or user, so concurrent conversations share one
// buffer. The orchestrator is its only writer.
type ConversationMemory struct {
	turns    []pkg.Turn
	capacity int
}

// NewConversationMemory creates a memory buffer holding up to capacity turns.
// A non-positive capacity falls back to DefaultCapacity.
func NewConversationMemory(capacity int) *ConversationMemory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ConversationMemory{
		turns:    make([]pkg.Turn, 0, capacity),
		capacity: capacity,
	}
}

// Append inserts a turn at the tail, evicting from the head when full.
func (m *ConversationMemory) Append(turn pkg.Turn) {
	if len(m.turns) >= m.capacity {
		m.turns = m.turns[1:]
	}
	m.turns = append(m.turns, turn)
}

// Recent returns the last 2*nPairs turns oldest-to-newest, or fewer when the
// buffer is shorter.
func (m *ConversationMemory) Recent(nPairs int) []pkg.Turn {
	if nPairs <= 0 {
		return nil
	}
	n := 2 * nPairs
	if n > len(m.turns) {
		n = len(m.turns)
	}
	out := make([]pkg.Turn, n)
	copy(out, m.turns[len(m.turns)-n:])
	return out
}

// Clear empties the buffer. Idempotent.
func (m *ConversationMemory) Clear() {
	m.turns = m.turns[:0]
}

// Len returns the number of cached turns.
func (m *ConversationMemory) Len() int {
	return len(m.turns)
}

// Snapshot returns a preview of the cached turns with content truncated,
// for the memory inspection endpoint.
func (m *ConversationMemory) Snapshot() []pkg.Turn {
	out := make([]pkg.Turn, 0, len(m.turns))
	for _, turn := range m.turns {
		content := turn.Content
		if len(content) > snapshotPreviewLimit {
			content = content[:snapshotPreviewLimit]
		}
		out = append(out, pkg.Turn{Role: turn.Role, Content: content})
	}
	return out
}

// LastContext is a best-effort snapshot of the last successful query round
// trip. It is heuristic enrichment only, never authoritative: Customer in
// particular is derived by substring matching on the rewritten prompt. It is
// overwritten after every successful table/visual round trip and never
// rolled back on failure.
type LastContext struct {
	Filters  []string
	Select   []string
	Customer string
	Language string
}
