package memory

import (
	"sync"
	"time"

	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

// UserMemory holds the recent chat turns for one user
type UserMemory struct {
	ShortTerm []llm.ChatMessage
	LastSeen  time.Time
}

// MemoryManager keeps a bounded window of recent chat turns per user so
// clients that do not send their own history still get a continuous
// conversation.
type MemoryManager struct {
	users               map[string]*UserMemory
	shortTermMemorySize int
	idleTTL             time.Duration
	now                 func() time.Time
	mu                  sync.Mutex
}

// NewMemoryManager creates a manager keeping at most shortTermMemorySize
// messages per user. Users idle for longer than idleTTL are forgotten by Prune.
func NewMemoryManager(shortTermMemorySize int, idleTTL time.Duration) *MemoryManager {
	return &MemoryManager{
		users:               make(map[string]*UserMemory),
		shortTermMemorySize: shortTermMemorySize,
		idleTTL:             idleTTL,
		now:                 time.Now,
	}
}

// AddMessage appends messages to the user's window, dropping the oldest
func (m *MemoryManager) AddMessage(userID string, msgs ...llm.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userMem, exists := m.users[userID]
	if !exists {
		userMem = &UserMemory{ShortTerm: make([]llm.ChatMessage, 0, m.shortTermMemorySize)}
		m.users[userID] = userMem
	}
	userMem.LastSeen = m.now()
	userMem.ShortTerm = append(userMem.ShortTerm, msgs...)

	if len(userMem.ShortTerm) > m.shortTermMemorySize {
		userMem.ShortTerm = append([]llm.ChatMessage(nil), userMem.ShortTerm[len(userMem.ShortTerm)-m.shortTermMemorySize:]...)
	}
}

// GetShortTermMemory returns a copy of the user's window
func (m *MemoryManager) GetShortTermMemory(userID string) []llm.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	userMem, exists := m.users[userID]
	if !exists {
		return []llm.ChatMessage{}
	}

	history := make([]llm.ChatMessage, len(userMem.ShortTerm))
	copy(history, userMem.ShortTerm)
	return history
}

// ClearShortTermMemory forgets the user's window
func (m *MemoryManager) ClearShortTermMemory(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
}

// Prune removes users idle for longer than the idle TTL and returns how many
// were removed
func (m *MemoryManager) Prune() int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	removed := 0
	for id, userMem := range m.users {
		if userMem.LastSeen.Before(cutoff) {
			delete(m.users, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of users with a window
func (m *MemoryManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
