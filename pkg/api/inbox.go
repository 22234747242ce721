package api

import (
	"sync"
	"time"

	"github.com/ZentaChain/fcm-receiver/pkg/storage"
)

// MemoryInbox keeps the most recent notifications in memory
type MemoryInbox struct {
	mu       sync.RWMutex
	items    []*storage.Notification
	capacity int
	nextID   int64
}

// NewMemoryInbox creates an inbox holding at most capacity notifications
func NewMemoryInbox(capacity int) *MemoryInbox {
	if capacity <= 0 {
		capacity = DefaultConfig().HistoryLimit
	}
	return &MemoryInbox{capacity: capacity}
}

// Add records a notification, evicting the oldest when full
func (m *MemoryInbox) Add(persistentID string, payload []byte) *storage.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	n := &storage.Notification{
		ID:           m.nextID,
		PersistentID: persistentID,
		Payload:      payload,
		ReceivedAt:   time.Now(),
	}

	if len(m.items) == m.capacity {
		copy(m.items, m.items[1:])
		m.items = m.items[:len(m.items)-1]
	}
	m.items = append(m.items, n)
	return n
}

// Recent returns up to limit notifications, newest first
func (m *MemoryInbox) Recent(limit int) ([]*storage.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit = min(limit, len(m.items))
	out := make([]*storage.Notification, 0, limit)
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

// Len returns the number of stored notifications
func (m *MemoryInbox) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
