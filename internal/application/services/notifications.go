package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/journify/core/internal/ports"
)

const defaultNotificationCapacity = 50

// Notifications keeps the most recent non-fatal failures for the UI.
type Notifications struct {
	mu       sync.Mutex
	items    []ports.Notification
	capacity int
}

func NewNotifications(capacity int) *Notifications {
	if capacity <= 0 {
		capacity = defaultNotificationCapacity
	}
	return &Notifications{capacity: capacity}
}

// Error records a failure of op against entityID.
func (n *Notifications) Error(op, entityID string, err error) ports.Notification {
	item := ports.Notification{
		ID:        uuid.NewString(),
		Level:     "error",
		Message:   err.Error(),
		Op:        op,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	if over := len(n.items) - n.capacity; over > 0 {
		n.items = append([]ports.Notification(nil), n.items[over:]...)
	}
	return item
}

// List returns notifications newest first.
func (n *Notifications) List() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.Notification, len(n.items))
	for i, item := range n.items {
		out[len(n.items)-1-i] = item
	}
	return out
}

func (n *Notifications) Clear() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
}
