// Package notif keeps the transient, insertion-ordered user notifications
// raised by store mutations and connectivity changes.
package notif

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// TTL is how long a notification lives unless dismissed earlier.
const TTL = 5 * time.Second

// visibleMax caps how many notifications a read surfaces.
const visibleMax = 5

type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Center holds notifications in insertion order. Expiry is checked lazily on
// read rather than by a timer, like session expiry.
type Center struct {
	mu      sync.Mutex
	items   []Notification
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewCenter() *Center {
	return &Center{ttl: TTL, nowFunc: time.Now}
}

func (c *Center) Push(severity Severity, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		Timestamp: c.nowFunc(),
	}
	c.mu.Lock()
	c.sweep()
	c.items = append(c.items, n)
	c.mu.Unlock()
	return n
}

// Notify satisfies the notifier contract of the domain store.
func (c *Center) Notify(severity, message string) {
	c.Push(Severity(severity), message)
}

// Latest returns at most the 5 most recent live notifications, newest first.
func (c *Center) Latest() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	n := len(c.items)
	count := n
	if count > visibleMax {
		count = visibleMax
	}
	out := make([]Notification, 0, count)
	for i := n - 1; i >= n-count; i-- {
		out = append(out, c.items[i])
	}
	return out
}

func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// sweep drops expired notifications; callers must hold the lock.
func (c *Center) sweep() {
	cutoff := c.nowFunc().Add(-c.ttl)
	live := c.items[:0]
	for _, n := range c.items {
		if n.Timestamp.After(cutoff) {
			live = append(live, n)
		}
	}
	c.items = live
}
