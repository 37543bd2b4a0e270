package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects how a notification is presented.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// DefaultTimeout is how long a toast stays up unless dismissed.
const DefaultTimeout = 5 * time.Second

// Notification is one transient toast.
type Notification struct {
	ID      string
	Kind    Kind
	Message string
	Created time.Time
}

// Center holds the toasts currently on screen. Any number may coexist;
// each one is dismissed by its own timer or explicitly.
type Center struct {
	mu       sync.Mutex
	timeout  time.Duration
	active   []Notification
	timers   map[string]*time.Timer
	onChange func()
}

// NewCenter creates a notification center. A timeout <= 0 uses
// DefaultTimeout.
func NewCenter(timeout time.Duration) *Center {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Center{
		timeout: timeout,
		timers:  make(map[string]*time.Timer),
	}
}

// OnChange registers a hook called after every push or dismissal. It runs
// without the center's lock held.
func (c *Center) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Push shows a toast and returns its ID.
func (c *Center) Push(kind Kind, message string) string {
	n := Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Created: time.Now(),
	}

	c.mu.Lock()
	c.active = append(c.active, n)
	c.timers[n.ID] = time.AfterFunc(c.timeout, func() {
		c.Dismiss(n.ID)
	})
	hook := c.onChange
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n.ID
}

// Notify is Push without the ID.
func (c *Center) Notify(kind Kind, message string) {
	c.Push(kind, message)
}

// Dismiss removes a toast. It reports whether the toast was still shown.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, n := range c.active {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.active = append(c.active[:idx], c.active[idx+1:]...)
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	hook := c.onChange
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// DismissLatest removes the newest toast, if any.
func (c *Center) DismissLatest() bool {
	c.mu.Lock()
	if len(c.active) == 0 {
		c.mu.Unlock()
		return false
	}
	id := c.active[len(c.active)-1].ID
	c.mu.Unlock()
	return c.Dismiss(id)
}

// Active returns the toasts currently shown, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.active))
	copy(out, c.active)
	return out
}

// Close stops every pending timer.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
