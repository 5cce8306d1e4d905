package internal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Toast kinds
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// toastTTL is how long a toast stays active before auto-expiring
const toastTTL = 3500 * time.Millisecond

// Toast is an ephemeral notification; it is a UI side-channel, never part of
// the durable data model.
type Toast struct {
	ID      string
	Type    string
	Message string
}

// Notifier collects transient notifications. Errors are dual-reported by
// callers: the owning state slice keeps its own error field while the toast
// provides global visibility.
type Notifier struct {
	mu     sync.Mutex
	toasts []Toast
	out    io.Writer
	ttl    time.Duration
}

// NewNotifier creates a notifier with the default expiry delay
func NewNotifier() *Notifier {
	return &Notifier{ttl: toastTTL}
}

// SetOutput echoes each toast to w as it is pushed, for one-shot CLI runs
// that exit before the expiry timer matters.
func (n *Notifier) SetOutput(w io.Writer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.out = w
}

// SetTTL overrides the auto-expiry delay (shortened in tests)
func (n *Notifier) SetTTL(ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ttl = ttl
}

// Push adds a toast and schedules its expiry
func (n *Notifier) Push(kind, message string) Toast {
	toast := Toast{ID: uuid.NewString(), Type: kind, Message: message}
	n.mu.Lock()
	n.toasts = append(n.toasts, toast)
	out := n.out
	ttl := n.ttl
	n.mu.Unlock()
	if out != nil {
		fmt.Fprintf(out, "[%s] %s\n", kind, message)
	}
	time.AfterFunc(ttl, func() { n.Dismiss(toast.ID) })
	return toast
}

// Success pushes a success toast
func (n *Notifier) Success(message string) { n.Push(ToastSuccess, message) }

// Error pushes an error toast
func (n *Notifier) Error(message string) { n.Push(ToastError, message) }

// Info pushes an info toast
func (n *Notifier) Info(message string) { n.Push(ToastInfo, message) }

// Active returns the not-yet-expired toasts in arrival order
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	active := make([]Toast, len(n.toasts))
	copy(active, n.toasts)
	return active
}

// Dismiss removes a toast before its expiry
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.toasts[:0]
	for _, toast := range n.toasts {
		if toast.ID != id {
			kept = append(kept, toast)
		}
	}
	n.toasts = kept
}
