package core

import (
	"sync"

	"github.com/Rorical/RoriTalk/internal/models"
)

// Notifier holds the one current notification. Each new one replaces the last.
type Notifier struct {
	mu       sync.RWMutex
	current  models.Notification
	onChange func()
}

func NewNotifier(onChange func()) *Notifier {
	return &Notifier{onChange: onChange}
}

func (n *Notifier) Set(note models.Notification) {
	n.mu.Lock()
	n.current = note
	n.mu.Unlock()

	if n.onChange != nil {
		n.onChange()
	}
}

func (n *Notifier) Success(message string) {
	n.Set(models.Notification{Message: message, Severity: models.SeveritySuccess})
}

func (n *Notifier) Error(message string) {
	n.Set(models.Notification{Message: message, Severity: models.SeverityError})
}

func (n *Notifier) Clear() {
	n.Set(models.Notification{})
}

func (n *Notifier) Current() models.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}
