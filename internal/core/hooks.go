package core

import (
	"time"

	"github.com/Rorical/RoriTalk/internal/models"
)

// NavigationDelay gives the user time to read a confirmation before the screen changes.
const NavigationDelay = 1500 * time.Millisecond

// Hooks connect controllers to whoever drives them. Every hook is called without any
// controller lock held, so it may read controller state.
type Hooks struct {
	OnChange func()
	Navigate func(models.Screen)
	// After runs fn once d has elapsed. Defaults to time.AfterFunc.
	After func(d time.Duration, fn func())
}

func (h Hooks) changed() {
	if h.OnChange != nil {
		h.OnChange()
	}
}

func (h Hooks) navigateAfter(d time.Duration, screen models.Screen) {
	if h.Navigate == nil {
		return
	}
	after := h.After
	if after == nil {
		after = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	after(d, func() { h.Navigate(screen) })
}

func (h Hooks) navigate(screen models.Screen) {
	if h.Navigate != nil {
		h.Navigate(screen)
	}
}
