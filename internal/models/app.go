package models

import "time"

// Screen identifies one of the three top-level views.
type Screen int

const (
	ScreenAuth Screen = iota
	ScreenChat
	ScreenProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenChat:
		return "chat"
	case ScreenProfile:
		return "profile"
	default:
		return "auth"
	}
}

// Protected reports whether the screen requires a live backend session.
func (s Screen) Protected() bool {
	return s != ScreenAuth
}

type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "success"
}

// Notification is the single user-facing status line. Empty Message means nothing to show.
type Notification struct {
	Message  string
	Severity Severity
}

func (n Notification) IsZero() bool {
	return n.Message == ""
}

// SessionIdentity is the backend's view of who is logged in.
type SessionIdentity struct {
	UserID string
}

// UserProfile is the read-only profile returned by the backend.
type UserProfile struct {
	ID        string
	Login     string
	Email     string
	CreatedAt time.Time
}

// AppModel represents the UI state as last pushed by core, plus terminal size.
type AppModel struct {
	Screen       Screen
	Auth         AuthState
	Chat         ChatState
	Profile      ProfileState
	Settings     TtsSettings
	Notification Notification
	Width        int
	Height       int
}

// Loading reports whether anything on the active screen is waiting on the backend.
func (m AppModel) Loading() bool {
	switch m.Screen {
	case ScreenChat:
		return m.Chat.Busy
	case ScreenProfile:
		return m.Profile.Busy
	default:
		return m.Auth.Submitting || m.Auth.RequestingCode
	}
}
