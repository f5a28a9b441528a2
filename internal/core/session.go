package core

import (
	"context"
	"log"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

type SessionBackend interface {
	SessionInfo(ctx context.Context) (api.SessionInfo, error)
}

// SessionResult is either Authenticated with an identity, or not.
type SessionResult struct {
	Authenticated bool
	Identity      models.SessionIdentity
}

// SessionGuard asks the backend who is logged in. It holds no state and may be
// called from any goroutine.
type SessionGuard struct {
	backend SessionBackend
}

func NewSessionGuard(backend SessionBackend) *SessionGuard {
	return &SessionGuard{backend: backend}
}

// CheckSession treats a failed request exactly like an explicit "no user".
func (g *SessionGuard) CheckSession(ctx context.Context) SessionResult {
	info, err := g.backend.SessionInfo(ctx)
	if err != nil {
		log.Printf("session: check failed, treating as logged out: %v", err)
		return SessionResult{}
	}
	if info.User == "" {
		return SessionResult{}
	}
	return SessionResult{
		Authenticated: true,
		Identity:      models.SessionIdentity{UserID: info.User.String()},
	}
}
