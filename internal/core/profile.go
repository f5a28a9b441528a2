package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

const profileCacheSize = 16

const (
	msgPasswordChanged = "Password changed"
	msgPasswordFailed  = "Failed to change password"
	msgProfileFailed   = "Failed to load profile"
	msgLoggedOut       = "Logged out"
	msgLogoutFailed    = "Failed to log out"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type ProfileBackend interface {
	User(ctx context.Context, id string) (api.UserRecord, error)
	ChangePassword(ctx context.Context, change api.PasswordChange) (api.PasswordChangeReply, error)
	LogOut(ctx context.Context) (api.LogoutReply, error)
}

// ProfileController backs the profile screen. Profiles are cached per user id until
// the session ends.
type ProfileController struct {
	mu      sync.RWMutex
	profile *models.UserProfile
	busy    bool
	changed uint64

	cache        *lru.Cache[string, models.UserProfile]
	backend      ProfileBackend
	notifier     *Notifier
	hooks        Hooks
	clearSession func() error
}

// NewProfileController builds the controller. clearSession drops the local session
// credential and may be nil.
func NewProfileController(backend ProfileBackend, notifier *Notifier, hooks Hooks, clearSession func() error) (*ProfileController, error) {
	cache, err := lru.New[string, models.UserProfile](profileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}
	return &ProfileController{
		cache:        cache,
		backend:      backend,
		notifier:     notifier,
		hooks:        hooks,
		clearSession: clearSession,
	}, nil
}

func (pc *ProfileController) State() models.ProfileState {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	state := models.ProfileState{Busy: pc.busy, PasswordChanged: pc.changed}
	if pc.profile != nil {
		p := *pc.profile
		state.Profile = &p
	}
	return state
}

func (pc *ProfileController) begin() bool {
	pc.mu.Lock()
	if pc.busy {
		pc.mu.Unlock()
		return false
	}
	pc.busy = true
	pc.mu.Unlock()
	pc.hooks.changed()
	return true
}

func (pc *ProfileController) end() {
	pc.mu.Lock()
	pc.busy = false
	pc.mu.Unlock()
	pc.hooks.changed()
}

// Load fetches the profile of the logged-in user, serving repeat visits from cache.
func (pc *ProfileController) Load(ctx context.Context, identity models.SessionIdentity) (models.UserProfile, error) {
	if cached, ok := pc.cache.Get(identity.UserID); ok {
		pc.setProfile(&cached)
		return cached, nil
	}

	if !pc.begin() {
		return models.UserProfile{}, ErrBusy
	}
	defer pc.end()

	record, err := pc.backend.User(ctx, identity.UserID)
	if err != nil {
		log.Printf("profile: load %s failed: %v", identity.UserID, err)
		pc.notifier.Error(failureMessage(err, msgProfileFailed))
		return models.UserProfile{}, err
	}

	profile := models.UserProfile{
		ID:        record.ID.String(),
		Login:     record.Login,
		Email:     record.Email,
		CreatedAt: parseCreatedAt(record.CreatedAt),
	}
	if profile.ID == "" {
		profile.ID = identity.UserID
	}
	pc.cache.Add(identity.UserID, profile)
	pc.setProfile(&profile)
	return profile, nil
}

func parseCreatedAt(s string) time.Time {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (pc *ProfileController) setProfile(p *models.UserProfile) {
	pc.mu.Lock()
	pc.profile = p
	pc.mu.Unlock()
	pc.hooks.changed()
}

// Invalidate forgets every cached profile and the local session credential.
func (pc *ProfileController) Invalidate() {
	pc.cache.Purge()
	pc.setProfile(nil)
	if pc.clearSession != nil {
		if err := pc.clearSession(); err != nil {
			log.Printf("profile: failed to clear session: %v", err)
		}
	}
}

// ChangePassword checks the form locally, then asks the backend. When the backend
// ends the session, the cached identity is dropped and the auth screen follows.
func (pc *ProfileController) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	if verr := ValidatePasswordChange(oldPassword, newPassword, confirm); verr != nil {
		msg := msgFormInvalid
		if m, ok := verr.Fields[models.FieldConfirmPassword]; ok {
			msg = m
		}
		pc.notifier.Error(msg)
		return verr
	}

	if !pc.begin() {
		return ErrBusy
	}
	defer pc.end()
	pc.notifier.Clear()

	reply, err := pc.backend.ChangePassword(ctx, api.PasswordChange{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		pc.notifier.Error(failureMessage(err, msgPasswordFailed))
		return err
	}

	pc.mu.Lock()
	pc.changed++
	pc.mu.Unlock()
	pc.notifier.Success(orDefault(reply.Message, msgPasswordChanged))

	if reply.Logout {
		pc.Invalidate()
		pc.hooks.navigateAfter(NavigationDelay, models.ScreenAuth)
	}
	return nil
}

// Logout ends the backend session and returns to the auth screen.
func (pc *ProfileController) Logout(ctx context.Context) error {
	if !pc.begin() {
		return ErrBusy
	}
	defer pc.end()
	pc.notifier.Clear()

	if _, err := pc.backend.LogOut(ctx); err != nil {
		pc.notifier.Error(failureMessage(err, msgLogoutFailed))
		return err
	}
	pc.Invalidate()
	pc.notifier.Success(msgLoggedOut)
	pc.hooks.navigate(models.ScreenAuth)
	return nil
}
