package core

// Backend is every backend call the controllers make. *api.Client implements it.
type Backend interface {
	SessionBackend
	AuthBackend
	ConversationBackend
	ProfileBackend
}

// Controllers groups the state owners of one client session. They share a notifier
// and hooks, so a change in any of them reaches the same observer.
type Controllers struct {
	Notifier     *Notifier
	Settings     *SettingsStore
	Guard        *SessionGuard
	Auth         *AuthController
	Conversation *ConversationEngine
	Profile      *ProfileController
}

// NewControllers wires all controllers to backend. clearSession is called when the
// session ends locally and may be nil.
func NewControllers(backend Backend, clearSession func() error, hooks Hooks) (*Controllers, error) {
	notifier := NewNotifier(hooks.OnChange)
	settings := NewSettingsStore()

	profile, err := NewProfileController(backend, notifier, hooks, clearSession)
	if err != nil {
		return nil, err
	}

	return &Controllers{
		Notifier:     notifier,
		Settings:     settings,
		Guard:        NewSessionGuard(backend),
		Auth:         NewAuthController(backend, notifier, hooks),
		Conversation: NewConversationEngine(backend, settings, notifier, hooks),
		Profile:      profile,
	}, nil
}
