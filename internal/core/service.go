package core

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Rorical/RoriTalk/internal/eventbus"
	"github.com/Rorical/RoriTalk/internal/models"
)

// ClientService owns the controllers of one TUI session. It consumes UI events from
// the bus, runs backend calls off the event loop and pushes a full state snapshot to
// the UI after every change.
type ClientService struct {
	controllers *Controllers
	eventBus    *eventbus.EventBus
	ctx         context.Context
	cancel      context.CancelFunc

	mu        sync.RWMutex
	screen    models.Screen
	screenGen uint64 // bumped on every navigation
	identity  models.SessionIdentity

	pushMu  sync.Mutex // keeps snapshots in the order they were taken
	started bool
	wg      sync.WaitGroup
}

// NewClientService builds the controllers around backend. clearSession drops the
// stored session cookie and may be nil.
func NewClientService(backend Backend, clearSession func() error, eb *eventbus.EventBus) (*ClientService, error) {
	ctx, cancel := context.WithCancel(context.Background())
	service := &ClientService{
		eventBus: eb,
		ctx:      ctx,
		cancel:   cancel,
	}

	controllers, err := NewControllers(backend, clearSession, Hooks{
		OnChange: service.pushStateToUI,
		Navigate: service.Navigate,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	service.controllers = controllers
	return service, nil
}

func (cs *ClientService) Controllers() *Controllers {
	return cs.controllers
}

// Start runs the event loop and decides the first screen from the stored session.
func (cs *ClientService) Start() {
	cs.mu.Lock()
	cs.started = true
	cs.mu.Unlock()

	cs.pushStateToUI()
	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		cs.eventLoop()
	}()
	cs.spawn(cs.bootstrap)
}

// Stop cancels outstanding work and waits for the event loop and its requests.
func (cs *ClientService) Stop() {
	cs.cancel()
	cs.wg.Wait()
}

// bootstrap skips the auth screen when the stored cookie is still good.
func (cs *ClientService) bootstrap() {
	result := cs.controllers.Guard.CheckSession(cs.ctx)
	if result.Authenticated {
		cs.setIdentity(result.Identity)
		cs.Navigate(models.ScreenChat)
		return
	}
	log.Printf("service: no active session, showing auth")
}

func (cs *ClientService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

// spawn runs fn off the event loop. Stop waits for it.
func (cs *ClientService) spawn(fn func()) {
	if cs.ctx.Err() != nil {
		return
	}
	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		fn()
	}()
}

func (cs *ClientService) handleUIEvent(event eventbus.UIEvent) {
	c := cs.controllers
	switch e := event.(type) {
	case eventbus.NavigateEvent:
		cs.Navigate(e.Screen)
	case eventbus.SwitchModeEvent:
		c.Auth.SwitchMode(e.Mode)
	case eventbus.SetFieldEvent:
		c.Auth.SetField(e.Field, e.Value)
	case eventbus.SubmitAuthEvent:
		cs.spawn(func() { logFailure("auth submit", c.Auth.Submit(cs.ctx)) })
	case eventbus.RequestCodeEvent:
		email := c.Auth.State().Form.Email
		cs.spawn(func() { logFailure("send code", c.Auth.RequestVerificationCode(cs.ctx, email)) })
	case eventbus.SetInputEvent:
		c.Conversation.SetInput(e.Text)
	case eventbus.SubmitChatEvent:
		cs.spawn(func() { logFailure("chat submit", c.Conversation.Submit(cs.ctx)) })
	case eventbus.AttachFileEvent:
		cs.attach(e.Path)
	case eventbus.DetachFileEvent:
		c.Conversation.UnstageFile()
	case eventbus.SetSettingEvent:
		cs.setSetting(e.Key, e.Value)
	case eventbus.ChangePasswordEvent:
		cs.spawn(func() {
			logFailure("change password", c.Profile.ChangePassword(cs.ctx, e.OldPassword, e.NewPassword, e.Confirm))
		})
	case eventbus.LogoutEvent:
		cs.spawn(func() { logFailure("logout", c.Profile.Logout(cs.ctx)) })
	default:
		log.Printf("service: unhandled UI event %T", event)
	}
}

func (cs *ClientService) attach(path string) {
	upload, err := LoadUpload(path)
	if err != nil {
		log.Printf("service: %v", err)
		cs.controllers.Notifier.Error("Cannot attach file: " + path)
		return
	}
	logFailure("attach", cs.controllers.Conversation.StageFile(upload))
}

func (cs *ClientService) setSetting(key, value string) {
	settings, err := cs.controllers.Settings.Set(key, value)
	if err != nil {
		cs.controllers.Notifier.Error(err.Error())
		return
	}
	log.Printf("service: tts settings now %+v", settings)
	cs.controllers.Notifier.Success("Set " + key + " to " + value)
}

// logFailure records errors that were already turned into a notification.
func logFailure(op string, err error) {
	if err == nil || errors.Is(err, ErrStale) {
		return
	}
	log.Printf("service: %s: %v", op, err)
}

func (cs *ClientService) setIdentity(identity models.SessionIdentity) {
	cs.mu.Lock()
	cs.identity = identity
	cs.mu.Unlock()
}

func (cs *ClientService) Screen() models.Screen {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.screen
}

// Navigate switches screens. Leaving chat resets the conversation; entering a
// protected screen runs the session guard before anything is loaded.
func (cs *ClientService) Navigate(screen models.Screen) {
	cs.mu.Lock()
	prev := cs.screen
	cs.screen = screen
	cs.screenGen++
	gen := cs.screenGen
	if screen == models.ScreenAuth {
		cs.identity = models.SessionIdentity{}
	}
	started := cs.started
	cs.mu.Unlock()

	log.Printf("service: navigate %s -> %s", prev, screen)
	if prev == models.ScreenChat && screen != models.ScreenChat {
		cs.controllers.Conversation.Reset()
	}
	if screen == models.ScreenAuth && prev != models.ScreenAuth {
		cs.controllers.Auth.ForgetSecrets()
	}
	cs.pushStateToUI()

	if screen.Protected() && started {
		cs.spawn(func() { cs.mount(gen, screen) })
	}
}

// mount checks the session for a freshly shown protected screen, then loads its data.
// Nothing happens if the user has navigated again in the meantime.
func (cs *ClientService) mount(gen uint64, screen models.Screen) {
	result := cs.controllers.Guard.CheckSession(cs.ctx)
	if !cs.current(gen) {
		return
	}
	if !result.Authenticated {
		cs.Navigate(models.ScreenAuth)
		return
	}
	cs.setIdentity(result.Identity)

	switch screen {
	case models.ScreenChat:
		logFailure("load history", cs.controllers.Conversation.LoadHistory(cs.ctx))
	case models.ScreenProfile:
		if _, err := cs.controllers.Profile.Load(cs.ctx, result.Identity); err != nil {
			logFailure("load profile", err)
		}
	}
}

func (cs *ClientService) current(gen uint64) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.screenGen == gen
}

// Snapshot assembles the state every screen renders from.
func (cs *ClientService) Snapshot() models.AppModel {
	c := cs.controllers
	return models.AppModel{
		Screen:       cs.Screen(),
		Auth:         c.Auth.State(),
		Chat:         c.Conversation.State(),
		Profile:      c.Profile.State(),
		Settings:     c.Settings.Snapshot(),
		Notification: c.Notifier.Current(),
	}
}

func (cs *ClientService) pushStateToUI() {
	// Hooks fire while NewControllers is still running.
	if cs.controllers == nil {
		return
	}
	cs.pushMu.Lock()
	defer cs.pushMu.Unlock()

	if err := cs.eventBus.SendToUI(eventbus.StateUpdateEvent{State: cs.Snapshot()}); err != nil {
		log.Printf("service: error sending state to UI: %v", err)
	}
}
