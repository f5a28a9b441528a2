package core

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"sync"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

const (
	msgLoggedIn       = "Logged in"
	msgLoginRejected  = "Invalid username or password"
	msgRegistered     = "Registration complete, you can log in now"
	msgRegisterFailed = "Registration failed, please try again"
	msgEmailRequired  = "Please enter your email"
	msgCodeSent       = "Verification code sent"
	msgCodeFailed     = "Failed to send the code, please try again"
	msgResetSent      = "Password reset requested, check your email"
	msgResetFailed    = "Password reset failed, please try again"
	msgFormInvalid    = "Please fix the highlighted fields"
)

type AuthBackend interface {
	LogIn(ctx context.Context, creds api.Credentials) (api.Reply, error)
	VerifyCode(ctx context.Context, reg api.Registration) (api.Reply, error)
	SendCode(ctx context.Context, email string) (api.Reply, error)
	PasswordReset(ctx context.Context, email string) (api.Reply, error)
}

// AuthAction is an intent applied to AuthState by ReduceAuth.
type AuthAction interface {
	authAction()
}

type SwitchMode struct{ Mode models.AuthMode }
type SetField struct {
	Field models.Field
	Value string
}
type SetErrors struct{ Errors map[models.Field]string }
type BeginSubmit struct{}
type EndSubmit struct{}
type BeginCodeRequest struct{}
type EndCodeRequest struct{}
type RegistrationConfirmed struct{}
type SessionEnded struct{}

func (SwitchMode) authAction() {}
func (SetField) authAction() {}
func (SetErrors) authAction() {}
func (BeginSubmit) authAction() {}
func (EndSubmit) authAction() {}
func (BeginCodeRequest) authAction() {}
func (EndCodeRequest) authAction() {}
func (RegistrationConfirmed) authAction() {}
func (SessionEnded) authAction() {}

// ReduceAuth is the only place AuthState changes. It never modifies s.
func ReduceAuth(s models.AuthState, action AuthAction) models.AuthState {
	next := s
	next.Errors = maps.Clone(s.Errors)

	switch a := action.(type) {
	case SwitchMode:
		// Typed values survive a mode switch; errors belong to the old schema.
		next.Mode = a.Mode
		next.Errors = nil
	case SetField:
		switch a.Field {
		case models.FieldUsername:
			next.Form.Username = a.Value
		case models.FieldPassword:
			next.Form.Password = a.Value
		case models.FieldEmail:
			next.Form.Email = a.Value
		case models.FieldCode:
			next.Form.Code = a.Value
		}
	case SetErrors:
		next.Errors = maps.Clone(a.Errors)
	case BeginSubmit:
		next.Submitting = true
		next.Errors = nil
	case EndSubmit:
		next.Submitting = false
	case BeginCodeRequest:
		next.RequestingCode = true
	case EndCodeRequest:
		next.RequestingCode = false
	case RegistrationConfirmed:
		next.Mode = models.ModeLogin
		next.Errors = nil
	case SessionEnded:
		// the username stays for convenience, secrets do not
		next.Form.Password = ""
		next.Form.Code = ""
		next.Errors = nil
	}
	return next
}

// AuthController drives the auth screen: login, registration and password reset.
type AuthController struct {
	mu       sync.RWMutex
	state    models.AuthState
	backend  AuthBackend
	notifier *Notifier
	hooks    Hooks
}

func NewAuthController(backend AuthBackend, notifier *Notifier, hooks Hooks) *AuthController {
	return &AuthController{
		backend:  backend,
		notifier: notifier,
		hooks:    hooks,
	}
}

func (ac *AuthController) State() models.AuthState {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	s := ac.state
	s.Errors = maps.Clone(s.Errors)
	return s
}

func (ac *AuthController) dispatch(action AuthAction) {
	ac.mu.Lock()
	ac.state = ReduceAuth(ac.state, action)
	ac.mu.Unlock()
	ac.hooks.changed()
}

// tryDispatch applies action only if guard accepts the current state, atomically.
func (ac *AuthController) tryDispatch(guard func(models.AuthState) bool, action AuthAction) bool {
	ac.mu.Lock()
	if !guard(ac.state) {
		ac.mu.Unlock()
		return false
	}
	ac.state = ReduceAuth(ac.state, action)
	ac.mu.Unlock()
	ac.hooks.changed()
	return true
}

func (ac *AuthController) SwitchMode(mode models.AuthMode) {
	ac.dispatch(SwitchMode{Mode: mode})
}

func (ac *AuthController) SetField(field models.Field, value string) {
	ac.dispatch(SetField{Field: field, Value: value})
}

// ForgetSecrets drops the password and code typed by the previous user.
func (ac *AuthController) ForgetSecrets() {
	ac.dispatch(SessionEnded{})
}

// Submit validates the form for the current mode and runs that mode's request.
func (ac *AuthController) Submit(ctx context.Context) error {
	s := ac.State()
	if s.Submitting {
		return ErrBusy
	}
	if verr := ValidateAuth(s.Mode, s.Form); verr != nil {
		ac.dispatch(SetErrors{Errors: verr.Fields})
		ac.notifier.Error(msgFormInvalid)
		return verr
	}

	switch s.Mode {
	case models.ModeRegister:
		return ac.Register(ctx, s.Form.Username, s.Form.Password, s.Form.Email, s.Form.Code)
	case models.ModeResetPassword:
		return ac.ResetPassword(ctx, s.Form.Email)
	default:
		return ac.Login(ctx, s.Form.Username, s.Form.Password)
	}
}

// begin claims the in-flight flag; the caller must defer ac.end().
func (ac *AuthController) begin() bool {
	ok := ac.tryDispatch(func(s models.AuthState) bool { return !s.Submitting }, BeginSubmit{})
	if ok {
		ac.notifier.Clear()
	}
	return ok
}

func (ac *AuthController) end() {
	ac.dispatch(EndSubmit{})
}

// Login succeeds only on status 200, then schedules the move to the chat screen.
func (ac *AuthController) Login(ctx context.Context, username, password string) error {
	if !ac.begin() {
		return ErrBusy
	}
	defer ac.end()

	reply, err := ac.backend.LogIn(ctx, api.Credentials{Username: username, Password: password})
	if err == nil && reply.Status != http.StatusOK {
		err = &api.Error{Kind: api.KindRejected, Op: api.PathLogIn, Status: reply.Status, Message: reply.Message}
	}
	if err != nil {
		ac.notifier.Error(failureMessage(err, msgLoginRejected))
		return err
	}

	ac.notifier.Success(orDefault(reply.Message, msgLoggedIn))
	ac.hooks.navigateAfter(NavigationDelay, models.ScreenChat)
	return nil
}

// Register completes sign-up with the emailed code. Only a confirmed success returns
// the form to login mode.
func (ac *AuthController) Register(ctx context.Context, username, password, email, code string) error {
	if !ac.begin() {
		return ErrBusy
	}
	defer ac.end()

	reply, err := ac.backend.VerifyCode(ctx, api.Registration{
		Username: username,
		Password: password,
		Email:    email,
		Code:     code,
	})
	if err == nil && !reply.Success {
		err = &api.Error{Kind: api.KindRejected, Op: api.PathVerifyCode, Status: reply.Status, Message: reply.Message}
	}
	if err != nil {
		ac.notifier.Error(failureMessage(err, msgRegisterFailed))
		return err
	}

	ac.dispatch(RegistrationConfirmed{})
	ac.notifier.Success(orDefault(reply.Message, msgRegistered))
	return nil
}

func (ac *AuthController) ResetPassword(ctx context.Context, email string) error {
	if !ac.begin() {
		return ErrBusy
	}
	defer ac.end()

	reply, err := ac.backend.PasswordReset(ctx, email)
	if err == nil && !reply.Success {
		err = &api.Error{Kind: api.KindRejected, Op: api.PathPasswordReset, Status: reply.Status, Message: reply.Message}
	}
	if err != nil {
		ac.notifier.Error(failureMessage(err, msgResetFailed))
		return err
	}
	ac.notifier.Success(orDefault(reply.Message, msgResetSent))
	return nil
}

// RequestVerificationCode mails a registration code to email. It has its own in-flight
// flag and does not touch the submit flow.
func (ac *AuthController) RequestVerificationCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		ac.notifier.Error(msgEmailRequired)
		return &ValidationError{Fields: map[models.Field]string{models.FieldEmail: msgRequired}}
	}

	if !ac.tryDispatch(func(s models.AuthState) bool { return !s.RequestingCode }, BeginCodeRequest{}) {
		return ErrBusy
	}
	defer ac.dispatch(EndCodeRequest{})
	ac.notifier.Clear()

	reply, err := ac.backend.SendCode(ctx, email)
	if err != nil {
		ac.notifier.Error(failureMessage(err, msgCodeFailed))
		return err
	}
	ac.notifier.Success(orDefault(reply.Message, msgCodeSent))
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
