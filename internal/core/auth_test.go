package core

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

func newAuth(backend *fakeBackend) (*AuthController, *Notifier, *navRecorder) {
	nav := &navRecorder{}
	notifier := NewNotifier(nil)
	return NewAuthController(backend, notifier, nav.hooks()), notifier, nav
}

func TestReduceAuthSwitchModeKeepsValuesClearsErrors(t *testing.T) {
	s := models.AuthState{
		Mode:   models.ModeRegister,
		Form:   models.AuthForm{Username: "bob", Email: "bob@example.com"},
		Errors: map[models.Field]string{models.FieldCode: msgRequired},
	}

	next := ReduceAuth(s, SwitchMode{Mode: models.ModeLogin})

	assert.Equal(t, models.ModeLogin, next.Mode)
	assert.Equal(t, "bob", next.Form.Username)
	assert.Equal(t, "bob@example.com", next.Form.Email)
	assert.Empty(t, next.Errors)
	// the input state is untouched
	assert.Equal(t, models.ModeRegister, s.Mode)
	assert.Len(t, s.Errors, 1)
}

func TestReduceAuthDoesNotAliasErrors(t *testing.T) {
	errs := map[models.Field]string{models.FieldUsername: msgRequired}
	next := ReduceAuth(models.AuthState{}, SetErrors{Errors: errs})
	errs[models.FieldPassword] = "changed later"

	assert.Len(t, next.Errors, 1)
}

func TestReduceAuthRegistrationConfirmed(t *testing.T) {
	next := ReduceAuth(models.AuthState{Mode: models.ModeRegister}, RegistrationConfirmed{})
	assert.Equal(t, models.ModeLogin, next.Mode)
}

func TestLoginSuccessSchedulesNavigation(t *testing.T) {
	backend := &fakeBackend{
		logIn: func(c api.Credentials) (api.Reply, error) {
			assert.Equal(t, "bob", c.Username)
			assert.Equal(t, "secret1", c.Password)
			return api.Reply{Status: http.StatusOK, Message: "ok", Success: true}, nil
		},
	}
	auth, notifier, nav := newAuth(backend)

	require.NoError(t, auth.Login(context.Background(), "bob", "secret1"))

	note := notifier.Current()
	assert.Equal(t, models.SeveritySuccess, note.Severity)
	assert.Equal(t, "ok", note.Message)
	assert.Equal(t, []models.Screen{models.ScreenChat}, nav.navigations())
	assert.Equal(t, NavigationDelay, nav.delays[0])
	assert.False(t, auth.State().Submitting)
}

func TestLoginRejectedShowsServerMessage(t *testing.T) {
	backend := &fakeBackend{
		logIn: func(api.Credentials) (api.Reply, error) {
			return api.Reply{Status: http.StatusUnauthorized}, rejected(api.PathLogIn, 401, "bad creds")
		},
	}
	auth, notifier, nav := newAuth(backend)

	err := auth.Login(context.Background(), "bob", "secret1")

	assert.True(t, api.IsRejected(err))
	assert.Equal(t, models.Notification{Message: "bad creds", Severity: models.SeverityError}, notifier.Current())
	assert.Empty(t, nav.navigations())
	assert.False(t, auth.State().Submitting)
}

func TestLoginRejectedWithoutMessageUsesFallback(t *testing.T) {
	backend := &fakeBackend{
		logIn: func(api.Credentials) (api.Reply, error) {
			return api.Reply{}, rejected(api.PathLogIn, 401, "")
		},
	}
	auth, notifier, _ := newAuth(backend)

	_ = auth.Login(context.Background(), "bob", "secret1")
	assert.Equal(t, msgLoginRejected, notifier.Current().Message)
}

func TestLoginServerFailureIsDistinct(t *testing.T) {
	for name, err := range map[string]error{
		"5xx":     unavailable(api.PathLogIn),
		"network": &api.Error{Kind: api.KindUnavailable, Op: api.PathLogIn, Err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			backend := &fakeBackend{
				logIn: func(api.Credentials) (api.Reply, error) { return api.Reply{}, err },
			}
			auth, notifier, nav := newAuth(backend)

			assert.Error(t, auth.Login(context.Background(), "bob", "secret1"))
			assert.Equal(t, msgServerUnreachable, notifier.Current().Message)
			assert.Empty(t, nav.navigations())
			assert.False(t, auth.State().Submitting)
		})
	}
}

func TestLoginNon200SuccessIsNotLogin(t *testing.T) {
	backend := &fakeBackend{
		logIn: func(api.Credentials) (api.Reply, error) {
			return api.Reply{Status: http.StatusAccepted, Message: "pending"}, nil
		},
	}
	auth, notifier, nav := newAuth(backend)

	assert.Error(t, auth.Login(context.Background(), "bob", "secret1"))
	assert.Equal(t, models.SeverityError, notifier.Current().Severity)
	assert.Empty(t, nav.navigations())
}

func TestLoginReleasesFlagOnPanic(t *testing.T) {
	backend := &fakeBackend{
		logIn: func(api.Credentials) (api.Reply, error) { panic("boom") },
	}
	auth, _, _ := newAuth(backend)

	assert.Panics(t, func() { _ = auth.Login(context.Background(), "bob", "secret1") })
	assert.False(t, auth.State().Submitting)
}

func TestSubmitValidationMakesNoCall(t *testing.T) {
	backend := &fakeBackend{}
	auth, notifier, _ := newAuth(backend)
	auth.SetField(models.FieldUsername, "bob")
	auth.SetField(models.FieldPassword, "12345")

	err := auth.Submit(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgPasswordShort, verr.Fields[models.FieldPassword])
	assert.Equal(t, msgPasswordShort, auth.State().Errors[models.FieldPassword])
	assert.Equal(t, 0, backend.count("LogIn"))
	assert.Equal(t, models.SeverityError, notifier.Current().Severity)
}

func TestSubmitWhileInFlightIsRejected(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &fakeBackend{
		logIn: func(api.Credentials) (api.Reply, error) {
			close(entered)
			<-release
			return api.Reply{Status: http.StatusOK}, nil
		},
	}
	auth, _, _ := newAuth(backend)
	auth.SetField(models.FieldUsername, "bob")
	auth.SetField(models.FieldPassword, "secret1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, auth.Submit(context.Background()))
	}()
	<-entered

	assert.True(t, auth.State().Submitting)
	assert.ErrorIs(t, auth.Submit(context.Background()), ErrBusy)

	close(release)
	wg.Wait()
	assert.Equal(t, 1, backend.count("LogIn"))
	assert.False(t, auth.State().Submitting)
}

func TestRegisterSuccessReturnsToLogin(t *testing.T) {
	backend := &fakeBackend{
		verifyCode: func(r api.Registration) (api.Reply, error) {
			assert.Equal(t, api.Registration{Username: "bob", Password: "secret1", Email: "bob@example.com", Code: "1234"}, r)
			return api.Reply{Status: 200, Message: "Registered", Success: true}, nil
		},
	}
	auth, notifier, _ := newAuth(backend)
	auth.SwitchMode(models.ModeRegister)
	auth.SetField(models.FieldUsername, "bob")
	auth.SetField(models.FieldPassword, "secret1")
	auth.SetField(models.FieldEmail, "bob@example.com")
	auth.SetField(models.FieldCode, "1234")

	require.NoError(t, auth.Submit(context.Background()))

	assert.Equal(t, models.ModeLogin, auth.State().Mode)
	assert.Equal(t, "bob", auth.State().Form.Username)
	assert.Equal(t, models.Notification{Message: "Registered", Severity: models.SeveritySuccess}, notifier.Current())
}

func TestRegisterFailureKeepsRegisterMode(t *testing.T) {
	backend := &fakeBackend{
		verifyCode: func(api.Registration) (api.Reply, error) {
			return api.Reply{Status: 200, Message: "Wrong code", Success: false}, nil
		},
	}
	auth, notifier, _ := newAuth(backend)
	auth.SwitchMode(models.ModeRegister)

	err := auth.Register(context.Background(), "bob", "secret1", "bob@example.com", "0000")

	assert.True(t, api.IsRejected(err))
	assert.Equal(t, models.ModeRegister, auth.State().Mode)
	assert.Equal(t, "Wrong code", notifier.Current().Message)
}

func TestResetPasswordKeepsMode(t *testing.T) {
	backend := &fakeBackend{
		passwordReset: func(email string) (api.Reply, error) {
			assert.Equal(t, "bob@example.com", email)
			return api.Reply{Status: 200, Message: "Check your inbox", Success: true}, nil
		},
	}
	auth, notifier, _ := newAuth(backend)
	auth.SwitchMode(models.ModeResetPassword)
	auth.SetField(models.FieldEmail, "bob@example.com")

	require.NoError(t, auth.Submit(context.Background()))
	assert.Equal(t, models.ModeResetPassword, auth.State().Mode)
	assert.Equal(t, "Check your inbox", notifier.Current().Message)
}

func TestRequestVerificationCodeNeedsEmail(t *testing.T) {
	backend := &fakeBackend{}
	auth, notifier, _ := newAuth(backend)

	err := auth.RequestVerificationCode(context.Background(), "  ")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, backend.count("SendCode"))
	assert.Equal(t, msgEmailRequired, notifier.Current().Message)
}

func TestRequestVerificationCodeIsIndependentOfSubmit(t *testing.T) {
	backend := &fakeBackend{
		sendCode: func(email string) (api.Reply, error) {
			return api.Reply{Status: 200, Message: "Code sent"}, nil
		},
	}
	auth, notifier, _ := newAuth(backend)
	auth.SwitchMode(models.ModeRegister)

	require.NoError(t, auth.RequestVerificationCode(context.Background(), "bob@example.com"))

	s := auth.State()
	assert.Equal(t, models.ModeRegister, s.Mode)
	assert.False(t, s.RequestingCode)
	assert.False(t, s.Submitting)
	assert.Equal(t, "Code sent", notifier.Current().Message)
}

func TestReduceAuthSessionEndedKeepsUsername(t *testing.T) {
	s := models.AuthState{
		Mode:   models.ModeRegister,
		Form:   models.AuthForm{Username: "bob", Password: "secret1", Email: "bob@example.com", Code: "123456"},
		Errors: map[models.Field]string{models.FieldCode: msgRequired},
	}

	next := ReduceAuth(s, SessionEnded{})

	assert.Equal(t, models.AuthForm{Username: "bob", Email: "bob@example.com"}, next.Form)
	assert.Equal(t, models.ModeRegister, next.Mode)
	assert.Empty(t, next.Errors)
	assert.Equal(t, "secret1", s.Form.Password)
}
