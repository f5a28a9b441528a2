package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

var errNotStubbed = errors.New("not stubbed")

// fakeBackend answers with the stubbed funcs and counts every call.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	sessionInfo    func() (api.SessionInfo, error)
	logIn          func(api.Credentials) (api.Reply, error)
	verifyCode     func(api.Registration) (api.Reply, error)
	sendCode       func(string) (api.Reply, error)
	passwordReset  func(string) (api.Reply, error)
	chatHistory    func() ([]api.HistoryEntry, error)
	converse       func(string, models.TtsSettings) (api.ConversationReply, error)
	uploadDocument func(name, contentType string, content []byte, settings models.TtsSettings) (api.ConversationReply, error)
	user           func(string) (api.UserRecord, error)
	changePassword func(api.PasswordChange) (api.PasswordChangeReply, error)
	logOut         func() (api.LogoutReply, error)
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) SessionInfo(ctx context.Context) (api.SessionInfo, error) {
	f.record("SessionInfo")
	if f.sessionInfo == nil {
		return api.SessionInfo{}, errNotStubbed
	}
	return f.sessionInfo()
}

func (f *fakeBackend) LogIn(ctx context.Context, creds api.Credentials) (api.Reply, error) {
	f.record("LogIn")
	if f.logIn == nil {
		return api.Reply{}, errNotStubbed
	}
	return f.logIn(creds)
}

func (f *fakeBackend) VerifyCode(ctx context.Context, reg api.Registration) (api.Reply, error) {
	f.record("VerifyCode")
	if f.verifyCode == nil {
		return api.Reply{}, errNotStubbed
	}
	return f.verifyCode(reg)
}

func (f *fakeBackend) SendCode(ctx context.Context, email string) (api.Reply, error) {
	f.record("SendCode")
	if f.sendCode == nil {
		return api.Reply{}, errNotStubbed
	}
	return f.sendCode(email)
}

func (f *fakeBackend) PasswordReset(ctx context.Context, email string) (api.Reply, error) {
	f.record("PasswordReset")
	if f.passwordReset == nil {
		return api.Reply{}, errNotStubbed
	}
	return f.passwordReset(email)
}

func (f *fakeBackend) ChatHistory(ctx context.Context) ([]api.HistoryEntry, error) {
	f.record("ChatHistory")
	if f.chatHistory == nil {
		return nil, errNotStubbed
	}
	return f.chatHistory()
}

func (f *fakeBackend) Converse(ctx context.Context, text string, settings models.TtsSettings) (api.ConversationReply, error) {
	f.record("Converse")
	if f.converse == nil {
		return api.ConversationReply{}, errNotStubbed
	}
	return f.converse(text, settings)
}

func (f *fakeBackend) UploadDocument(ctx context.Context, name, contentType string, content io.Reader, settings models.TtsSettings) (api.ConversationReply, error) {
	f.record("UploadDocument")
	if f.uploadDocument == nil {
		return api.ConversationReply{}, errNotStubbed
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return api.ConversationReply{}, err
	}
	return f.uploadDocument(name, contentType, data, settings)
}

func (f *fakeBackend) User(ctx context.Context, id string) (api.UserRecord, error) {
	f.record("User")
	if f.user == nil {
		return api.UserRecord{}, errNotStubbed
	}
	return f.user(id)
}

func (f *fakeBackend) ChangePassword(ctx context.Context, change api.PasswordChange) (api.PasswordChangeReply, error) {
	f.record("ChangePassword")
	if f.changePassword == nil {
		return api.PasswordChangeReply{}, errNotStubbed
	}
	return f.changePassword(change)
}

func (f *fakeBackend) LogOut(ctx context.Context) (api.LogoutReply, error) {
	f.record("LogOut")
	if f.logOut == nil {
		return api.LogoutReply{}, errNotStubbed
	}
	return f.logOut()
}

// navRecorder captures navigation requests. Scheduled ones run immediately and
// remember their delay.
type navRecorder struct {
	mu      sync.Mutex
	screens []models.Screen
	delays  []time.Duration
}

func (n *navRecorder) hooks() Hooks {
	return Hooks{
		Navigate: func(s models.Screen) {
			n.mu.Lock()
			defer n.mu.Unlock()
			n.screens = append(n.screens, s)
		},
		After: func(d time.Duration, fn func()) {
			n.mu.Lock()
			n.delays = append(n.delays, d)
			n.mu.Unlock()
			fn()
		},
	}
}

func (n *navRecorder) navigations() []models.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Screen(nil), n.screens...)
}

func rejected(op string, status int, message string) error {
	return &api.Error{Kind: api.KindRejected, Op: op, Status: status, Message: message}
}

func unavailable(op string) error {
	return &api.Error{Kind: api.KindUnavailable, Op: op, Status: 500}
}

func textUpload(name, body string) Upload {
	return Upload{
		Name:        name,
		ContentType: MimePlainText,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}
