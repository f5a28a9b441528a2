package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

func newEngine(backend *fakeBackend) (*ConversationEngine, *SettingsStore, *Notifier) {
	settings := NewSettingsStore()
	notifier := NewNotifier(nil)
	return NewConversationEngine(backend, settings, notifier, Hooks{}), settings, notifier
}

func TestSubmitTextEmptyLeavesLogUnchanged(t *testing.T) {
	backend := &fakeBackend{}
	engine, _, notifier := newEngine(backend)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.ErrorIs(t, engine.SubmitText(context.Background(), text), ErrEmptyInput)
	}

	assert.Empty(t, engine.Messages())
	assert.False(t, engine.IsBusy())
	assert.Equal(t, 0, backend.count("Converse"))
	assert.Equal(t, models.Notification{Message: msgEmptyInput, Severity: models.SeverityError}, notifier.Current())
}

func TestSubmitTextResolved(t *testing.T) {
	backend := &fakeBackend{
		converse: func(text string, settings models.TtsSettings) (api.ConversationReply, error) {
			assert.Equal(t, "hi", text)
			assert.Equal(t, models.DefaultTtsSettings(), settings)
			return api.ConversationReply{RequestURL: "https://x/a.ogg", Message: "Done", Success: true}, nil
		},
	}
	engine, _, notifier := newEngine(backend)
	engine.SetInput("hi")

	require.NoError(t, engine.Submit(context.Background()))

	assert.Equal(t, []models.Message{
		models.NewUserMessage("hi"),
		models.NewBotMessage("https://x/a.ogg"),
	}, engine.Messages())
	assert.Equal(t, models.Notification{Message: "Done", Severity: models.SeveritySuccess}, notifier.Current())
	state := engine.State()
	assert.Empty(t, state.Input)
	assert.Equal(t, uint64(1), state.Sent)
	assert.False(t, state.Busy)
}

func TestSubmitTextUnsuccessfulReplyIsErrorNotification(t *testing.T) {
	backend := &fakeBackend{
		converse: func(string, models.TtsSettings) (api.ConversationReply, error) {
			return api.ConversationReply{RequestURL: "", Message: "TTS quota exceeded", Success: false}, nil
		},
	}
	engine, _, notifier := newEngine(backend)

	require.NoError(t, engine.SubmitText(context.Background(), "hi"))
	assert.Equal(t, models.Notification{Message: "TTS quota exceeded", Severity: models.SeverityError}, notifier.Current())
}

func TestSubmitTextFailureKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{
		converse: func(string, models.TtsSettings) (api.ConversationReply, error) {
			return api.ConversationReply{}, unavailable(api.PathAPIRequest)
		},
	}
	engine, _, notifier := newEngine(backend)

	assert.Error(t, engine.SubmitText(context.Background(), "hi"))

	assert.Equal(t, []models.Message{models.NewUserMessage("hi")}, engine.Messages())
	assert.Equal(t, msgRequestFailed, notifier.Current().Message)
	assert.False(t, engine.IsBusy())
}

func TestPlaceholderIsLastWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		converse: func(string, models.TtsSettings) (api.ConversationReply, error) {
			close(entered)
			<-release
			return api.ConversationReply{RequestURL: "u"}, nil
		},
	}
	engine, _, _ := newEngine(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, engine.SubmitText(context.Background(), "hello"))
	}()
	<-entered

	messages := engine.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, models.NewUserMessage("hello"), messages[0])
	assert.True(t, messages[1].IsLoading())
	assert.True(t, engine.IsBusy())

	// a second submission is rejected, not queued
	assert.ErrorIs(t, engine.SubmitText(context.Background(), "again"), ErrBusy)
	assert.Len(t, engine.Messages(), 2)

	close(release)
	wg.Wait()

	messages = engine.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, models.NewBotMessage("u"), messages[1])
	assert.Equal(t, 1, backend.count("Converse"))
}

func TestSettingsSnapshotTakenAtSubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var got models.TtsSettings
	backend := &fakeBackend{
		converse: func(_ string, s models.TtsSettings) (api.ConversationReply, error) {
			close(entered)
			<-release
			got = s
			return api.ConversationReply{}, nil
		},
	}
	engine, settings, _ := newEngine(backend)
	_, err := settings.Set(SettingVoice, "jane")
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- engine.SubmitText(context.Background(), "hi") }()
	<-entered
	_, err = settings.Set(SettingVoice, "zahar")
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "jane", got.Voice)
}

func TestSubmitFileRejectsUnsupportedType(t *testing.T) {
	backend := &fakeBackend{}
	engine, _, notifier := newEngine(backend)

	err := engine.SubmitFile(context.Background(), Upload{Name: "a.png", ContentType: "image/png", Size: 10})

	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, engine.Messages())
	assert.Equal(t, 0, backend.count("UploadDocument"))
	assert.Equal(t, msgUnsupportedType, notifier.Current().Message)
}

func TestSubmitFileRejectsTooLarge(t *testing.T) {
	backend := &fakeBackend{}
	engine, _, notifier := newEngine(backend)

	err := engine.SubmitFile(context.Background(), Upload{Name: "big.pdf", ContentType: MimePDF, Size: MaxUploadSize + 1})

	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, engine.Messages())
	assert.Equal(t, 0, backend.count("UploadDocument"))
	assert.Contains(t, notifier.Current().Message, "too large")
}

func TestSubmitFileAtLimitIsAccepted(t *testing.T) {
	assert.NoError(t, ValidateUpload(Upload{Name: "ok.pdf", ContentType: MimePDF, Size: MaxUploadSize}))
	assert.NoError(t, ValidateUpload(Upload{Name: "a.txt", ContentType: "text/plain; charset=utf-8", Size: 1}))
}

func TestSubmitFileResolved(t *testing.T) {
	backend := &fakeBackend{
		uploadDocument: func(name, contentType string, content []byte, _ models.TtsSettings) (api.ConversationReply, error) {
			assert.Equal(t, "notes.txt", name)
			assert.Equal(t, MimePlainText, contentType)
			assert.Equal(t, "hello", string(content))
			return api.ConversationReply{RequestURL: "https://x/b.ogg"}, nil
		},
	}
	engine, _, notifier := newEngine(backend)

	require.NoError(t, engine.SubmitFile(context.Background(), textUpload("notes.txt", "hello")))

	assert.Equal(t, []models.Message{
		models.NewFileMessage("notes.txt"),
		models.NewBotMessage("https://x/b.ogg"),
	}, engine.Messages())
	assert.Equal(t, models.Notification{Message: msgDocumentDone, Severity: models.SeveritySuccess}, notifier.Current())
}

func TestStagedFileIsSentBySubmit(t *testing.T) {
	backend := &fakeBackend{
		uploadDocument: func(string, string, []byte, models.TtsSettings) (api.ConversationReply, error) {
			return api.ConversationReply{RequestURL: "u"}, nil
		},
	}
	engine, _, notifier := newEngine(backend)

	require.NoError(t, engine.StageFile(textUpload("notes.txt", "hello")))
	assert.Equal(t, "notes.txt", engine.State().StagedFile)
	assert.Equal(t, "File attached: notes.txt", notifier.Current().Message)

	require.NoError(t, engine.Submit(context.Background()))

	assert.Empty(t, engine.State().StagedFile)
	assert.Equal(t, 0, backend.count("Converse"))
	assert.Equal(t, 1, backend.count("UploadDocument"))
	assert.True(t, engine.Messages()[0].IsFile)
}

func TestStageFileValidates(t *testing.T) {
	engine, _, _ := newEngine(&fakeBackend{})
	err := engine.StageFile(Upload{Name: "x.exe", ContentType: "application/x-msdownload", Size: 3})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, engine.State().StagedFile)
}

func TestUploadOpenFailureSendsNothing(t *testing.T) {
	backend := &fakeBackend{}
	engine, _, _ := newEngine(backend)
	upload := textUpload("gone.txt", "x")
	upload.Open = func() (io.ReadCloser, error) { return nil, errors.New("removed") }

	assert.Error(t, engine.SubmitFile(context.Background(), upload))
	assert.Empty(t, engine.Messages())
	assert.False(t, engine.IsBusy())
}

func TestUploadIsOpenedOutsideTheLock(t *testing.T) {
	backend := &fakeBackend{
		uploadDocument: func(string, string, []byte, models.TtsSettings) (api.ConversationReply, error) {
			return api.ConversationReply{RequestURL: "u"}, nil
		},
	}
	engine, _, _ := newEngine(backend)
	upload := textUpload("notes.txt", "hello")
	open := upload.Open
	upload.Open = func() (io.ReadCloser, error) {
		// readers must not block while the file is being opened
		assert.True(t, engine.IsBusy())
		assert.Empty(t, engine.State().Messages)
		assert.ErrorIs(t, engine.SubmitText(context.Background(), "meanwhile"), ErrBusy)
		return open()
	}

	require.NoError(t, engine.SubmitFile(context.Background(), upload))
	assert.Len(t, engine.Messages(), 2)
	assert.Equal(t, 1, backend.count("UploadDocument"))
}

func TestSubmitFileRejectedWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		uploadDocument: func(string, string, []byte, models.TtsSettings) (api.ConversationReply, error) {
			close(entered)
			<-release
			return api.ConversationReply{RequestURL: "u"}, nil
		},
	}
	engine, _, _ := newEngine(backend)

	done := make(chan error)
	go func() { done <- engine.SubmitFile(context.Background(), textUpload("first.txt", "one")) }()
	<-entered

	assert.ErrorIs(t, engine.SubmitFile(context.Background(), textUpload("second.txt", "two")), ErrBusy)

	// a staged file waits for the next submit instead
	require.NoError(t, engine.StageFile(textUpload("third.txt", "three")))
	assert.ErrorIs(t, engine.Submit(context.Background()), ErrBusy)
	assert.Equal(t, "third.txt", engine.State().StagedFile)

	messages := engine.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, models.NewFileMessage("first.txt"), messages[0])
	assert.True(t, messages[1].IsLoading())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.count("UploadDocument"))
	assert.Len(t, engine.Messages(), 2)
}

func TestLoadUploadDetectsType(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0600))
		return path
	}

	u, err := LoadUpload(write("notes.txt", []byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", u.Name)
	assert.Equal(t, MimePlainText, u.ContentType)
	assert.Equal(t, int64(5), u.Size)

	u, err = LoadUpload(write("Report.PDF", []byte("%PDF-1.7")))
	require.NoError(t, err)
	assert.Equal(t, MimePDF, u.ContentType)

	u, err = LoadUpload(write("image.png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.ContentType)
	assert.ErrorIs(t, ValidateUpload(u), ErrUnsupportedType)

	// text content does not make a file plain text
	for _, name := range []string{"data.csv", "page.json", "notes.md", "main.go", "README"} {
		u, err = LoadUpload(write(name, []byte("just some text\n")))
		require.NoError(t, err)
		assert.ErrorIs(t, ValidateUpload(u), ErrUnsupportedType, name)
	}

	_, err = LoadUpload(dir)
	assert.Error(t, err)
}

func TestSubmitFileRejectsTextLikeExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0600))
	backend := &fakeBackend{}
	engine, _, notifier := newEngine(backend)

	u, err := LoadUpload(path)
	require.NoError(t, err)

	assert.ErrorIs(t, engine.SubmitFile(context.Background(), u), ErrUnsupportedType)
	assert.Empty(t, engine.Messages())
	assert.Equal(t, 0, backend.count("UploadDocument"))
	assert.Equal(t, msgUnsupportedType, notifier.Current().Message)
}

func TestLoadHistoryReplacesLog(t *testing.T) {
	backend := &fakeBackend{
		converse: func(string, models.TtsSettings) (api.ConversationReply, error) {
			return api.ConversationReply{RequestURL: "u"}, nil
		},
		chatHistory: func() ([]api.HistoryEntry, error) {
			return []api.HistoryEntry{
				{Text: "hello", Sender: "user"},
				{Text: "https://x/1.ogg", Sender: "bot"},
				{Text: "doc.pdf", Sender: "user", File: true},
			}, nil
		},
	}
	engine, _, _ := newEngine(backend)
	require.NoError(t, engine.SubmitText(context.Background(), "old"))

	require.NoError(t, engine.LoadHistory(context.Background()))

	assert.Equal(t, []models.Message{
		models.NewUserMessage("hello"),
		models.NewBotMessage("https://x/1.ogg"),
		models.NewFileMessage("doc.pdf"),
	}, engine.Messages())
}

func TestLoadHistoryFailureKeepsLog(t *testing.T) {
	backend := &fakeBackend{
		chatHistory: func() ([]api.HistoryEntry, error) { return nil, unavailable(api.PathChatHistory) },
	}
	engine, _, notifier := newEngine(backend)

	assert.Error(t, engine.LoadHistory(context.Background()))
	assert.Empty(t, engine.Messages())
	assert.False(t, engine.IsBusy())
	assert.Equal(t, msgHistoryFailed, notifier.Current().Message)
}

func TestSubmitRejectedWhileHistoryLoads(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		chatHistory: func() ([]api.HistoryEntry, error) {
			close(entered)
			<-release
			return nil, nil
		},
	}
	engine, _, _ := newEngine(backend)

	done := make(chan error)
	go func() { done <- engine.LoadHistory(context.Background()) }()
	<-entered

	assert.ErrorIs(t, engine.SubmitText(context.Background(), "hi"), ErrBusy)
	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, engine.Messages())
}

func TestResetDiscardsLateReply(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		converse: func(string, models.TtsSettings) (api.ConversationReply, error) {
			close(entered)
			<-release
			return api.ConversationReply{RequestURL: "late", Message: "late"}, nil
		},
	}
	engine, _, notifier := newEngine(backend)

	done := make(chan error)
	go func() { done <- engine.SubmitText(context.Background(), "hi") }()
	<-entered

	engine.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Empty(t, engine.Messages())
	assert.False(t, engine.IsBusy())
	assert.NotEqual(t, "late", notifier.Current().Message)
}

func TestResetDiscardsLateHistory(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		chatHistory: func() ([]api.HistoryEntry, error) {
			close(entered)
			<-release
			return []api.HistoryEntry{{Text: "stale", Sender: "user"}}, nil
		},
	}
	engine, _, _ := newEngine(backend)

	done := make(chan error)
	go func() { done <- engine.LoadHistory(context.Background()) }()
	<-entered
	engine.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Empty(t, engine.Messages())
}
