package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

const MaxUploadSize = 10 << 20

const (
	MimePlainText = "text/plain"
	MimeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePDF       = "application/pdf"
)

var allowedUploadTypes = map[string]bool{
	MimePlainText: true,
	MimeDocx:      true,
	MimePDF:       true,
}

var extensionTypes = map[string]string{
	".txt":  MimePlainText,
	".docx": MimeDocx,
	".pdf":  MimePDF,
}

const (
	msgEmptyInput      = "Type a message or attach a file"
	msgUnsupportedType = "Unsupported file format"
	msgRequestFailed   = "Request failed"
	msgReplyReceived   = "Reply received"
	msgDocumentDone    = "Document processed successfully"
	msgDocumentFailed  = "Document processing failed"
	msgHistoryFailed   = "Failed to load chat history"
)

type ConversationBackend interface {
	ChatHistory(ctx context.Context) ([]api.HistoryEntry, error)
	Converse(ctx context.Context, text string, settings models.TtsSettings) (api.ConversationReply, error)
	UploadDocument(ctx context.Context, name, contentType string, content io.Reader, settings models.TtsSettings) (api.ConversationReply, error)
}

// Upload is a file picked for sending. Open is called at most once per submission.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// LoadUpload describes the file at path without reading it. The content type comes
// from the extension only, so a file named .csv or .md is never taken for plain text.
func LoadUpload(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Upload{}, fmt.Errorf("%s is a directory", path)
	}

	return Upload{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// mediaType strips parameters such as charset.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// ValidateUpload applies the type allow-list, then the size ceiling.
func ValidateUpload(u Upload) error {
	if !allowedUploadTypes[mediaType(u.ContentType)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, u.ContentType)
	}
	if u.Size > MaxUploadSize {
		return fmt.Errorf("%w: %s", ErrTooLarge, humanize.IBytes(uint64(u.Size)))
	}
	return nil
}

func uploadRejection(u Upload, err error) string {
	if errors.Is(err, ErrTooLarge) {
		return fmt.Sprintf("File is too large (%s, max %s)",
			humanize.IBytes(uint64(u.Size)), humanize.IBytes(MaxUploadSize))
	}
	return msgUnsupportedType
}

// ConversationEngine owns the message log. A user message is appended before its
// request goes out and is never taken back; the bot placeholder that follows it is
// always replaced by the reply or dropped.
type ConversationEngine struct {
	mu         sync.RWMutex
	messages   []models.Message
	input      string
	staged     *Upload
	busy       bool
	sent       uint64
	generation uint64

	backend  ConversationBackend
	settings *SettingsStore
	notifier *Notifier
	hooks    Hooks
}

func NewConversationEngine(backend ConversationBackend, settings *SettingsStore, notifier *Notifier, hooks Hooks) *ConversationEngine {
	return &ConversationEngine{
		messages: make([]models.Message, 0),
		backend:  backend,
		settings: settings,
		notifier: notifier,
		hooks:    hooks,
	}
}

func (ce *ConversationEngine) IsBusy() bool {
	ce.mu.RLock()
	defer ce.mu.RUnlock()
	return ce.busy
}

// Messages returns a copy of the log.
func (ce *ConversationEngine) Messages() []models.Message {
	ce.mu.RLock()
	defer ce.mu.RUnlock()
	result := make([]models.Message, len(ce.messages))
	copy(result, ce.messages)
	return result
}

func (ce *ConversationEngine) State() models.ChatState {
	ce.mu.RLock()
	defer ce.mu.RUnlock()
	state := models.ChatState{
		Messages: make([]models.Message, len(ce.messages)),
		Input:    ce.input,
		Busy:     ce.busy,
		Sent:     ce.sent,
	}
	copy(state.Messages, ce.messages)
	if ce.staged != nil {
		state.StagedFile = ce.staged.Name
	}
	return state
}

func (ce *ConversationEngine) SetInput(text string) {
	ce.mu.Lock()
	ce.input = text
	ce.mu.Unlock()
	ce.hooks.changed()
}

// StageFile validates u and keeps it for the next Submit.
func (ce *ConversationEngine) StageFile(u Upload) error {
	if err := ValidateUpload(u); err != nil {
		ce.notifier.Error(uploadRejection(u, err))
		return err
	}
	ce.mu.Lock()
	ce.staged = &u
	ce.mu.Unlock()
	ce.notifier.Success("File attached: " + u.Name)
	return nil
}

func (ce *ConversationEngine) UnstageFile() {
	ce.mu.Lock()
	ce.staged = nil
	ce.mu.Unlock()
	ce.hooks.changed()
}

// Submit sends the staged file if there is one, otherwise the input buffer.
func (ce *ConversationEngine) Submit(ctx context.Context) error {
	ce.mu.RLock()
	text := ce.input
	ce.mu.RUnlock()
	return ce.SubmitText(ctx, text)
}

// SubmitText sends text to the conversation endpoint. Empty text with a staged file
// sends the file instead.
func (ce *ConversationEngine) SubmitText(ctx context.Context, text string) error {
	ce.mu.Lock()
	if ce.staged != nil {
		ce.mu.Unlock()
		return ce.submitFile(ctx, nil)
	}
	if strings.TrimSpace(text) == "" {
		ce.mu.Unlock()
		ce.notifier.Error(msgEmptyInput)
		return ErrEmptyInput
	}
	if ce.busy {
		ce.mu.Unlock()
		return ErrBusy
	}

	gen := ce.startLocked(models.NewUserMessage(text))
	ce.input = ""
	settings := ce.settings.Snapshot()
	ce.mu.Unlock()

	ce.notifier.Clear()
	ce.hooks.changed()

	return ce.await(gen, msgRequestFailed, func() (api.ConversationReply, error) {
		return ce.backend.Converse(ctx, text, settings)
	}, func(reply api.ConversationReply) {
		sev := models.SeverityError
		if reply.Success {
			sev = models.SeveritySuccess
		}
		ce.notifier.Set(models.Notification{Message: orDefault(reply.Message, msgReplyReceived), Severity: sev})
	})
}

// SubmitFile validates u and uploads it as the next user message.
func (ce *ConversationEngine) SubmitFile(ctx context.Context, u Upload) error {
	return ce.submitFile(ctx, &u)
}

// submitFile sends u, or takes the staged file when u is nil. The file is opened
// after the in-flight flag is claimed, outside the lock.
func (ce *ConversationEngine) submitFile(ctx context.Context, u *Upload) error {
	if u != nil {
		if err := ValidateUpload(*u); err != nil {
			ce.notifier.Error(uploadRejection(*u, err))
			return err
		}
	}

	ce.mu.Lock()
	if ce.busy {
		ce.mu.Unlock()
		return ErrBusy
	}
	fromStage := u == nil
	if fromStage {
		u = ce.staged
	}
	if u == nil {
		ce.mu.Unlock()
		ce.notifier.Error(msgEmptyInput)
		return ErrEmptyInput
	}
	upload := *u
	ce.busy = true
	gen := ce.generation
	ce.mu.Unlock()

	content, err := openUpload(upload)
	if err != nil {
		if ce.settle(gen, nil) {
			ce.notifier.Error(msgDocumentFailed)
		}
		return err
	}

	ce.mu.Lock()
	if gen != ce.generation {
		ce.mu.Unlock()
		content.Close()
		return ErrStale
	}
	if fromStage && ce.staged == u {
		ce.staged = nil
	}
	ce.startLocked(models.NewFileMessage(upload.Name))
	settings := ce.settings.Snapshot()
	ce.mu.Unlock()

	ce.notifier.Clear()
	ce.hooks.changed()

	return ce.await(gen, msgDocumentFailed, func() (api.ConversationReply, error) {
		defer content.Close()
		return ce.backend.UploadDocument(ctx, upload.Name, upload.ContentType, content, settings)
	}, func(reply api.ConversationReply) {
		ce.notifier.Success(orDefault(reply.Message, msgDocumentDone))
	})
}

func openUpload(u Upload) (io.ReadCloser, error) {
	if u.Open == nil {
		return nil, fmt.Errorf("upload %s has no content", u.Name)
	}
	content, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", u.Name, err)
	}
	return content, nil
}

// startLocked appends the user message and the placeholder and claims the in-flight flag.
func (ce *ConversationEngine) startLocked(userMsg models.Message) uint64 {
	ce.busy = true
	ce.sent++
	ce.messages = append(ce.messages, userMsg, models.NewPlaceholder())
	return ce.generation
}

// await runs call and reconciles the log with its outcome. The in-flight flag is
// released on every path, including a panicking backend.
func (ce *ConversationEngine) await(gen uint64, failure string, call func() (api.ConversationReply, error), onReply func(api.ConversationReply)) error {
	settled := false
	defer func() {
		if !settled {
			ce.settle(gen, nil)
		}
	}()

	reply, err := call()
	settled = true

	var botMsg *models.Message
	if err == nil {
		m := models.NewBotMessage(reply.RequestURL)
		botMsg = &m
	}
	if !ce.settle(gen, botMsg) {
		log.Printf("conversation: discarding reply for a reset conversation")
		return ErrStale
	}

	if err != nil {
		log.Printf("conversation: request failed: %v", err)
		ce.notifier.Error(failure)
		return err
	}
	onReply(reply)
	return nil
}

// settle drops the placeholder, appends reply if there is one and releases the
// in-flight flag. It reports false when gen no longer matches.
func (ce *ConversationEngine) settle(gen uint64, reply *models.Message) bool {
	ce.mu.Lock()
	if gen != ce.generation {
		ce.mu.Unlock()
		return false
	}

	resolved := make([]models.Message, 0, len(ce.messages)+1)
	for _, m := range ce.messages {
		switch m.State {
		case models.Resolved:
			resolved = append(resolved, m)
		case models.Pending:
			// dropped
		}
	}
	if reply != nil {
		resolved = append(resolved, *reply)
	}
	ce.messages = resolved
	ce.busy = false
	ce.mu.Unlock()

	ce.hooks.changed()
	return true
}

// LoadHistory replaces the whole log with the backend's history. Submissions are
// rejected until it settles.
func (ce *ConversationEngine) LoadHistory(ctx context.Context) error {
	ce.mu.Lock()
	if ce.busy {
		ce.mu.Unlock()
		return ErrBusy
	}
	ce.busy = true
	gen := ce.generation
	ce.mu.Unlock()
	ce.hooks.changed()

	var (
		entries []api.HistoryEntry
		err     error
		done    bool
	)
	defer func() {
		if !done {
			ce.finishHistory(gen, nil)
		}
	}()

	entries, err = ce.backend.ChatHistory(ctx)
	done = true
	if err != nil {
		if ce.finishHistory(gen, nil) {
			log.Printf("conversation: history load failed: %v", err)
			ce.notifier.Error(msgHistoryFailed)
			return err
		}
		return ErrStale
	}

	history := make([]models.Message, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.Message())
	}
	if !ce.finishHistory(gen, history) {
		return ErrStale
	}
	return nil
}

// finishHistory installs history (nil keeps the log as is) and clears the flag.
func (ce *ConversationEngine) finishHistory(gen uint64, history []models.Message) bool {
	ce.mu.Lock()
	if gen != ce.generation {
		ce.mu.Unlock()
		return false
	}
	if history != nil {
		ce.messages = history
	}
	ce.busy = false
	ce.mu.Unlock()
	ce.hooks.changed()
	return true
}

// Reset empties the engine when its screen goes away. Replies still in flight will
// find a newer generation and be dropped.
func (ce *ConversationEngine) Reset() {
	ce.mu.Lock()
	ce.generation++
	ce.messages = make([]models.Message, 0)
	ce.input = ""
	ce.staged = nil
	ce.busy = false
	ce.mu.Unlock()
	ce.hooks.changed()
}
