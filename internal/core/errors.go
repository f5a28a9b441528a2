package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Rorical/RoriTalk/internal/api"
	"github.com/Rorical/RoriTalk/internal/models"
)

var (
	ErrBusy            = errors.New("another request is still in flight")
	ErrEmptyInput      = errors.New("nothing to send")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	// ErrStale is returned when a reply arrives after the screen it belongs to was left.
	ErrStale = errors.New("reply discarded: screen was reset")
)

const (
	msgServerUnreachable = "Server unreachable, please try again later"
	msgUnexpectedReply   = "Unexpected response from server"
)

// ValidationError lists client-side problems per form field. No request was sent.
type ValidationError struct {
	Fields map[models.Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[models.Field(k)]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// failureMessage turns a backend error into notification text. Rejections show the
// server's own message when it sent one.
func failureMessage(err error, rejected string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindRejected:
			if apiErr.Message != "" {
				return apiErr.Message
			}
			return rejected
		case api.KindDecode:
			return msgUnexpectedReply
		}
	}
	return msgServerUnreachable
}
