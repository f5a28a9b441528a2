package api

import (
	"bytes"
	"encoding/json"

	"github.com/Rorical/RoriTalk/internal/models"
)

// UserID accepts both string and numeric ids; null decodes to "".
type UserID string

func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

type SessionInfo struct {
	User UserID `json:"user"`
}

type HistoryEntry struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	File   any    `json:"file,omitempty"`
}

// HasFile follows JS truthiness: an absent, null, false, 0 or "" file is no file.
func (h HistoryEntry) HasFile() bool {
	switch v := h.File.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return true
	}
}

func (h HistoryEntry) Message() models.Message {
	return models.Message{
		Text:   h.Text,
		Sender: models.ParseSender(h.Sender),
		State:  models.Resolved,
		IsFile: h.HasFile(),
	}
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Code     string `json:"code"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ConversationRequest struct {
	Text        string             `json:"text"`
	TtsSettings models.TtsSettings `json:"ttsSettings"`
}

// Reply is the common {message, success} envelope. Status is the HTTP status it came with.
type Reply struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type PasswordChangeReply struct {
	Message string `json:"message"`
	Logout  bool   `json:"logout"`
}

type LogoutReply struct {
	Logout bool `json:"logout"`
}

type ConversationReply struct {
	RequestURL string `json:"request_url"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type UserRecord struct {
	ID        UserID `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func (id UserID) String() string {
	return string(id)
}
