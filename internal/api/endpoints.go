package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/Rorical/RoriTalk/internal/models"
)

const (
	PathSessionInfo    = "/session-info"
	PathChatHistory    = "/chat-history"
	PathLogIn          = "/log-in"
	PathVerifyCode     = "/verify-code"
	PathSendCode       = "/send-code"
	PathPasswordReset  = "/password-reset"
	PathChangePassword = "/change-password"
	PathLogOut         = "/log-out"
	PathAPIRequest     = "/api-request"
	PathUploadDocument = "/upload-document"
	PathUser           = "/user/"
)

func (c *Client) SessionInfo(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	_, err := c.getJSON(ctx, PathSessionInfo, &info)
	return info, err
}

func (c *Client) ChatHistory(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if _, err := c.getJSON(ctx, PathChatHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) LogIn(ctx context.Context, creds Credentials) (Reply, error) {
	var reply Reply
	status, err := c.postJSON(ctx, PathLogIn, creds, &reply)
	reply.Status = status
	return reply, err
}

func (c *Client) VerifyCode(ctx context.Context, reg Registration) (Reply, error) {
	var reply Reply
	status, err := c.postJSON(ctx, PathVerifyCode, reg, &reply)
	reply.Status = status
	return reply, err
}

// SendCode asks the backend to mail a verification code. The reply has no success flag.
func (c *Client) SendCode(ctx context.Context, email string) (Reply, error) {
	var reply Reply
	status, err := c.postJSON(ctx, PathSendCode, EmailRequest{Email: email}, &reply)
	reply.Status = status
	return reply, err
}

func (c *Client) PasswordReset(ctx context.Context, email string) (Reply, error) {
	var reply Reply
	status, err := c.postJSON(ctx, PathPasswordReset, EmailRequest{Email: email}, &reply)
	reply.Status = status
	return reply, err
}

func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) (PasswordChangeReply, error) {
	var reply PasswordChangeReply
	_, err := c.postJSON(ctx, PathChangePassword, change, &reply)
	return reply, err
}

func (c *Client) LogOut(ctx context.Context) (LogoutReply, error) {
	var reply LogoutReply
	_, err := c.postJSON(ctx, PathLogOut, struct{}{}, &reply)
	return reply, err
}

func (c *Client) Converse(ctx context.Context, text string, settings models.TtsSettings) (ConversationReply, error) {
	var reply ConversationReply
	_, err := c.postJSON(ctx, PathAPIRequest, ConversationRequest{Text: text, TtsSettings: settings}, &reply)
	return reply, err
}

// UploadDocument sends the document as the "document" part and the settings as a JSON
// "ttsSettings" field of a multipart form.
func (c *Client) UploadDocument(ctx context.Context, name, contentType string, content io.Reader, settings models.TtsSettings) (ConversationReply, error) {
	var reply ConversationReply

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return reply, fmt.Errorf("create document part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return reply, fmt.Errorf("read document %s: %w", name, err)
	}

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return reply, fmt.Errorf("encode tts settings: %w", err)
	}
	if err := form.WriteField("ttsSettings", string(settingsJSON)); err != nil {
		return reply, fmt.Errorf("write tts settings: %w", err)
	}
	if err := form.Close(); err != nil {
		return reply, fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(PathUploadDocument), &body)
	if err != nil {
		return reply, &Error{Kind: KindUnavailable, Op: PathUploadDocument, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	_, err = c.do(req, PathUploadDocument, &reply)
	return reply, err
}

func (c *Client) User(ctx context.Context, id string) (UserRecord, error) {
	var record UserRecord
	_, err := c.getJSON(ctx, PathUser+url.PathEscape(id), &record)
	return record, err
}
