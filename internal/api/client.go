package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout  = 60 * time.Second
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Client talks to the chat backend. Every call goes through one http.Client whose
// cookie jar carries the session cookie.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a client for baseURL. jar may be nil for a fresh in-memory session.
func NewClient(baseURL string, jar http.CookieJar) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}
	if jar == nil {
		jar, err = NewSessionJar("")
		if err != nil {
			return nil, err
		}
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
		},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Jar returns the cookie jar shared by every request.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// getJSON and postJSON return the HTTP status of a 2xx reply alongside the decoded body.
func (c *Client) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return 0, &Error{Kind: KindUnavailable, Op: path, Err: err}
	}
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return 0, &Error{Kind: KindUnavailable, Op: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, op string, out any) (int, error) {
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("api: %s %s [%s] failed: %v", req.Method, op, requestID, err)
		return 0, &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		log.Printf("api: %s %s [%s] status %d", req.Method, op, requestID, resp.StatusCode)
		return resp.StatusCode, &Error{
			Kind:    KindUnavailable,
			Op:      op,
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, &Error{
			Kind:    KindRejected,
			Op:      op,
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &Error{
			Kind:   KindUnavailable,
			Op:     op,
			Status: resp.StatusCode,
			Err:    errors.New("unexpected status"),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.StatusCode, &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, nil
}

// readMessage pulls the "message" field out of an error body, if there is one.
func readMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}
