package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

func (s storedCookie) key() string {
	return s.URL + "|" + s.Domain + "|" + s.Path + "|" + s.Name
}

// SessionJar is a cookie jar that mirrors every cookie it accepts into a file, so a
// session started by one command is still there for the next one. An empty path keeps
// it in memory only.
type SessionJar struct {
	mu      sync.Mutex
	path    string
	jar     *cookiejar.Jar
	cookies map[string]storedCookie
}

func newCookieJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewSessionJar opens the jar stored at path, starting empty if the file does not exist.
func NewSessionJar(path string) (*SessionJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	sj := &SessionJar{
		path:    path,
		jar:     jar,
		cookies: make(map[string]storedCookie),
	}
	if path == "" {
		return sj, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return sj, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt session file only costs a new login.
		log.Printf("api: ignoring unreadable session file %s: %v", path, err)
		return sj, nil
	}
	now := time.Now()
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		sj.jar.SetCookies(u, []*http.Cookie{{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		}})
		sj.cookies[sc.key()] = sc
	}
	return sj, nil
}

func (sj *SessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	sj.mu.Lock()
	defer sj.mu.Unlock()

	sj.jar.SetCookies(u, cookies)

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	now := time.Now()
	for _, c := range cookies {
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			delete(sj.cookies, sc.key())
			continue
		case c.MaxAge > 0:
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			sc.Expires = c.Expires
		}
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			delete(sj.cookies, sc.key())
			continue
		}
		sj.cookies[sc.key()] = sc
	}
	sj.saveLocked()
}

func (sj *SessionJar) Cookies(u *url.URL) []*http.Cookie {
	sj.mu.Lock()
	defer sj.mu.Unlock()
	return sj.jar.Cookies(u)
}

// Clear drops every cookie, in memory and on disk.
func (sj *SessionJar) Clear() error {
	sj.mu.Lock()
	defer sj.mu.Unlock()

	jar, err := newCookieJar()
	if err != nil {
		return err
	}
	sj.jar = jar
	sj.cookies = make(map[string]storedCookie)
	if sj.path == "" {
		return nil
	}
	if err := os.Remove(sj.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (sj *SessionJar) saveLocked() {
	if sj.path == "" {
		return
	}
	stored := make([]storedCookie, 0, len(sj.cookies))
	for _, sc := range sj.cookies {
		stored = append(stored, sc)
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		log.Printf("api: failed to encode session: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(sj.path), 0700); err != nil {
		log.Printf("api: failed to create session directory: %v", err)
		return
	}
	if err := os.WriteFile(sj.path, data, 0600); err != nil {
		log.Printf("api: failed to save session: %v", err)
	}
}
