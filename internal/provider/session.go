package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/wellsync/internal/config"
)

// Session holds the provider OAuth token, persisted as JSON at the
// configured path so scheduled runs skip the credential exchange.
type Session struct {
	path     string
	domain   string
	email    string
	password string

	token sessionToken
}

type sessionToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewSession builds a Session from configuration; nothing is loaded until
// Resume or Login.
func NewSession(cfg config.Config) *Session {
	return &Session{
		path:     cfg.SessionPath,
		domain:   cfg.ProviderDomain,
		email:    cfg.ProviderEmail,
		password: cfg.ProviderPassword,
	}
}

// Resume loads the persisted token, rejecting missing or expired sessions.
func (s *Session) Resume() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	var token sessionToken
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("session has no access token")
	}
	if !token.ExpiresAt.IsZero() && time.Now().After(token.ExpiresAt) {
		return errors.New("session expired")
	}
	s.token = token
	return nil
}

// Login exchanges the configured credentials for a fresh token against the
// regional SSO host and persists it.
func (s *Session) Login(ctx context.Context, client *http.Client) error {
	if s.email == "" || s.password == "" {
		return errors.New("provider email and password are not configured")
	}

	form := url.Values{
		"username": {s.email},
		"password": {s.password},
	}
	endpoint := "https://sso." + s.domain + "/sso/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sso exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sso exchange: %w (status %d)", ErrUnauthorized, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Username    string `json:"username"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode sso response: %w", err)
	}
	if payload.AccessToken == "" {
		return errors.New("sso response has no access token")
	}

	s.token = sessionToken{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Username:    payload.Username,
	}
	if payload.ExpiresIn > 0 {
		s.token.ExpiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return s.save()
}

// AccessToken returns the current bearer token, empty before Resume/Login.
func (s *Session) AccessToken() string {
	return s.token.AccessToken
}

// Username returns the account name bound to the session.
func (s *Session) Username() string {
	return s.token.Username
}

func (s *Session) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s.token, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
