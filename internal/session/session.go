// Package session holds the signed-in user's token, profile and most recent
// payment request, persisted through a key/value Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/model"
)

// Keys under which session values are stored.
const (
	KeyToken       = "token"
	KeyUser        = "user"
	KeyLastPayment = "lastPaymentRequest"
)

// Store persists session values.
type Store interface {
	GetSessionValue(ctx context.Context, key string) (string, error)
	SetSessionValue(ctx context.Context, key, value string) error
	DeleteSessionValue(ctx context.Context, key string) error
	ClearSession(ctx context.Context) error
}

// Session is the client's signed-in state.
type Session struct {
	User        *model.User
	LastPayment *model.PaymentRequest
	Token       string
}

// Authenticated reports whether a bearer token is present.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// TokenExpiry returns the exp claim of the token without verifying its
// signature. ok is false for an empty or non-JWT token, or one without exp.
func (s *Session) TokenExpiry() (expiry time.Time, ok bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}

	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0).UTC(), true
}

// Expired reports whether the token's exp claim is before now. Tokens
// without an expiry never expire locally.
func (s *Session) Expired(now time.Time) bool {
	expiry, ok := s.TokenExpiry()
	return ok && !now.Before(expiry)
}

// Manager loads and saves the session.
type Manager struct {
	store Store
}

// NewManager creates a session manager over store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Load reads the session. Missing values leave the corresponding field
// empty; a stored value that cannot be decoded is logged and ignored.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	sess := &Session{}

	token, err := m.get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	if raw, err := m.get(ctx, KeyUser); err != nil {
		return nil, err
	} else if raw != "" {
		var user model.User
		if jsonErr := json.Unmarshal([]byte(raw), &user); jsonErr != nil {
			slog.Warn("Ignoring unreadable stored user", "error", jsonErr)
		} else {
			sess.User = &user
		}
	}

	if raw, err := m.get(ctx, KeyLastPayment); err != nil {
		return nil, err
	} else if raw != "" {
		var payment model.PaymentRequest
		if jsonErr := json.Unmarshal([]byte(raw), &payment); jsonErr != nil {
			slog.Warn("Ignoring unreadable last payment request", "error", jsonErr)
		} else {
			sess.LastPayment = &payment
		}
	}

	return sess, nil
}

// Save writes every non-empty field of sess. Empty fields are removed.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("cannot save nil session")
	}

	if err := m.setOrDelete(ctx, KeyToken, sess.Token); err != nil {
		return err
	}
	if err := m.setJSON(ctx, KeyUser, sess.User); err != nil {
		return err
	}
	return m.setJSON(ctx, KeyLastPayment, sess.LastPayment)
}

// SignIn stores the token and profile returned by a login.
func (m *Manager) SignIn(ctx context.Context, token string, user model.User) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", common.ErrNotAuthenticated)
	}
	if err := m.store.SetSessionValue(ctx, KeyToken, token); err != nil {
		return err
	}
	return m.setJSON(ctx, KeyUser, &user)
}

// SignOut removes the token and profile, keeping the last payment request.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.store.DeleteSessionValue(ctx, KeyToken); err != nil {
		return err
	}
	return m.store.DeleteSessionValue(ctx, KeyUser)
}

// RecordPayment replaces the last payment request.
func (m *Manager) RecordPayment(ctx context.Context, req model.PaymentRequest) error {
	return m.setJSON(ctx, KeyLastPayment, &req)
}

// LastPayment returns the most recent payment request, or
// common.ErrMissingPaymentRecord when none was recorded.
func (m *Manager) LastPayment(ctx context.Context) (*model.PaymentRequest, error) {
	sess, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess.LastPayment == nil {
		return nil, common.ErrMissingPaymentRecord
	}
	return sess.LastPayment, nil
}

// Clear removes every session value.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.ClearSession(ctx)
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	value, err := m.store.GetSessionValue(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	return value, nil
}

func (m *Manager) setOrDelete(ctx context.Context, key, value string) error {
	if value == "" {
		return m.store.DeleteSessionValue(ctx, key)
	}
	return m.store.SetSessionValue(ctx, key, value)
}

func (m *Manager) setJSON(ctx context.Context, key string, v any) error {
	switch val := v.(type) {
	case *model.User:
		if val == nil {
			return m.store.DeleteSessionValue(ctx, key)
		}
	case *model.PaymentRequest:
		if val == nil {
			return m.store.DeleteSessionValue(ctx, key)
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return m.store.SetSessionValue(ctx, key, string(data))
}
