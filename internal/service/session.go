package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aecoin-store-api/internal/cache"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/pkg/uid"

	"go.uber.org/zap"
)

const (
	// SessionPrefix is the prefix for all session tokens
	SessionPrefix = "aes_"

	// DefaultSessionTTL is the default session lifetime
	DefaultSessionTTL = 24 * time.Hour

	sessionKeyPrefix = "session:"
)

// SessionService issues and validates customer session tokens.
type SessionService struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionService creates a session service backed by c.
func NewSessionService(c cache.Cache, ttl time.Duration, logger *zap.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{cache: c, ttl: ttl, logger: logger.Named("session")}
}

// Create issues a token for a new customer identity. The customer id is
// random and only reachable through the token; username and email are
// contact details and never grant access to existing orders.
func (s *SessionService) Create(ctx context.Context, username, email string) (string, *model.SessionData, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return "", nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	token := SessionPrefix + hex.EncodeToString(tokenBytes)

	now := time.Now().UTC()
	data := &model.SessionData{
		UserID:    uid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store(ctx, token, data); err != nil {
		return "", nil, err
	}

	s.logger.Info("session created",
		zap.String("user_id", data.UserID),
		zap.Time("expires_at", data.ExpiresAt),
	)
	return token, data, nil
}

// Validate returns the session for token, or ErrInvalidSession.
func (s *SessionService) Validate(ctx context.Context, token string) (*model.SessionData, error) {
	if !strings.HasPrefix(token, SessionPrefix) || len(token) == len(SessionPrefix) {
		return nil, ErrInvalidSession
	}

	raw, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	if time.Now().After(data.ExpiresAt) {
		_ = s.cache.Delete(ctx, sessionKeyPrefix+token)
		return nil, ErrInvalidSession
	}

	return &data, nil
}

// Revoke deletes a session.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}

// Refresh extends a session by the configured TTL.
func (s *SessionService) Refresh(ctx context.Context, token string) (*model.SessionData, error) {
	data, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	data.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if err := s.store(ctx, token, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SessionService) store(ctx context.Context, token string, data *model.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize session data: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, raw, s.ttl); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
