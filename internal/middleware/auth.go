package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/apierror"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionKey is the key for storing session data in request context.
const SessionKey contextKey = "session"

// SessionValidator resolves session tokens.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.SessionData, error)
}

// NewSessionAuth returns a middleware requiring a valid X-Token session.
func NewSessionAuth(sessions SessionValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Token")
			if token == "" {
				apierror.Unauthorized("Authentication required. Use the X-Token header.").Write(w)
				return
			}

			data, err := sessions.Validate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, service.ErrInvalidSession) {
					logger.Error("session lookup failed", zap.Error(err))
					apierror.ServiceUnavailable("").Write(w)
					return
				}
				apierror.Unauthorized("Invalid or expired token").Write(w)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves session data from request context.
func GetSessionFromContext(ctx context.Context) *model.SessionData {
	if data, ok := ctx.Value(SessionKey).(*model.SessionData); ok {
		return data
	}
	return nil
}

// NewAdminAuth returns a middleware requiring X-Admin-Key to match one of
// keys. A key may be given in plain text or as a bcrypt hash. With no keys
// configured every admin request is refused.
func NewAdminAuth(keys []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			valid = append(valid, k)
		}
	}
	if len(valid) == 0 {
		logger.Warn("no admin API keys configured, admin routes are disabled")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if key == "" {
				apierror.Unauthorized("Admin key required").Write(w)
				return
			}

			if !isValidKey(key, valid) {
				logger.Warn("invalid admin key", zap.String("remote_addr", r.RemoteAddr))
				apierror.Forbidden("Invalid admin key").Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isValidKey checks if the provided key matches any configured key.
func isValidKey(key string, validKeys []string) bool {
	for _, valid := range validKeys {
		if isBcryptHash(valid) {
			if bcrypt.CompareHashAndPassword([]byte(valid), []byte(key)) == nil {
				return true
			}
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
