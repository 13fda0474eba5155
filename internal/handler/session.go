package handler

import (
	"net/http"
	"time"

	"aecoin-store-api/internal/middleware"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/apierror"
	"aecoin-store-api/pkg/response"

	"go.uber.org/zap"
)

// SessionHandler handles customer session requests.
type SessionHandler struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: orNop(logger)}
}

// SessionRequest represents the request body for session creation.
type SessionRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// SessionResponse represents an issued session.
type SessionResponse struct {
	Token     string             `json:"token"`
	ExpiresIn int                `json:"expires_in"`
	Session   *model.SessionData `json:"session"`
}

// Create handles POST /api/v1/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	token, data, err := h.sessions.Create(r.Context(), req.Username, req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, SessionResponse{
		Token:     token,
		ExpiresIn: int(time.Until(data.ExpiresAt).Seconds()),
		Session:   data,
	})
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetSessionFromContext(r.Context())
	if data == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}
	response.OK(w, data)
}

// Refresh handles POST /api/v1/session/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	data, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.OK(w, SessionResponse{
		Token:     token,
		ExpiresIn: int(time.Until(data.ExpiresAt).Seconds()),
		Session:   data,
	})
}

// Revoke handles DELETE /api/v1/session
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), r.Header.Get("X-Token")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}
