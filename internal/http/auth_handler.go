package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/erm/internal/application"
)

type authService interface {
	Login(ctx context.Context, login, password string) (application.Principal, error)
	ChangePassword(ctx context.Context, principal application.Principal, current, next string) error
}

type AuthHandler struct {
	service   authService
	sessions  *Sessions
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, sessions *Sessions, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, sessions: sessions, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	login := strings.TrimSpace(req.Login)
	logger := h.log(r.Context(), "CreateSession", "login", login)

	principal, err := h.service.Login(r.Context(), login, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrUnauthorized) {
			logger.ErrorContext(r.Context(), "authentication rejected", "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_INVALID_CREDENTIALS",
				Message:   errInvalidCredentials.Error(),
			})
			return
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	token, expires, err := h.sessions.Issue(w, principal.Login)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("X-Session-Token", token)

	logger.InfoContext(r.Context(), "user authenticated", "group", principal.Group)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{
		Token:     token,
		ExpiresAt: expires.Format(time.RFC3339),
		Principal: toPrincipalDTO(principal),
	})
}

func (h *AuthHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, principalResponse{Principal: toPrincipalDTO(principal)})
}

func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	h.sessions.Clear(w)
	h.log(r.Context(), "DeleteCurrentSession", "login", principal.Login).InfoContext(r.Context(), "session closed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := h.service.ChangePassword(r.Context(), principal, req.Current, req.New); err != nil {
		h.log(r.Context(), "ChangePassword", "login", principal.Login).ErrorContext(r.Context(), "password change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

type principalDTO struct {
	Login string `json:"login"`
	Group string `json:"group"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	Principal principalDTO `json:"principal"`
}

type principalResponse struct {
	Principal principalDTO `json:"principal"`
}

func toPrincipalDTO(p application.Principal) principalDTO {
	return principalDTO{Login: p.Login, Group: string(p.Group)}
}
