package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/persistence"
)

type userService interface {
	Create(ctx context.Context, params application.CreateUserParams) (application.CreateUserResult, error)
	Get(ctx context.Context, principal application.Principal, login string) (persistence.User, error)
	Update(ctx context.Context, params application.UpdateUserParams) (persistence.User, error)
	ResetPassword(ctx context.Context, principal application.Principal, login string) (string, error)
	Delete(ctx context.Context, principal application.Principal, login string) error
	List(ctx context.Context, principal application.Principal) ([]persistence.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal", principal.Login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal", principal.Login)

	result, err := h.service.Create(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "user creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("login", result.User.Login).InfoContext(r.Context(), "user created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{
		User:     toUserDTO(result.User),
		Password: result.GeneratedPassword,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	user, err := h.service.Get(r.Context(), principal, login)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal", principal.Login, "login", login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal", principal.Login, "login", login)

	user, err := h.service.Update(r.Context(), application.UpdateUserParams{
		Principal: principal,
		Login:     login,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "user update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	password, err := h.service.ResetPassword(r.Context(), principal, login)
	if err != nil {
		h.log(r.Context(), "ResetPassword", "principal", principal.Login, "login", login).ErrorContext(r.Context(), "password reset failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, passwordResponse{Password: password})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")
	logger := h.log(r.Context(), "Delete", "principal", principal.Login, "login", login)

	if err := h.service.Delete(r.Context(), principal, login); err != nil {
		logger.ErrorContext(r.Context(), "user delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	users, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "principal", principal.Login).ErrorContext(r.Context(), "user list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, toUserDTO(user))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userListResponse{Users: dtos})
}

type userRequest struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Group    string `json:"group"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (r userRequest) toInput() application.UserInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return application.UserInput{
		Login:    strings.TrimSpace(r.Login),
		Name:     r.Name,
		Group:    application.Group(r.Group),
		Phone:    r.Phone,
		Password: r.Password,
		Active:   active,
	}
}

type userDTO struct {
	Login        string  `json:"login"`
	Name         string  `json:"name"`
	Group        string  `json:"group"`
	Phone        string  `json:"phone,omitempty"`
	Active       bool    `json:"active"`
	LastLoggedIn *string `json:"last_logged_in,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type userResponse struct {
	User     userDTO `json:"user"`
	Password string  `json:"password,omitempty"`
}

type userListResponse struct {
	Users []userDTO `json:"users"`
}

type passwordResponse struct {
	Password string `json:"password"`
}

func toUserDTO(user persistence.User) userDTO {
	dto := userDTO{
		Login:     user.Login,
		Name:      user.Name,
		Group:     user.Group,
		Phone:     user.Phone,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastLoggedIn != nil {
		at := user.LastLoggedIn.UTC().Format(time.RFC3339)
		dto.LastLoggedIn = &at
	}
	return dto
}
