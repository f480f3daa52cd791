package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/report"
)

type engineerService interface {
	Create(ctx context.Context, principal application.Principal, input application.EngineerInput) (persistence.Engineer, error)
	Update(ctx context.Context, principal application.Principal, login string, input application.EngineerInput) (persistence.Engineer, error)
	Get(ctx context.Context, login string) (persistence.Engineer, error)
	List(ctx context.Context, onlyActive bool) ([]persistence.Engineer, error)
	Delete(ctx context.Context, principal application.Principal, login string) error
	Search(ctx context.Context, query string) ([]persistence.Engineer, error)
}

type workloadService interface {
	ComputeWorkload(ctx context.Context, login string) (int, error)
	RankByWorkload(ctx context.Context, engineers []persistence.Engineer) ([]application.EngineerLoad, error)
}

type EngineerHandler struct {
	service   engineerService
	workload  workloadService
	responder responder
	logger    *slog.Logger
}

func NewEngineerHandler(service engineerService, workload workloadService, logger *slog.Logger) *EngineerHandler {
	base := defaultLogger(logger)
	return &EngineerHandler{service: service, workload: workload, responder: newResponder(base), logger: base}
}

func (h *EngineerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EngineerHandler", operation, attrs...)
}

func (h *EngineerHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil || h.workload == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *EngineerHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	onlyActive, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	engineers, err := h.service.List(r.Context(), onlyActive)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "engineer list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]engineerDTO, 0, len(engineers))
	for _, e := range engineers {
		dtos = append(dtos, toEngineerDTO(e))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, engineerListResponse{Engineers: dtos})
}

func (h *EngineerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req engineerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal", principal.Login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode engineer request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	engineer, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, engineerResponse{Engineer: toEngineerDTO(engineer)})
}

func (h *EngineerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	engineer, err := h.service.Get(r.Context(), r.PathValue("login"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, engineerResponse{Engineer: toEngineerDTO(engineer)})
}

func (h *EngineerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	var req engineerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal", principal.Login, "login", login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode engineer update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	engineer, err := h.service.Update(r.Context(), principal, login, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, engineerResponse{Engineer: toEngineerDTO(engineer)})
}

func (h *EngineerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, r.PathValue("login")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Available searches active engineers and orders the matches from least to
// most busy over the coming week.
func (h *EngineerHandler) Available(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	query := r.URL.Query().Get("q")
	logger := h.log(r.Context(), "Available", "query", query)

	matches, err := h.service.Search(r.Context(), query)
	if err != nil {
		logger.ErrorContext(r.Context(), "engineer search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	ranked, err := h.workload.RankByWorkload(r.Context(), matches)
	if err != nil {
		logger.ErrorContext(r.Context(), "workload ranking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]engineerLoadDTO, 0, len(ranked))
	for _, load := range ranked {
		dtos = append(dtos, engineerLoadDTO{Engineer: toEngineerDTO(load.Engineer), Workload: load.Workload})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availableResponse{Engineers: dtos})
}

func (h *EngineerHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	login := r.PathValue("login")
	if _, err := h.service.Get(r.Context(), login); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	percent, err := h.workload.ComputeWorkload(r.Context(), login)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, workloadResponse{Login: login, Workload: percent})
}

type engineerRequest struct {
	Login        string   `json:"login"`
	Name         string   `json:"name"`
	Surname      string   `json:"surname"`
	Patronymic   string   `json:"patronymic"`
	Position     string   `json:"position"`
	OrgUnit      string   `json:"org_unit"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Skills       []string `json:"skills"`
	Tags         []string `json:"tags"`
	JiraID       string   `json:"jira_id"`
	RemedyID     string   `json:"rem_id"`
	SharepointID string   `json:"sharepoint_id"`
	Utilized     *bool    `json:"utilized"`
	Active       *bool    `json:"active"`
}

func (r engineerRequest) toInput() application.EngineerInput {
	return application.EngineerInput{
		Login:        r.Login,
		Name:         r.Name,
		Surname:      r.Surname,
		Patronymic:   r.Patronymic,
		Position:     r.Position,
		OrgUnit:      r.OrgUnit,
		Phone:        r.Phone,
		Email:        r.Email,
		Skills:       r.Skills,
		Tags:         r.Tags,
		JiraID:       r.JiraID,
		RemedyID:     r.RemedyID,
		SharepointID: r.SharepointID,
		Utilized:     r.Utilized == nil || *r.Utilized,
		Active:       r.Active == nil || *r.Active,
	}
}

type engineerDTO struct {
	Login        string   `json:"login"`
	FullName     string   `json:"full_name"`
	Name         string   `json:"name"`
	Surname      string   `json:"surname"`
	Patronymic   string   `json:"patronymic,omitempty"`
	Position     string   `json:"position,omitempty"`
	OrgUnit      string   `json:"org_unit,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	Skills       []string `json:"skills"`
	Tags         []string `json:"tags"`
	JiraID       string   `json:"jira_id,omitempty"`
	RemedyID     string   `json:"rem_id,omitempty"`
	SharepointID string   `json:"sharepoint_id,omitempty"`
	Utilized     bool     `json:"utilized"`
	Active       bool     `json:"active"`
	UpdatedAt    string   `json:"updated_at"`
}

type engineerResponse struct {
	Engineer engineerDTO `json:"engineer"`
}

type engineerListResponse struct {
	Engineers []engineerDTO `json:"engineers"`
}

type engineerLoadDTO struct {
	Engineer engineerDTO `json:"engineer"`
	Workload int         `json:"workload"`
}

type availableResponse struct {
	Engineers []engineerLoadDTO `json:"engineers"`
}

type workloadResponse struct {
	Login    string `json:"login"`
	Workload int    `json:"workload"`
}

func toEngineerDTO(e persistence.Engineer) engineerDTO {
	skills, tags := e.Skills, e.Tags
	if skills == nil {
		skills = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	return engineerDTO{
		Login:        e.Login,
		FullName:     report.FullName(e),
		Name:         e.Name,
		Surname:      e.Surname,
		Patronymic:   e.Patronymic,
		Position:     e.Position,
		OrgUnit:      e.OrgUnit,
		Phone:        e.Phone,
		Email:        e.Email,
		Skills:       skills,
		Tags:         tags,
		JiraID:       e.JiraID,
		RemedyID:     e.RemedyID,
		SharepointID: e.SharepointID,
		Utilized:     e.Utilized,
		Active:       e.Active,
		UpdatedAt:    e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
