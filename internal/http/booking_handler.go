package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/recurrence"
)

type bookingService interface {
	Create(ctx context.Context, actor application.Principal, login string, input application.BookingInput) (application.CreateResult, error)
	List(ctx context.Context, login string, start, end int64) ([]persistence.Booking, error)
	ListByProject(ctx context.Context, project string) ([]persistence.Booking, error)
	Delete(ctx context.Context, actor application.Principal, id int64) error
	DeleteEngineerBookings(ctx context.Context, actor application.Principal, login string) (int64, error)
	ExtendByProjectPrefix(ctx context.Context, actor application.Principal, prefix, sla string) (int64, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// ListForEngineer returns the bookings of an engineer. The start and end
// query parameters are unix seconds; missing bounds select the coming week
// or an open end.
func (h *BookingHandler) ListForEngineer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	login := r.PathValue("login")

	start, startErr := parseUnixParam(r, "start")
	end, endErr := parseUnixParam(r, "end")
	if startErr != nil || endErr != nil {
		h.log(r.Context(), "ListForEngineer", "login", login, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid range parameters")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}

	bookings, err := h.service.List(r.Context(), login, start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{Bookings: toBookingDTOs(bookings)})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal", principal.Login, "login", login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	result, err := h.service.Create(r.Context(), principal, login, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := createBookingResponse{
		SeriesID: result.SeriesID,
		Failed:   result.Failed(),
		Entries:  make([]entryDTO, 0, len(result.Entries)),
	}
	for _, entry := range result.Entries {
		dto := entryDTO{
			ID:    entry.ID,
			Start: entry.Start.Format(recurrence.MinuteLayout),
			End:   entry.End.Format(recurrence.MinuteLayout),
		}
		if entry.Err != nil {
			dto.Error = entry.Err.Error()
		}
		resp.Entries = append(resp.Entries, dto)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

func (h *BookingHandler) DeleteForEngineer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	n, err := h.service.DeleteEngineerBookings(r.Context(), principal, r.PathValue("login"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: n})
}

func (h *BookingHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	bookings, err := h.service.ListByProject(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{Bookings: toBookingDTOs(bookings)})
}

// ExtendByProject pushes the end of every booking whose project starts with
// the project query parameter to an hour from now.
func (h *BookingHandler) ExtendByProject(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	project := r.URL.Query().Get("project")

	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "ExtendByProject", "project", project, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode extension request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	n, err := h.service.ExtendByProjectPrefix(r.Context(), principal, project, strings.TrimSpace(req.SLA))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, countResponse{Count: n})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func parseUnixParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// bookingRequest mirrors the booking form: every value is a string and is
// parsed by the expander.
type bookingRequest struct {
	Type      string `json:"booking_type"`
	Percent   string `json:"percent"`
	Hours     string `json:"hours"`
	Repeat    string `json:"repeat"`
	Start     string `json:"start_date"`
	End       string `json:"end_date"`
	Company   string `json:"company"`
	SLA       string `json:"sla"`
	ProjectID string `json:"project_id"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		Type:      r.Type,
		Percent:   r.Percent,
		Hours:     r.Hours,
		Repeat:    r.Repeat,
		Start:     r.Start,
		End:       r.End,
		Company:   r.Company,
		SLA:       r.SLA,
		ProjectID: r.ProjectID,
	}
}

type extendRequest struct {
	SLA string `json:"sla"`
}

type bookingDTO struct {
	ID            int64  `json:"id"`
	SeriesID      string `json:"series_id,omitempty"`
	ResourceLogin string `json:"resource_login"`
	Type          string `json:"booking_type"`
	Percent       int    `json:"percent"`
	Hours         int    `json:"hours"`
	Repeat        string `json:"repeat"`
	Start         int64  `json:"start_date"`
	End           int64  `json:"end_date"`
	Company       string `json:"company"`
	SLA           string `json:"sla"`
	ProjectID     string `json:"project_id,omitempty"`
	CreatedBy     string `json:"created_by,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

type bookingListResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type entryDTO struct {
	ID    int64  `json:"id,omitempty"`
	Start string `json:"start_date"`
	End   string `json:"end_date"`
	Error string `json:"error,omitempty"`
}

type createBookingResponse struct {
	SeriesID string     `json:"series_id"`
	Failed   int        `json:"failed"`
	Entries  []entryDTO `json:"entries"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingDTO{
			ID:            b.ID,
			SeriesID:      b.SeriesID,
			ResourceLogin: b.ResourceLogin,
			Type:          b.Type,
			Percent:       b.Percent,
			Hours:         b.Hours,
			Repeat:        b.Repeat,
			Start:         b.Start.Unix(),
			End:           b.End.Unix(),
			Company:       b.Company,
			SLA:           b.SLA,
			ProjectID:     b.ProjectID,
			CreatedBy:     b.CreatedBy,
			UpdatedAt:     b.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
