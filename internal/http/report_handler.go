package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/report"
)

type reportService interface {
	Draft(ctx context.Context, principal application.Principal, login string, year, month int) (application.Draft, error)
	Save(ctx context.Context, principal application.Principal, login string, year, month int, lines []report.Line) error
	Consolidated(ctx context.Context, principal application.Principal, year, month int) (report.Consolidated, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReportHandler", operation, attrs...)
}

func (h *ReportHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *ReportHandler) period(w http.ResponseWriter, r *http.Request) (year, month int, ok bool) {
	year, yErr := strconv.Atoi(r.PathValue("year"))
	month, mErr := strconv.Atoi(r.PathValue("month"))
	if yErr != nil || mErr != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPeriod)
		return 0, 0, false
	}
	return year, month, true
}

func (h *ReportHandler) Draft(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	year, month, ok := h.period(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	draft, err := h.service.Draft(r.Context(), principal, r.PathValue("login"), year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	lines := draft.Lines
	if lines == nil {
		lines = []report.Line{}
	}
	premade := draft.Premade
	if premade == nil {
		premade = []string{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, draftResponse{
		Login:       draft.Login,
		Year:        draft.Year,
		Month:       draft.Month,
		Lines:       lines,
		HasNewTasks: draft.HasNewTasks,
		HourLimit:   draft.HourLimit,
		Premade:     premade,
		Tasks:       toBookingDTOs(draft.Tasks),
	})
}

func (h *ReportHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	year, month, ok := h.period(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	login := r.PathValue("login")

	var req saveReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Save", "principal", principal.Login, "login", login, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode report", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.service.Save(r.Context(), principal, login, year, month, req.Lines); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReportHandler) Consolidated(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	year, month, ok := h.period(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	matrix, err := h.service.Consolidated(r.Context(), principal, year, month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConsolidatedResponse(year, month, matrix))
}

type saveReportRequest struct {
	Lines []report.Line `json:"lines"`
}

type draftResponse struct {
	Login       string        `json:"login"`
	Year        int           `json:"year"`
	Month       int           `json:"month"`
	Lines       []report.Line `json:"lines"`
	HasNewTasks bool          `json:"has_new_tasks"`
	HourLimit   int           `json:"hour_limit"`
	Premade     []string      `json:"premade"`
	Tasks       []bookingDTO  `json:"tasks"`
}

type consolidatedRow struct {
	report.Reporter
	Hours []int `json:"hours"`
	Total int   `json:"total"`
}

type consolidatedResponse struct {
	Year        int               `json:"year"`
	Month       int               `json:"month"`
	Columns     []report.Column   `json:"columns"`
	Rows        []consolidatedRow `json:"rows"`
	NotReported []report.Reporter `json:"not_reported"`
}

// toConsolidatedResponse flattens the matrix into one row per engineer with
// hours aligned to Columns.
func toConsolidatedResponse(year, month int, matrix report.Consolidated) consolidatedResponse {
	resp := consolidatedResponse{
		Year:        year,
		Month:       month,
		Columns:     matrix.Columns,
		Rows:        make([]consolidatedRow, 0, len(matrix.Engineers)),
		NotReported: matrix.NotReported,
	}
	if resp.Columns == nil {
		resp.Columns = []report.Column{}
	}
	if resp.NotReported == nil {
		resp.NotReported = []report.Reporter{}
	}
	for _, reporter := range matrix.Engineers {
		row := consolidatedRow{Reporter: reporter, Hours: make([]int, len(matrix.Columns))}
		for i, col := range matrix.Columns {
			row.Hours[i] = matrix.Hours(reporter.Login, col)
			row.Total += row.Hours[i]
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}
