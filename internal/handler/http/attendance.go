package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	GetStatus(w http.ResponseWriter, r *http.Request)
	Punch(w http.ResponseWriter, r *http.Request)
	Override(w http.ResponseWriter, r *http.Request)
	ClearOverride(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	clock             clock.Clock
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, c clock.Clock) AttendanceHandler {
	return &AttendanceHandlerImpl{
		attendanceService: attendanceService,
		clock:             c,
	}
}

// parseDate reads a YYYY-MM-DD value and writes the 400 itself.
func parseDate(w http.ResponseWriter, raw, field string) (calendar.Date, bool) {
	if raw == "" {
		response.BadRequest(w, field+" is required", map[string]string{field: "required"})
		return calendar.Date{}, false
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		response.BadRequest(w, "Invalid "+field, map[string]string{field: "must be a date in YYYY-MM-DD format"})
		return calendar.Date{}, false
	}
	return d, true
}

// GetStatus implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	date, ok := parseDate(w, r.URL.Query().Get("date"), "date")
	if !ok {
		return
	}

	res, err := h.attendanceService.ResolveStatus(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, res)
}

type punchBody struct {
	Kind attendance.PunchKind `json:"kind"`
	At   *time.Time           `json:"at,omitempty"`
}

// Punch implements AttendanceHandler. A missing "at" means now.
func (h *AttendanceHandlerImpl) Punch(w http.ResponseWriter, r *http.Request) {
	var body punchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Error("Punch decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req := attendance.PunchRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Kind:       body.Kind,
		At:         h.clock.Now(),
	}
	if body.At != nil {
		req.At = *body.At
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	res, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch recorded successfully", res)
}

// Override implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Override(w http.ResponseWriter, r *http.Request) {
	var req attendance.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Override decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	date, ok := parseDate(w, chi.URLParam(r, "date"), "date")
	if !ok {
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")
	req.Date = date

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	res, err := h.attendanceService.OverrideRecord(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance overridden successfully", res)
}

// ClearOverride implements AttendanceHandler.
func (h *AttendanceHandlerImpl) ClearOverride(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(w, chi.URLParam(r, "date"), "date")
	if !ok {
		return
	}

	res, err := h.attendanceService.ClearOverride(r.Context(), chi.URLParam(r, "employeeID"), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance override cleared", res)
}
