package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
	"github.com/go-chi/chi/v5"
)

type AdminHandler interface {
	InvalidateEmployeeCache(w http.ResponseWriter, r *http.Request)
	InvalidateAll(w http.ResponseWriter, r *http.Request)
	CacheStats(w http.ResponseWriter, r *http.Request)
	SetGraceMinutes(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
	CronJobs(w http.ResponseWriter, r *http.Request)
	RunJob(w http.ResponseWriter, r *http.Request)
}

// JobRunner is the part of the cron scheduler exposed to admins.
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
	Statuses() []cron.JobStatus
}

type AdminHandlerImpl struct {
	attendanceService attendance.AttendanceService
	settings          settings.Provider
	cache             *cache.Service
	jobs              JobRunner
	clock             clock.Clock
}

func NewAdminHandler(attendanceService attendance.AttendanceService, settingsProvider settings.Provider, cacheService *cache.Service, jobs JobRunner, c clock.Clock) AdminHandler {
	return &AdminHandlerImpl{
		attendanceService: attendanceService,
		settings:          settingsProvider,
		cache:             cacheService,
		jobs:              jobs,
		clock:             c,
	}
}

// InvalidateEmployeeCache implements AdminHandler.
func (h *AdminHandlerImpl) InvalidateEmployeeCache(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	h.attendanceService.InvalidateEmployeeCache(employeeID)

	response.SuccessWithMessage(w, "Employee cache invalidated", map[string]string{"employee_id": employeeID})
}

// InvalidateAll implements AdminHandler.
func (h *AdminHandlerImpl) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	h.cache.InvalidateAll()

	response.SuccessWithMessage(w, "All caches invalidated", nil)
}

// CacheStats implements AdminHandler.
func (h *AdminHandlerImpl) CacheStats(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.cache.Stats())
}

// SetGraceMinutes implements AdminHandler.
func (h *AdminHandlerImpl) SetGraceMinutes(w http.ResponseWriter, r *http.Request) {
	var req settings.UpdateGraceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("SetGraceMinutes decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.settings.SetGraceMinutes(r.Context(), *req.GraceMinutes); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Grace period updated successfully", req)
}

// Reconcile implements AdminHandler. Without ?date it reconciles yesterday
// (UTC).
func (h *AdminHandlerImpl) Reconcile(w http.ResponseWriter, r *http.Request) {
	date := calendar.FromTime(h.clock.Now(), nil).AddDays(-1)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, ok := parseDate(w, raw, "date")
		if !ok {
			return
		}
		date = d
	}

	summary, err := h.attendanceService.ReconcileDay(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance reconciled", summary)
}

// CronJobs implements AdminHandler.
func (h *AdminHandlerImpl) CronJobs(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.jobs.Statuses())
}

// RunJob implements AdminHandler. The job runs synchronously and its last
// status is returned.
func (h *AdminHandlerImpl) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.RunNow(r.Context(), name); err != nil {
		response.HandleError(w, err)
		return
	}

	for _, st := range h.jobs.Statuses() {
		if st.Name == name {
			response.SuccessWithMessage(w, "Job completed", st)
			return
		}
	}
	response.SuccessWithMessage(w, "Job completed", nil)
}
