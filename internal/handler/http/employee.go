package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/calendar"
	"github.com/go-chi/chi/v5"
)

// PeriodHandler serves the probation and internship end-date lookups
// mounted under /employees/{employeeID}.
type PeriodHandler interface {
	GetProbation(w http.ResponseWriter, r *http.Request)
	GetInternship(w http.ResponseWriter, r *http.Request)
}

type PeriodHandlerImpl struct {
	periodService period.PeriodService
}

func NewPeriodHandler(periodService period.PeriodService) PeriodHandler {
	return &PeriodHandlerImpl{
		periodService: periodService,
	}
}

// periodQuery reads the optional joining_date and policy overrides.
func periodQuery(w http.ResponseWriter, r *http.Request) (calendar.Date, *schedule.WeeklyOffPolicy, bool) {
	var (
		joiningDate calendar.Date
		policy      *schedule.WeeklyOffPolicy
	)
	q := r.URL.Query()

	if raw := q.Get("joining_date"); raw != "" {
		d, ok := parseDate(w, raw, "joining_date")
		if !ok {
			return calendar.Date{}, nil, false
		}
		joiningDate = d
	}

	if raw := q.Get("policy"); raw != "" {
		p, err := schedule.ParseWeeklyOffPolicy(raw)
		if err != nil {
			response.BadRequest(w, "Invalid policy", map[string]string{"policy": err.Error()})
			return calendar.Date{}, nil, false
		}
		policy = &p
	}

	return joiningDate, policy, true
}

// GetProbation implements PeriodHandler.
func (h *PeriodHandlerImpl) GetProbation(w http.ResponseWriter, r *http.Request) {
	joiningDate, policy, ok := periodQuery(w, r)
	if !ok {
		return
	}

	res, err := h.periodService.ComputeProbationExtension(r.Context(), chi.URLParam(r, "employeeID"), joiningDate, policy)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, res)
}

// GetInternship implements PeriodHandler. months=0 or no months uses the
// employee's configured duration.
func (h *PeriodHandlerImpl) GetInternship(w http.ResponseWriter, r *http.Request) {
	joiningDate, policy, ok := periodQuery(w, r)
	if !ok {
		return
	}

	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid months", map[string]string{"months": "must be an integer"})
			return
		}
		months = n
	}

	res, err := h.periodService.ComputeInternshipExtension(r.Context(), chi.URLParam(r, "employeeID"), joiningDate, months, policy)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, res)
}
