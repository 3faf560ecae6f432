package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the process-level values the router logs and
// enforces.
type RouterOptions struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
	periodHandler PeriodHandler,
	adminHandler AdminHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", opts.AppName),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		r.Route("/attendance/{employeeID}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.SelfOrAdmin)
				r.Get("/status", attendanceHandler.GetStatus)
				r.Post("/punch", attendanceHandler.Punch)
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Put("/{date}/override", attendanceHandler.Override)
				r.Delete("/{date}/override", attendanceHandler.ClearOverride)
			})
		})

		r.Route("/employees/{employeeID}", func(r chi.Router) {
			r.Use(middleware.SelfOrAdmin)
			r.Get("/probation", periodHandler.GetProbation)
			r.Get("/internship", periodHandler.GetInternship)
		})

		r.Route("/leave-requests", func(r chi.Router) {
			r.Post("/", leaveHandler.Submit)
			r.Get("/{id}", leaveHandler.Get)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Post("/{id}/approve", leaveHandler.Approve)
				r.Post("/{id}/reject", leaveHandler.Reject)
				r.Put("/{id}/dates", leaveHandler.UpdateDates)
				r.Delete("/{id}", leaveHandler.Delete)
			})
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminOnly)

			r.Route("/cache", func(r chi.Router) {
				r.Get("/stats", adminHandler.CacheStats)
				r.Post("/invalidate", adminHandler.InvalidateAll)
				r.Post("/employees/{employeeID}/invalidate", adminHandler.InvalidateEmployeeCache)
			})
			r.Put("/settings/grace", adminHandler.SetGraceMinutes)
			r.Post("/reconcile", adminHandler.Reconcile)

			r.Route("/cron/jobs", func(r chi.Router) {
				r.Get("/", adminHandler.CronJobs)
				r.Post("/{name}/run", adminHandler.RunJob)
			})
		})
	})
	return r
}
