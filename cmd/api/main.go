package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	periodService "github.com/cmlabs-hris/attendance-engine/internal/service/period"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
)

type repositories struct {
	tx         database.Transactor
	attendance attendance.AttendanceRepository
	employee   employee.EmployeeRepository
	holiday    holiday.HolidayRepository
	leave      leave.LeaveRequestRepository
	settings   settings.SettingsRepository
	close      func()
}

func newRepositories(cfg *config.Config, c clock.Clock) (repositories, error) {
	if cfg.App.StorageDriver == config.StorageMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore(c)
		return repositories{
			tx:         store,
			attendance: memory.NewAttendanceRepository(store),
			employee:   memory.NewEmployeeRepository(store),
			holiday:    memory.NewHolidayRepository(store),
			leave:      memory.NewLeaveRequestRepository(store),
			settings:   memory.NewSettingsRepository(store),
			close:      func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		tx:         postgresql.NewTransactor(db),
		attendance: postgresql.NewAttendanceRepository(db),
		employee:   postgresql.NewEmployeeRepository(db),
		holiday:    postgresql.NewHolidayRepository(db),
		leave:      postgresql.NewLeaveRequestRepository(db),
		settings:   postgresql.NewSettingsRepository(db),
		close:      db.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	realClock := clock.Real{}
	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone: ", err)
	}
	shiftStart, err := schedule.ParseClockTime(cfg.Engine.DefaultShiftStart)
	if err != nil {
		log.Fatal("Invalid default shift start: ", err)
	}

	repos, err := newRepositories(cfg, realClock)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer repos.close()

	cacheService := cache.NewCacheService(cache.Config{
		StatusTTL:   cfg.Cache.StatusTTL,
		LeaveTTL:    cfg.Cache.LeaveTTL,
		SettingsTTL: cfg.Cache.SettingsTTL,
	}, realClock)
	locks := keylock.New()
	settingsProvider := settingsService.NewProvider(repos.settings, cacheService, cfg.Engine.DefaultGraceMinutes)

	attendanceCfg := attendanceService.Config{
		DefaultShiftStart: shiftStart,
		DefaultLocation:   location,
	}
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.tx,
		repos.attendance,
		repos.employee,
		repos.holiday,
		repos.leave,
		settingsProvider,
		cacheService,
		locks,
		realClock,
		attendanceCfg,
	)
	syncer := leaveService.NewSyncer(repos.tx, repos.attendance, attendanceSvc, cacheService, locks)
	leaveSvc := leaveService.NewLeaveService(repos.tx, repos.leave, repos.employee, syncer, cacheService, locks)
	periodSvc := periodService.NewPeriodService(
		repos.attendance,
		repos.employee,
		repos.holiday,
		repos.leave,
		settingsProvider,
		cacheService,
		realClock,
		periodService.Config{
			ProbationMonths: cfg.Engine.ProbationMonths,
			Mode:            period.AccrualMode(cfg.Engine.AccrualMode),
			MaxDays:         cfg.Engine.MaxExtensionDays,
			Attendance:      attendanceCfg,
		},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.ClockSkew)

	// The cache sweep runs even when CRON_ENABLED is off.
	scheduler := cron.NewScheduler(ctx, realClock)
	cron.NewCacheJobs(cacheService, cfg.Cache.SweepInterval).RegisterJobs(scheduler)
	cron.NewAttendanceJobs(attendanceSvc, realClock, location, cfg.ReconcileSchedule()).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc, realClock),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewPeriodHandler(periodSvc),
		appHTTP.NewAdminHandler(attendanceSvc, settingsProvider, cacheService, scheduler, realClock),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "storage", cfg.App.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}
