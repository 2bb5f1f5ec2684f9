package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/school-backend-go/internal/config"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/school-backend-go/internal/domain/student"
	appHTTP "github.com/cmlabs-hris/school-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/mongodb"
	"github.com/cmlabs-hris/school-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/school-backend-go/internal/service/attendance"
	studentService "github.com/cmlabs-hris/school-backend-go/internal/service/student"
)

type repositories struct {
	students    student.StudentRepository
	enrollments student.EnrollmentRepository
	attendance  attendance.AttendanceRepository
	close       func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Println("Invalid config:", err)
		os.Exit(1)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.SlogLevel(), "school-attendance", cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repos.close(closeCtx); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	var jwtService jwt.Service
	if cfg.AuthEnabled() {
		svc, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
		if err != nil {
			slog.Error("Failed to initialize JWT", "error", err)
			os.Exit(1)
		}
		jwtService = svc
	} else {
		slog.Warn("JWT_SECRET_KEY is not set, student routes are open")
	}

	hub := sse.NewHub()
	studentSvc := studentService.NewStudentService(repos.students, repos.enrollments)
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, repos.students, hub)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.App.AllowedOrigins,
		JWTService:     jwtService,
	},
		appHTTP.NewStudentHandler(studentSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc, jwtService),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongoDB:
		db, err := database.NewMongoDB(ctx, cfg.Database.MongoURI, cfg.Database.MongoName)
		if err != nil {
			return repositories{}, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(context.Background())
			return repositories{}, err
		}
		return repositories{
			students:    mongodb.NewStudentRepository(db),
			enrollments: mongodb.NewEnrollmentRepository(db),
			attendance:  mongodb.NewAttendanceRepository(db),
			close:       db.Close,
		}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			students:    postgresql.NewStudentRepository(db),
			enrollments: postgresql.NewEnrollmentRepository(db),
			attendance:  postgresql.NewAttendanceRepository(db),
			close: func(context.Context) error {
				db.Close()
				return nil
			},
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		return repositories{
			students:    memory.NewStudentRepository(store),
			enrollments: memory.NewEnrollmentRepository(store),
			attendance:  memory.NewAttendanceRepository(store),
			close:       func(context.Context) error { return nil },
		}, nil

	default:
		return repositories{}, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.Database.Driver)
	}
}
