package http

import (
	"io"
	"log/slog"

	"github.com/cmlabs-hris/school-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// JWTService enables bearer authentication when non-nil
	JWTService jwt.Service
}

func NewRouter(opts RouterOptions, studentHandler StudentHandler, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/students", func(r chi.Router) {
		// EventSource clients authenticate with a query token inside the handler
		r.Get("/attendance/stream", attendanceHandler.Stream)

		r.Group(func(r chi.Router) {
			if opts.JWTService != nil {
				r.Use(jwtauth.Verifier(opts.JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(opts.JWTService.JWTAuth()))
				r.Use(middleware.RequireTeacher)
			}

			r.Post("/getstudents", studentHandler.GetStudents)
			r.Post("/addattendance", attendanceHandler.Add)
			r.Get("/attendance", attendanceHandler.List)
			r.Get("/attendance/stream/token", attendanceHandler.StreamToken)
			r.Get("/{id}/enrollments", studentHandler.GetEnrollment)

			// Admin only
			r.Group(func(r chi.Router) {
				if opts.JWTService != nil {
					r.Use(middleware.RequireAdmin)
				}
				r.Post("/", studentHandler.Create)
				r.Post("/enrollments", studentHandler.Enroll)
			})
		})
	})

	return r
}

// NewLogger builds the JSON request logger in the ECS schema
func NewLogger(w io.Writer, level slog.Level, app, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app),
		slog.String("env", env),
	)
}
