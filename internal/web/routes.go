package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/clockin/internal/web/handlers"
	"github.com/kozaktomas/clockin/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Employees, sessionManager)
	challengeHandler := handlers.NewChallengeHandler(deps.Challenges)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Pipeline, deps.Employees, deps.Attendance, deps.Challenges)
	employeesHandler := handlers.NewEmployeesHandler(deps.Employees, deps.Extractor, deps.Blobs, deps.Index, s.config.Verify.MatchTolerance)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Everything else requires a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			// Liveness challenges
			r.Post("/liveness/challenge", challengeHandler.Issue)

			// Attendance
			r.Post("/attendance", attendanceHandler.Mark)
			r.Get("/attendance", attendanceHandler.ListMine)

			// HR-only management
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireHR)

				r.Get("/attendance/day", attendanceHandler.ListForDay)
				r.Delete("/attendance/{id}", attendanceHandler.Delete)

				r.Post("/employees", employeesHandler.Create)
				r.Get("/employees", employeesHandler.List)
				r.Delete("/employees/{id}", employeesHandler.Delete)
				r.Post("/employees/identify", employeesHandler.Identify)
			})
		})
	})
}
