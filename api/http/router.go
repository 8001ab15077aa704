package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/api/http/handlers"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Resumes       *handlers.ResumesHandler
	Optimizations *handlers.OptimizationsHandler
	Optimized     *handlers.OptimizedResumesHandler
	CoverLetters  *handlers.CoverLettersHandler
}

// Register wires all HTTP routes onto given Fiber app.
// authMW guards everything except probes and auth itself.
func Register(app *fiber.App, h Handlers, authMW fiber.Handler) {
	v1 := app.Group("/api/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/ready", h.Health.Ready)
	v1.Get("/metrics/pipeline", h.Health.Pipeline)

	a := v1.Group("/auth")
	a.Post("/register", h.Auth.Register)
	a.Post("/login", h.Auth.Login)

	rs := v1.Group("/resumes", authMW)
	rs.Post("/", h.Resumes.Upload)
	rs.Get("/", h.Resumes.List)
	rs.Get("/:id", h.Resumes.Get)
	rs.Delete("/:id", h.Resumes.Delete)

	v1.Post("/optimizations", authMW, h.Optimizations.Start)

	or := v1.Group("/optimized-resumes", authMW)
	or.Get("/", h.Optimized.List)
	or.Get("/:id", h.Optimized.Get)
	or.Post("/:id/analyze", h.Optimized.Analyze)
	or.Post("/:id/cover-letter", h.Optimized.CoverLetter)
	or.Get("/:id/versions/:version", h.Optimized.GetVersion)
	or.Get("/:id/download", h.Optimized.Download)
	or.Delete("/:id", h.Optimized.Delete)

	cl := v1.Group("/cover-letters", authMW)
	cl.Get("/:id", h.CoverLetters.Get)
	cl.Get("/:id/versions/:version", h.CoverLetters.GetVersion)
	cl.Get("/:id/download", h.CoverLetters.Download)
	cl.Delete("/:id", h.CoverLetters.Delete)
}
