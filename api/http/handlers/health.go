package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/pkg/alert"
	"github.com/artem13815/hr-optimizer/pkg/health"
)

// HealthHandler serves liveness and readiness probes plus pipeline counters.
type HealthHandler struct {
	svc      health.ReadinessUseCase
	counters *alert.Counters
}

func NewHealthHandler(svc health.ReadinessUseCase, counters *alert.Counters) *HealthHandler {
	if counters == nil {
		counters = &alert.Counters{}
	}
	return &HealthHandler{svc: svc, counters: counters}
}

// Health: basic liveness check.
// @Summary Liveness probe
// @Tags    health
// @Produce json
// @Success 200 {object} map[string]string
// @Router  /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// Ready: readiness check of every configured dependency.
// @Summary Readiness probe
// @Tags    health
// @Produce json
// @Success 200 {object} health.Report
// @Failure 503 {object} health.Report
// @Router  /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	rep, err := h.svc.Ready(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(rep)
	}
	return c.Status(fiber.StatusOK).JSON(rep)
}

// Pipeline отдаёт счётчики прогонов, в том числе успешных, но не сохранённых.
// @Summary Pipeline counters
// @Tags    health
// @Produce json
// @Success 200 {object} alert.Snapshot
// @Router  /metrics/pipeline [get]
func (h *HealthHandler) Pipeline(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.counters.Snapshot())
}
