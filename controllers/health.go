package controllers

import (
	"github.com/gofiber/fiber/v2"

	"autoecole_go/services/ops"
)

// HealthController exposes the liveness/readiness report.
type HealthController struct {
	Health *ops.HealthService
}

func NewHealthController(hs *ops.HealthService) *HealthController {
	return &HealthController{Health: hs}
}

// Check reports the service status and its dependency probes. Public.
func (hc *HealthController) Check(c *fiber.Ctx) error {
	report := hc.Health.Report()
	status := fiber.StatusOK
	if report.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
