package controllers

import (
	"autoecole_go/policy"
	"autoecole_go/store"

	"github.com/gofiber/fiber/v2"
)

// lookupError maps chain-resolution failures: a missing link is a 404 naming
// the entity, anything else is a 500.
func lookupError(c *fiber.Ctx, err error) error {
	if store.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Database error",
	})
}

// policyError maps a predicate rejection to 403.
func policyError(c *fiber.Ctx, err error) error {
	if err == policy.ErrForbidden {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not authorized to access this resource",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Authorization check failed",
	})
}
