package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
)

// LogController exposes the activity log trail to managers.
type LogController struct {
	DB    *gorm.DB
	Audit *middleware.ActivityLogger
}

func NewLogController(db *gorm.DB, audit *middleware.ActivityLogger) *LogController {
	return &LogController{DB: db, Audit: audit}
}

// GetLogs returns a paginated slice of the activity trail, newest first.
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}

	query := lc.DB.Model(&models.ActivityLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count logs"})
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Offset(skip).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"limit": limit,
		"skip":  skip,
	})
}

// FlushCachedLogs drains the Redis log buffer into the database.
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	flushed, err := lc.Audit.Flush()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to flush cached logs"})
	}
	return c.JSON(fiber.Map{"message": "Cached logs flushed", "flushed": flushed})
}
