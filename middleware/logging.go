package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoecole_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LogQueueKey is the Redis sorted set holding buffered activity logs,
// scored by write time.
const LogQueueKey = "logs:queue"

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// ActivityLogger persists audit-trail entries. Writes go through a Redis
// buffer when available and fall back to direct database inserts.
type ActivityLogger struct {
	db *gorm.DB
	rc *redis.Client
}

func NewActivityLogger(db *gorm.DB, rc *redis.Client) *ActivityLogger {
	return &ActivityLogger{db: db, rc: rc}
}

// Log records one activity entry for the current request. Failures are
// logged and swallowed; auditing must never fail the request.
func (al *ActivityLogger) Log(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	var userID uint
	if user, err := GetCurrentUser(c); err == nil {
		userID = user.ID
	}

	var detailsJSON models.JSON
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = b
		}
	}

	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}

	if al.rc != nil {
		if payload, err := json.Marshal(entry); err == nil {
			err = al.rc.ZAdd(context.Background(), LogQueueKey, &redis.Z{
				Score:  float64(time.Now().Unix()),
				Member: payload,
			}).Err()
			if err == nil {
				return
			}
			logrus.WithError(err).Warn("Redis log buffer write failed, falling back to database")
		}
	}

	if err := al.db.Create(&entry).Error; err != nil {
		logrus.WithError(err).Error("Failed to persist activity log")
	}
}

// Flush drains the Redis log buffer into the database. Returns the number of
// entries moved.
func (al *ActivityLogger) Flush() (int, error) {
	if al.rc == nil {
		return 0, fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	payloads, err := al.rc.ZRange(ctx, LogQueueKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read log buffer: %w", err)
	}

	flushed := 0
	for _, payload := range payloads {
		var entry models.ActivityLog
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			logrus.WithError(err).Warn("Dropping malformed buffered log entry")
			al.rc.ZRem(ctx, LogQueueKey, payload)
			continue
		}
		entry.ID = 0
		if err := al.db.Create(&entry).Error; err != nil {
			return flushed, fmt.Errorf("failed to persist buffered log: %w", err)
		}
		al.rc.ZRem(ctx, LogQueueKey, payload)
		flushed++
	}

	return flushed, nil
}
