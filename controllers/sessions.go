package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/policy"
	"autoecole_go/services/video"
	"autoecole_go/store"
)

// SessionController handles course session scheduling and the video room
// lifecycle around them.
type SessionController struct {
	DB    *gorm.DB
	Store *store.Store
	Video *video.Client
	Audit *middleware.ActivityLogger
}

func NewSessionController(db *gorm.DB, st *store.Store, vc *video.Client, audit *middleware.ActivityLogger) *SessionController {
	return &SessionController{DB: db, Store: st, Video: vc, Audit: audit}
}

type createSessionRequest struct {
	CourseID        uint   `json:"course_id" form:"course_id"`
	ScheduledTime   string `json:"scheduled_time" form:"scheduled_time"`
	DurationMinutes int    `json:"duration_minutes" form:"duration_minutes"`
	Notes           string `json:"notes" form:"notes"`
}

// CreateSession schedules a new session on a course. Only the teacher
// assigned to the course may schedule.
func (sc *SessionController) CreateSession(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "course_id is required"})
	}

	chain, err := sc.Store.ResolveCourse(req.CourseID)
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := sc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if teacher == nil || chain.Course.TeacherID == nil || *chain.Course.TeacherID != teacher.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the assigned teacher can schedule sessions"})
	}

	scheduled := time.Now()
	if req.ScheduledTime != "" {
		scheduled, err = time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_time must be RFC3339"})
		}
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}

	session := models.CourseSession{
		CourseID:        chain.Course.ID,
		TeacherID:       teacher.ID,
		StudentID:       chain.Enrollment.StudentID,
		ScheduledTime:   scheduled,
		DurationMinutes: duration,
		Status:          "scheduled",
		Notes:           req.Notes,
	}
	if err := sc.DB.Create(&session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}

	sc.Audit.Log(c, "CREATE", "course_sessions", session.ID, fiber.Map{
		"course_id": chain.Course.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

type updateSessionStatusRequest struct {
	Status string `json:"status" form:"status"`
	Notes  string `json:"notes" form:"notes"`
}

// UpdateSessionStatus moves a session between scheduled, completed and
// cancelled. Completing a session bumps the course progress counter; the
// course itself stays in_progress until a manager closes it out.
func (sc *SessionController) UpdateSessionStatus(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	sessionID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	switch req.Status {
	case "scheduled", "completed", "cancelled":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be scheduled, completed or cancelled"})
	}

	chain, err := sc.Store.ResolveSession(uint(sessionID))
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := sc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if user.Role != models.RoleManager || chain.School.ManagerID != user.ID {
		if teacher == nil || chain.Session.TeacherID != teacher.ID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not allowed to update this session"})
		}
	}

	wasCompleted := chain.Session.Status == "completed"
	chain.Session.Status = req.Status
	if req.Notes != "" {
		chain.Session.Notes = req.Notes
	}

	// A cancelled session releases its provider room.
	if req.Status == "cancelled" && chain.Session.RoomName != "" {
		if err := sc.Video.DeleteRoom(c.Context(), chain.Session.RoomName); err != nil {
			logrus.WithError(err).WithField("room", chain.Session.RoomName).Warn("Failed to delete video room")
		}
		chain.Session.RoomURL = ""
		chain.Session.RoomName = ""
	}

	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(chain.Session).Error; err != nil {
			return err
		}
		if req.Status == "completed" && !wasCompleted {
			return tx.Model(&models.Course{}).
				Where("id = ?", chain.Course.ID).
				UpdateColumn("completed_sessions", gorm.Expr("completed_sessions + 1")).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update session"})
	}

	sc.Audit.Log(c, "UPDATE", "course_sessions", chain.Session.ID, fiber.Map{
		"status": req.Status,
	})

	return c.JSON(fiber.Map{"message": "Session updated", "session": chain.Session})
}

type createRoomRequest struct {
	SessionID uint `json:"session_id" form:"session_id"`
}

// CreateVideoRoom provisions a video room for a session. Teachers and
// managers in the session's chain may create rooms. When the provider is
// unavailable a placeholder room is issued and the response carries a
// warning instead of failing the request.
func (sc *SessionController) CreateVideoRoom(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req createRoomRequest
	if err := c.BodyParser(&req); err != nil || req.SessionID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	chain, err := sc.Store.ResolveSession(req.SessionID)
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := sc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	isManager := user.Role == models.RoleManager && chain.School.ManagerID == user.ID
	isSessionTeacher := teacher != nil && chain.Session.TeacherID == teacher.ID
	if !isManager && !isSessionTeacher {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not allowed to create a room for this session"})
	}

	// Creating a room twice for the same session hands back the existing one.
	if chain.Session.RoomName != "" {
		result := sc.Video.GetRoom(c.Context(), chain.Session.RoomName)
		resp := fiber.Map{
			"room_url":  result.Room.URL,
			"room_name": result.Room.Name,
		}
		if result.Degraded {
			resp["warning"] = result.Cause
		}
		return c.JSON(resp)
	}

	roomName := fmt.Sprintf("session-%d-%d", chain.Session.ID, time.Now().Unix())
	result := sc.Video.CreateRoom(c.Context(), roomName, map[string]interface{}{
		"enable_chat":       true,
		"enable_recording":  "cloud",
		"max_participants":  2,
		"eject_at_room_exp": true,
	})

	chain.Session.RoomURL = result.Room.URL
	chain.Session.RoomName = result.Room.Name
	if err := sc.DB.Save(chain.Session).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save room"})
	}

	sc.Audit.Log(c, "CREATE", "video_rooms", chain.Session.ID, fiber.Map{
		"room_name": result.Room.Name,
		"degraded":  result.Degraded,
	})

	resp := fiber.Map{
		"room_url":  result.Room.URL,
		"room_name": result.Room.Name,
	}
	if result.Degraded {
		resp["warning"] = result.Cause
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetCourseRooms lists the sessions of a course that have a room attached.
func (sc *SessionController) GetCourseRooms(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("course_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	chain, err := sc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := sc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if err := policy.CanAccessCourse(user, teacher, chain.Course, chain.Enrollment, chain.School); err != nil {
		return policyError(c, err)
	}

	var sessions []models.CourseSession
	if err := sc.DB.Where("course_id = ? AND room_url <> ''", chain.Course.ID).
		Order("scheduled_time").
		Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rooms"})
	}

	return c.JSON(fiber.Map{"sessions": sessions, "total": len(sessions)})
}

// JoinSession returns the room details for a session the caller may attend.
func (sc *SessionController) JoinSession(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	sessionID, err := c.ParamsInt("session_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	chain, err := sc.Store.ResolveSession(uint(sessionID))
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := sc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if err := policy.CanAccessSession(user, teacher, chain.Session, chain.Course, chain.Enrollment, chain.School); err != nil {
		return policyError(c, err)
	}

	if chain.Session.RoomURL == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No room has been created for this session"})
	}

	sc.Audit.Log(c, "JOIN", "course_sessions", chain.Session.ID, nil)

	return c.JSON(fiber.Map{
		"room_url":       chain.Session.RoomURL,
		"room_name":      chain.Session.RoomName,
		"scheduled_time": chain.Session.ScheduledTime,
		"status":         chain.Session.Status,
	})
}
