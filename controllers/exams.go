package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/policy"
	"autoecole_go/store"
)

// ExamController handles the official exam lifecycle on courses.
type ExamController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewExamController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *ExamController {
	return &ExamController{DB: db, Store: st, Audit: audit}
}

type scheduleExamRequest struct {
	CourseID      uint   `json:"course_id" form:"course_id"`
	ScheduledDate string `json:"scheduled_date" form:"scheduled_date"`
	Location      string `json:"location" form:"location"`
}

// ScheduleExam books an exam for a course. Manager-only.
func (xc *ExamController) ScheduleExam(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req scheduleExamRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "course_id is required"})
	}

	chain, err := xc.Store.ResolveCourse(req.CourseID)
	if err != nil {
		return lookupError(c, err)
	}
	if err := policy.CanManageCourse(user, chain.School); err != nil {
		return policyError(c, err)
	}

	scheduled := time.Now().AddDate(0, 0, 7)
	if req.ScheduledDate != "" {
		scheduled, err = time.Parse(time.RFC3339, req.ScheduledDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_date must be RFC3339"})
		}
	}

	exam := models.Exam{
		CourseID:      chain.Course.ID,
		ScheduledDate: scheduled,
		Location:      req.Location,
	}
	if err := xc.DB.Create(&exam).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule exam"})
	}

	xc.Audit.Log(c, "CREATE", "exams", exam.ID, fiber.Map{
		"course_id": chain.Course.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      exam.ID,
		"message": "Exam scheduled successfully",
	})
}

type completeExamRequest struct {
	Score  *float64 `json:"score"`
	Passed *bool    `json:"passed"`
}

// CompleteExam records the result of an exam and mirrors it onto the
// course. Manager-only.
func (xc *ExamController) CompleteExam(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	examID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid exam ID"})
	}

	var req completeExamRequest
	if err := c.BodyParser(&req); err != nil || req.Passed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "passed is required"})
	}

	exam, err := xc.Store.ExamByID(uint(examID))
	if err != nil {
		return lookupError(c, err)
	}
	chain, err := xc.Store.ResolveCourse(exam.CourseID)
	if err != nil {
		return lookupError(c, err)
	}
	if err := policy.CanManageCourse(user, chain.School); err != nil {
		return policyError(c, err)
	}
	if exam.Completed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Exam already completed"})
	}

	examStatus := models.ExamFailed
	if *req.Passed {
		examStatus = models.ExamPassed
	}

	exam.Completed = true
	exam.Score = req.Score
	exam.Passed = req.Passed

	err = xc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(exam).Error; err != nil {
			return err
		}
		return tx.Model(&models.Course{}).
			Where("id = ?", chain.Course.ID).
			Updates(map[string]interface{}{
				"exam_status": examStatus,
				"exam_score":  req.Score,
			}).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record exam result"})
	}

	xc.Audit.Log(c, "UPDATE", "exams", exam.ID, fiber.Map{
		"passed": *req.Passed,
	})

	return c.JSON(fiber.Map{"message": "Exam result recorded", "exam_status": examStatus})
}

// GetCourseExams lists the exams of a course for anyone in its chain.
func (xc *ExamController) GetCourseExams(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("course_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	chain, err := xc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := xc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if err := policy.CanAccessCourse(user, teacher, chain.Course, chain.Enrollment, chain.School); err != nil {
		return policyError(c, err)
	}

	var exams []models.Exam
	if err := xc.DB.Where("course_id = ?", chain.Course.ID).Order("scheduled_date").Find(&exams).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch exams"})
	}

	return c.JSON(fiber.Map{"exams": exams, "total": len(exams)})
}
