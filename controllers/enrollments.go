package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"
)

// EnrollmentController handles student enrollment into driving schools and
// the manager-side approval and export flows.
type EnrollmentController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewEnrollmentController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *EnrollmentController {
	return &EnrollmentController{DB: db, Store: st, Audit: audit}
}

type enrollRequest struct {
	DrivingSchoolID uint `json:"driving_school_id" form:"driving_school_id"`
}

// Enroll creates an enrollment and its three course tracks in a single
// transaction. A student can hold at most one enrollment per school; the
// unique index backs that up under concurrent requests.
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req enrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.DrivingSchoolID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "driving_school_id is required"})
	}

	school, err := ec.Store.SchoolByID(req.DrivingSchoolID)
	if err != nil {
		return lookupError(c, err)
	}

	var existing models.Enrollment
	err = ec.DB.Where("student_id = ? AND driving_school_id = ?", user.ID, school.ID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already enrolled in this driving school"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check enrollment"})
	}

	enrollment := models.Enrollment{
		StudentID:       user.ID,
		DrivingSchoolID: school.ID,
		Amount:          school.Price,
		PaymentStatus:   models.PaymentPending,
	}

	err = ec.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}
		for _, track := range models.DefaultCourseTracks() {
			course := models.Course{
				EnrollmentID:  enrollment.ID,
				CourseType:    track.Type,
				TotalSessions: track.Sessions,
				Status:        models.CourseNotStarted,
			}
			if err := tx.Create(&course).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already enrolled in this driving school"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create enrollment"})
	}

	ec.Audit.Log(c, "CREATE", "enrollments", enrollment.ID, fiber.Map{
		"driving_school_id": school.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      enrollment.ID,
		"message": "Enrollment created successfully",
	})
}

// GetMyEnrollments returns the caller's enrollments with school and course
// details attached.
func (ec *EnrollmentController) GetMyEnrollments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var enrollments []models.Enrollment
	if err := ec.DB.Preload("DrivingSchool").Preload("Courses").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	return c.JSON(fiber.Map{"enrollments": enrollments, "total": len(enrollments)})
}

// ApproveEnrollment lets the managing user of the school approve a pending
// enrollment.
func (ec *EnrollmentController) ApproveEnrollment(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	enrollmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment ID"})
	}

	enrollment, err := ec.Store.EnrollmentByID(uint(enrollmentID))
	if err != nil {
		return lookupError(c, err)
	}
	school, err := ec.Store.SchoolByID(enrollment.DrivingSchoolID)
	if err != nil {
		return lookupError(c, err)
	}
	if school.ManagerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not the manager of this school"})
	}

	now := time.Now()
	enrollment.IsApproved = true
	enrollment.ApprovedAt = &now
	if err := ec.DB.Save(enrollment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to approve enrollment"})
	}

	ec.Audit.Log(c, "UPDATE", "enrollments", enrollment.ID, nil)

	return c.JSON(fiber.Map{"message": "Enrollment approved"})
}

// ExportEnrollments writes the manager's school enrollments to an xlsx
// workbook and streams it back.
func (ec *EnrollmentController) ExportEnrollments(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	school, err := ec.Store.SchoolByManager(user.ID)
	if err != nil {
		return lookupError(c, err)
	}

	var enrollments []models.Enrollment
	if err := ec.DB.Preload("Student").Preload("Courses").
		Where("driving_school_id = ?", school.ID).
		Order("created_at").
		Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Enrollments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Student", "Email", "Payment", "Approved", "Courses Done", "Enrolled At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, e := range enrollments {
		done := 0
		for _, course := range e.Courses {
			if course.Status == models.CourseCompleted {
				done++
			}
		}
		approved := "no"
		if e.IsApproved {
			approved = "yes"
		}
		values := []interface{}{
			e.ID,
			e.Student.FirstName + " " + e.Student.LastName,
			e.Student.Email,
			e.PaymentStatus,
			approved,
			fmt.Sprintf("%d/%d", done, len(e.Courses)),
			e.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate export"})
	}

	ec.Audit.Log(c, "EXPORT", "enrollments", school.ID, fiber.Map{"count": len(enrollments)})

	filename := fmt.Sprintf("enrollments_%s.xlsx", time.Now().Format("20060102"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buf.Bytes())
}
