package controllers

import (
	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TeacherController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

// AddTeacherRequest represents the teacher creation body. UserID defaults to
// the calling manager (self-assignment is allowed).
type AddTeacherRequest struct {
	UserID             uint   `json:"user_id" form:"user_id"`
	DrivingLicenseURL  string `json:"driving_license_url" form:"driving_license_url"`
	TeachingLicenseURL string `json:"teaching_license_url" form:"teaching_license_url"`
	PhotoURL           string `json:"photo_url" form:"photo_url"`
	CanTeachMale       *bool  `json:"can_teach_male" form:"can_teach_male"`
	CanTeachFemale     *bool  `json:"can_teach_female" form:"can_teach_female"`
}

// AddTeacher attaches a teacher to the calling manager's school.
func (tc *TeacherController) AddTeacher(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	school, err := tc.Store.SchoolByManager(user.ID)
	if err != nil {
		return lookupError(c, err)
	}

	var req AddTeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	teacherUserID := req.UserID
	if teacherUserID == 0 {
		teacherUserID = user.ID
	}
	if teacherUserID != user.ID {
		if _, err := tc.Store.UserByID(teacherUserID); err != nil {
			return lookupError(c, err)
		}
	}

	// A user teaches at exactly one school for the record's lifetime.
	if existing, err := tc.Store.TeacherByUser(teacherUserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	} else if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Teacher profile already exists for this user",
		})
	}

	teacher := models.Teacher{
		UserID:             teacherUserID,
		DrivingSchoolID:    school.ID,
		DrivingLicenseURL:  req.DrivingLicenseURL,
		TeachingLicenseURL: req.TeachingLicenseURL,
		PhotoURL:           req.PhotoURL,
		CanTeachMale:       true,
		CanTeachFemale:     true,
	}
	if req.CanTeachMale != nil {
		teacher.CanTeachMale = *req.CanTeachMale
	}
	if req.CanTeachFemale != nil {
		teacher.CanTeachFemale = *req.CanTeachFemale
	}

	if err := tc.DB.Create(&teacher).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add teacher",
		})
	}

	tc.Audit.Log(c, "CREATE", "teachers", teacher.ID, fiber.Map{
		"driving_school_id": school.ID,
		"user_id":           teacherUserID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      teacher.ID,
		"message": "Teacher added successfully",
	})
}

// GetMySchoolTeachers lists the teachers of the calling manager's school,
// enriched with their user profiles.
func (tc *TeacherController) GetMySchoolTeachers(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	school, err := tc.Store.SchoolByManager(user.ID)
	if err != nil {
		return lookupError(c, err)
	}

	var teachers []models.Teacher
	if err := tc.DB.Preload("User").Where("driving_school_id = ?", school.ID).Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch teachers",
		})
	}

	return c.JSON(fiber.Map{"teachers": teachers})
}
