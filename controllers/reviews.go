package controllers

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"
)

// ReviewController handles school and teacher reviews plus the aggregate
// rating maintenance.
type ReviewController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewReviewController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *ReviewController {
	return &ReviewController{DB: db, Store: st, Audit: audit}
}

// recomputeRating aggregates review ratings into a mean rounded to one
// decimal place. An empty slice resets the aggregate to zero.
func recomputeRating(ratings []float64) (rating float64, count int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	mean := sum / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}

type schoolReviewRequest struct {
	SchoolID uint    `json:"school_id" form:"school_id"`
	Rating   float64 `json:"rating" form:"rating"`
	Comment  string  `json:"comment" form:"comment"`
}

type teacherReviewRequest struct {
	TeacherID uint    `json:"teacher_id" form:"teacher_id"`
	Rating    float64 `json:"rating" form:"rating"`
	Comment   string  `json:"comment" form:"comment"`
}

func validReviewRating(r float64) bool {
	return r >= 1 && r <= 5
}

// ReviewSchool records a student's review of a school. The student must
// hold a fully paid enrollment at that school, and may review it only once.
func (rc *ReviewController) ReviewSchool(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req schoolReviewRequest
	if err := c.BodyParser(&req); err != nil || req.SchoolID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "school_id is required"})
	}
	if !validReviewRating(req.Rating) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}

	school, err := rc.Store.SchoolByID(req.SchoolID)
	if err != nil {
		return lookupError(c, err)
	}

	var enrollment models.Enrollment
	err = rc.DB.Where("student_id = ? AND driving_school_id = ? AND payment_status = ?",
		user.ID, school.ID, models.PaymentCompleted).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students with a completed payment can review this school"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check enrollment"})
	}

	review := models.Review{
		StudentID: user.ID,
		SchoolID:  &school.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return rc.refreshSchoolRating(tx, school.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already reviewed this school"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save review"})
	}

	rc.Audit.Log(c, "CREATE", "reviews", school.ID, fiber.Map{
		"rating": req.Rating,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Review submitted"})
}

// ReviewTeacher records a student's review of a teacher who taught one of
// their courses.
func (rc *ReviewController) ReviewTeacher(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req teacherReviewRequest
	if err := c.BodyParser(&req); err != nil || req.TeacherID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id is required"})
	}
	if !validReviewRating(req.Rating) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}

	teacher, err := rc.Store.TeacherByID(req.TeacherID)
	if err != nil {
		return lookupError(c, err)
	}

	var taught int64
	err = rc.DB.Model(&models.Course{}).
		Joins("JOIN enrollments ON enrollments.id = courses.enrollment_id").
		Where("courses.teacher_id = ? AND enrollments.student_id = ?", teacher.ID, user.ID).
		Count(&taught).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check courses"})
	}
	if taught == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only review teachers who taught you"})
	}

	review := models.Review{
		StudentID: user.ID,
		TeacherID: &teacher.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return rc.refreshTeacherRating(tx, teacher.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already reviewed this teacher"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save review"})
	}

	rc.Audit.Log(c, "CREATE", "reviews", teacher.ID, fiber.Map{
		"rating": req.Rating,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Review submitted"})
}

// GetSchoolReviews lists the reviews of a school. Public.
func (rc *ReviewController) GetSchoolReviews(c *fiber.Ctx) error {
	schoolID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid school ID"})
	}

	school, err := rc.Store.SchoolByID(uint(schoolID))
	if err != nil {
		return lookupError(c, err)
	}

	var reviews []models.Review
	if err := rc.DB.Preload("Student").
		Where("school_id = ?", school.ID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{
		"reviews":       reviews,
		"total":         len(reviews),
		"rating":        school.Rating,
		"total_reviews": school.TotalReviews,
	})
}

func (rc *ReviewController) refreshSchoolRating(tx *gorm.DB, schoolID uint) error {
	var ratings []float64
	if err := tx.Model(&models.Review{}).
		Where("school_id = ?", schoolID).
		Pluck("rating", &ratings).Error; err != nil {
		return err
	}
	rating, count := recomputeRating(ratings)
	return tx.Model(&models.DrivingSchool{}).
		Where("id = ?", schoolID).
		Updates(map[string]interface{}{"rating": rating, "total_reviews": count}).Error
}

func (rc *ReviewController) refreshTeacherRating(tx *gorm.DB, teacherID uint) error {
	var ratings []float64
	if err := tx.Model(&models.Review{}).
		Where("teacher_id = ?", teacherID).
		Pluck("rating", &ratings).Error; err != nil {
		return err
	}
	rating, count := recomputeRating(ratings)
	return tx.Model(&models.Teacher{}).
		Where("id = ?", teacherID).
		Updates(map[string]interface{}{"rating": rating, "total_reviews": count}).Error
}
