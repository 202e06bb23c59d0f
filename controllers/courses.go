package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/policy"
	"autoecole_go/store"
)

// CourseController handles course reads and teacher assignment.
type CourseController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewCourseController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *CourseController {
	return &CourseController{DB: db, Store: st, Audit: audit}
}

// genderCompatible reports whether a teacher may run this course for this
// student. Theory is classroom-based and always compatible; on the practical
// tracks a female student needs a teacher approved to teach women. That is
// the only restriction.
func genderCompatible(courseType, studentGender string, teacher models.Teacher) bool {
	if courseType == models.CourseTheory {
		return true
	}
	if studentGender == models.GenderFemale {
		return teacher.CanTeachFemale
	}
	return true
}

// pickTeacher selects the best compatible teacher: highest rating wins,
// ties go to the lowest ID so the outcome is deterministic.
func pickTeacher(teachers []models.Teacher, studentGender, courseType string) *models.Teacher {
	var best *models.Teacher
	for i := range teachers {
		t := &teachers[i]
		if !genderCompatible(courseType, studentGender, *t) {
			continue
		}
		if best == nil || t.Rating > best.Rating || (t.Rating == best.Rating && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

// GetMyCourses returns every course across the student's enrollments,
// enriched with the school and the assigned teacher.
func (cc *CourseController) GetMyCourses(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var courses []models.Course
	if err := cc.DB.Preload("Teacher.User").Preload("Enrollment.DrivingSchool").
		Joins("JOIN enrollments ON enrollments.id = courses.enrollment_id").
		Where("enrollments.student_id = ? AND enrollments.deleted_at IS NULL", user.ID).
		Order("courses.id").
		Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch courses"})
	}

	return c.JSON(fiber.Map{"courses": courses, "total": len(courses)})
}

// GetCourse returns one course for anyone in its access chain.
func (cc *CourseController) GetCourse(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	chain, err := cc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	callerTeacher, err := cc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if err := policy.CanAccessCourse(user, callerTeacher, chain.Course, chain.Enrollment, chain.School); err != nil {
		return policyError(c, err)
	}

	var course models.Course
	if err := cc.DB.Preload("Teacher.User").First(&course, chain.Course.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch course"})
	}

	return c.JSON(fiber.Map{"course": course})
}

type assignTeacherRequest struct {
	TeacherID uint `json:"teacher_id" form:"teacher_id"`
}

// AssignTeacher sets a specific teacher on a course. Manager-only; the
// teacher must belong to the course's school and satisfy the gender rule.
func (cc *CourseController) AssignTeacher(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var req assignTeacherRequest
	if err := c.BodyParser(&req); err != nil || req.TeacherID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id is required"})
	}

	chain, err := cc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	if err := policy.CanManageCourse(user, chain.School); err != nil {
		return policyError(c, err)
	}

	teacher, err := cc.Store.TeacherByID(req.TeacherID)
	if err != nil {
		return lookupError(c, err)
	}
	if teacher.DrivingSchoolID != chain.School.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found in this school"})
	}

	student, err := cc.Store.UserByID(chain.Enrollment.StudentID)
	if err != nil {
		return lookupError(c, err)
	}
	if !genderCompatible(chain.Course.CourseType, student.Gender, *teacher) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Teacher cannot be assigned to this student for practical sessions"})
	}

	return cc.applyAssignment(c, chain.Course, teacher)
}

// AutoAssignTeacher picks the best compatible teacher of the school and
// assigns them to the course.
func (cc *CourseController) AutoAssignTeacher(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	chain, err := cc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	if err := policy.CanManageCourse(user, chain.School); err != nil {
		return policyError(c, err)
	}

	teachers, err := cc.Store.TeachersBySchool(chain.School.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch teachers"})
	}
	student, err := cc.Store.UserByID(chain.Enrollment.StudentID)
	if err != nil {
		return lookupError(c, err)
	}

	teacher := pickTeacher(teachers, student.Gender, chain.Course.CourseType)
	if teacher == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No compatible teacher available"})
	}

	return cc.applyAssignment(c, chain.Course, teacher)
}

func (cc *CourseController) applyAssignment(c *fiber.Ctx, course *models.Course, teacher *models.Teacher) error {
	course.TeacherID = &teacher.ID
	if course.Status == models.CourseNotStarted {
		course.Status = models.CourseInProgress
	}
	if err := cc.DB.Save(course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign teacher"})
	}

	cc.Audit.Log(c, "UPDATE", "courses", course.ID, fiber.Map{
		"teacher_id": teacher.ID,
	})

	return c.JSON(fiber.Map{
		"message":    "Teacher assigned successfully",
		"teacher_id": teacher.ID,
	})
}
