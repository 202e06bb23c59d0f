package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"
)

// DashboardController aggregates the role-specific overview endpoints.
type DashboardController struct {
	DB    *gorm.DB
	Store *store.Store
}

func NewDashboardController(db *gorm.DB, st *store.Store) *DashboardController {
	return &DashboardController{DB: db, Store: st}
}

// StudentDashboard summarises the caller's enrollments with per-track
// progress.
func (dc *DashboardController) StudentDashboard(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var enrollments []models.Enrollment
	if err := dc.DB.Preload("DrivingSchool").Preload("Courses.Teacher.User").
		Where("student_id = ?", user.ID).
		Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	out := make([]fiber.Map, 0, len(enrollments))
	for _, e := range enrollments {
		tracks := make([]fiber.Map, 0, len(e.Courses))
		for _, course := range e.Courses {
			progress := 0.0
			if course.TotalSessions > 0 {
				progress = 100 * float64(course.CompletedSessions) / float64(course.TotalSessions)
			}
			track := fiber.Map{
				"course_id":          course.ID,
				"course_type":        course.CourseType,
				"status":             course.Status,
				"completed_sessions": course.CompletedSessions,
				"total_sessions":     course.TotalSessions,
				"progress":           progress,
				"exam_status":        course.ExamStatus,
			}
			if course.Teacher != nil {
				track["teacher"] = fiber.Map{
					"id":   course.Teacher.ID,
					"name": course.Teacher.User.FirstName + " " + course.Teacher.User.LastName,
				}
			}
			tracks = append(tracks, track)
		}
		out = append(out, fiber.Map{
			"enrollment_id":  e.ID,
			"school":         e.DrivingSchool.Name,
			"state":          e.DrivingSchool.State,
			"payment_status": e.PaymentStatus,
			"is_approved":    e.IsApproved,
			"courses":        tracks,
		})
	}

	return c.JSON(fiber.Map{"enrollments": out, "total": len(out)})
}

// ManagerDashboard summarises the manager's school: headline counts, course
// states, latest enrollments and the teacher roster.
func (dc *DashboardController) ManagerDashboard(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	school, err := dc.Store.SchoolByManager(user.ID)
	if err != nil {
		return lookupError(c, err)
	}

	var totalEnrollments, pendingApproval, paidEnrollments, teacherCount int64
	dc.DB.Model(&models.Enrollment{}).Where("driving_school_id = ?", school.ID).Count(&totalEnrollments)
	dc.DB.Model(&models.Enrollment{}).Where("driving_school_id = ? AND is_approved = ?", school.ID, false).Count(&pendingApproval)
	dc.DB.Model(&models.Enrollment{}).Where("driving_school_id = ? AND payment_status = ?", school.ID, models.PaymentCompleted).Count(&paidEnrollments)
	dc.DB.Model(&models.Teacher{}).Where("driving_school_id = ?", school.ID).Count(&teacherCount)

	type statusCount struct {
		Status string
		Count  int64
	}
	var courseCounts []statusCount
	dc.DB.Model(&models.Course{}).
		Select("courses.status AS status, COUNT(*) AS count").
		Joins("JOIN enrollments ON enrollments.id = courses.enrollment_id").
		Where("enrollments.driving_school_id = ? AND enrollments.deleted_at IS NULL", school.ID).
		Group("courses.status").
		Scan(&courseCounts)
	courses := fiber.Map{}
	for _, sc := range courseCounts {
		courses[sc.Status] = sc.Count
	}

	var recent []models.Enrollment
	dc.DB.Preload("Student").
		Where("driving_school_id = ?", school.ID).
		Order("created_at DESC").
		Limit(5).
		Find(&recent)

	var teachers []models.Teacher
	dc.DB.Preload("User").Where("driving_school_id = ?", school.ID).Order("rating DESC").Find(&teachers)

	return c.JSON(fiber.Map{
		"school": fiber.Map{
			"id":            school.ID,
			"name":          school.Name,
			"state":         school.State,
			"rating":        school.Rating,
			"total_reviews": school.TotalReviews,
		},
		"total_enrollments":  totalEnrollments,
		"pending_approval":   pendingApproval,
		"paid_enrollments":   paidEnrollments,
		"teacher_count":      teacherCount,
		"courses_by_status":  courses,
		"recent_enrollments": recent,
		"teachers":           teachers,
	})
}

// TeacherDashboard lists the courses assigned to the calling teacher,
// enriched with student and progress details.
func (dc *DashboardController) TeacherDashboard(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	teacher, err := dc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if teacher == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No teacher profile for this account"})
	}

	var courses []models.Course
	if err := dc.DB.Preload("Enrollment.Student").
		Where("teacher_id = ?", teacher.ID).
		Order("id").
		Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch courses"})
	}

	var upcoming []models.CourseSession
	dc.DB.Where("teacher_id = ? AND status = ?", teacher.ID, "scheduled").
		Order("scheduled_time").
		Limit(10).
		Find(&upcoming)

	out := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		out = append(out, fiber.Map{
			"course_id":          course.ID,
			"course_type":        course.CourseType,
			"status":             course.Status,
			"completed_sessions": course.CompletedSessions,
			"total_sessions":     course.TotalSessions,
			"student": fiber.Map{
				"id":     course.Enrollment.StudentID,
				"name":   course.Enrollment.Student.FirstName + " " + course.Enrollment.Student.LastName,
				"gender": course.Enrollment.Student.Gender,
			},
		})
	}

	return c.JSON(fiber.Map{
		"rating":            teacher.Rating,
		"total_reviews":     teacher.TotalReviews,
		"courses":           out,
		"total_courses":     len(out),
		"upcoming_sessions": upcoming,
	})
}
