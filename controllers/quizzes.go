package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/policy"
	"autoecole_go/store"
)

// QuizController handles theory quizzes and student attempts.
type QuizController struct {
	DB    *gorm.DB
	Store *store.Store
	Audit *middleware.ActivityLogger
}

func NewQuizController(db *gorm.DB, st *store.Store, audit *middleware.ActivityLogger) *QuizController {
	return &QuizController{DB: db, Store: st, Audit: audit}
}

// scoreQuizAttempt grades submitted answers against the question list.
// The score is the percentage of correct answers; an empty quiz scores 0.
func scoreQuizAttempt(questions []models.QuizQuestion, answers []string) (score float64, correct int) {
	if len(questions) == 0 {
		return 0, 0
	}
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(questions)), correct
}

type createQuizRequest struct {
	CourseID         uint                  `json:"course_id"`
	Title            string                `json:"title"`
	Questions        []models.QuizQuestion `json:"questions"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	PassingScore     float64               `json:"passing_score"`
}

// CreateQuiz attaches a quiz to a theory course. Managers of the school and
// the assigned teacher may create quizzes.
func (qc *QuizController) CreateQuiz(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req createQuizRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "course_id is required"})
	}
	if req.Title == "" || len(req.Questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title and questions are required"})
	}

	chain, err := qc.Store.ResolveCourse(req.CourseID)
	if err != nil {
		return lookupError(c, err)
	}
	if chain.Course.CourseType != models.CourseTheory {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Quizzes can only be attached to theory courses"})
	}

	teacher, err := qc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	isManager := user.Role == models.RoleManager && chain.School.ManagerID == user.ID
	isAssigned := teacher != nil && chain.Course.TeacherID != nil && *chain.Course.TeacherID == teacher.ID
	if !isManager && !isAssigned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not allowed to create quizzes for this course"})
	}

	questionsJSON, err := json.Marshal(req.Questions)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid questions payload"})
	}

	quiz := models.Quiz{
		CourseID:         chain.Course.ID,
		Title:            req.Title,
		Questions:        models.JSON(questionsJSON),
		TimeLimitMinutes: req.TimeLimitMinutes,
		PassingScore:     req.PassingScore,
	}
	if quiz.TimeLimitMinutes <= 0 {
		quiz.TimeLimitMinutes = 30
	}
	if quiz.PassingScore <= 0 {
		quiz.PassingScore = 70
	}
	if err := qc.DB.Create(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quiz"})
	}

	qc.Audit.Log(c, "CREATE", "quizzes", quiz.ID, fiber.Map{
		"course_id": chain.Course.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      quiz.ID,
		"message": "Quiz created successfully",
	})
}

// GetCourseQuizzes lists the quizzes of a course. Students see them without
// the correct answers.
func (qc *QuizController) GetCourseQuizzes(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	courseID, err := c.ParamsInt("course_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	chain, err := qc.Store.ResolveCourse(uint(courseID))
	if err != nil {
		return lookupError(c, err)
	}
	teacher, err := qc.Store.TeacherByUser(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve caller"})
	}
	if err := policy.CanAccessCourse(user, teacher, chain.Course, chain.Enrollment, chain.School); err != nil {
		return policyError(c, err)
	}

	var quizzes []models.Quiz
	if err := qc.DB.Where("course_id = ?", chain.Course.ID).Find(&quizzes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch quizzes"})
	}

	out := make([]fiber.Map, 0, len(quizzes))
	for _, quiz := range quizzes {
		entry := fiber.Map{
			"id":                 quiz.ID,
			"title":              quiz.Title,
			"time_limit_minutes": quiz.TimeLimitMinutes,
			"passing_score":      quiz.PassingScore,
		}
		questions, err := quiz.QuestionList()
		if err == nil {
			if user.Role == models.RoleStudent {
				stripped := make([]fiber.Map, 0, len(questions))
				for _, q := range questions {
					stripped = append(stripped, fiber.Map{
						"question": q.Question,
						"options":  q.Options,
					})
				}
				entry["questions"] = stripped
			} else {
				entry["questions"] = questions
			}
		}
		out = append(out, entry)
	}

	return c.JSON(fiber.Map{"quizzes": out, "total": len(out)})
}

type submitAttemptRequest struct {
	QuizID  uint     `json:"quiz_id"`
	Answers []string `json:"answers"`
}

// SubmitAttempt grades a student's answers and records the attempt. Passing
// a quiz counts as one completed theory session.
func (qc *QuizController) SubmitAttempt(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	var req submitAttemptRequest
	if err := c.BodyParser(&req); err != nil || req.QuizID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quiz_id is required"})
	}

	quiz, err := qc.Store.QuizByID(req.QuizID)
	if err != nil {
		return lookupError(c, err)
	}
	chain, err := qc.Store.ResolveCourse(quiz.CourseID)
	if err != nil {
		return lookupError(c, err)
	}
	if chain.Enrollment.StudentID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your quiz"})
	}

	questions, err := quiz.QuestionList()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load quiz questions"})
	}

	score, correct := scoreQuizAttempt(questions, req.Answers)
	passed := len(questions) > 0 && score >= quiz.PassingScore

	answersJSON, _ := json.Marshal(req.Answers)
	attempt := models.QuizAttempt{
		QuizID:      quiz.ID,
		StudentID:   user.ID,
		Answers:     models.JSON(answersJSON),
		Score:       score,
		Passed:      passed,
		CompletedAt: time.Now(),
	}

	err = qc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		if passed {
			return tx.Model(&models.Course{}).
				Where("id = ?", chain.Course.ID).
				UpdateColumn("completed_sessions", gorm.Expr("completed_sessions + 1")).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record attempt"})
	}

	qc.Audit.Log(c, "CREATE", "quiz_attempts", quiz.ID, fiber.Map{
		"score":  score,
		"passed": passed,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"score":   score,
		"correct": correct,
		"total":   len(questions),
		"passed":  passed,
	})
}

// GetMyAttempts lists the caller's attempts at one quiz, newest first.
func (qc *QuizController) GetMyAttempts(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return err
	}

	quizID, err := c.ParamsInt("quiz_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz ID"})
	}

	var attempts []models.QuizAttempt
	if err := qc.DB.
		Where("quiz_id = ? AND student_id = ?", quizID, user.ID).
		Order("completed_at DESC").
		Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attempts"})
	}

	return c.JSON(fiber.Map{"attempts": attempts, "total": len(attempts)})
}
