package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"autoecole_go/config"
	"autoecole_go/controllers"
	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/services/ops"
	"autoecole_go/services/video"
	"autoecole_go/storage"
	"autoecole_go/store"
)

// Deps carries the shared services the controllers are built from.
type Deps struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Redis   *redis.Client
	Store   *store.Store
	Storage *storage.StorageService
	Video   *video.Client
	Audit   *middleware.ActivityLogger
	Health  *ops.HealthService
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, d Deps) {
	authController := &controllers.AuthController{DB: d.DB, Cfg: d.Cfg, Redis: d.Redis, Audit: d.Audit}
	schoolController := &controllers.SchoolController{DB: d.DB, Store: d.Store, Storage: d.Storage, Audit: d.Audit}
	teacherController := &controllers.TeacherController{DB: d.DB, Store: d.Store, Audit: d.Audit}
	enrollmentController := controllers.NewEnrollmentController(d.DB, d.Store, d.Audit)
	courseController := controllers.NewCourseController(d.DB, d.Store, d.Audit)
	sessionController := controllers.NewSessionController(d.DB, d.Store, d.Video, d.Audit)
	documentController := controllers.NewDocumentController(d.DB, d.Store, d.Cfg, d.Storage, d.Audit)
	quizController := controllers.NewQuizController(d.DB, d.Store, d.Audit)
	examController := controllers.NewExamController(d.DB, d.Store, d.Audit)
	reviewController := controllers.NewReviewController(d.DB, d.Store, d.Audit)
	paymentController := controllers.NewPaymentController(d.DB, d.Store, d.Audit)
	dashboardController := controllers.NewDashboardController(d.DB, d.Store)
	logController := controllers.NewLogController(d.DB, d.Audit)
	healthController := controllers.NewHealthController(d.Health)

	api := app.Group("/api")

	// Public routes (no authentication required)
	api.Get("/health", healthController.Check)
	api.Get("/states", schoolController.GetStates)
	api.Get("/driving-schools", schoolController.GetSchools)
	api.Get("/driving-schools/:id", schoolController.GetSchool)
	api.Get("/driving-schools/:id/reviews", reviewController.GetSchoolReviews)

	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	// Gateway callback; authenticated by transaction ID
	api.Post("/payments/complete", paymentController.CompletePayment)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware(d.DB, d.Cfg, d.Redis))

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/auth/profile", authController.GetProfile)

	// Schools and teachers (manager)
	protected.Post("/driving-schools", middleware.RequireManager(), schoolController.CreateSchool)
	protected.Post("/teachers", middleware.RequireManager(), teacherController.AddTeacher)
	protected.Get("/teachers/my-school", middleware.RequireManager(), teacherController.GetMySchoolTeachers)

	// Enrollments; the export route must come before the :id routes
	protected.Post("/enrollments", middleware.RequireStudent(), enrollmentController.Enroll)
	protected.Get("/enrollments/my", middleware.RequireStudent(), enrollmentController.GetMyEnrollments)
	protected.Get("/enrollments/export", middleware.RequireManager(), enrollmentController.ExportEnrollments)
	protected.Patch("/enrollments/:id/approve", middleware.RequireManager(), enrollmentController.ApproveEnrollment)

	// Courses
	protected.Get("/courses/my", middleware.RequireStudent(), courseController.GetMyCourses)
	protected.Get("/courses/:id", courseController.GetCourse)
	protected.Post("/courses/:id/assign-teacher", middleware.RequireManager(), courseController.AssignTeacher)
	protected.Post("/courses/:id/auto-assign-teacher", middleware.RequireManager(), courseController.AutoAssignTeacher)

	// Sessions and video rooms
	protected.Post("/sessions", middleware.RequireRole(models.RoleTeacher), sessionController.CreateSession)
	protected.Patch("/sessions/:id/status", middleware.RequireTeacherOrManager(), sessionController.UpdateSessionStatus)
	protected.Post("/video/create-room", middleware.RequireTeacherOrManager(), sessionController.CreateVideoRoom)
	protected.Get("/video/rooms/:course_id", sessionController.GetCourseRooms)
	protected.Post("/video/join/:session_id", sessionController.JoinSession)

	// Documents; "my" must be registered before the :user_id route
	protected.Post("/documents/upload", documentController.Upload)
	protected.Get("/documents/my", documentController.GetMyDocuments)
	protected.Get("/documents/:user_id", middleware.RequireTeacherOrManager(), documentController.GetUserDocuments)
	protected.Delete("/documents/:id", documentController.DeleteDocument)
	protected.Post("/documents/:id/verify", middleware.RequireManager(), documentController.VerifyDocument)

	// Quizzes and attempts
	protected.Post("/quizzes", middleware.RequireTeacherOrManager(), quizController.CreateQuiz)
	protected.Get("/quizzes/course/:course_id", quizController.GetCourseQuizzes)
	protected.Post("/quiz-attempts", middleware.RequireStudent(), quizController.SubmitAttempt)
	protected.Get("/quiz-attempts/my/:quiz_id", middleware.RequireStudent(), quizController.GetMyAttempts)

	// Exams
	protected.Post("/exams/schedule", middleware.RequireManager(), examController.ScheduleExam)
	protected.Post("/exams/:id/complete", middleware.RequireManager(), examController.CompleteExam)
	protected.Get("/exams/course/:course_id", examController.GetCourseExams)

	// Reviews
	protected.Post("/reviews/school", middleware.RequireStudent(), reviewController.ReviewSchool)
	protected.Post("/reviews/teacher", middleware.RequireStudent(), reviewController.ReviewTeacher)

	// Payments
	protected.Post("/payments/initiate", middleware.RequireStudent(), paymentController.InitiatePayment)
	protected.Get("/payments/my", middleware.RequireStudent(), paymentController.GetMyPayments)

	// Dashboards
	protected.Get("/dashboard/student", middleware.RequireStudent(), dashboardController.StudentDashboard)
	protected.Get("/dashboard/manager", middleware.RequireManager(), dashboardController.ManagerDashboard)
	protected.Get("/dashboard/teacher", middleware.RequireRole(models.RoleTeacher), dashboardController.TeacherDashboard)

	// Activity logs (manager)
	protected.Get("/logs", middleware.RequireManager(), logController.GetLogs)
	protected.Post("/logs/flush", middleware.RequireManager(), logController.FlushCachedLogs)
}
