//go:build integration
// +build integration

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	tc "github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"autoecole_go/config"
	"autoecole_go/database"
	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/store"
)

// The suite runs the handlers against a disposable MySQL container so the
// unique indexes, enum columns and transactions behave exactly as they do
// in production. Run with: go test -tags integration ./controllers/
var (
	testDB  *gorm.DB
	testApp *fiber.App
	testCfg *config.Config
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcmysql.RunContainer(ctx,
		tc.WithImage("mysql:8.0.36"),
		tcmysql.WithDatabase("autoecole_test"),
		tcmysql.WithUsername("autoecole"),
		tcmysql.WithPassword("autoecole"),
	)
	if err != nil {
		log.Fatalf("failed to start mysql container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=Local")
	if err != nil {
		log.Fatalf("failed to build connection string: %v", err)
	}

	var db *gorm.DB
	for attempt := 1; attempt <= 8; attempt++ {
		db, err = gorm.Open(gormmysql.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	database.AutoMigrate(db)

	testDB = db
	testCfg = &config.Config{
		JWTSecret:    "integration-test-secret",
		JWTExpiresIn: time.Hour,
		VideoAPIKey:  "demo-test",
		VideoAPIURL:  "https://api.daily.co/v1",
		AWSRegion:    "eu-west-3",
		S3BucketName: "test-bucket",
		MaxFileSize:  10 << 20,
	}
	testApp = newTestApp(db, testCfg)

	code := m.Run()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func newTestApp(db *gorm.DB, cfg *config.Config) *fiber.App {
	st := store.New(db)
	audit := middleware.NewActivityLogger(db, nil)

	enrollments := NewEnrollmentController(db, st, audit)
	quizzes := NewQuizController(db, st, audit)
	payments := NewPaymentController(db, st, audit)

	app := fiber.New()
	app.Post("/api/payments/complete", payments.CompletePayment)

	protected := app.Group("/api", middleware.JWTMiddleware(db, cfg, nil))
	protected.Post("/enrollments", middleware.RequireStudent(), enrollments.Enroll)
	protected.Post("/quiz-attempts", middleware.RequireStudent(), quizzes.SubmitAttempt)
	protected.Post("/payments/initiate", middleware.RequireStudent(), payments.InitiatePayment)

	return app
}

var emailSeq int64

func seedUser(t *testing.T, role, gender string) *models.User {
	t.Helper()
	u := &models.User{
		Email:     fmt.Sprintf("user%d@test.dz", atomic.AddInt64(&emailSeq, 1)),
		Password:  "not-used",
		FirstName: "Test",
		LastName:  "User",
		Gender:    gender,
		Role:      role,
		Active:    true,
	}
	if err := testDB.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedSchool(t *testing.T, price float64) *models.DrivingSchool {
	t.Helper()
	manager := seedUser(t, models.RoleManager, models.GenderMale)
	s := &models.DrivingSchool{
		Name:      "Auto École Test",
		Address:   "Rue Didouche Mourad",
		State:     "Alger",
		Price:     price,
		ManagerID: manager.ID,
	}
	if err := testDB.Create(s).Error; err != nil {
		t.Fatalf("seed school: %v", err)
	}
	return s
}

func bearerFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := middleware.GenerateToken(u, testCfg)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := testApp.Test(req, 30000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}

func enroll(t *testing.T, student *models.User, school *models.DrivingSchool) *models.Enrollment {
	t.Helper()
	resp := doJSON(t, http.MethodPost, "/api/enrollments",
		fiber.Map{"driving_school_id": school.ID}, bearerFor(t, student))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enroll returned %d: %v", resp.StatusCode, decodeBody(t, resp))
	}
	resp.Body.Close()

	var e models.Enrollment
	if err := testDB.Where("student_id = ? AND driving_school_id = ?", student.ID, school.ID).First(&e).Error; err != nil {
		t.Fatalf("load enrollment: %v", err)
	}
	return &e
}

func TestEnrollCreatesCourseTracks(t *testing.T) {
	student := seedUser(t, models.RoleStudent, models.GenderFemale)
	school := seedSchool(t, 45000)

	e := enroll(t, student, school)

	if e.Amount != school.Price {
		t.Errorf("enrollment amount = %v, want price snapshot %v", e.Amount, school.Price)
	}
	if e.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %q, want %q", e.PaymentStatus, models.PaymentPending)
	}
	if e.IsApproved {
		t.Errorf("new enrollment must not be approved")
	}

	var courses []models.Course
	if err := testDB.Where("enrollment_id = ?", e.ID).Find(&courses).Error; err != nil {
		t.Fatalf("load courses: %v", err)
	}
	if len(courses) != 3 {
		t.Fatalf("got %d courses, want 3", len(courses))
	}

	wantSessions := map[string]int{
		models.CourseTheory: 10,
		models.CoursePark:   5,
		models.CourseRoad:   15,
	}
	for _, course := range courses {
		want, ok := wantSessions[course.CourseType]
		if !ok {
			t.Errorf("unexpected course type %q", course.CourseType)
			continue
		}
		if course.TotalSessions != want {
			t.Errorf("%s total sessions = %d, want %d", course.CourseType, course.TotalSessions, want)
		}
		if course.Status != models.CourseNotStarted {
			t.Errorf("%s status = %q, want %q", course.CourseType, course.Status, models.CourseNotStarted)
		}
		if course.ExamStatus != models.ExamNotTaken {
			t.Errorf("%s exam status = %q, want %q", course.CourseType, course.ExamStatus, models.ExamNotTaken)
		}
	}
}

func TestEnrollDuplicateConflict(t *testing.T) {
	student := seedUser(t, models.RoleStudent, models.GenderMale)
	school := seedSchool(t, 38000)

	enroll(t, student, school)

	resp := doJSON(t, http.MethodPost, "/api/enrollments",
		fiber.Map{"driving_school_id": school.ID}, bearerFor(t, student))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate enroll returned %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	// The index itself must reject a duplicate that slips past the
	// check-then-insert, as a concurrent request would.
	err := testDB.Create(&models.Enrollment{
		StudentID:       student.ID,
		DrivingSchoolID: school.ID,
		Amount:          school.Price,
		PaymentStatus:   models.PaymentPending,
	}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("direct duplicate insert error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestQuizPassIncrementsTheorySessions(t *testing.T) {
	student := seedUser(t, models.RoleStudent, models.GenderFemale)
	school := seedSchool(t, 50000)
	e := enroll(t, student, school)

	var theory models.Course
	if err := testDB.Where("enrollment_id = ? AND course_type = ?", e.ID, models.CourseTheory).First(&theory).Error; err != nil {
		t.Fatalf("load theory course: %v", err)
	}

	questions, _ := json.Marshal([]models.QuizQuestion{
		{Question: "Priority at a roundabout?", Options: []string{"entering", "inside"}, CorrectAnswer: "inside"},
		{Question: "Stop line means?", Options: []string{"yield", "full stop"}, CorrectAnswer: "full stop"},
	})
	quiz := models.Quiz{
		CourseID:         theory.ID,
		Title:            "Road signs",
		Questions:        models.JSON(questions),
		TimeLimitMinutes: 30,
		PassingScore:     70,
	}
	if err := testDB.Create(&quiz).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	resp := doJSON(t, http.MethodPost, "/api/quiz-attempts",
		fiber.Map{"quiz_id": quiz.ID, "answers": []string{"inside", "full stop"}}, bearerFor(t, student))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit attempt returned %d: %v", resp.StatusCode, decodeBody(t, resp))
	}
	body := decodeBody(t, resp)
	if body["score"].(float64) != 100 {
		t.Errorf("score = %v, want 100", body["score"])
	}
	if body["passed"] != true {
		t.Errorf("passed = %v, want true", body["passed"])
	}

	if err := testDB.First(&theory, theory.ID).Error; err != nil {
		t.Fatalf("reload theory course: %v", err)
	}
	if theory.CompletedSessions != 1 {
		t.Errorf("completed sessions = %d, want 1 after passing", theory.CompletedSessions)
	}

	// A failed attempt is recorded but does not move the counter.
	resp = doJSON(t, http.MethodPost, "/api/quiz-attempts",
		fiber.Map{"quiz_id": quiz.ID, "answers": []string{"entering", "yield"}}, bearerFor(t, student))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failing attempt returned %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["passed"] != false {
		t.Errorf("passed = %v, want false", body["passed"])
	}
	if err := testDB.First(&theory, theory.ID).Error; err != nil {
		t.Fatalf("reload theory course: %v", err)
	}
	if theory.CompletedSessions != 1 {
		t.Errorf("completed sessions = %d, want still 1 after failing", theory.CompletedSessions)
	}
}

func TestPaymentSettlementMirrorsEnrollment(t *testing.T) {
	student := seedUser(t, models.RoleStudent, models.GenderMale)
	school := seedSchool(t, 42000)
	e := enroll(t, student, school)

	resp := doJSON(t, http.MethodPost, "/api/payments/initiate",
		fiber.Map{"enrollment_id": e.ID}, bearerFor(t, student))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("initiate returned %d: %v", resp.StatusCode, decodeBody(t, resp))
	}
	body := decodeBody(t, resp)
	txID, _ := body["transaction_id"].(string)
	if txID == "" {
		t.Fatalf("initiate response missing transaction_id: %v", body)
	}

	resp = doJSON(t, http.MethodPost, "/api/payments/complete",
		fiber.Map{"transaction_id": txID, "status": models.TransactionSuccess}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete returned %d: %v", resp.StatusCode, decodeBody(t, resp))
	}
	resp.Body.Close()

	var payment models.Payment
	if err := testDB.Where("transaction_id = ?", txID).First(&payment).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != models.TransactionSuccess {
		t.Errorf("payment status = %q, want %q", payment.Status, models.TransactionSuccess)
	}
	if err := testDB.First(e, e.ID).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if e.PaymentStatus != models.PaymentCompleted {
		t.Errorf("enrollment payment status = %q, want %q", e.PaymentStatus, models.PaymentCompleted)
	}

	// A replayed callback must not settle twice.
	resp = doJSON(t, http.MethodPost, "/api/payments/complete",
		fiber.Map{"transaction_id": txID, "status": models.TransactionFailed}, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("replayed complete returned %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	resp.Body.Close()

	if err := testDB.First(e, e.ID).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if e.PaymentStatus != models.PaymentCompleted {
		t.Errorf("enrollment payment status changed to %q after replay", e.PaymentStatus)
	}
}
