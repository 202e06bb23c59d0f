// Package store wraps the database behind typed finder methods so handlers
// never chase foreign keys with ad hoc queries. Chain resolution walks
// course -> enrollment -> school and reports the first missing link as a
// NotFoundError; ownership decisions on the resolved entities live in the
// policy package.
package store

import (
	"errors"

	"autoecole_go/models"

	"gorm.io/gorm"
)

// NotFoundError identifies which entity of a lookup chain was absent.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// IsNotFound reports whether err is a missing-entity error from this package.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for transactions and writes.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func wrapNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity}
	}
	return err
}

func (s *Store) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, wrapNotFound(err, "User")
	}
	return &user, nil
}

func (s *Store) SchoolByID(id uint) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	if err := s.db.First(&school, id).Error; err != nil {
		return nil, wrapNotFound(err, "Driving school")
	}
	return &school, nil
}

func (s *Store) SchoolByManager(managerID uint) (*models.DrivingSchool, error) {
	var school models.DrivingSchool
	if err := s.db.Where("manager_id = ?", managerID).First(&school).Error; err != nil {
		return nil, wrapNotFound(err, "Driving school")
	}
	return &school, nil
}

func (s *Store) TeacherByID(id uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := s.db.First(&teacher, id).Error; err != nil {
		return nil, wrapNotFound(err, "Teacher")
	}
	return &teacher, nil
}

// TeacherByUser resolves the teacher record behind a user, or nil when the
// user has none (callers treat nil as "not a practising teacher").
func (s *Store) TeacherByUser(userID uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := s.db.Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &teacher, nil
}

func (s *Store) TeachersBySchool(schoolID uint) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := s.db.Where("driving_school_id = ?", schoolID).Order("id").Find(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (s *Store) EnrollmentByID(id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.db.First(&enrollment, id).Error; err != nil {
		return nil, wrapNotFound(err, "Enrollment")
	}
	return &enrollment, nil
}

func (s *Store) EnrollmentsByStudent(studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := s.db.Where("student_id = ?", studentID).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *Store) EnrollmentsBySchool(schoolID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := s.db.Where("driving_school_id = ?", schoolID).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (s *Store) CourseByID(id uint) (*models.Course, error) {
	var course models.Course
	if err := s.db.First(&course, id).Error; err != nil {
		return nil, wrapNotFound(err, "Course")
	}
	return &course, nil
}

func (s *Store) CoursesByEnrollment(enrollmentID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := s.db.Where("enrollment_id = ?", enrollmentID).Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *Store) SessionByID(id uint) (*models.CourseSession, error) {
	var session models.CourseSession
	if err := s.db.First(&session, id).Error; err != nil {
		return nil, wrapNotFound(err, "Session")
	}
	return &session, nil
}

func (s *Store) SessionsByCourse(courseID uint) ([]models.CourseSession, error) {
	var sessions []models.CourseSession
	if err := s.db.Where("course_id = ?", courseID).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) QuizByID(id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := s.db.First(&quiz, id).Error; err != nil {
		return nil, wrapNotFound(err, "Quiz")
	}
	return &quiz, nil
}

func (s *Store) ExamByID(id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := s.db.First(&exam, id).Error; err != nil {
		return nil, wrapNotFound(err, "Exam")
	}
	return &exam, nil
}

func (s *Store) DocumentByID(id uint) (*models.Document, error) {
	var document models.Document
	if err := s.db.First(&document, id).Error; err != nil {
		return nil, wrapNotFound(err, "Document")
	}
	return &document, nil
}

func (s *Store) PaymentByTransaction(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("transaction_id = ?", transactionID).First(&payment).Error; err != nil {
		return nil, wrapNotFound(err, "Payment")
	}
	return &payment, nil
}

// CourseChain is a fully resolved course ownership chain.
type CourseChain struct {
	Course     *models.Course
	Enrollment *models.Enrollment
	School     *models.DrivingSchool
}

// ResolveCourse walks course -> enrollment -> school, short-circuiting with
// a NotFoundError naming the first missing link.
func (s *Store) ResolveCourse(courseID uint) (*CourseChain, error) {
	course, err := s.CourseByID(courseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.EnrollmentByID(course.EnrollmentID)
	if err != nil {
		return nil, err
	}
	school, err := s.SchoolByID(enrollment.DrivingSchoolID)
	if err != nil {
		return nil, err
	}
	return &CourseChain{Course: course, Enrollment: enrollment, School: school}, nil
}

// SessionChain is a fully resolved session ownership chain.
type SessionChain struct {
	Session *models.CourseSession
	CourseChain
}

// ResolveSession extends ResolveCourse by one link.
func (s *Store) ResolveSession(sessionID uint) (*SessionChain, error) {
	session, err := s.SessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	chain, err := s.ResolveCourse(session.CourseID)
	if err != nil {
		return nil, err
	}
	return &SessionChain{Session: session, CourseChain: *chain}, nil
}
