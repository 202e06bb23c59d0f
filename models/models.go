package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Role values
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleManager = "manager"
)

// Gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Course track types
const (
	CourseTheory = "theory"
	CoursePark   = "park"
	CourseRoad   = "road"
)

// Course status values
const (
	CourseNotStarted = "not_started"
	CourseInProgress = "in_progress"
	CourseCompleted  = "completed"
	CourseFailed     = "failed"
)

// Exam status values on a course
const (
	ExamNotTaken = "not_taken"
	ExamPassed   = "passed"
	ExamFailed   = "failed"
)

// Enrollment payment status values
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment record status values (gateway side)
const (
	TransactionPending = "pending"
	TransactionSuccess = "success"
	TransactionFailed  = "failed"
)

// Document type tags
const (
	DocProfilePhoto       = "profile_photo"
	DocIDCard             = "id_card"
	DocMedicalCertificate = "medical_certificate"
	DocDrivingLicense     = "driving_license"
	DocTeachingLicense    = "teaching_license"
)

// CourseTrack describes one of the three fixed tracks generated per enrollment.
type CourseTrack struct {
	Type     string
	Sessions int
}

// DefaultCourseTracks returns the fixed tracks created for every new enrollment.
func DefaultCourseTracks() []CourseTrack {
	return []CourseTrack{
		{Type: CourseTheory, Sessions: 10},
		{Type: CoursePark, Sessions: 5},
		{Type: CourseRoad, Sessions: 15},
	}
}

// User model
type User struct {
	BaseModel
	Email       string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password    string `json:"-" gorm:"size:255;not null"`
	FirstName   string `json:"first_name" gorm:"size:100;not null"`
	LastName    string `json:"last_name" gorm:"size:100;not null"`
	Phone       string `json:"phone" gorm:"size:20"`
	Address     string `json:"address" gorm:"size:500"`
	DateOfBirth string `json:"date_of_birth" gorm:"size:20"`
	Gender      string `json:"gender" gorm:"size:10;not null;type:enum('male','female')"`
	Role        string `json:"role" gorm:"size:20;not null;default:'student';type:enum('student','teacher','manager')"`
	Active      bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Teacher   *Teacher   `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
	Documents []Document `json:"documents,omitempty" gorm:"foreignKey:UserID"`
}

// DrivingSchool model. State must be one of the 58 wilayas.
type DrivingSchool struct {
	BaseModel
	Name         string   `json:"name" gorm:"size:255;not null"`
	Address      string   `json:"address" gorm:"size:500;not null"`
	State        string   `json:"state" gorm:"size:100;not null;index"`
	Phone        string   `json:"phone" gorm:"size:20"`
	Email        string   `json:"email" gorm:"size:255"`
	Description  string   `json:"description" gorm:"type:text"`
	LogoURL      string   `json:"logo_url" gorm:"size:500"`
	Photos       JSON     `json:"photos" gorm:"type:json"`
	Price        float64  `json:"price" gorm:"not null"`
	Rating       float64  `json:"rating" gorm:"default:0"`
	TotalReviews int      `json:"total_reviews" gorm:"default:0"`
	ManagerID    uint     `json:"manager_id" gorm:"not null;index"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`

	// Relationships
	Manager  User      `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	Teachers []Teacher `json:"teachers,omitempty" gorm:"foreignKey:DrivingSchoolID"`
}

// Teacher links a user to exactly one driving school for its lifetime.
type Teacher struct {
	BaseModel
	UserID             uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	DrivingSchoolID    uint    `json:"driving_school_id" gorm:"not null;index"`
	DrivingLicenseURL  string  `json:"driving_license_url" gorm:"size:500"`
	TeachingLicenseURL string  `json:"teaching_license_url" gorm:"size:500"`
	PhotoURL           string  `json:"photo_url" gorm:"size:500"`
	CanTeachMale       bool    `json:"can_teach_male" gorm:"default:true"`
	CanTeachFemale     bool    `json:"can_teach_female" gorm:"default:true"`
	Rating             float64 `json:"rating" gorm:"default:0"`
	TotalReviews       int     `json:"total_reviews" gorm:"default:0"`

	// Relationships
	User          User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	DrivingSchool DrivingSchool `json:"driving_school,omitempty" gorm:"foreignKey:DrivingSchoolID"`
}

// Enrollment links one student to one school. The unique index over
// (student_id, driving_school_id) makes concurrent duplicate enrollments
// lose at the database rather than at the check-then-insert race.
type Enrollment struct {
	BaseModel
	StudentID       uint       `json:"student_id" gorm:"not null;uniqueIndex:uniq_student_school"`
	DrivingSchoolID uint       `json:"driving_school_id" gorm:"not null;uniqueIndex:uniq_student_school"`
	Amount          float64    `json:"amount" gorm:"not null"`
	PaymentStatus   string     `json:"payment_status" gorm:"size:20;not null;default:'pending';type:enum('pending','completed','failed')"`
	IsApproved      bool       `json:"is_approved" gorm:"default:false"`
	ApprovedAt      *time.Time `json:"approved_at"`

	// Relationships
	Student       User          `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	DrivingSchool DrivingSchool `json:"driving_school,omitempty" gorm:"foreignKey:DrivingSchoolID"`
	Courses       []Course      `json:"courses,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// Course is one of the three fixed tracks generated per enrollment.
type Course struct {
	BaseModel
	EnrollmentID      uint     `json:"enrollment_id" gorm:"not null;index"`
	CourseType        string   `json:"course_type" gorm:"size:20;not null;type:enum('theory','park','road')"`
	Status            string   `json:"status" gorm:"size:20;not null;default:'not_started';type:enum('not_started','in_progress','completed','failed')"`
	TeacherID         *uint    `json:"teacher_id" gorm:"index"`
	CompletedSessions int      `json:"completed_sessions" gorm:"default:0"`
	TotalSessions     int      `json:"total_sessions" gorm:"not null"`
	ExamStatus        string   `json:"exam_status" gorm:"size:20;not null;default:'not_taken';type:enum('not_taken','passed','failed')"`
	ExamScore         *float64 `json:"exam_score"`

	// Relationships
	Enrollment Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
	Teacher    *Teacher   `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// CourseSession is a single scheduled teaching occurrence within a course.
// Status stays a free-form string (scheduled, completed, cancelled).
type CourseSession struct {
	BaseModel
	CourseID        uint      `json:"course_id" gorm:"not null;index"`
	TeacherID       uint      `json:"teacher_id" gorm:"index"`
	StudentID       uint      `json:"student_id" gorm:"index"`
	ScheduledTime   time.Time `json:"scheduled_time"`
	DurationMinutes int       `json:"duration_minutes" gorm:"default:60"`
	Status          string    `json:"status" gorm:"size:50;default:'scheduled'"`
	Notes           string    `json:"notes" gorm:"type:text"`
	RoomURL         string    `json:"room_url" gorm:"size:500"`
	RoomName        string    `json:"room_name" gorm:"size:255"`
	RecordingURL    string    `json:"recording_url" gorm:"size:500"`

	// Relationships
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// Document belongs to exactly one user.
type Document struct {
	BaseModel
	UserID       uint       `json:"user_id" gorm:"not null;index"`
	DocumentType string     `json:"document_type" gorm:"size:50;not null;type:enum('profile_photo','id_card','medical_certificate','driving_license','teaching_license')"`
	FileURL      string     `json:"file_url" gorm:"size:500;not null"`
	FileName     string     `json:"file_name" gorm:"size:255"`
	FileSize     int64      `json:"file_size"`
	IsVerified   bool       `json:"is_verified" gorm:"default:false"`
	VerifiedBy   *uint      `json:"verified_by"`
	VerifiedAt   *time.Time `json:"verified_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// QuizQuestion is one entry of the ordered question list stored on a quiz.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// Quiz belongs to one theory course.
type Quiz struct {
	BaseModel
	CourseID         uint    `json:"course_id" gorm:"not null;index"`
	Title            string  `json:"title" gorm:"size:255;not null"`
	Questions        JSON    `json:"questions" gorm:"type:json"`
	TimeLimitMinutes int     `json:"time_limit_minutes" gorm:"default:30"`
	PassingScore     float64 `json:"passing_score" gorm:"default:70"`

	// Relationships
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// QuestionList decodes the stored question JSON.
func (q *Quiz) QuestionList() ([]QuizQuestion, error) {
	if q.Questions.IsNull() {
		return nil, nil
	}
	var questions []QuizQuestion
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// QuizAttempt belongs to one quiz and one student.
type QuizAttempt struct {
	BaseModel
	QuizID      uint      `json:"quiz_id" gorm:"not null;index"`
	StudentID   uint      `json:"student_id" gorm:"not null;index"`
	Answers     JSON      `json:"answers" gorm:"type:json"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completed_at"`

	// Relationships
	Quiz Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
}

// Exam belongs to one course and is scheduled/completed by a manager.
type Exam struct {
	BaseModel
	CourseID      uint      `json:"course_id" gorm:"not null;index"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Location      string    `json:"location" gorm:"size:500"`
	Completed     bool      `json:"completed" gorm:"default:false"`
	Score         *float64  `json:"score"`
	Passed        *bool     `json:"passed"`

	// Relationships
	Course Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// Review targets either a school or a teacher, never both. At most one
// review per (student, target) pair, enforced by the unique indexes.
type Review struct {
	BaseModel
	StudentID uint    `json:"student_id" gorm:"not null;uniqueIndex:uniq_student_school_review;uniqueIndex:uniq_student_teacher_review"`
	SchoolID  *uint   `json:"school_id" gorm:"uniqueIndex:uniq_student_school_review"`
	TeacherID *uint   `json:"teacher_id" gorm:"uniqueIndex:uniq_student_teacher_review"`
	Rating    float64 `json:"rating" gorm:"not null"`
	Comment   string  `json:"comment" gorm:"type:text"`

	// Relationships
	Student User `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// Payment records one gateway transaction against an enrollment.
type Payment struct {
	BaseModel
	EnrollmentID  uint    `json:"enrollment_id" gorm:"not null;index"`
	TransactionID string  `json:"transaction_id" gorm:"size:100;not null;uniqueIndex"`
	Amount        float64 `json:"amount" gorm:"not null"`
	Status        string  `json:"status" gorm:"size:20;not null;default:'pending';type:enum('pending','success','failed')"`

	// Relationships
	Enrollment Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// ActivityLog tracks API activity for the audit trail.
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`
}

// LogArchive records one batch of activity logs shipped to S3.
type LogArchive struct {
	BaseModel
	ArchiveKey string    `json:"archive_key" gorm:"size:500;not null"`
	FromDate   time.Time `json:"from_date"`
	ToDate     time.Time `json:"to_date"`
	LogCount   int       `json:"log_count"`
	SizeBytes  int64     `json:"size_bytes"`
}
