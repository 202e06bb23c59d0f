package policy

import (
	"testing"

	"autoecole_go/models"
)

func user(id uint, role string) *models.User {
	return &models.User{BaseModel: models.BaseModel{ID: id}, Role: role}
}

func courseChain(studentID, managerID uint, teacherID *uint) (*models.Course, *models.Enrollment, *models.DrivingSchool) {
	course := &models.Course{BaseModel: models.BaseModel{ID: 30}, EnrollmentID: 20, TeacherID: teacherID}
	enrollment := &models.Enrollment{BaseModel: models.BaseModel{ID: 20}, StudentID: studentID, DrivingSchoolID: 10}
	school := &models.DrivingSchool{BaseModel: models.BaseModel{ID: 10}, ManagerID: managerID}
	return course, enrollment, school
}

func TestCanAccessCourse(t *testing.T) {
	assigned := uint(7)
	tests := []struct {
		name    string
		caller  *models.User
		teacher *models.Teacher
		allowed bool
	}{
		{
			name:    "owning student",
			caller:  user(1, models.RoleStudent),
			allowed: true,
		},
		{
			name:    "other student",
			caller:  user(2, models.RoleStudent),
			allowed: false,
		},
		{
			name:    "assigned teacher",
			caller:  user(3, models.RoleTeacher),
			teacher: &models.Teacher{BaseModel: models.BaseModel{ID: 7}, UserID: 3},
			allowed: true,
		},
		{
			name:    "unassigned teacher",
			caller:  user(4, models.RoleTeacher),
			teacher: &models.Teacher{BaseModel: models.BaseModel{ID: 8}, UserID: 4},
			allowed: false,
		},
		{
			name:    "teacher without profile",
			caller:  user(4, models.RoleTeacher),
			allowed: false,
		},
		{
			name:    "owning manager",
			caller:  user(5, models.RoleManager),
			allowed: true,
		},
		{
			name:    "other manager",
			caller:  user(6, models.RoleManager),
			allowed: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			course, enrollment, school := courseChain(1, 5, &assigned)
			err := CanAccessCourse(tc.caller, tc.teacher, course, enrollment, school)
			if tc.allowed && err != nil {
				t.Fatalf("expected access, got %v", err)
			}
			if !tc.allowed && err != ErrForbidden {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestCanAccessEnrollment(t *testing.T) {
	enrollment := &models.Enrollment{BaseModel: models.BaseModel{ID: 20}, StudentID: 1, DrivingSchoolID: 10}
	school := &models.DrivingSchool{BaseModel: models.BaseModel{ID: 10}, ManagerID: 5}

	if err := CanAccessEnrollment(user(1, models.RoleStudent), enrollment, school); err != nil {
		t.Fatalf("owner student: %v", err)
	}
	if err := CanAccessEnrollment(user(2, models.RoleStudent), enrollment, school); err != ErrForbidden {
		t.Fatalf("foreign student should be forbidden, got %v", err)
	}
	if err := CanAccessEnrollment(user(5, models.RoleManager), enrollment, school); err != nil {
		t.Fatalf("owning manager: %v", err)
	}
	// Teachers never reach enrollments directly, only through courses.
	if err := CanAccessEnrollment(user(3, models.RoleTeacher), enrollment, school); err != ErrForbidden {
		t.Fatalf("teacher should be forbidden, got %v", err)
	}
}

func TestCanAccessSessionCreator(t *testing.T) {
	course, enrollment, school := courseChain(1, 5, nil)
	session := &models.CourseSession{BaseModel: models.BaseModel{ID: 40}, CourseID: 30, TeacherID: 9}
	creator := &models.Teacher{BaseModel: models.BaseModel{ID: 9}, UserID: 3}

	if err := CanAccessSession(user(3, models.RoleTeacher), creator, session, course, enrollment, school); err != nil {
		t.Fatalf("session creator should have access, got %v", err)
	}

	other := &models.Teacher{BaseModel: models.BaseModel{ID: 11}, UserID: 4}
	if err := CanAccessSession(user(4, models.RoleTeacher), other, session, course, enrollment, school); err != ErrForbidden {
		t.Fatalf("unrelated teacher should be forbidden, got %v", err)
	}
}

func TestCanManageCourse(t *testing.T) {
	school := &models.DrivingSchool{BaseModel: models.BaseModel{ID: 10}, ManagerID: 5}
	if err := CanManageCourse(user(5, models.RoleManager), school); err != nil {
		t.Fatalf("owning manager: %v", err)
	}
	if err := CanManageCourse(user(6, models.RoleManager), school); err != ErrForbidden {
		t.Fatalf("other manager should be forbidden, got %v", err)
	}
	if err := CanManageCourse(user(1, models.RoleStudent), school); err != ErrForbidden {
		t.Fatalf("student should be forbidden, got %v", err)
	}
}

func TestCanViewDocuments(t *testing.T) {
	enrollments := []models.Enrollment{{StudentID: 1, DrivingSchoolID: 10}}

	if err := CanViewDocuments(user(1, models.RoleStudent), nil, 1, nil); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := CanViewDocuments(user(5, models.RoleManager), nil, 1, enrollments); err != nil {
		t.Fatalf("manager: %v", err)
	}

	sameSchool := &models.Teacher{BaseModel: models.BaseModel{ID: 7}, DrivingSchoolID: 10}
	if err := CanViewDocuments(user(3, models.RoleTeacher), sameSchool, 1, enrollments); err != nil {
		t.Fatalf("teacher of enrolled school: %v", err)
	}

	otherSchool := &models.Teacher{BaseModel: models.BaseModel{ID: 8}, DrivingSchoolID: 99}
	if err := CanViewDocuments(user(4, models.RoleTeacher), otherSchool, 1, enrollments); err != ErrForbidden {
		t.Fatalf("teacher of another school should be forbidden, got %v", err)
	}

	if err := CanViewDocuments(user(2, models.RoleStudent), nil, 1, enrollments); err != ErrForbidden {
		t.Fatalf("foreign student should be forbidden, got %v", err)
	}
}
