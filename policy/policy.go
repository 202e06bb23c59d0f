// Package policy holds the access-control predicates. Every function takes
// already-resolved entities and answers "may this caller touch this thing";
// no database access happens here, which keeps the rules testable in
// isolation. Callers translate ErrForbidden into a 403.
package policy

import (
	"errors"

	"autoecole_go/models"
)

// ErrForbidden means the caller is authenticated but does not own the
// resource chain.
var ErrForbidden = errors.New("forbidden")

// CanAccessEnrollment grants the owning student and the manager of the
// school. Teachers reach enrollments only through their assigned courses.
func CanAccessEnrollment(user *models.User, enrollment *models.Enrollment, school *models.DrivingSchool) error {
	switch user.Role {
	case models.RoleStudent:
		if enrollment.StudentID == user.ID {
			return nil
		}
	case models.RoleManager:
		if school.ManagerID == user.ID {
			return nil
		}
	}
	return ErrForbidden
}

// CanAccessCourse grants the enrolled student, the assigned teacher and the
// manager owning the school. callerTeacher is the caller's teacher record
// when one exists, nil otherwise.
func CanAccessCourse(user *models.User, callerTeacher *models.Teacher, course *models.Course, enrollment *models.Enrollment, school *models.DrivingSchool) error {
	switch user.Role {
	case models.RoleStudent:
		if enrollment.StudentID == user.ID {
			return nil
		}
	case models.RoleTeacher:
		if callerTeacher != nil && course.TeacherID != nil && *course.TeacherID == callerTeacher.ID {
			return nil
		}
	case models.RoleManager:
		if school.ManagerID == user.ID {
			return nil
		}
	}
	return ErrForbidden
}

// CanAccessSession follows CanAccessCourse, additionally admitting the
// teacher who created the session record.
func CanAccessSession(user *models.User, callerTeacher *models.Teacher, session *models.CourseSession, course *models.Course, enrollment *models.Enrollment, school *models.DrivingSchool) error {
	if user.Role == models.RoleTeacher && callerTeacher != nil && session.TeacherID == callerTeacher.ID {
		return nil
	}
	return CanAccessCourse(user, callerTeacher, course, enrollment, school)
}

// CanManageCourse restricts course mutations (teacher assignment, exams) to
// the manager owning the school in the course's chain.
func CanManageCourse(user *models.User, school *models.DrivingSchool) error {
	if user.Role == models.RoleManager && school.ManagerID == user.ID {
		return nil
	}
	return ErrForbidden
}

// CanViewDocuments grants managers unconditionally and teachers only when
// the document owner has an enrollment at the teacher's school.
// ownerEnrollments are the enrollments of the document owner.
func CanViewDocuments(user *models.User, callerTeacher *models.Teacher, ownerID uint, ownerEnrollments []models.Enrollment) error {
	if user.ID == ownerID {
		return nil
	}
	switch user.Role {
	case models.RoleManager:
		return nil
	case models.RoleTeacher:
		if callerTeacher == nil {
			return ErrForbidden
		}
		for _, e := range ownerEnrollments {
			if e.DrivingSchoolID == callerTeacher.DrivingSchoolID {
				return nil
			}
		}
	}
	return ErrForbidden
}
