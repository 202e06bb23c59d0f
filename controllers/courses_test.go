package controllers

import (
	"testing"

	"autoecole_go/models"
)

func teacherWith(id uint, rating float64, male, female bool) models.Teacher {
	return models.Teacher{
		BaseModel:      models.BaseModel{ID: id},
		Rating:         rating,
		CanTeachMale:   male,
		CanTeachFemale: female,
	}
}

func TestGenderCompatible(t *testing.T) {
	tests := []struct {
		name       string
		courseType string
		gender     string
		teacher    models.Teacher
		want       bool
	}{
		{"theory always compatible", models.CourseTheory, models.GenderFemale, teacherWith(1, 4, true, false), true},
		{"park female allowed", models.CoursePark, models.GenderFemale, teacherWith(1, 4, false, true), true},
		{"park female blocked", models.CoursePark, models.GenderFemale, teacherWith(1, 4, true, false), false},
		{"road male allowed", models.CourseRoad, models.GenderMale, teacherWith(1, 4, true, false), true},
		{"road male allowed regardless of flag", models.CourseRoad, models.GenderMale, teacherWith(1, 4, false, true), true},
		{"unknown gender allowed on practical", models.CourseRoad, "", teacherWith(1, 4, false, false), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := genderCompatible(tt.courseType, tt.gender, tt.teacher)
			if got != tt.want {
				t.Fatalf("genderCompatible(%q, %q) = %v, want %v", tt.courseType, tt.gender, got, tt.want)
			}
		})
	}
}

func TestPickTeacher(t *testing.T) {
	tests := []struct {
		name       string
		teachers   []models.Teacher
		gender     string
		courseType string
		wantID     uint
		wantNil    bool
	}{
		{
			name: "highest rating wins",
			teachers: []models.Teacher{
				teacherWith(1, 3.5, true, true),
				teacherWith(2, 4.8, true, true),
				teacherWith(3, 4.2, true, true),
			},
			gender:     models.GenderMale,
			courseType: models.CourseRoad,
			wantID:     2,
		},
		{
			name: "tie broken by lowest id",
			teachers: []models.Teacher{
				teacherWith(7, 4.5, true, true),
				teacherWith(3, 4.5, true, true),
			},
			gender:     models.GenderFemale,
			courseType: models.CoursePark,
			wantID:     3,
		},
		{
			name: "incompatible teachers skipped",
			teachers: []models.Teacher{
				teacherWith(1, 5.0, true, false),
				teacherWith(2, 2.0, true, true),
			},
			gender:     models.GenderFemale,
			courseType: models.CourseRoad,
			wantID:     2,
		},
		{
			name: "male student assignable regardless of flags",
			teachers: []models.Teacher{
				teacherWith(4, 3.9, false, true),
			},
			gender:     models.GenderMale,
			courseType: models.CourseRoad,
			wantID:     4,
		},
		{
			name: "theory ignores capability flags",
			teachers: []models.Teacher{
				teacherWith(1, 1.0, false, false),
			},
			gender:     models.GenderFemale,
			courseType: models.CourseTheory,
			wantID:     1,
		},
		{
			name: "no compatible teacher",
			teachers: []models.Teacher{
				teacherWith(1, 5.0, true, false),
			},
			gender:     models.GenderFemale,
			courseType: models.CoursePark,
			wantNil:    true,
		},
		{
			name:       "empty roster",
			teachers:   nil,
			gender:     models.GenderMale,
			courseType: models.CourseTheory,
			wantNil:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickTeacher(tt.teachers, tt.gender, tt.courseType)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("pickTeacher() = teacher %d, want nil", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("pickTeacher() = nil, want teacher %d", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Fatalf("pickTeacher() = teacher %d, want teacher %d", got.ID, tt.wantID)
			}
		})
	}
}
