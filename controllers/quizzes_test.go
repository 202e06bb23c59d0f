package controllers

import (
	"testing"

	"autoecole_go/models"
)

func TestScoreQuizAttempt(t *testing.T) {
	questions := []models.QuizQuestion{
		{Question: "Stop sign shape?", Options: []string{"circle", "octagon"}, CorrectAnswer: "octagon"},
		{Question: "Max urban speed?", Options: []string{"50", "80"}, CorrectAnswer: "50"},
		{Question: "Seatbelt required?", Options: []string{"yes", "no"}, CorrectAnswer: "yes"},
		{Question: "Right of way at roundabout?", Options: []string{"entering", "inside"}, CorrectAnswer: "inside"},
	}

	tests := []struct {
		name        string
		questions   []models.QuizQuestion
		answers     []string
		wantScore   float64
		wantCorrect int
	}{
		{"all correct", questions, []string{"octagon", "50", "yes", "inside"}, 100, 4},
		{"all wrong", questions, []string{"circle", "80", "no", "entering"}, 0, 0},
		{"half correct", questions, []string{"octagon", "50", "no", "entering"}, 50, 2},
		{"missing answers score against total", questions, []string{"octagon"}, 25, 1},
		{"extra answers ignored", questions, []string{"octagon", "50", "yes", "inside", "extra"}, 100, 4},
		{"no answers", questions, nil, 0, 0},
		{"empty quiz scores zero", nil, []string{"octagon"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct := scoreQuizAttempt(tt.questions, tt.answers)
			if score != tt.wantScore {
				t.Fatalf("score = %v, want %v", score, tt.wantScore)
			}
			if correct != tt.wantCorrect {
				t.Fatalf("correct = %d, want %d", correct, tt.wantCorrect)
			}
		})
	}
}
