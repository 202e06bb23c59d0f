package controllers

import "testing"

func TestRecomputeRating(t *testing.T) {
	tests := []struct {
		name       string
		ratings    []float64
		wantRating float64
		wantCount  int
	}{
		{"no reviews resets to zero", nil, 0, 0},
		{"single review", []float64{4}, 4, 1},
		{"mean rounded to one decimal", []float64{5, 4}, 4.5, 2},
		{"rounding up", []float64{5, 4, 4}, 4.3, 3},
		{"rounding down", []float64{3, 3, 4}, 3.3, 3},
		{"all fives", []float64{5, 5, 5, 5}, 5, 4},
		{"mixed extremes", []float64{1, 5}, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rating, count := recomputeRating(tt.ratings)
			if rating != tt.wantRating {
				t.Fatalf("rating = %v, want %v", rating, tt.wantRating)
			}
			if count != tt.wantCount {
				t.Fatalf("count = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestValidReviewRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   bool
	}{
		{0, false},
		{0.9, false},
		{1, true},
		{3.5, true},
		{5, true},
		{5.1, false},
		{-2, false},
	}

	for _, tt := range tests {
		if got := validReviewRating(tt.rating); got != tt.want {
			t.Fatalf("validReviewRating(%v) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}
