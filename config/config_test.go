package config

import (
	"testing"
	"time"
)

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Duration
	}{
		{name: "go duration", input: "24h", want: 24 * time.Hour},
		{name: "minutes", input: "15m", want: 15 * time.Minute},
		{name: "days shorthand", input: "30d", want: 30 * 24 * time.Hour},
		{name: "weeks shorthand", input: "2w", want: 14 * 24 * time.Hour},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExpiry(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseExpiryInvalid(t *testing.T) {
	if _, err := ParseExpiry("soon"); err == nil {
		t.Fatalf("expected error for invalid input")
	}
}
