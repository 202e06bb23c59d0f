package utils

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatalf("plaintext must never be stored")
	}
	if err := CheckPassword("correct horse battery", hash); err != nil {
		t.Fatalf("expected matching password, got %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{"student", "teacher", "manager"} {
		if !IsValidRole(role) {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	for _, role := range []string{"guest", "admin", ""} {
		if IsValidRole(role) {
			t.Fatalf("expected %q to be invalid", role)
		}
	}
}

func TestIsAllowedUploadType(t *testing.T) {
	tests := []struct {
		contentType string
		allowed     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"application/pdf", true},
		{"IMAGE/PNG", true},
		{"text/plain", false},
		{"image/gif", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsAllowedUploadType(tc.contentType); got != tc.allowed {
			t.Fatalf("IsAllowedUploadType(%q) = %v, want %v", tc.contentType, got, tc.allowed)
		}
	}
}

func TestIsValidDocumentType(t *testing.T) {
	if !IsValidDocumentType("medical_certificate") {
		t.Fatalf("expected medical_certificate to be valid")
	}
	if IsValidDocumentType("passport") {
		t.Fatalf("expected passport to be invalid")
	}
}
