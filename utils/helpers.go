package utils

import (
	"strings"

	"autoecole_go/models"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	switch role {
	case models.RoleStudent, models.RoleTeacher, models.RoleManager:
		return true
	}
	return false
}

// IsValidGender checks if a gender value is valid
func IsValidGender(gender string) bool {
	return gender == "male" || gender == "female"
}

// IsValidDocumentType checks if a document type tag is valid
func IsValidDocumentType(documentType string) bool {
	switch documentType {
	case models.DocProfilePhoto, models.DocIDCard, models.DocMedicalCertificate,
		models.DocDrivingLicense, models.DocTeachingLicense:
		return true
	}
	return false
}

// IsAllowedUploadType checks the multipart content type of an uploaded
// document against the accepted set (JPEG, PNG, PDF).
func IsAllowedUploadType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "application/pdf":
		return true
	}
	return false
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
