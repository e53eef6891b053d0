// utils/validator.go - Input validation
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// Materials upload limits: poster image up to 10MB, short paper up to 5MB.
const (
	PosterMaxSize = 10 * 1024 * 1024
	PaperMaxSize  = 5 * 1024 * 1024
)

var (
	posterMimeTypes = []string{"image/jpeg", "image/png"}
	paperMimeTypes  = []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// ValidateMaterialsFile checks a presentation materials upload against the
// poster/paper type and size requirements. fileType is "poster" or "paper".
func ValidateMaterialsFile(fileType, mimeType string, size int64) error {
	var allowed []string
	var maxSize int64
	switch fileType {
	case "poster":
		allowed, maxSize = posterMimeTypes, PosterMaxSize
	case "paper":
		allowed, maxSize = paperMimeTypes, PaperMaxSize
	default:
		return fmt.Errorf("unknown materials file type: %s", fileType)
	}

	valid := false
	for _, t := range allowed {
		if mimeType == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid %s file type %s (allowed: %s)", fileType, mimeType, strings.Join(allowed, ", "))
	}

	if size > maxSize {
		return fmt.Errorf("%s file too large: max %dMB, got %.2fMB",
			fileType, maxSize/(1024*1024), float64(size)/(1024*1024))
	}
	return nil
}
