package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var (
	tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	storePattern  = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,128}$`)
	reportPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
)

// AllowedUploadTypes are the mime types accepted by the media endpoint.
var AllowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
}

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateStoreID validates a store id taken from the URL.
func ValidateStoreID(id string) error {
	if !storePattern.MatchString(id) {
		return fmt.Errorf("invalid store ID format")
	}
	return nil
}

// ValidateReportID validates report ID format (uuid)
func ValidateReportID(id string) error {
	if !reportPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// ValidateUploadType checks a media upload mime type, ignoring parameters.
func ValidateUploadType(mime string) (string, error) {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))
	if !AllowedUploadTypes[base] {
		return "", fmt.Errorf("unsupported media type %q", mime)
	}
	return base, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidatePageSize validates pagination limit
func ValidatePageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

// ValidatePage clamps a 1-based page number.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
