package privacy

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"unicode/utf8"
)

const maxLogLength = 200

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: longer digit groups are replaced before phone numbers so a
// card or SSN is never half-matched as a phone.
var rules = []rule{
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
	{regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`), "[CARD]"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
	{regexp.MustCompile(`(?i)\b(?:dob|date of birth|born on)[:\s]*\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`), "[DOB]"},
	{regexp.MustCompile(`(?i)\b(?:mrn|medical record(?: number)?|patient id|hospital number)[-#:\s]+[A-Z]{0,4}\d[A-Z0-9]{4,}\b`), "[MEDICAL_ID]"},
	{regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}\b|\b\d{3}[-.\s]\d{4}\b`), "[PHONE]"},
}

// RedactSensitiveData replaces contact details, identifiers and birth dates
// with placeholders. Clinical numbers such as "38.5", "140/90" or
// "HR 110" are left alone.
func RedactSensitiveData(text string) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}

// SanitizeForLogging redacts and truncates text for log fields
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)
	if utf8.RuneCountInString(redacted) <= maxLogLength {
		return redacted
	}

	runes := []rune(redacted)
	return string(runes[:maxLogLength-3]) + "..."
}

// SanitizeForAPI removes PII before text leaves the service (LLM calls, persistence)
func SanitizeForAPI(text string) string {
	return RedactSensitiveData(text)
}

// ContainsPII checks if text contains potential PII
func ContainsPII(text string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// HashUserID returns a stable pseudonym for log correlation without exposing the raw ID
func HashUserID(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	h := fnv.New32a()
	h.Write([]byte(userID))
	return fmt.Sprintf("user_%08x", h.Sum32())
}
