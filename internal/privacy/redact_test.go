package privacy

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "email redaction",
			input:    "My email is john.doe@example.com",
			expected: "My email is [EMAIL]",
		},
		{
			name:     "phone redaction",
			input:    "Call me at 555-123-4567",
			expected: "Call me at [PHONE]",
		},
		{
			name:     "international phone",
			input:    "Reach me on +234 803 555 1234 please",
			expected: "Reach me on [PHONE] please",
		},
		{
			name:     "SSN redaction",
			input:    "My SSN is 123-45-6789",
			expected: "My SSN is [SSN]",
		},
		{
			name:     "credit card redaction",
			input:    "Card: 4532-1234-5678-9010",
			expected: "Card: [CARD]",
		},
		{
			name:     "medical record number",
			input:    "mrn: AB123456 has chest pain",
			expected: "[MEDICAL_ID] has chest pain",
		},
		{
			name:     "patient id",
			input:    "Patient ID 00012345 labs attached",
			expected: "[MEDICAL_ID] labs attached",
		},
		{
			name:     "date of birth",
			input:    "DOB: 12/03/1984, fever since Monday",
			expected: "[DOB], fever since Monday",
		},
		{
			name:     "multiple PII types",
			input:    "Email: test@test.com, Phone: 555-1234",
			expected: "Email: [EMAIL], Phone: [PHONE]",
		},
		{
			name:     "vital signs untouched",
			input:    "Temp 38.5, BP 140/90, HR 110, glucose 180 mg/dL",
			expected: "Temp 38.5, BP 140/90, HR 110, glucose 180 mg/dL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RedactSensitiveData(tt.input)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestContainsPII(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "contains email", input: "Contact me at user@example.com", expected: true},
		{name: "contains phone", input: "My number is 555-1234", expected: true},
		{name: "contains MRN", input: "MRN 9988776655", expected: true},
		{name: "symptoms only", input: "I have had a headache for 3 days", expected: false},
		{name: "lab values", input: "Hemoglobin 13.5 g/dL, WBC 11000", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPII(tt.input); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSanitizeForLogging(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "ascii", input: strings.Repeat("a", 250)},
		{name: "multibyte", input: strings.Repeat("é", 250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLogging(tt.input)

			if n := utf8.RuneCountInString(result); n != maxLogLength {
				t.Errorf("got %d runes, want %d", n, maxLogLength)
			}
			if !utf8.ValidString(result) {
				t.Error("truncation produced invalid UTF-8")
			}
			if !strings.HasSuffix(result, "...") {
				t.Error("truncated text should end with '...'")
			}
		})
	}

	if got := SanitizeForLogging("call 555-1234"); got != "call [PHONE]" {
		t.Errorf("short text = %q", got)
	}
}

func TestHashUserID(t *testing.T) {
	a := HashUserID("42")
	if a != HashUserID("42") {
		t.Error("hash is not stable")
	}
	if a == HashUserID("43") {
		t.Error("different users hashed to the same value")
	}
	if !strings.HasPrefix(a, "user_") || len(a) != len("user_")+8 {
		t.Errorf("unexpected format %q", a)
	}
	if HashUserID("") != "anonymous" {
		t.Errorf("empty user = %q", HashUserID(""))
	}
}
