package errors

import (
	"testing"
)

func TestValidateSiteHost(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid cloud site", "example.atlassian.net", false},
		{"valid with port", "jira.internal:8443", false},
		{"valid localhost", "localhost", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"scheme", "https://example.atlassian.net", true},
		{"path", "example.atlassian.net/jira", true},
		{"query", "example.atlassian.net?x=1", true},
		{"credentials", "user@example.atlassian.net", true},
		{"space", "example atlassian.net", true},
		{"newline", "example.net\n", true},
		{"backslash", "example\\net", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSiteHost(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSiteHost(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidHost) {
				t.Errorf("ValidateSiteHost(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidHost)
			}
		})
	}
}

func TestNormalizeSiteHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"example.atlassian.net", "example.atlassian.net"},
		{"  example.atlassian.net  ", "example.atlassian.net"},
		{"https://example.atlassian.net/", "example.atlassian.net"},
		{"http://jira.local:8080", "jira.local:8080"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSiteHost(tt.input); got != tt.want {
				t.Errorf("NormalizeSiteHost(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
