package errors

import (
	"strings"
	"unicode"
)

// ValidateSiteHost validates the tracking site hostname used to build both
// API and browser URLs. The host is interpolated into URLs verbatim, so it
// must be a bare host[:port] without scheme, path, query or whitespace.
func ValidateSiteHost(host string) error {
	if host == "" {
		return New(ErrCodeInvalidHost, "site host cannot be empty")
	}

	const maxHostLength = 253
	if len(host) > maxHostLength {
		return New(ErrCodeInvalidHost, "site host too long (max %d characters)", maxHostLength)
	}

	for _, r := range host {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidHost, "site host contains invalid characters")
		}
	}

	if strings.Contains(host, "://") {
		return New(ErrCodeInvalidHost, "site host must not include a scheme: %q", host)
	}

	if strings.ContainsAny(host, "/?#@\\") {
		return New(ErrCodeInvalidHost, "site host must not include a path, query or credentials: %q", host)
	}

	return nil
}

// NormalizeSiteHost strips a leading scheme and trailing slashes that users
// commonly paste along with the hostname.
func NormalizeSiteHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}
