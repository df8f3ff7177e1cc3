package render

import (
	"strings"

	"github.com/matzehuels/releaseboard/pkg/errors"
)

// Format identifies an output representation.
type Format string

// Supported formats.
const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatHTML

// Formats lists the canonical formats in display order.
var Formats = []Format{FormatHTML, FormatMarkdown, FormatJSON}

var formatAliases = map[string]Format{
	"html":     FormatHTML,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"json":     FormatJSON,
}

// ParseFormat maps a requested format to a canonical one. Matching ignores
// case and surrounding space; anything unrecognized yields [FormatHTML].
func ParseFormat(s string) Format {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return DefaultFormat
}

// ParseFormatStrict is like ParseFormat but rejects unknown values, for
// command-line flags where a typo should not silently produce HTML.
// An empty string selects the default.
func ParseFormatStrict(s string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultFormat, nil
	}
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"invalid format %q (must be one of: html, markdown, md, json)", s)
}

// String returns the canonical name.
func (f Format) String() string { return string(f) }

// ContentType returns the HTTP Content-Type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}
