package validation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Standard messages, phrased to read after the field name.
const (
	MsgBlank       = "can't be blank"
	MsgTaken       = "has already been taken"
	MsgNotValid    = "is invalid"
	MsgNotIncluded = "is not included in the list"
)

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Errors collects field-level validation failures. A nil or empty Errors
// means the input is valid.
type Errors map[string][]string

// Add records a message against a field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether at least one failure was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Err returns e as an error, or nil when there are no failures.
func (e Errors) Err() error {
	if !e.Any() {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, msg := range e[f] {
			parts = append(parts, FullMessage(f, msg))
		}
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// FullMessage renders "title" + "can't be blank" as "Title can't be blank".
func FullMessage(field, msg string) string {
	name := strings.ReplaceAll(field, "_", " ")
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:] + " " + msg
}

// TooLong is the message for a field over its limit.
func TooLong(max int) string {
	return "is too long (maximum is " + strconv.Itoa(max) + " characters)"
}

// TooShort is the message for a field under its minimum.
func TooShort(min int) string {
	return "is too short (minimum is " + strconv.Itoa(min) + " characters)"
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// CharCount counts characters, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}
