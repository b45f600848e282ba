package core

import (
	"regexp"
	"strings"
	"unicode"
)

// RecordDelimiter separates the editor name from the timestamp on the second
// record line. User names may not contain it.
const RecordDelimiter = " on "

// ReservedHolderPrefix marks lock holders used by system operations.
// User names may not start with it.
const ReservedHolderPrefix = "@"

const maxIDLength = 255

var (
	illegalIDChars  = regexp.MustCompile(`[/\\?<>:*|"]`)
	controlIDChars  = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedIDRe    = regexp.MustCompile(`^\.+$`)
	windowsReserved = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	windowsTrailing = regexp.MustCompile(`[. ]+$`)
)

// SanitizeID strips everything that is not safe to use as a file name:
// path separators, traversal sequences, control and reserved characters.
func SanitizeID(id string) string {
	s := illegalIDChars.ReplaceAllString(id, "")
	s = controlIDChars.ReplaceAllString(s, "")
	s = reservedIDRe.ReplaceAllString(s, "")
	s = windowsReserved.ReplaceAllString(s, "")
	s = windowsTrailing.ReplaceAllString(s, "")
	if len(s) > maxIDLength {
		s = s[:maxIDLength]
	}
	return s
}

// ValidateID rejects identifiers that are empty or that sanitization would alter.
func ValidateID(id string) error {
	if id == "" || SanitizeID(id) != id {
		return NewValidationError("id", "Invalid note ID")
	}
	return nil
}

// RequireField fails when value is blank after trimming.
// The message follows the "<Field> is required" convention used on the wire.
func RequireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, capitalize(field)+" is required")
	}
	return nil
}

// ValidateNoteFields checks the inputs of a record write, in title, content, user order.
// Values that would break the line-oriented record header are rejected rather than altered.
func ValidateNoteFields(title, content, user string) error {
	if err := RequireField("title", title); err != nil {
		return err
	}
	if err := RequireField("content", content); err != nil {
		return err
	}
	if err := RequireField("user", user); err != nil {
		return err
	}
	if strings.ContainsAny(title, "\r\n") {
		return NewValidationError("title", "Title must be a single line")
	}
	return validateEditor("user", user)
}

// ValidateUserName checks a name at registration time.
func ValidateUserName(name string) error {
	return ValidateEditor("name", name)
}

// ValidateEditor checks a name that will act on notes or hold a lock.
// Names reserved for system lock holders are refused.
func ValidateEditor(field, name string) error {
	if err := RequireField(field, name); err != nil {
		return err
	}
	return validateEditor(field, name)
}

func validateEditor(field, name string) error {
	if strings.HasPrefix(name, ReservedHolderPrefix) {
		return NewValidationError(field, capitalize(field)+" may not start with "+ReservedHolderPrefix)
	}
	if strings.ContainsAny(name, "\r\n") {
		return NewValidationError(field, capitalize(field)+" must be a single line")
	}
	if strings.Contains(name, RecordDelimiter) {
		return NewValidationError(field, capitalize(field)+" may not contain \""+strings.TrimSpace(RecordDelimiter)+"\" surrounded by spaces")
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
