package util

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned when a value is not a UUID v4.
	ErrInvalidUUID = errors.New("invalid uuid v4")
	// ErrInvalidEmail is returned when an email address cannot be parsed.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPhone is returned when a phone number is not all digits.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrInvalidMetadata indicates metadata limits were exceeded.
	ErrInvalidMetadata = errors.New("invalid metadata")
)

// ParseUUIDv4 parses and validates a UUID string, ensuring it is version 4.
func ParseUUIDv4(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.UUID{}, fmt.Errorf("%w: value is empty", ErrInvalidUUID)
	}

	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	if u.Version() != 4 {
		return uuid.UUID{}, fmt.Errorf("%w: expected version 4", ErrInvalidUUID)
	}

	return u, nil
}

// NormalizeEmail validates and normalizes an email address. The returned
// value is lowercased and stripped of surrounding whitespace.
func NormalizeEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	// Display names make payloads non-deterministic.
	if addr.Name != "" || addr.Address == "" {
		return "", fmt.Errorf("%w: must not include display name", ErrInvalidEmail)
	}

	return strings.ToLower(addr.Address), nil
}

// ValidateDigits checks that the value consists entirely of digit characters.
// Phone recipients are expected in this bare form; no punctuation or country
// prefix markers are accepted.
func ValidateDigits(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%w: value is empty", ErrInvalidPhone)
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidPhone, value)
		}
	}
	return nil
}

// ValidateMetadata enforces entry count and key/value length limits on a
// metadata map, returning the map unchanged when it passes. Limits of zero
// disable the corresponding check.
func ValidateMetadata(meta map[string]string, maxEntries, maxKeyLen, maxValueLen int) (map[string]string, error) {
	if len(meta) == 0 {
		return meta, nil
	}
	if maxEntries > 0 && len(meta) > maxEntries {
		return nil, fmt.Errorf("%w: more than %d entries", ErrInvalidMetadata, maxEntries)
	}
	for k, v := range meta {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidMetadata)
		}
		if maxKeyLen > 0 && utf8.RuneCountInString(k) > maxKeyLen {
			return nil, fmt.Errorf("%w: key %q exceeds %d characters", ErrInvalidMetadata, k, maxKeyLen)
		}
		if maxValueLen > 0 && utf8.RuneCountInString(v) > maxValueLen {
			return nil, fmt.Errorf("%w: value for key %q exceeds %d characters", ErrInvalidMetadata, k, maxValueLen)
		}
	}
	return meta, nil
}
