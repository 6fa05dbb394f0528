package util_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/example/notification-service/internal/util"
)

func TestParseUUIDv4(t *testing.T) {
	valid := uuid.NewString()
	if _, err := util.ParseUUIDv4(valid); err != nil {
		t.Fatalf("expected valid uuid, got %v", err)
	}
	if _, err := util.ParseUUIDv4("  " + valid + "  "); err != nil {
		t.Fatalf("expected trimmed uuid to parse, got %v", err)
	}
	if _, err := util.ParseUUIDv4(""); !errors.Is(err, util.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID for empty value, got %v", err)
	}
	if _, err := util.ParseUUIDv4("not-a-uuid"); !errors.Is(err, util.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID, got %v", err)
	}
	// v1 UUID must be rejected.
	if _, err := util.ParseUUIDv4("c232ab00-9414-11ec-b3c8-9f68deced846"); !errors.Is(err, util.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID for v1 uuid, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := util.NormalizeEmail("  User@Example.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user@example.com" {
		t.Fatalf("unexpected normalization: %s", got)
	}

	if _, err := util.NormalizeEmail(""); !errors.Is(err, util.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for empty value, got %v", err)
	}
	if _, err := util.NormalizeEmail("Bob <bob@example.com>"); !errors.Is(err, util.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail for display name, got %v", err)
	}
}

func TestValidateDigits(t *testing.T) {
	if err := util.ValidateDigits("9029187708"); err != nil {
		t.Fatalf("expected all-digit value to pass, got %v", err)
	}
	if err := util.ValidateDigits("abc@gmail"); !errors.Is(err, util.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if err := util.ValidateDigits("+4915112345678"); !errors.Is(err, util.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone for plus prefix, got %v", err)
	}
	if err := util.ValidateDigits(""); !errors.Is(err, util.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone for empty value, got %v", err)
	}
}

func TestValidateMetadata(t *testing.T) {
	meta := map[string]string{"a": "1", "b": "2"}
	if _, err := util.ValidateMetadata(meta, 2, 10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := util.ValidateMetadata(meta, 1, 10, 10); !errors.Is(err, util.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for entry limit, got %v", err)
	}
	long := map[string]string{strings.Repeat("k", 11): "v"}
	if _, err := util.ValidateMetadata(long, 5, 10, 10); !errors.Is(err, util.ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for key length, got %v", err)
	}
	if _, err := util.ValidateMetadata(nil, 1, 1, 1); err != nil {
		t.Fatalf("nil metadata should pass, got %v", err)
	}
}
