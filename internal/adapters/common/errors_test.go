package common_test

import (
	"errors"
	"testing"

	"github.com/example/notification-service/internal/adapters/common"
)

func TestWrapTransient(t *testing.T) {
	base := errors.New("connection reset")
	wrapped := common.WrapTransient(base)
	if !errors.Is(wrapped, common.ErrTransient) {
		t.Fatalf("expected transient classification")
	}
	if errors.Is(wrapped, common.ErrPermanent) {
		t.Fatalf("transient error must not match permanent")
	}
	if common.WrapTransient(nil) != common.ErrTransient {
		t.Fatalf("nil wrap should return the sentinel")
	}
}

func TestWrapPermanent(t *testing.T) {
	wrapped := common.WrapPermanent(errors.New("mailbox unavailable"))
	if !errors.Is(wrapped, common.ErrPermanent) {
		t.Fatalf("expected permanent classification")
	}
}

func TestWrapValidation(t *testing.T) {
	wrapped := common.WrapValidation(errors.New("recipient missing @"))
	if !errors.Is(wrapped, common.ErrValidation) {
		t.Fatalf("expected validation classification")
	}
	if errors.Is(wrapped, common.ErrTransient) {
		t.Fatalf("validation error must not match transient")
	}
}

func TestTruncateRaw(t *testing.T) {
	if got := common.TruncateRaw("hello", 0); got != "" {
		t.Fatalf("zero limit should clear raw body, got %q", got)
	}
	if got := common.TruncateRaw("hello", 3); got != "hel" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := common.TruncateRaw("héllo", 2); got != "hé" {
		t.Fatalf("truncation must be rune aware: %q", got)
	}
	if got := common.TruncateRaw("hi", 10); got != "hi" {
		t.Fatalf("short values must pass through: %q", got)
	}
}
