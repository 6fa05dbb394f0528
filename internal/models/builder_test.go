package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/example/notification-service/internal/models"
)

func TestBuilderBuildsCompleteRequest(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req, err := models.NewBuilder().
		WithClock(func() time.Time { return now }).
		Channel(models.ChannelEmail).
		Recipient("user@example.com").
		Message("Hi").
		Priority(models.PriorityHigh).
		RetryBudget(3).
		Meta("campaign", "welcome").
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	if req.Channel != models.ChannelEmail {
		t.Fatalf("unexpected channel: %s", req.Channel)
	}
	if req.Recipient != "user@example.com" {
		t.Fatalf("unexpected recipient: %s", req.Recipient)
	}
	if req.Priority != models.PriorityHigh {
		t.Fatalf("unexpected priority: %s", req.Priority)
	}
	if req.RetryBudget != 3 {
		t.Fatalf("unexpected retry budget: %d", req.RetryBudget)
	}
	if req.ID == "" {
		t.Fatalf("expected generated request id")
	}
	if !req.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %s", req.CreatedAt)
	}
	if req.Meta["campaign"] != "welcome" {
		t.Fatalf("unexpected meta: %v", req.Meta)
	}
}

func TestBuilderDefaults(t *testing.T) {
	req, err := models.NewBuilder().
		Channel(models.ChannelSMS).
		Recipient("9029187708").
		Message("Hi").
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	if req.Priority != models.PriorityNormal {
		t.Fatalf("expected normal priority, got %s", req.Priority)
	}
	if req.RetryBudget != models.DefaultRetryBudget {
		t.Fatalf("expected default retry budget, got %d", req.RetryBudget)
	}
	if req.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated")
	}
}

func TestBuilderMissingRecipient(t *testing.T) {
	_, err := models.NewBuilder().
		Channel(models.ChannelEmail).
		Message("Hi").
		Build()
	if !errors.Is(err, models.ErrIncompleteRequest) {
		t.Fatalf("expected ErrIncompleteRequest, got %v", err)
	}
}

func TestBuilderMissingEverything(t *testing.T) {
	_, err := models.NewBuilder().Build()
	if !errors.Is(err, models.ErrIncompleteRequest) {
		t.Fatalf("expected ErrIncompleteRequest, got %v", err)
	}
}

func TestBuilderRejectsNegativeRetryBudget(t *testing.T) {
	_, err := models.NewBuilder().
		Channel(models.ChannelPush).
		Recipient("token-1").
		Message("Hi").
		RetryBudget(-1).
		Build()
	if !errors.Is(err, models.ErrIncompleteRequest) {
		t.Fatalf("expected ErrIncompleteRequest, got %v", err)
	}
}

func TestBuilderRejectsUnknownChannel(t *testing.T) {
	_, err := models.NewBuilder().
		Channel(models.Channel("fax")).
		Recipient("555").
		Message("Hi").
		Build()
	if !errors.Is(err, models.ErrUnsupportedChannel) {
		t.Fatalf("expected ErrUnsupportedChannel, got %v", err)
	}
}

func TestBuilderCopiesMetadata(t *testing.T) {
	b := models.NewBuilder().
		Channel(models.ChannelEmail).
		Recipient("user@example.com").
		Message("Hi").
		Meta("k", "v")

	req, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	b.Meta("k", "mutated")
	if req.Meta["k"] != "v" {
		t.Fatalf("built request shares metadata with the builder")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := models.ParsePriority(""); err != nil || p != models.PriorityNormal {
		t.Fatalf("expected normal default, got %s (%v)", p, err)
	}
	if _, err := models.ParsePriority("urgent"); !errors.Is(err, models.ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestParseChannel(t *testing.T) {
	ch, err := models.ParseChannel(" Email ")
	if err != nil || ch != models.ChannelEmail {
		t.Fatalf("expected email channel, got %s (%v)", ch, err)
	}
	if _, err := models.ParseChannel("pager"); !errors.Is(err, models.ErrUnsupportedChannel) {
		t.Fatalf("expected ErrUnsupportedChannel, got %v", err)
	}
}
