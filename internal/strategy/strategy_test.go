package strategy_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	common "github.com/example/notification-service/internal/adapters/common"
	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/strategy"
)

type adapterSpy struct {
	calls int
	resp  *common.ProviderResponse
	err   error
}

func (a *adapterSpy) Send(ctx context.Context, req *models.NotificationRequest) (*common.ProviderResponse, error) {
	a.calls++
	return a.resp, a.err
}

func request(ch models.Channel, recipient string) *models.NotificationRequest {
	return &models.NotificationRequest{
		ID:          "msg-1",
		Channel:     ch,
		Recipient:   recipient,
		Message:     "Hi",
		Priority:    models.PriorityNormal,
		RetryBudget: 1,
	}
}

func TestEmailStrategyRejectsRecipientWithoutAt(t *testing.T) {
	spy := &adapterSpy{}
	s, err := strategy.NewEmail(spy, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.Send(context.Background(), request(models.ChannelEmail, "userexample.com"))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if spy.calls != 0 {
		t.Fatalf("adapter must not be invoked on validation failure, got %d calls", spy.calls)
	}
}

func TestEmailStrategyAcceptsRecipientWithAt(t *testing.T) {
	spy := &adapterSpy{resp: &common.ProviderResponse{Status: "ok"}}
	s, _ := strategy.NewEmail(spy, zerolog.New(io.Discard))

	resp, err := s.Send(context.Background(), request(models.ChannelEmail, "user@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if spy.calls != 1 {
		t.Fatalf("expected exactly one adapter call, got %d", spy.calls)
	}
}

func TestSMSStrategyRequiresAllDigits(t *testing.T) {
	spy := &adapterSpy{resp: &common.ProviderResponse{Status: "ok"}}
	s, _ := strategy.NewSMS(spy, zerolog.New(io.Discard))

	if _, err := s.Send(context.Background(), request(models.ChannelSMS, "9029187708")); err != nil {
		t.Fatalf("all-digit recipient should pass, got %v", err)
	}
	if spy.calls != 1 {
		t.Fatalf("expected one adapter call, got %d", spy.calls)
	}

	_, err := s.Send(context.Background(), request(models.ChannelSMS, "abc@gmail"))
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if spy.calls != 1 {
		t.Fatalf("adapter must not be invoked for invalid recipient, got %d calls", spy.calls)
	}
}

func TestPushStrategySkipsFormatValidation(t *testing.T) {
	spy := &adapterSpy{resp: &common.ProviderResponse{Status: "ok"}}
	s, _ := strategy.NewPush(spy, zerolog.New(io.Discard))

	if _, err := s.Send(context.Background(), request(models.ChannelPush, "FRIDAY_USER")); err != nil {
		t.Fatalf("opaque token should pass, got %v", err)
	}
	if spy.calls != 1 {
		t.Fatalf("expected one adapter call, got %d", spy.calls)
	}
}

func TestStrategyPropagatesAdapterFailure(t *testing.T) {
	spy := &adapterSpy{err: common.WrapTransient(errors.New("gateway busy"))}
	s, _ := strategy.NewEmail(spy, zerolog.New(io.Discard))

	_, err := s.Send(context.Background(), request(models.ChannelEmail, "user@example.com"))
	if !errors.Is(err, common.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestNewStrategyRequiresAdapter(t *testing.T) {
	if _, err := strategy.NewEmail(nil, zerolog.New(io.Discard)); err == nil {
		t.Fatalf("expected constructor error for nil adapter")
	}
	if _, err := strategy.NewSMS(nil, zerolog.New(io.Discard)); err == nil {
		t.Fatalf("expected constructor error for nil adapter")
	}
	if _, err := strategy.NewPush(nil, zerolog.New(io.Discard)); err == nil {
		t.Fatalf("expected constructor error for nil adapter")
	}
}
