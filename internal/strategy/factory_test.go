package strategy_test

import (
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/strategy"
)

func TestFactoryCreate(t *testing.T) {
	f := strategy.NewFactory()

	email, _ := strategy.NewEmail(&adapterSpy{}, zerolog.New(io.Discard))
	sms, _ := strategy.NewSMS(&adapterSpy{}, zerolog.New(io.Discard))
	push, _ := strategy.NewPush(&adapterSpy{}, zerolog.New(io.Discard))
	for _, s := range []strategy.Strategy{email, sms, push} {
		if err := f.Register(s); err != nil {
			t.Fatalf("unexpected register error: %v", err)
		}
	}

	for _, ch := range []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelPush} {
		s, err := f.Create(ch)
		if err != nil {
			t.Fatalf("unexpected create error for %s: %v", ch, err)
		}
		if s.Channel() != ch {
			t.Fatalf("factory returned strategy for %s when asked for %s", s.Channel(), ch)
		}
	}
}

func TestFactoryUnsupportedChannel(t *testing.T) {
	f := strategy.NewFactory()
	_, err := f.Create(models.Channel("fax"))
	if !errors.Is(err, models.ErrUnsupportedChannel) {
		t.Fatalf("expected ErrUnsupportedChannel, got %v", err)
	}
}

func TestFactoryRejectsNilStrategy(t *testing.T) {
	f := strategy.NewFactory()
	if err := f.Register(nil); err == nil {
		t.Fatalf("expected error for nil strategy")
	}
}
