package dispatch

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/event"
	"github.com/example/notification-service/internal/metrics"
	"github.com/example/notification-service/internal/models"
	"github.com/example/notification-service/internal/strategy"
)

// Dependencies bundles everything a Dispatcher needs. Factory and Chain are
// required; Notifier and Recorder are optional.
type Dependencies struct {
	Factory  *strategy.Factory
	Chain    *Chain
	Notifier *event.Notifier
	Recorder *metrics.Recorder
	Logger   zerolog.Logger
	Now      func() time.Time
}

// Dispatcher resolves the channel strategy for a request, runs it through the
// chain and, on success, fans the delivery event out to the notifier.
type Dispatcher struct {
	factory  *strategy.Factory
	chain    *Chain
	notifier *event.Notifier
	recorder *metrics.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher validates deps and builds a Dispatcher.
func NewDispatcher(deps Dependencies) (*Dispatcher, error) {
	if deps.Factory == nil {
		return nil, errors.New("dispatcher: strategy factory is required")
	}
	if deps.Chain == nil {
		return nil, errors.New("dispatcher: chain is required")
	}
	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		factory:  deps.Factory,
		chain:    deps.Chain,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		logger:   logger,
		now:      now,
	}, nil
}

// Dispatch delivers one request. The returned outcome reports how many send
// attempts were made even when the overall dispatch failed. Delivery events
// are published on success only.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.NotificationRequest) (models.DeliveryOutcome, error) {
	if req == nil {
		return models.DeliveryOutcome{}, errors.New("dispatcher: nil request")
	}

	strat, err := d.factory.Create(req.Channel)
	if err != nil {
		d.observeFailure(req, 0)
		return models.DeliveryOutcome{}, err
	}

	if d.recorder != nil {
		done := d.recorder.DispatchStarted()
		defer done()
	}

	dc := &Context{Request: req, Strategy: strat}
	if err := d.chain.Run(ctx, dc); err != nil {
		d.observeFailure(req, dc.Outcome.AttemptsMade)
		d.logger.Warn().
			Str("message_id", req.ID).
			Str("channel", string(req.Channel)).
			Int("attempts", dc.Outcome.AttemptsMade).
			Err(err).
			Msg("dispatch failed")
		return dc.Outcome, err
	}

	d.logger.Info().
		Str("message_id", req.ID).
		Str("channel", string(req.Channel)).
		Int("attempts", dc.Outcome.AttemptsMade).
		Msg("dispatch succeeded")

	if d.notifier != nil {
		d.notifier.Notify(ctx, req.Event(dc.Outcome.AttemptsMade, d.now()))
	}
	return dc.Outcome, nil
}

func (d *Dispatcher) observeFailure(req *models.NotificationRequest, attempts int) {
	if d.recorder == nil {
		return
	}
	d.recorder.ObserveDispatch(string(req.Channel), string(req.Priority), false, attempts)
}
