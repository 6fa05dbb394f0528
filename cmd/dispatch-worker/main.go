package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	emailadapter "github.com/example/notification-service/internal/adapters/email"
	pushadapter "github.com/example/notification-service/internal/adapters/push"
	smsadapter "github.com/example/notification-service/internal/adapters/sms"
	"github.com/example/notification-service/internal/config"
	"github.com/example/notification-service/internal/dispatch"
	"github.com/example/notification-service/internal/event"
	"github.com/example/notification-service/internal/kafka/consumer"
	"github.com/example/notification-service/internal/kafka/producer"
	kafkapublisher "github.com/example/notification-service/internal/kafka/publisher"
	"github.com/example/notification-service/internal/logger"
	"github.com/example/notification-service/internal/metrics"
	providerfactory "github.com/example/notification-service/internal/providers/factory"
	"github.com/example/notification-service/internal/strategy"
	"github.com/example/notification-service/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "dispatch-worker").Logger()

	prod, err := producer.New(cfg.Kafka.Brokers, log.With().Str("component", "producer").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, log.With().Str("component", "consumer").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, cfg.Topics.Status, log.With().Str("component", "status-publisher").Logger())
	if statusPublisher == nil {
		log.Fatal().Msg("failed to create status publisher")
	}
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, cfg.Topics.DLQ, log.With().Str("component", "dlq-publisher").Logger())
	if dlqPublisher == nil {
		log.Fatal().Msg("failed to create dlq publisher")
	}

	factory, err := buildStrategies(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build channel strategies")
	}

	recorder := metrics.NewRecorder()

	notifier := event.NewNotifier(log.With().Str("component", "notifier").Logger())
	notifier.Attach(event.NewAnalyticsObserver(log))
	notifier.Attach(event.NewAuditObserver(log))
	notifier.Attach(event.NewBillingObserver(log))
	if kafkaObserver := event.NewKafkaObserver(prod, cfg.Topics.Events, log.With().Str("component", "event-observer").Logger()); kafkaObserver != nil {
		notifier.Attach(kafkaObserver)
	}

	reporter := worker.NewAttemptStatusReporter(statusPublisher, log)

	chain, err := dispatch.NewChain(
		dispatch.NewValidationStage(cfg.Validation.MessageMaxLen, cfg.Validation.RecipientMaxLen),
		dispatch.NewRetryStage(cfg.Retry.BaseBackoff, cfg.Retry.MaxBackoff, log.With().Str("component", "retry").Logger(), dispatch.WithAttemptReporter(reporter)),
		dispatch.NewMetricsStage(recorder),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble dispatch chain")
	}

	dispatcher, err := dispatch.NewDispatcher(dispatch.Dependencies{
		Factory:  factory,
		Chain:    chain,
		Notifier: notifier,
		Recorder: recorder,
		Logger:   log.With().Str("component", "dispatcher").Logger(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create dispatcher")
	}

	engine, err := worker.NewEngine(worker.Config{
		MsgMaxBytes:       cfg.Validation.MsgMaxBytes,
		WorkerConcurrency: cfg.Retry.WorkerConcurrency,
		MaxRetryBudget:    cfg.Retry.MaxRetryBudget,
		MetaMaxEntries:    cfg.Validation.MetaMaxEntries,
		MetaKeyMaxLen:     cfg.Validation.MetaMaxKeyLen,
		MetaValueMaxLen:   cfg.Validation.MetaMaxValueLen,
	}, worker.Dependencies{
		Dispatcher:      dispatcher,
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Logger:          log,
		Now:             time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create worker engine")
	}

	metricsSrv := serveMetrics(cfg.Metrics.Addr, recorder, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := cons.Consume(ctx, []string{cfg.Topics.Request}, worker.KafkaHandler(engine)); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("request_topic", cfg.Topics.Request).
		Str("consumer_group", cfg.Kafka.ConsumerGroup).
		Msg("dispatch worker started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("consumer terminated with error")
		}
	}
}

func buildStrategies(cfg *config.Config, log zerolog.Logger) (*strategy.Factory, error) {
	emailProvider, err := providerfactory.Email(cfg.Providers, log.With().Str("component", "email-provider").Logger())
	if err != nil {
		return nil, err
	}
	smsProvider, err := providerfactory.SMS(cfg.Providers, log.With().Str("component", "sms-provider").Logger())
	if err != nil {
		return nil, err
	}
	pushProvider, err := providerfactory.Push(cfg.Providers, log.With().Str("component", "push-provider").Logger())
	if err != nil {
		return nil, err
	}

	emailAd, err := emailadapter.NewAdapter(emailProvider, log.With().Str("component", "email-adapter").Logger())
	if err != nil {
		return nil, err
	}
	smsAd, err := smsadapter.NewAdapter(smsProvider, log.With().Str("component", "sms-adapter").Logger())
	if err != nil {
		return nil, err
	}
	pushAd, err := pushadapter.NewAdapter(pushProvider, log.With().Str("component", "push-adapter").Logger())
	if err != nil {
		return nil, err
	}

	emailStrategy, err := strategy.NewEmail(emailAd, log)
	if err != nil {
		return nil, err
	}
	smsStrategy, err := strategy.NewSMS(smsAd, log)
	if err != nil {
		return nil, err
	}
	pushStrategy, err := strategy.NewPush(pushAd, log)
	if err != nil {
		return nil, err
	}

	factory := strategy.NewFactory()
	for _, s := range []strategy.Strategy{emailStrategy, smsStrategy, pushStrategy} {
		if err := factory.Register(s); err != nil {
			return nil, err
		}
	}
	return factory, nil
}

func serveMetrics(addr string, recorder *metrics.Recorder, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listener started")
	return srv
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("dispatch worker init failed")
}
