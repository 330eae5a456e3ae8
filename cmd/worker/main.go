package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/adapters/event"
	"github.com/khoahotran/devprofile/adapters/media_storage"
	userUC "github.com/khoahotran/devprofile/internal/application/usecase/user"
	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/pkg/logger"
	"github.com/khoahotran/devprofile/pkg/tracing"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("cannot load config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env).Named("worker")
	defer appLogger.Sync()
	appLogger.Info("Starting devprofile Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Kafka brokers not configured", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "devprofile-worker")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Worker Use Case
	processEventUC := userUC.NewProcessAccountEventUseCase(uploader, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicAccountEvents,
		GroupID:  event.AccountConsumerGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicAccountEvents), zap.String("group", event.AccountConsumerGroup))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		log := appLogger.With(zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset), zap.String("key", string(msg.Key)))

		evt, err := event.DecodeAccountEvent(msg)
		if err != nil {
			log.Error("Failed to decode event, skipping", err)
			commitMessage(consumer, msg, log)
			continue
		}

		if err := processEventUC.Execute(ctx, evt); err != nil {
			// left uncommitted so the group redelivers it after a restart
			log.Error("Failed to process event", err, zap.String("event_type", string(evt.EventType)))
			continue
		}

		commitMessage(consumer, msg, log)
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
