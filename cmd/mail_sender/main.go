package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"playlist_auth/internal/config"
	sl "playlist_auth/internal/lib/logger"
	mailSender "playlist_auth/internal/mailsender"
	"playlist_auth/internal/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadMailer()
	log := sl.Setup(cfg.Env, os.Stdout)

	log.Info("starting mail_sender", slog.String("env", cfg.Env))

	startConsumer(ctx, cfg, log)
}

func startConsumer(ctx context.Context, cfg *config.MailerConfig, log *slog.Logger) {
	r, err := rabbitmq.New(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		return
	}
	defer r.Close()

	m := mailSender.New(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password)

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := r.StartReading(ctx, m.Handler(log)); err != nil {
			log.Error("failed to read queue", sl.Err(err))
		}
	}()

	log.Info("consumer successfully started", slog.String("queue", cfg.QueueName))

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
		<-done
	case <-done:
		log.Info("consumer finished the work")
	}

	log.Info("service gracefully stopped")
}
