package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/bot"
	botservice "cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/internal/config"
	"cryo_booking_bot/internal/middleware"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/scheduler"
	"cryo_booking_bot/internal/scheduler/memory"
	"cryo_booking_bot/internal/server"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/storage/seed"
	"cryo_booking_bot/internal/storage/sqlite"
	"cryo_booking_bot/pkg/logger"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(cfg.Log.Level)
	appLog.Info("Starting cryo booking service", logger.String("time_zone", cfg.Schedule.TimeZone))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error("Service stopped with error", logger.Error(err))
		os.Exit(1)
	}
	appLog.Info("Service stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger) error {
	// Инициализируем хранилище
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLog.Error("Error closing storage", logger.Error(err))
		}
	}()

	if err := seed.Schedule(ctx, store, cfg.Schedule.Weekly); err != nil {
		return err
	}
	if cfg.Seed.Demo {
		seeded, err := seed.Demo(ctx, store)
		if err != nil {
			return err
		}
		if seeded {
			appLog.Info("Demo data seeded")
		}
	}

	hub := notify.NewHub()
	notifier := notify.Multi{hub}
	health := map[string]server.Pinger{"storage": store}

	if cfg.Redis.Addr != "" {
		publisher := notify.NewRedisPublisher(notify.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), cfg.Redis.Channel)
		defer publisher.Close()
		notifier = append(notifier, publisher)
		health["redis"] = publisher
		appLog.Info("Redis publisher enabled", logger.String("channel", cfg.Redis.Channel))
	}

	var (
		svc       *booking.Service
		tg        *botservice.Service
		reminders scheduler.ReminderScheduler
	)

	if cfg.Telegram.Enabled() {
		sender := scheduler.SenderFunc(func(ctx context.Context, appt *models.Appointment) error {
			return tg.SendReminder(ctx, appt)
		})
		sched := memory.NewMemoryScheduler(sender, func(appt *models.Appointment) (time.Time, error) {
			return svc.ReminderTime(appt)
		}, appLog)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
		reminders = sched
	}

	svc = booking.NewService(store, booking.Options{
		Location:         cfg.Schedule.Location,
		LateChangeWindow: cfg.Schedule.LateChangeWindow,
		ReminderLead:     time.Duration(cfg.Schedule.NotificationMins) * time.Minute,
		Notifier:         notifier,
		Reminders:        reminders,
		Logger:           appLog,
	})

	var updates server.UpdateHandler
	if cfg.Telegram.Enabled() {
		b, err := tgbot.New(cfg.Telegram.Token, tgbot.WithSkipGetMe())
		if err != nil {
			return err
		}
		tg = botservice.NewService(b, svc, cfg.Telegram, appLog)
		svc.AddNotifier(tg)

		limiter := middleware.NewRateLimiter(30, time.Minute, appLog)
		defer limiter.Close()
		updates = bot.NewDispatcher(tg, limiter, appLog)

		if err := setupWebhook(ctx, b, cfg.Telegram, appLog); err != nil {
			return err
		}
		if err := svc.RestoreReminders(ctx); err != nil {
			appLog.Warn("Failed to restore reminders", logger.Error(err))
		}
	} else {
		appLog.Warn("TELEGRAM_TOKEN is not set, Telegram adapter disabled")
	}

	srv := server.New(cfg, appLog, server.Deps{
		Booking: svc,
		Hub:     hub,
		Updates: updates,
		Health:  health,
	})
	return srv.Start(ctx)
}

// setupWebhook настраивает webhook для Telegram бота
func setupWebhook(ctx context.Context, b *tgbot.Bot, cfg config.TelegramConfig, appLog *logger.Logger) error {
	// Удаляем существующий webhook
	if _, err := b.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{}); err != nil {
		appLog.Warn("Failed to delete existing webhook", logger.Error(err))
	}

	params := &tgbot.SetWebhookParams{
		URL:         cfg.WebhookURL,
		SecretToken: cfg.SecretToken,
	}
	if _, err := b.SetWebhook(ctx, params); err != nil {
		return err
	}

	appLog.Info("Webhook configured", logger.String("url", cfg.WebhookURL))
	return nil
}
