package scheduler

import (
	"context"
	"time"

	"cryo_booking_bot/internal/storage/models"
)

// ReminderScheduler определяет интерфейс для планирования напоминаний о визитах
type ReminderScheduler interface {
	// Schedule планирует напоминание о визите; повторный вызов заменяет таймер
	Schedule(ctx context.Context, appt *models.Appointment, notifyAt time.Time) error

	// Cancel отменяет напоминание о визите
	Cancel(ctx context.Context, apptID int64) error

	// ReschedulePending сбрасывает все таймеры и планирует переданные визиты заново
	ReschedulePending(ctx context.Context, appts []*models.Appointment) error

	// Start запускает планировщик
	Start(ctx context.Context) error

	// Stop останавливает планировщик
	Stop() error
}

// ReminderSender определяет интерфейс для отправки напоминаний
type ReminderSender interface {
	// SendReminder отправляет клиенту напоминание о визите
	SendReminder(ctx context.Context, appt *models.Appointment) error
}

// SenderFunc позволяет использовать функцию как ReminderSender
type SenderFunc func(ctx context.Context, appt *models.Appointment) error

func (f SenderFunc) SendReminder(ctx context.Context, appt *models.Appointment) error {
	return f(ctx, appt)
}

// NotifyTimeFunc вычисляет момент напоминания для визита
type NotifyTimeFunc func(appt *models.Appointment) (time.Time, error)
