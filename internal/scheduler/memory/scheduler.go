package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryo_booking_bot/internal/scheduler"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

var _ scheduler.ReminderScheduler = (*MemoryScheduler)(nil)

// reminder это таймер одного визита; сравнивается по указателю
type reminder struct {
	timer *time.Timer
}

// MemoryScheduler реализует планировщик напоминаний в памяти
type MemoryScheduler struct {
	timers     map[int64]*reminder
	mu         sync.RWMutex
	sender     scheduler.ReminderSender
	notifyTime scheduler.NotifyTimeFunc
	log        *logger.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	stopped    bool
	stopOnce   sync.Once
}

// NewMemoryScheduler создает новый планировщик в памяти.
// notifyTime используется в ReschedulePending.
func NewMemoryScheduler(sender scheduler.ReminderSender, notifyTime scheduler.NotifyTimeFunc, log *logger.Logger) *MemoryScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logger.Discard()
	}

	return &MemoryScheduler{
		timers:     make(map[int64]*reminder),
		sender:     sender,
		notifyTime: notifyTime,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start запускает планировщик
func (s *MemoryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	return nil
}

// Schedule планирует напоминание о визите
func (s *MemoryScheduler) Schedule(ctx context.Context, appt *models.Appointment, notifyAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduleLocked(appt, notifyAt)
}

func (s *MemoryScheduler) scheduleLocked(appt *models.Appointment, notifyAt time.Time) error {
	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	if r, exists := s.timers[appt.ID]; exists {
		r.timer.Stop()
		delete(s.timers, appt.ID)
	}

	// Копия, чтобы таймер не зависел от дальнейших изменений визита
	a := *appt

	delay := time.Until(notifyAt)
	if delay <= 0 {
		go s.handleReminder(&a, nil)
		return nil
	}

	r := &reminder{}
	r.timer = time.AfterFunc(delay, func() {
		s.handleReminder(&a, r)
	})
	s.timers[a.ID] = r
	metrics.SetPendingReminders(float64(len(s.timers)))
	return nil
}

// Cancel отменяет напоминание о визите
func (s *MemoryScheduler) Cancel(ctx context.Context, apptID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, exists := s.timers[apptID]; exists {
		r.timer.Stop()
		delete(s.timers, apptID)
		metrics.SetPendingReminders(float64(len(s.timers)))
	}

	return nil
}

// ReschedulePending сбрасывает таймеры и планирует переданные визиты.
// Визиты, напоминание о которых уже в прошлом, пропускаются.
func (s *MemoryScheduler) ReschedulePending(ctx context.Context, appts []*models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.timers {
		r.timer.Stop()
		delete(s.timers, id)
	}

	if s.notifyTime == nil {
		metrics.SetPendingReminders(0)
		return nil
	}

	now := time.Now()
	for _, appt := range appts {
		at, err := s.notifyTime(appt)
		if err != nil {
			s.log.WithFields(logger.Int64("appointment_id", appt.ID), logger.Error(err)).
				Warn("Skipping reminder with invalid time")
			continue
		}
		if !at.After(now) {
			continue
		}
		if err := s.scheduleLocked(appt, at); err != nil {
			return err
		}
	}

	s.log.WithFields(logger.Int("reminders", len(s.timers))).Info("Reminders rescheduled")
	metrics.SetPendingReminders(float64(len(s.timers)))
	return nil
}

// Stop останавливает планировщик
func (s *MemoryScheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.stopped = true

		for id, r := range s.timers {
			r.timer.Stop()
			delete(s.timers, id)
		}
		metrics.SetPendingReminders(0)

		s.cancel()
	})

	return nil
}

// handleReminder отправляет напоминание. Запись удаляется, только если это
// все еще таймер r: визит мог быть перепланирован после срабатывания.
func (s *MemoryScheduler) handleReminder(appt *models.Appointment, r *reminder) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if r != nil && s.timers[appt.ID] == r {
		delete(s.timers, appt.ID)
	}
	metrics.SetPendingReminders(float64(len(s.timers)))
	s.mu.Unlock()

	if err := s.sender.SendReminder(s.ctx, appt); err != nil {
		s.log.WithFields(logger.Int64("appointment_id", appt.ID), logger.Error(err)).
			Error("Failed to send reminder")
		metrics.RecordNotification("reminder", "error")
		return
	}
	metrics.RecordNotification("reminder", "success")
}

// GetActiveTimersCount возвращает количество активных таймеров (для отладки)
func (s *MemoryScheduler) GetActiveTimersCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.timers)
}
