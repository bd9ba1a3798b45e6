package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"cryo_booking_bot/internal/availability"
	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/scheduler"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

var bookingTracer = otel.Tracer("cryo.internal.booking")

const (
	defaultLateChangeWindow = 24 * time.Hour
	defaultReminderLead     = time.Hour
)

// Options настраивает сервис бронирования
type Options struct {
	Location         *time.Location
	LateChangeWindow time.Duration
	ReminderLead     time.Duration
	Clock            func() time.Time
	Notifier         notify.Notifier
	Reminders        scheduler.ReminderScheduler
	Logger           *logger.Logger
}

// Service единственный, кто изменяет хранилище.
// Все изменяющие операции выполняются по одной, каждая в своей транзакции.
type Service struct {
	store     storage.Storage
	engine    *availability.Engine
	notifier  notify.Notifier
	reminders scheduler.ReminderScheduler
	log       *logger.Logger

	now              func() time.Time
	loc              *time.Location
	lateChangeWindow time.Duration
	reminderLead     time.Duration

	mu sync.Mutex

	sessMu   sync.RWMutex
	sessions map[string]*Session
}

// NewService создает сервис бронирования
func NewService(store storage.Storage, opts Options) *Service {
	s := &Service{
		store:            store,
		engine:           availability.New(store),
		notifier:         opts.Notifier,
		reminders:        opts.Reminders,
		log:              opts.Logger,
		now:              opts.Clock,
		loc:              opts.Location,
		lateChangeWindow: opts.LateChangeWindow,
		reminderLead:     opts.ReminderLead,
		sessions:         make(map[string]*Session),
	}

	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.lateChangeWindow <= 0 {
		s.lateChangeWindow = defaultLateChangeWindow
	}
	if s.reminderLead <= 0 {
		s.reminderLead = defaultReminderLead
	}

	return s
}

// AddNotifier добавляет получателя событий. Вызывается до обработки запросов.
func (s *Service) AddNotifier(n notify.Notifier) {
	s.notifier = notify.Multi{s.notifier, n}
}

// Engine возвращает движок доступности
func (s *Service) Engine() *availability.Engine {
	return s.engine
}

// Now возвращает текущее время в часовом поясе студии
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Today возвращает сегодняшнюю дату студии в формате YYYY-MM-DD
func (s *Service) Today() string {
	return calendar.FormatISO(s.Now())
}

// Result это итог успешной операции
type Result struct {
	Message     string              `json:"message"`
	Client      *models.Client      `json:"client,omitempty"`
	Request     *models.Request     `json:"request,omitempty"`
	Appointment *models.Appointment `json:"appointment,omitempty"`
	Visit       *models.VisitRecord `json:"visit,omitempty"`
	Penalty     bool                `json:"penalty,omitempty"`

	views    []notify.View
	clientID int64
	schedule []*models.Appointment
	cancel   []int64
	after    []func()
}

func (r *Result) touch(clientID int64, views ...notify.View) {
	if clientID != 0 {
		r.clientID = clientID
	}
	for _, v := range views {
		if !r.has(v) {
			r.views = append(r.views, v)
		}
	}
}

func (r *Result) has(v notify.View) bool {
	for _, x := range r.views {
		if x == v {
			return true
		}
	}
	return false
}

func (r *Result) onCommit(f func()) {
	r.after = append(r.after, f)
}

// Views возвращает представления, которые нужно перерисовать
func (r *Result) Views() []notify.View {
	return r.views
}

type txFunc func(ctx context.Context, repo storage.Repository, res *Result) error

// exec выполняет операцию в транзакции, а после фиксации
// планирует напоминания и рассылает уведомление
func (s *Service) exec(ctx context.Context, op string, fn txFunc, attrs ...attribute.KeyValue) (*Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking."+op)
	defer span.End()
	span.SetAttributes(attrs...)

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := &Result{}
	err := s.store.InTx(ctx, func(repo storage.Repository) error {
		return fn(ctx, repo, res)
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		err = classify(err)
		kind := errors.KindOf(err)

		metrics.RecordOperation(op, "error", elapsed)
		metrics.RecordError("booking", string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))

		log := s.log.WithContext(ctx).With(logger.String("operation", op), logger.Error(err))
		if kind == errors.KindInternal {
			log.Error("Operation failed")
		} else {
			log.Warn("Operation rejected")
		}
		return nil, err
	}

	metrics.RecordOperation(op, "success", elapsed)
	for _, f := range res.after {
		f()
	}
	s.applyReminders(ctx, res)
	s.emit(ctx, res)

	s.log.WithContext(ctx).Info("Operation completed",
		logger.String("operation", op),
		logger.Int64("client_id", res.clientID),
	)
	return res, nil
}

// classify переводит ошибки хранилища в BookingError
func classify(err error) error {
	if errors.IsBookingError(err) {
		return err
	}
	return errors.ErrStorage.WithError(err)
}

// storageErr оборачивает ошибку хранилища; notFound используется для storage.ErrNotFound
func storageErr(err error, notFound *errors.BookingError, id int64) error {
	if stderrors.Is(err, storage.ErrNotFound) && notFound != nil {
		return notFound.WithError(err).WithContext(map[string]interface{}{"id": id})
	}
	return errors.ErrStorage.WithError(err)
}

func (s *Service) emit(ctx context.Context, res *Result) {
	if len(res.views) == 0 {
		return
	}
	ev := notify.Event{Views: res.views, ClientID: res.clientID, Message: res.Message}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.WithContext(ctx).Warn("Failed to deliver render notification", logger.Error(err))
	}
}

func (s *Service) applyReminders(ctx context.Context, res *Result) {
	if s.reminders == nil {
		return
	}
	for _, id := range res.cancel {
		if err := s.reminders.Cancel(ctx, id); err != nil {
			s.log.WithContext(ctx).Warn("Failed to cancel reminder",
				logger.Int64("appointment_id", id), logger.Error(err))
		}
	}
	for _, appt := range res.schedule {
		at, err := s.ReminderTime(appt)
		if err != nil {
			continue
		}
		if !at.After(s.now()) {
			continue
		}
		if err := s.reminders.Schedule(ctx, appt, at); err != nil {
			s.log.WithContext(ctx).Warn("Failed to schedule reminder",
				logger.Int64("appointment_id", appt.ID), logger.Error(err))
		}
	}
}

// ReminderTime возвращает момент напоминания о визите
func (s *Service) ReminderTime(appt *models.Appointment) (time.Time, error) {
	start, err := calendar.Combine(appt.Date, appt.Time, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-s.reminderLead), nil
}

// RestoreReminders заново планирует напоминания для будущих визитов
func (s *Service) RestoreReminders(ctx context.Context) error {
	if s.reminders == nil {
		return nil
	}
	appts, err := s.store.ListAppointmentsInRange(ctx, s.Today(), "9999-12-31")
	if err != nil {
		return fmt.Errorf("failed to load upcoming appointments: %w", err)
	}
	return s.reminders.ReschedulePending(ctx, appts)
}
