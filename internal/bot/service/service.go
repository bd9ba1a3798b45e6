package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/config"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/scheduler"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

var (
	_ notify.Notifier          = (*Service)(nil)
	_ scheduler.ReminderSender = (*Service)(nil)
)

// API это часть Telegram Bot API, которой пользуется бот
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Service связывает чаты Telegram с сервисом бронирования
type Service struct {
	api     API
	booking *booking.Service
	cfg     config.TelegramConfig
	log     *logger.Logger

	mu       sync.Mutex
	sessions map[int64]string // chat id -> session id
}

// NewService создает сервис бота
func NewService(api API, svc *booking.Service, cfg config.TelegramConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		api:      api,
		booking:  svc,
		cfg:      cfg,
		log:      log,
		sessions: make(map[int64]string),
	}
}

// Booking возвращает сервис бронирования
func (s *Service) Booking() *booking.Service {
	return s.booking
}

// IsAdmin проверяет, принадлежит ли чат администратору
func (s *Service) IsAdmin(chatID int64) bool {
	return s.cfg.IsAdmin(chatID)
}

// SessionFor возвращает сессию чата, открывая ее при необходимости.
// Чат без привязанного клиента и без прав администратора получает ErrClientNotFound.
func (s *Service) SessionFor(ctx context.Context, chatID int64) (*booking.Session, error) {
	s.mu.Lock()
	id, ok := s.sessions[chatID]
	s.mu.Unlock()

	if ok {
		if sess, err := s.booking.Session(id); err == nil {
			return sess, nil
		}
	}

	var (
		sess *booking.Session
		err  error
	)
	if s.IsAdmin(chatID) {
		sess, err = s.booking.Login(ctx, booking.RoleAdmin, 0)
	} else {
		client, ferr := s.booking.FindClientByChat(ctx, chatID)
		if ferr != nil {
			return nil, ferr
		}
		sess, err = s.booking.Login(ctx, booking.RoleClient, client.ID)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[chatID] = sess.ID
	s.mu.Unlock()
	return sess, nil
}

// ForgetSession закрывает сессию чата
func (s *Service) ForgetSession(ctx context.Context, chatID int64) {
	s.mu.Lock()
	id, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	s.mu.Unlock()

	if ok {
		_ = s.booking.Logout(ctx, id)
	}
}

// SendMessage отправляет сообщение пользователю
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup tgmodels.ReplyMarkup) error {
	_, err := s.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: replyMarkup,
	})
	if err != nil {
		metrics.RecordNotification("telegram", "error")
		return errors.ErrTelegramAPI.WithError(err)
	}
	return nil
}

// SendSimpleMessage отправляет простое текстовое сообщение
func (s *Service) SendSimpleMessage(ctx context.Context, chatID int64, text string) {
	if err := s.SendMessage(ctx, chatID, text, nil); err != nil {
		s.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to send message")
	}
}

// EditMessage заменяет текст и кнопки сообщения
func (s *Service) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup tgmodels.ReplyMarkup) {
	_, err := s.api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		s.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Warn("Failed to edit message")
	}
}

// SendError отправляет пользователю текст ошибки бронирования
func (s *Service) SendError(ctx context.Context, chatID int64, err error) {
	s.SendSimpleMessage(ctx, chatID, errors.UserMessage(err))
}

// AnswerCallbackQuery отвечает на callback query
func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) {
	_, err := s.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackQueryID,
		Text:            text,
	})
	if err != nil {
		s.log.WithFields(logger.String("callback_id", callbackQueryID), logger.Error(err)).Warn("Failed to answer callback query")
	}
}

// chatOf возвращает чат клиента, если он привязан
func (s *Service) chatOf(ctx context.Context, clientID int64) (int64, bool) {
	client, err := s.booking.GetClient(ctx, clientID)
	if err != nil || client.ChatID == nil {
		return 0, false
	}
	return *client.ChatID, true
}

// Notify пересылает клиенту сообщение об изменении его данных.
// События без клиента или без привязанного чата пропускаются.
func (s *Service) Notify(ctx context.Context, ev notify.Event) error {
	if ev.ClientID == 0 || ev.Message == "" || !ev.Has(notify.ViewClientDashboard) {
		return nil
	}
	chatID, ok := s.chatOf(ctx, ev.ClientID)
	if !ok {
		return nil
	}
	if err := s.SendMessage(ctx, chatID, ev.Message, nil); err != nil {
		return err
	}
	metrics.RecordNotification("telegram", "success")
	return nil
}

// SendReminder напоминает клиенту о предстоящем визите
func (s *Service) SendReminder(ctx context.Context, appt *models.Appointment) error {
	chatID, ok := s.chatOf(ctx, appt.ClientID)
	if !ok {
		return fmt.Errorf("client %d has no linked chat", appt.ClientID)
	}
	return s.SendMessage(ctx, chatID, ReminderText(appt), nil)
}

// ReminderText формирует текст напоминания
func ReminderText(appt *models.Appointment) string {
	return fmt.Sprintf("Przypomnienie: Twoja wizyta w kriokomorze %s o %s.", appt.Date, appt.Time)
}

// DashboardText формирует описание абонемента клиента
func DashboardText(d *booking.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Client.Name)
	fmt.Fprintf(&b, "Karnet: %s\n", d.Client.Subscription.Type)
	fmt.Fprintf(&b, "Pozostało wejść: %d\n", d.Client.Subscription.EntriesLeft)
	fmt.Fprintf(&b, "Ważny do: %s (%s)\n", d.Client.Subscription.Expires, d.ExpiryLabel)

	if len(d.Upcoming) > 0 {
		b.WriteString("\nNadchodzące wizyty:\n")
		for _, a := range d.Upcoming {
			fmt.Fprintf(&b, "• %s o %s\n", a.Date, a.Time)
		}
	}
	if len(d.Client.History) > 0 {
		b.WriteString("\nHistoria:\n")
		for _, v := range d.Client.History {
			fmt.Fprintf(&b, "• %s %s\n", v.Date, v.Status)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RequestText формирует описание заявки
func RequestText(r *models.Request) string {
	return fmt.Sprintf("#%d %s\n%s\n%s", r.ID, r.From, r.Type, r.Details)
}

// StatsText формирует сводку для администратора
func StatsText(st booking.Stats, pending int) string {
	return fmt.Sprintf("Klienci: %d\nAktywne karnety: %d\nWygasłe karnety: %d\nWnioski do rozpatrzenia: %d",
		st.Total, st.Active, st.Expired, pending)
}
