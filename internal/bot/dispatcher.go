package bot

import (
	"context"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/bot/handlers"
	"cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/internal/middleware"
	"cryo_booking_bot/pkg/logger"
)

const msgSlowDown = "Zbyt wiele żądań. Spróbuj ponownie za chwilę."

// Dispatcher управляет обработкой входящих обновлений от Telegram
type Dispatcher struct {
	service         *service.Service
	limiter         *middleware.RateLimiter
	log             *logger.Logger
	startHandler    *handlers.StartHandler
	contactHandler  *handlers.ContactHandler
	callbackHandler *handlers.CallbackHandler
	commandHandler  *handlers.CommandHandler
	defaultHandler  *handlers.DefaultHandler
}

// NewDispatcher создает новый диспетчер обновлений.
// limiter может быть nil, тогда ограничение частоты отключено.
func NewDispatcher(svc *service.Service, limiter *middleware.RateLimiter, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		service:         svc,
		limiter:         limiter,
		log:             log,
		startHandler:    handlers.NewStartHandler(svc, log),
		contactHandler:  handlers.NewContactHandler(svc, log),
		callbackHandler: handlers.NewCallbackHandler(svc, log),
		commandHandler:  handlers.NewCommandHandler(svc),
		defaultHandler:  handlers.NewDefaultHandler(svc),
	}
}

// HandleUpdate обрабатывает входящее обновление от Telegram
func (d *Dispatcher) HandleUpdate(ctx context.Context, update *models.Update) {
	chatID, ok := chatOf(update)
	if !ok {
		d.log.Debug("Received unsupported update", logger.Int64("update_id", update.ID))
		return
	}

	if d.limiter != nil && !d.limiter.AllowChat(chatID) {
		if update.CallbackQuery != nil {
			d.service.AnswerCallbackQuery(ctx, update.CallbackQuery.ID, msgSlowDown)
			return
		}
		d.service.SendSimpleMessage(ctx, chatID, msgSlowDown)
		return
	}

	// Обрабатываем callback query от inline кнопок
	if update.CallbackQuery != nil {
		d.log.Debug("Received callback query",
			logger.Int64("chat_id", chatID),
			logger.String("data", update.CallbackQuery.Data),
		)
		d.callbackHandler.Handle(ctx, update)
		return
	}

	msg := update.Message
	d.log.Debug("Received message", logger.Int64("chat_id", chatID), logger.String("text", msg.Text))

	if msg.Contact != nil {
		d.contactHandler.Handle(ctx, update)
		return
	}

	cmd := handlers.ParseCommand(msg.Text)
	if cmd == handlers.CommandStart {
		d.startHandler.Handle(ctx, update)
		return
	}
	if cmd != "" && d.commandHandler.Handle(ctx, update, cmd) {
		return
	}

	d.defaultHandler.Handle(ctx, update)
}

func chatOf(update *models.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message.Message == nil {
			return 0, false
		}
		return update.CallbackQuery.Message.Message.Chat.ID, true
	case update.Message != nil:
		return update.Message.Chat.ID, true
	default:
		return 0, false
	}
}
