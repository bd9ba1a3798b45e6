package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/bot/keyboard"
	botservice "cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
)

// ContactHandler привязывает чат к клиенту по номеру телефона
type ContactHandler struct {
	service *botservice.Service
	log     *logger.Logger
}

// NewContactHandler создает новый обработчик контактов
func NewContactHandler(service *botservice.Service, log *logger.Logger) *ContactHandler {
	return &ContactHandler{service: service, log: log}
}

// Handle обрабатывает сообщения с контактом.
// Принимается только собственный контакт отправителя.
func (h *ContactHandler) Handle(ctx context.Context, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	contact := msg.Contact

	if contact.PhoneNumber == "" {
		h.service.SendSimpleMessage(ctx, chatID, "Nie otrzymano numeru telefonu. Spróbuj ponownie.")
		return
	}
	if msg.From != nil && contact.UserID != 0 && contact.UserID != msg.From.ID {
		h.log.WithFields(logger.Int64("chat_id", chatID)).Warn("Foreign contact rejected")
		h.service.SendSimpleMessage(ctx, chatID, "Udostępnij własny numer telefonu.")
		return
	}

	svc := h.service.Booking()
	client, err := svc.FindClientByPhone(ctx, contact.PhoneNumber)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			h.service.SendSimpleMessage(ctx, chatID, "Nie znaleziono klienta z tym numerem. Skontaktuj się ze studiem.")
			return
		}
		h.service.SendError(ctx, chatID, err)
		return
	}

	if _, err := svc.BindChat(ctx, client.ID, chatID); err != nil {
		h.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to bind chat")
		h.service.SendError(ctx, chatID, err)
		return
	}
	h.service.ForgetSession(ctx, chatID)

	text := fmt.Sprintf("Dziękujemy, %s! Konto zostało połączone.\n\n%s", client.Name, msgClientHelp)
	if err := h.service.SendMessage(ctx, chatID, text, keyboard.Remove()); err != nil {
		h.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to send confirmation message")
	}
}
