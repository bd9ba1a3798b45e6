package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	botservice "cryo_booking_bot/internal/bot/service"
)

// DefaultHandler обрабатывает неопознанные сообщения
type DefaultHandler struct {
	service *botservice.Service
}

// NewDefaultHandler создает новый обработчик по умолчанию
func NewDefaultHandler(service *botservice.Service) *DefaultHandler {
	return &DefaultHandler{service: service}
}

// Handle напоминает, как пользоваться ботом
func (h *DefaultHandler) Handle(ctx context.Context, update *models.Update) {
	h.service.SendSimpleMessage(ctx, update.Message.Chat.ID, "Naciśnij /start, aby rozpocząć.")
}
