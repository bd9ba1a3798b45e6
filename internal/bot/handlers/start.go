package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/bot/keyboard"
	botservice "cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
)

const (
	msgAskContact = "Aby korzystać z rezerwacji, udostępnij numer telefonu podany w studiu, naciskając przycisk poniżej."
	msgNotLinked  = "Twoje konto nie jest jeszcze połączone. Naciśnij /start."
	msgClientHelp = "/kalendarz - zarezerwuj wizytę\n/wizyty - Twoje wizyty\n/wnioski - Twoje prośby\n/karnet - Twój karnet"
	msgAdminHelp  = "/admin - statystyki\n/kalendarz - kalendarz wizyt\n/wizyty - wizyty dzisiaj\n/wnioski - wnioski do rozpatrzenia"
)

// StartHandler обрабатывает команду /start
type StartHandler struct {
	service *botservice.Service
	log     *logger.Logger
}

// NewStartHandler создает новый обработчик команды /start
func NewStartHandler(service *botservice.Service, log *logger.Logger) *StartHandler {
	return &StartHandler{service: service, log: log}
}

// Handle приветствует администратора, привязанного клиента или просит контакт
func (h *StartHandler) Handle(ctx context.Context, update *models.Update) {
	chatID := update.Message.Chat.ID

	sess, err := h.service.SessionFor(ctx, chatID)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			h.askForContact(ctx, chatID)
			return
		}
		h.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to open session")
		h.service.SendError(ctx, chatID, err)
		return
	}

	if sess.Role == booking.RoleAdmin {
		h.service.SendSimpleMessage(ctx, chatID, "Panel administratora\n\n"+msgAdminHelp)
		return
	}

	name, err := h.service.Booking().ClientName(ctx, sess.ClientID)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	text := fmt.Sprintf("Witaj, %s!\n\n%s", name, msgClientHelp)
	if err := h.service.SendMessage(ctx, chatID, text, keyboard.Remove()); err != nil {
		h.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to send welcome message")
	}
}

func (h *StartHandler) askForContact(ctx context.Context, chatID int64) {
	if err := h.service.SendMessage(ctx, chatID, msgAskContact, keyboard.Contact()); err != nil {
		h.log.WithFields(logger.Int64("chat_id", chatID), logger.Error(err)).Error("Failed to send contact request")
	}
}
