package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/bot/keyboard"
	botservice "cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
)

const msgForbidden = "Brak uprawnień."

// CallbackHandler обрабатывает callback query от inline кнопок
type CallbackHandler struct {
	service *botservice.Service
	log     *logger.Logger
}

// NewCallbackHandler создает новый обработчик callback query
func NewCallbackHandler(service *botservice.Service, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{service: service, log: log}
}

// callback это разобранный callback query
type callback struct {
	id        string
	chatID    int64
	messageID int
	action    string
	arg       string
	sess      *booking.Session
}

// Handle обрабатывает callback query
func (h *CallbackHandler) Handle(ctx context.Context, update *models.Update) {
	cq := update.CallbackQuery
	if cq.Message.Message == nil {
		h.service.AnswerCallbackQuery(ctx, cq.ID, "")
		return
	}

	cb := &callback{
		id:        cq.ID,
		chatID:    cq.Message.Message.Chat.ID,
		messageID: cq.Message.Message.ID,
	}
	cb.action, cb.arg = keyboard.Parse(cq.Data)

	if cb.action == keyboard.ActionNoop {
		h.service.AnswerCallbackQuery(ctx, cb.id, "")
		return
	}

	sess, err := h.service.SessionFor(ctx, cb.chatID)
	if err != nil {
		h.service.AnswerCallbackQuery(ctx, cb.id, errors.UserMessage(err))
		if errors.KindOf(err) == errors.KindNotFound {
			h.service.SendSimpleMessage(ctx, cb.chatID, msgNotLinked)
		}
		return
	}
	cb.sess = sess

	switch cb.action {
	case keyboard.ActionMonth:
		h.changeMonth(ctx, cb)
	case keyboard.ActionCalendar:
		h.showCalendar(ctx, cb)
	case keyboard.ActionDay:
		h.selectDay(ctx, cb)
	case keyboard.ActionSlot:
		h.bookSlot(ctx, cb)
	case keyboard.ActionConfirm, keyboard.ActionReject, keyboard.ActionDelete:
		h.adminDecision(ctx, cb)
	case keyboard.ActionAccept, keyboard.ActionDecline:
		h.proposalDecision(ctx, cb)
	case keyboard.ActionChange:
		h.startChange(ctx, cb)
	case keyboard.ActionKeep:
		h.cancelChange(ctx, cb)
	default:
		h.service.AnswerCallbackQuery(ctx, cb.id, "Nieprawidłowy wybór")
	}
}

// fail отвечает на callback текстом ошибки
func (h *CallbackHandler) fail(ctx context.Context, cb *callback, err error) {
	if errors.KindOf(err) == errors.KindInternal {
		h.log.WithFields(logger.Int64("chat_id", cb.chatID), logger.String("action", cb.action), logger.Error(err)).
			Error("Callback failed")
	}
	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.SendError(ctx, cb.chatID, err)
}

func (h *CallbackHandler) changeMonth(ctx context.Context, cb *callback) {
	dir, err := strconv.Atoi(cb.arg)
	if err != nil {
		h.fail(ctx, cb, errors.ErrInvalidDirection.WithError(err))
		return
	}
	m, err := h.service.Booking().ChangeMonth(ctx, cb.sess.ID, viewOf(cb.sess), dir)
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}
	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, "Wybierz dzień:", keyboard.Month(m))
}

func (h *CallbackHandler) showCalendar(ctx context.Context, cb *callback) {
	m, err := h.service.Booking().MonthView(ctx, cb.sess.ID, viewOf(cb.sess))
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}
	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, "Wybierz dzień:", keyboard.Month(m))
}

func (h *CallbackHandler) selectDay(ctx context.Context, cb *callback) {
	day, err := calendar.ParseISO(cb.arg)
	if err != nil {
		h.fail(ctx, cb, errors.ErrInvalidDate.WithError(err))
		return
	}

	svc := h.service.Booking()
	sel, err := svc.SelectDate(ctx, cb.sess.ID, day.Year(), day.Month(), day.Day())
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}
	h.service.AnswerCallbackQuery(ctx, cb.id, "")

	if cb.sess.Role == booking.RoleAdmin {
		sendDayAppointments(ctx, h.service, cb.chatID, sel.Date)
		return
	}

	text := fmt.Sprintf("Terminy na %s:", sel.Date)
	if len(sel.Slots) == 0 {
		text = fmt.Sprintf("Brak terminów na %s.", sel.Date)
	}
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, text, keyboard.Slots(sel.Slots))
}

func (h *CallbackHandler) bookSlot(ctx context.Context, cb *callback) {
	svc := h.service.Booking()

	var (
		res *booking.Result
		err error
	)
	if cb.sess.AppointmentToChange != nil {
		res, err = svc.SubmitSpecialRequest(ctx, cb.sess.ID, cb.sess.ClientCursor.Selected, cb.arg)
	} else {
		res, err = svc.BookSelectedSlot(ctx, cb.sess.ID, cb.arg)
	}
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}

	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, res.Message, nil)
}

func (h *CallbackHandler) adminDecision(ctx context.Context, cb *callback) {
	if cb.sess.Role != booking.RoleAdmin {
		h.service.AnswerCallbackQuery(ctx, cb.id, msgForbidden)
		return
	}
	id, err := keyboard.ParseID(cb.arg)
	if err != nil {
		h.fail(ctx, cb, errors.ErrInvalidID.WithError(err))
		return
	}

	svc := h.service.Booking()
	var res *booking.Result
	switch cb.action {
	case keyboard.ActionConfirm:
		res, err = svc.ConfirmRequest(ctx, id)
	case keyboard.ActionReject:
		res, err = svc.RejectRequest(ctx, id)
	default:
		res, err = svc.AdminDeleteAppointment(ctx, id)
	}
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}

	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, res.Message, nil)
}

func (h *CallbackHandler) proposalDecision(ctx context.Context, cb *callback) {
	id, err := keyboard.ParseID(cb.arg)
	if err != nil {
		h.fail(ctx, cb, errors.ErrInvalidID.WithError(err))
		return
	}

	svc := h.service.Booking()
	var res *booking.Result
	if cb.action == keyboard.ActionAccept {
		res, err = svc.AcceptProposalFor(ctx, cb.sess.ID, id)
	} else {
		res, err = svc.RejectProposalFor(ctx, cb.sess.ID, id)
	}
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}

	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, res.Message, nil)
}

func (h *CallbackHandler) startChange(ctx context.Context, cb *callback) {
	id, err := keyboard.ParseID(cb.arg)
	if err != nil {
		h.fail(ctx, cb, errors.ErrInvalidID.WithError(err))
		return
	}

	ticket, err := h.service.Booking().ChangeAppointmentRequest(ctx, cb.sess.ID, id)
	if err != nil {
		h.fail(ctx, cb, err)
		return
	}

	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, ticket.Message, keyboard.ChangeStarted())
}

func (h *CallbackHandler) cancelChange(ctx context.Context, cb *callback) {
	if err := h.service.Booking().CancelChange(cb.sess.ID); err != nil {
		h.fail(ctx, cb, err)
		return
	}
	h.service.AnswerCallbackQuery(ctx, cb.id, "")
	h.service.EditMessage(ctx, cb.chatID, cb.messageID, "Zmiana terminu anulowana.", nil)
}
