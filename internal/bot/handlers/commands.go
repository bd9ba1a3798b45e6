package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/bot/keyboard"
	botservice "cryo_booking_bot/internal/bot/service"
	"cryo_booking_bot/internal/booking"
	"cryo_booking_bot/internal/calendar"
	storagemodels "cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
)

// Команды бота
const (
	CommandStart    = "/start"
	CommandCalendar = "/kalendarz"
	CommandVisits   = "/wizyty"
	CommandRequests = "/wnioski"
	CommandPass     = "/karnet"
	CommandAdmin    = "/admin"
)

// CommandHandler обрабатывает команды, требующие открытой сессии
type CommandHandler struct {
	service *botservice.Service
}

// NewCommandHandler создает обработчик команд
func NewCommandHandler(service *botservice.Service) *CommandHandler {
	return &CommandHandler{service: service}
}

// ParseCommand отделяет команду от аргументов и имени бота
func ParseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// Handle выполняет команду. Возвращает false для неизвестной команды.
func (h *CommandHandler) Handle(ctx context.Context, update *models.Update, cmd string) bool {
	chatID := update.Message.Chat.ID

	switch cmd {
	case CommandCalendar, CommandVisits, CommandRequests, CommandPass, CommandAdmin:
	default:
		return false
	}

	sess, err := h.service.SessionFor(ctx, chatID)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			h.service.SendSimpleMessage(ctx, chatID, msgNotLinked)
			return true
		}
		h.service.SendError(ctx, chatID, err)
		return true
	}

	switch cmd {
	case CommandCalendar:
		h.calendar(ctx, chatID, sess)
	case CommandVisits:
		h.visits(ctx, chatID, sess)
	case CommandRequests:
		h.requests(ctx, chatID, sess)
	case CommandPass:
		h.pass(ctx, chatID, sess)
	case CommandAdmin:
		h.admin(ctx, chatID, sess)
	}
	return true
}

func viewOf(sess *booking.Session) calendar.View {
	if sess.Role == booking.RoleAdmin {
		return calendar.AdminView
	}
	return calendar.ClientView
}

func (h *CommandHandler) calendar(ctx context.Context, chatID int64, sess *booking.Session) {
	m, err := h.service.Booking().MonthView(ctx, sess.ID, viewOf(sess))
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	if err := h.service.SendMessage(ctx, chatID, "Wybierz dzień:", keyboard.Month(m)); err != nil {
		h.service.SendError(ctx, chatID, err)
	}
}

func (h *CommandHandler) visits(ctx context.Context, chatID int64, sess *booking.Session) {
	svc := h.service.Booking()

	if sess.Role == booking.RoleAdmin {
		sendDayAppointments(ctx, h.service, chatID, svc.Today())
		return
	}

	appts, err := svc.ClientAppointments(ctx, sess.ClientID)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	if len(appts) == 0 {
		h.service.SendSimpleMessage(ctx, chatID, "Brak zaplanowanych wizyt. Zarezerwuj termin: /kalendarz")
		return
	}
	for _, a := range appts {
		text := fmt.Sprintf("Wizyta %s o %s", a.Date, a.Time)
		_ = h.service.SendMessage(ctx, chatID, text, keyboard.ChangeAppointment(a.ID))
	}
}

func (h *CommandHandler) requests(ctx context.Context, chatID int64, sess *booking.Session) {
	svc := h.service.Booking()

	if sess.Role == booking.RoleAdmin {
		reqs, err := svc.ListRequests(ctx)
		if err != nil {
			h.service.SendError(ctx, chatID, err)
			return
		}
		sent := 0
		for _, r := range reqs {
			if r.Status != storagemodels.StatusPendingAdmin {
				continue
			}
			_ = h.service.SendMessage(ctx, chatID, botservice.RequestText(r), keyboard.RequestDecision(r.ID))
			sent++
		}
		if sent == 0 {
			h.service.SendSimpleMessage(ctx, chatID, "Brak wniosków do rozpatrzenia.")
		}
		return
	}

	reqs, err := svc.ClientRequests(ctx, sess.ClientID)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	if len(reqs) == 0 {
		h.service.SendSimpleMessage(ctx, chatID, "Nie masz żadnych próśb.")
		return
	}
	for _, r := range reqs {
		var markup models.ReplyMarkup
		if r.Status == storagemodels.StatusPendingClient {
			markup = keyboard.ProposalDecision(r.ID)
		}
		_ = h.service.SendMessage(ctx, chatID, botservice.RequestText(r), markup)
	}
}

func (h *CommandHandler) pass(ctx context.Context, chatID int64, sess *booking.Session) {
	if sess.Role != booking.RoleClient {
		h.service.SendSimpleMessage(ctx, chatID, "Ta komenda jest dostępna tylko dla klientów.")
		return
	}
	d, err := h.service.Booking().DashboardFor(ctx, sess.ID)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	h.service.SendSimpleMessage(ctx, chatID, botservice.DashboardText(d))
}

func (h *CommandHandler) admin(ctx context.Context, chatID int64, sess *booking.Session) {
	if sess.Role != booking.RoleAdmin {
		h.service.SendSimpleMessage(ctx, chatID, msgForbidden)
		return
	}

	svc := h.service.Booking()
	st, err := svc.Statistics(ctx)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	reqs, err := svc.ListRequests(ctx)
	if err != nil {
		h.service.SendError(ctx, chatID, err)
		return
	}
	pending := 0
	for _, r := range reqs {
		if r.Status == storagemodels.StatusPendingAdmin {
			pending++
		}
	}
	h.service.SendSimpleMessage(ctx, chatID, botservice.StatsText(st, pending))
}

// sendDayAppointments отправляет администратору визиты даты с кнопками удаления
func sendDayAppointments(ctx context.Context, service *botservice.Service, chatID int64, date string) {
	views, err := service.Booking().AppointmentsOnDate(ctx, date)
	if err != nil {
		service.SendError(ctx, chatID, err)
		return
	}
	if len(views) == 0 {
		service.SendSimpleMessage(ctx, chatID, fmt.Sprintf("Brak wizyt na %s.", date))
		return
	}
	for _, v := range views {
		text := fmt.Sprintf("%s %s - %s", v.Date, v.Time, v.ClientName)
		_ = service.SendMessage(ctx, chatID, text, keyboard.DeleteAppointment(v.ID))
	}
}
