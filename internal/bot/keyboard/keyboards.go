package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"cryo_booking_bot/internal/availability"
	"cryo_booking_bot/internal/calendar"
)

// Префиксы callback data
const (
	ActionNoop     = "NOOP"
	ActionMonth    = "MONTH"
	ActionDay      = "DAY"
	ActionSlot     = "SLOT"
	ActionCalendar = "CAL"
	ActionConfirm  = "CONFIRM"
	ActionReject   = "REJECT"
	ActionAccept   = "ACCEPT"
	ActionDecline  = "DECLINE"
	ActionChange   = "CHANGE"
	ActionKeep     = "KEEP"
	ActionDelete   = "DEL"
)

// Data собирает callback data вида "ACTION:arg"
func Data(action, arg string) string {
	if arg == "" {
		return action
	}
	return action + ":" + arg
}

// Parse разбирает callback data на действие и аргумент
func Parse(data string) (action, arg string) {
	action, arg, _ = strings.Cut(data, ":")
	return action, arg
}

// ParseID разбирает числовой аргумент callback data
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

// Contact создает клавиатуру для запроса контакта
func Contact() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{
					Text:           "Udostępnij numer telefonu",
					RequestContact: true,
				},
			},
		},
		OneTimeKeyboard: true,
		ResizeKeyboard:  true,
	}
}

// Remove создает объект для удаления клавиатуры
func Remove() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}

// Month строит inline календарь месяца.
// Недоступные дни и пустые ячейки ведут на NOOP.
func Month(m calendar.Month) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{
			button("«", Data(ActionMonth, "-1")),
			button(m.Title, ActionNoop),
			button("»", Data(ActionMonth, "1")),
		},
	}

	header := make([]models.InlineKeyboardButton, 0, 7)
	for _, h := range m.Headers {
		header = append(header, button(h, ActionNoop))
	}
	rows = append(rows, header)

	week := make([]models.InlineKeyboardButton, 0, 7)
	for i := 0; i < m.LeadingBlanks; i++ {
		week = append(week, button(" ", ActionNoop))
	}

	for _, d := range m.Days {
		week = append(week, dayButton(m.View, d))
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]models.InlineKeyboardButton, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, button(" ", ActionNoop))
		}
		rows = append(rows, week)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func dayButton(view calendar.View, d calendar.DayCell) models.InlineKeyboardButton {
	text := strconv.Itoa(d.Day)
	if view == calendar.AdminView && d.Count > 0 {
		text += "•"
	}
	if d.IsSelected {
		text = "[" + text + "]"
	} else if d.IsToday {
		text = "(" + text + ")"
	}

	if !d.Selectable {
		if view == calendar.ClientView {
			text = "·"
		}
		return button(text, ActionNoop)
	}
	return button(text, Data(ActionDay, d.Date))
}

// Slots строит кнопки слотов выбранной даты. Занятые слоты не нажимаются.
func Slots(slots []availability.SlotState) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, s := range slots {
		if s.Booked {
			rows = append(rows, []models.InlineKeyboardButton{button(s.Time+" (zajęte)", ActionNoop)})
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{button(s.Time, Data(ActionSlot, s.Time))})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("« Kalendarz", ActionCalendar)})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// RequestDecision строит кнопки решения администратора по заявке
func RequestDecision(id int64) *models.InlineKeyboardMarkup {
	arg := strconv.FormatInt(id, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("Potwierdź", Data(ActionConfirm, arg)),
				button("Odrzuć", Data(ActionReject, arg)),
			},
		},
	}
}

// ProposalDecision строит кнопки ответа клиента на предложение
func ProposalDecision(id int64) *models.InlineKeyboardMarkup {
	arg := strconv.FormatInt(id, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("Akceptuj", Data(ActionAccept, arg)),
				button("Odrzuć", Data(ActionDecline, arg)),
			},
		},
	}
}

// ChangeAppointment строит кнопку переноса визита
func ChangeAppointment(id int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("Zmień termin", Data(ActionChange, strconv.FormatInt(id, 10)))},
		},
	}
}

// ChangeStarted строит кнопки после начала переноса
func ChangeStarted() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("Wybierz termin", ActionCalendar),
				button("Anuluj", ActionKeep),
			},
		},
	}
}

// DeleteAppointment строит кнопку удаления визита администратором
func DeleteAppointment(id int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("Usuń wizytę", Data(ActionDelete, strconv.FormatInt(id, 10)))},
		},
	}
}
