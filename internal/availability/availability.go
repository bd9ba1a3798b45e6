package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/storage/models"
)

// Source это данные, нужные движку доступности
type Source interface {
	SlotsForWeekday(ctx context.Context, wd time.Weekday) ([]string, error)
	GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error)
	ListAppointmentsByDate(ctx context.Context, date string) ([]*models.Appointment, error)
	ListAppointmentsInRange(ctx context.Context, from, to string) ([]*models.Appointment, error)
}

// SlotState это слот шаблона и признак занятости
type SlotState struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

// Engine вычисляет свободные слоты по недельному шаблону и визитам
type Engine struct {
	src Source
}

// New создает движок доступности
func New(src Source) *Engine {
	return &Engine{src: src}
}

// FreeSlotsOnDate возвращает слоты шаблона, не занятые визитами этой даты.
// Пустой шаблон дня дает пустой результат.
func (e *Engine) FreeSlotsOnDate(ctx context.Context, date string) ([]string, error) {
	states, err := e.SlotStates(ctx, date)
	if err != nil {
		return nil, err
	}

	free := make([]string, 0, len(states))
	for _, s := range states {
		if !s.Booked {
			free = append(free, s.Time)
		}
	}
	return free, nil
}

// HasAnyFreeSlot сообщает, что у дня непустой шаблон и занято меньше слотов, чем в шаблоне
func (e *Engine) HasAnyFreeSlot(ctx context.Context, date string) (bool, error) {
	template, err := e.template(ctx, date)
	if err != nil {
		return false, err
	}
	if len(template) == 0 {
		return false, nil
	}

	appts, err := e.src.ListAppointmentsByDate(ctx, date)
	if err != nil {
		return false, fmt.Errorf("failed to load appointments: %w", err)
	}
	return freeCount(template, appts) > 0, nil
}

// AppointmentsOnDate возвращает визиты даты по возрастанию времени
func (e *Engine) AppointmentsOnDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	appts, err := e.src.ListAppointmentsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	sortByTime(appts)
	return appts, nil
}

// SlotStates возвращает слоты шаблона даты с признаком занятости
func (e *Engine) SlotStates(ctx context.Context, date string) ([]SlotState, error) {
	template, err := e.template(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return []SlotState{}, nil
	}

	appts, err := e.src.ListAppointmentsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	booked := bookedTimes(appts)
	states := make([]SlotState, 0, len(template))
	for _, slot := range template {
		states = append(states, SlotState{Time: slot, Booked: booked[slot] > 0})
	}
	return states, nil
}

// MonthStates возвращает состояние каждого дня месяца для построения сетки.
// Выполняет один запрос визитов на весь месяц.
func (e *Engine) MonthStates(ctx context.Context, c calendar.Cursor) (map[string]calendar.DayState, error) {
	ws, err := e.src.GetWeeklySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	appts, err := e.src.ListAppointmentsInRange(ctx, c.FirstDay(), c.LastDay())
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	byDate := make(map[string][]*models.Appointment)
	for _, a := range appts {
		byDate[a.Date] = append(byDate[a.Date], a)
	}

	states := make(map[string]calendar.DayState, calendar.DaysInMonth(c.Year, c.Month))
	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < calendar.DaysInMonth(c.Year, c.Month); d++ {
		day := first.AddDate(0, 0, d)
		date := calendar.FormatISO(day)

		dayAppts := byDate[date]
		sortByTime(dayAppts)
		times := make([]string, 0, len(dayAppts))
		for _, a := range dayAppts {
			times = append(times, a.Time)
		}

		states[date] = calendar.DayState{
			HasFreeSlot: freeCount(ws[day.Weekday()], dayAppts) > 0,
			Times:       times,
		}
	}
	return states, nil
}

func (e *Engine) template(ctx context.Context, date string) ([]string, error) {
	wd, err := calendar.Weekday(date)
	if err != nil {
		return nil, err
	}
	slots, err := e.src.SlotsForWeekday(ctx, wd)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return slots, nil
}

// freeCount считает свободные слоты шаблона; визиты вне шаблона слоты не занимают
func freeCount(template []string, appts []*models.Appointment) int {
	booked := bookedTimes(appts)
	free := 0
	for _, slot := range template {
		if booked[slot] == 0 {
			free++
		}
	}
	return free
}

func bookedTimes(appts []*models.Appointment) map[string]int {
	booked := make(map[string]int, len(appts))
	for _, a := range appts {
		booked[a.Time]++
	}
	return booked
}

func sortByTime(appts []*models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Time < appts[j].Time
	})
}
