package calendar

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// FormatISO форматирует дату как YYYY-MM-DD
func FormatISO(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseISO разбирает дату YYYY-MM-DD (в UTC)
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseSlot разбирает время слота HH:MM
func ParseSlot(s string) (time.Time, error) {
	if len(s) != len(TimeLayout) {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

// DaysInMonth возвращает количество дней в месяце
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Weekday возвращает день недели даты YYYY-MM-DD
func Weekday(date string) (time.Weekday, error) {
	t, err := ParseISO(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// Combine собирает момент начала визита в часовом поясе студии
func Combine(date, slot string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+slot, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q: %w", date, slot, err)
	}
	return t, nil
}

// DaysUntil возвращает число календарных дней от today до date.
// Ноль или меньше означает, что дата наступила или прошла.
func DaysUntil(today time.Time, date string) (int, error) {
	d, err := ParseISO(date)
	if err != nil {
		return 0, err
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(start).Hours() / 24), nil
}

var monthNames = [...]string{
	"styczeń", "luty", "marzec", "kwiecień", "maj", "czerwiec",
	"lipiec", "sierpień", "wrzesień", "październik", "listopad", "grudzień",
}

// WeekdayHeaders это заголовки колонок сетки, начиная с воскресенья
var WeekdayHeaders = [7]string{"Nd", "Pn", "Wt", "Śr", "Cz", "Pt", "So"}

// MonthTitle возвращает подпись месяца, например "sierpień 2025"
func MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}
