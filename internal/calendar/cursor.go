package calendar

import (
	"fmt"
	"time"
)

// Cursor хранит просматриваемый месяц и выбранную дату одного вида календаря
type Cursor struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Selected string     `json:"selected,omitempty"`
}

// NewCursor создает курсор на месяце даты t
func NewCursor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// ChangeMonth листает месяц на -1 или +1. Выбранная дата не меняется.
func (c *Cursor) ChangeMonth(direction int) error {
	if direction != -1 && direction != 1 {
		return fmt.Errorf("invalid direction %d", direction)
	}
	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, direction, 0)
	c.Year, c.Month = first.Year(), first.Month()
	return nil
}

// Select выбирает дату и переводит вид на ее месяц
func (c *Cursor) Select(year int, month time.Month, day int) error {
	if month < time.January || month > time.December {
		return fmt.Errorf("invalid month %d", month)
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return fmt.Errorf("invalid day %d for %d-%02d", day, year, month)
	}
	c.Year, c.Month = year, month
	c.Selected = FormatISO(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return nil
}

// FirstDay возвращает первую дату месяца в формате YYYY-MM-DD
func (c Cursor) FirstDay() string {
	return FormatISO(time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC))
}

// LastDay возвращает последнюю дату месяца в формате YYYY-MM-DD
func (c Cursor) LastDay() string {
	return FormatISO(time.Date(c.Year, c.Month, DaysInMonth(c.Year, c.Month), 0, 0, 0, 0, time.UTC))
}

// MoveSelection сдвигает выбранную дату на days дней, переходя через границы месяца
func (c *Cursor) MoveSelection(days int) error {
	if c.Selected == "" {
		return fmt.Errorf("no date selected")
	}
	t, err := ParseISO(c.Selected)
	if err != nil {
		return err
	}
	t = t.AddDate(0, 0, days)
	return c.Select(t.Year(), t.Month(), t.Day())
}
