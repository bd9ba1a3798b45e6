package calendar

import "time"

// View определяет, для какой роли строится сетка
type View string

const (
	AdminView  View = "admin"
	ClientView View = "client"
)

// PreviewLimit это число визитов, показываемых в ячейке дня администратора
const PreviewLimit = 2

// DayState это данные доступности одного дня
type DayState struct {
	HasFreeSlot bool
	Times       []string // время визитов по возрастанию
}

// DayCell это ячейка дня в месячной сетке
type DayCell struct {
	Date       string   `json:"date"`
	Day        int      `json:"day"`
	IsToday    bool     `json:"isToday"`
	IsSelected bool     `json:"isSelected"`
	Selectable bool     `json:"selectable"`
	Count      int      `json:"count"`
	Preview    []string `json:"preview,omitempty"`
	Overflow   int      `json:"overflow,omitempty"`
}

// Month это построенная месячная сетка; LeadingBlanks пустых ячеек перед первым днем
type Month struct {
	View          View       `json:"view"`
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	Title         string     `json:"title"`
	Headers       [7]string  `json:"headers"`
	LeadingBlanks int        `json:"leadingBlanks"`
	Days          []DayCell  `json:"days"`
}

// BuildMonth строит сетку месяца курсора.
// Администратор может открыть любой день, клиент только будущий день со свободным слотом.
func BuildMonth(c Cursor, view View, today string, state func(date string) DayState) Month {
	first := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
	n := DaysInMonth(c.Year, c.Month)

	m := Month{
		View:          view,
		Year:          c.Year,
		Month:         c.Month,
		Title:         MonthTitle(c.Year, c.Month),
		Headers:       WeekdayHeaders,
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]DayCell, 0, n),
	}

	for d := 1; d <= n; d++ {
		date := FormatISO(first.AddDate(0, 0, d-1))
		st := state(date)

		cell := DayCell{
			Date:       date,
			Day:        d,
			IsToday:    date == today,
			IsSelected: date == c.Selected,
			Count:      len(st.Times),
		}

		switch view {
		case AdminView:
			cell.Selectable = true
			if len(st.Times) > PreviewLimit {
				cell.Preview = st.Times[:PreviewLimit]
				cell.Overflow = len(st.Times) - PreviewLimit
			} else {
				cell.Preview = st.Times
			}
		default:
			cell.Selectable = st.HasFreeSlot && date >= today
		}

		m.Days = append(m.Days, cell)
	}

	return m
}
