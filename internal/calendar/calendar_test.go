package calendar

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.August, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestCursor_MonthRoundTrip(t *testing.T) {
	var c Cursor
	if err := c.Select(2025, time.August, 22); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := c.ChangeMonth(-1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Year != 2025 || c.Month != time.July {
		t.Errorf("expected July 2025, got %s %d", c.Month, c.Year)
	}

	if err := c.ChangeMonth(1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Year != 2025 || c.Month != time.August {
		t.Errorf("expected August 2025, got %s %d", c.Month, c.Year)
	}
	if c.Selected != "2025-08-22" {
		t.Errorf("expected selection untouched, got %q", c.Selected)
	}
}

func TestCursor_YearRollover(t *testing.T) {
	c := Cursor{Year: 2025, Month: time.December}
	_ = c.ChangeMonth(1)
	if c.Year != 2026 || c.Month != time.January {
		t.Errorf("expected January 2026, got %s %d", c.Month, c.Year)
	}
	_ = c.ChangeMonth(-1)
	_ = c.ChangeMonth(-1)
	if c.Year != 2025 || c.Month != time.November {
		t.Errorf("expected November 2025, got %s %d", c.Month, c.Year)
	}

	if err := c.ChangeMonth(2); err == nil {
		t.Error("expected error for direction 2")
	}
}

func TestCursor_SelectValidation(t *testing.T) {
	var c Cursor
	if err := c.Select(2025, time.February, 29); err == nil {
		t.Error("expected error for 2025-02-29")
	}
	if err := c.Select(2025, 13, 1); err == nil {
		t.Error("expected error for month 13")
	}
	if c.Selected != "" {
		t.Errorf("failed select must not change selection, got %q", c.Selected)
	}
}

func TestCursor_MoveSelectionAcrossMonths(t *testing.T) {
	var c Cursor
	_ = c.Select(2025, time.August, 31)

	if err := c.MoveSelection(1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Selected != "2025-09-01" || c.Month != time.September {
		t.Errorf("expected 2025-09-01 in September view, got %q / %s", c.Selected, c.Month)
	}

	_ = c.MoveSelection(-7)
	if c.Selected != "2025-08-25" || c.Month != time.August {
		t.Errorf("expected 2025-08-25 in August view, got %q / %s", c.Selected, c.Month)
	}
}

func TestBuildMonth_AdminPreviewAndOverflow(t *testing.T) {
	c := Cursor{Year: 2025, Month: time.August}
	state := func(date string) DayState {
		if date == "2025-08-22" {
			return DayState{Times: []string{"09:00", "11:00", "19:00", "20:00"}}
		}
		return DayState{}
	}

	m := BuildMonth(c, AdminView, "2025-08-05", state)

	// 1 sierpnia 2025 to piątek
	if m.LeadingBlanks != 5 {
		t.Errorf("expected 5 leading blanks, got %d", m.LeadingBlanks)
	}
	if len(m.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(m.Days))
	}
	if m.Title != "sierpień 2025" {
		t.Errorf("unexpected title %q", m.Title)
	}

	cell := m.Days[21]
	if cell.Count != 4 || len(cell.Preview) != 2 || cell.Overflow != 2 {
		t.Errorf("expected preview 2 with +2 overflow, got %+v", cell)
	}
	if !m.Days[0].Selectable {
		t.Error("admin days must always be selectable")
	}
	if !m.Days[4].IsToday {
		t.Error("expected 2025-08-05 to be marked as today")
	}
}

func TestBuildMonth_ClientSelectable(t *testing.T) {
	c := Cursor{Year: 2025, Month: time.August, Selected: "2025-08-22"}
	state := func(date string) DayState {
		wd, _ := Weekday(date)
		return DayState{HasFreeSlot: wd == time.Friday}
	}

	m := BuildMonth(c, ClientView, "2025-08-10", state)

	for _, cell := range m.Days {
		wd, _ := Weekday(cell.Date)
		want := wd == time.Friday && cell.Date >= "2025-08-10"
		if cell.Selectable != want {
			t.Errorf("%s: selectable = %v, want %v", cell.Date, cell.Selectable, want)
		}
		if len(cell.Preview) != 0 {
			t.Errorf("%s: client cells must not carry previews", cell.Date)
		}
	}
	if !m.Days[21].IsSelected {
		t.Error("expected selected day to be marked")
	}
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2025, time.August, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		date string
		want int
	}{
		{"2025-08-15", 5},
		{"2025-08-10", 0},
		{"2025-08-05", -5},
	}
	for _, tt := range tests {
		got, err := DaysUntil(today, tt.date)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestCombine(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	at, err := Combine("2025-08-22", "19:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if at.UTC().Hour() != 17 {
		t.Errorf("expected 17:00 UTC in summer, got %s", at.UTC())
	}
	if _, err := Combine("2025-08-22", "7pm", loc); err == nil {
		t.Error("expected error for bad time")
	}
}
