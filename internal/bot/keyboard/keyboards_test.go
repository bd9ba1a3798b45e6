package keyboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryo_booking_bot/internal/availability"
	"cryo_booking_bot/internal/calendar"
)

func TestDataParse(t *testing.T) {
	action, arg := Parse(Data(ActionDay, "2025-08-22"))
	assert.Equal(t, ActionDay, action)
	assert.Equal(t, "2025-08-22", arg)

	action, arg = Parse(Data(ActionMonth, "-1"))
	assert.Equal(t, ActionMonth, action)
	assert.Equal(t, "-1", arg)

	action, arg = Parse(ActionNoop)
	assert.Equal(t, ActionNoop, action)
	assert.Empty(t, arg)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, arg := range []string{"", "0", "-3", "abc"} {
		_, err := ParseID(arg)
		assert.Error(t, err, "arg %q", arg)
	}
}

func augustStates(date string) calendar.DayState {
	switch date {
	case "2025-08-04":
		return calendar.DayState{HasFreeSlot: true}
	case "2025-08-22":
		return calendar.DayState{Times: []string{"19:00"}}
	}
	return calendar.DayState{}
}

func TestMonth_AdminLayout(t *testing.T) {
	c := calendar.Cursor{Year: 2025, Month: time.August, Selected: "2025-08-04"}
	m := calendar.BuildMonth(c, calendar.AdminView, "2025-08-01", augustStates)

	kb := Month(m)
	rows := kb.InlineKeyboard

	// навигация, заголовки и 6 недель
	require.Len(t, rows, 8)
	assert.Equal(t, "MONTH:-1", rows[0][0].CallbackData)
	assert.Equal(t, "sierpień 2025", rows[0][1].Text)
	assert.Equal(t, "MONTH:1", rows[0][2].CallbackData)
	assert.Len(t, rows[1], 7)

	for _, row := range rows[2:] {
		assert.Len(t, row, 7)
	}

	firstWeek := rows[2]
	for i := 0; i < 5; i++ {
		assert.Equal(t, ActionNoop, firstWeek[i].CallbackData)
	}
	assert.Equal(t, "(1)", firstWeek[5].Text)
	assert.Equal(t, "DAY:2025-08-01", firstWeek[5].CallbackData)

	// 4 августа выбрано, 22 августа есть визит
	assert.Equal(t, "[4]", rows[3][1].Text)
	assert.Equal(t, "22•", rows[5][5].Text)
}

func TestMonth_ClientHidesUnavailableDays(t *testing.T) {
	c := calendar.Cursor{Year: 2025, Month: time.August}
	m := calendar.BuildMonth(c, calendar.ClientView, "2025-08-01", augustStates)

	rows := Month(m).InlineKeyboard
	var clickable []string
	for _, row := range rows[2:] {
		for _, b := range row {
			if action, _ := Parse(b.CallbackData); action == ActionDay {
				clickable = append(clickable, b.CallbackData)
			}
		}
	}
	assert.Equal(t, []string{"DAY:2025-08-04"}, clickable)
	assert.Equal(t, "·", rows[5][5].Text)
}

func TestSlots(t *testing.T) {
	kb := Slots([]availability.SlotState{
		{Time: "09:00", Booked: true},
		{Time: "19:00"},
	})

	rows := kb.InlineKeyboard
	require.Len(t, rows, 3)
	assert.Equal(t, "09:00 (zajęte)", rows[0][0].Text)
	assert.Equal(t, ActionNoop, rows[0][0].CallbackData)
	assert.Equal(t, "SLOT:19:00", rows[1][0].CallbackData)
	assert.Equal(t, ActionCalendar, rows[2][0].CallbackData)
}

func TestDecisionKeyboards(t *testing.T) {
	kb := RequestDecision(7)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "CONFIRM:7", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "REJECT:7", kb.InlineKeyboard[0][1].CallbackData)

	kb = ProposalDecision(3)
	assert.Equal(t, "ACCEPT:3", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "DECLINE:3", kb.InlineKeyboard[0][1].CallbackData)

	assert.Equal(t, "CHANGE:5", ChangeAppointment(5).InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "DEL:9", DeleteAppointment(9).InlineKeyboard[0][0].CallbackData)
}
