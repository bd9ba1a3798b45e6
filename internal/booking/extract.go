package booking

import (
	"regexp"

	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
)

var (
	datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	timePattern = regexp.MustCompile(`\d{2}:\d{2}`)
)

// proposedSlot возвращает дату и время заявки.
// Заявки без структурированных полей разбираются по последним дате и времени в тексте.
func proposedSlot(req *models.Request) (string, string, error) {
	if req.HasProposal() {
		return req.ProposedDate, req.ProposedTime, nil
	}

	dates := datePattern.FindAllString(req.Details, -1)
	times := timePattern.FindAllString(req.Details, -1)
	if len(dates) == 0 || len(times) == 0 {
		return "", "", errors.ErrMalformedRequest.WithContext(map[string]interface{}{
			"request_id": req.ID,
			"details":    req.Details,
		})
	}

	date, slot := dates[len(dates)-1], times[len(times)-1]
	if _, err := calendar.ParseISO(date); err != nil {
		return "", "", errors.ErrMalformedRequest.WithError(err)
	}
	if _, err := calendar.ParseSlot(slot); err != nil {
		return "", "", errors.ErrMalformedRequest.WithError(err)
	}
	return date, slot, nil
}
