package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/pkg/errors"
)

// Регулярные выражения для валидации
var (
	phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	dateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex  = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ValidateID валидирует числовой идентификатор из строки
func ValidateID(idStr string) (int64, error) {
	if idStr == "" {
		return 0, errors.ErrInvalidID.WithContext("ID не может быть пустым")
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidID.WithError(err).WithContext(map[string]interface{}{
			"input": idStr,
		})
	}

	if id <= 0 {
		return 0, errors.ErrInvalidID.WithContext(map[string]interface{}{
			"input":  idStr,
			"reason": "ID должен быть положительным числом",
		})
	}

	return id, nil
}

// ValidatePhoneNumber валидирует номер телефона
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return errors.ErrInvalidPhoneNumber.WithContext("номер телефона не может быть пустым")
	}

	if !phoneRegex.MatchString(phone) {
		return errors.ErrInvalidPhoneNumber.WithContext(map[string]interface{}{
			"phone":  phone,
			"reason": "номер должен быть в международном формате (+48123456789)",
		})
	}

	return nil
}

// NormalizePhone оставляет только цифры и ведущий плюс.
// Telegram присылает номер без плюса, в карточке клиента он может быть с пробелами.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out != "" && !strings.HasPrefix(out, "+") {
		out = "+" + out
	}
	return out
}

// ValidateDate валидирует дату в формате YYYY-MM-DD
func ValidateDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, errors.ErrInvalidDate.WithContext("дата не может быть пустой")
	}

	if !dateRegex.MatchString(dateStr) {
		return time.Time{}, errors.ErrInvalidDate.WithContext(map[string]interface{}{
			"date":   dateStr,
			"reason": "дата должна быть в формате YYYY-MM-DD",
		})
	}

	date, err := calendar.ParseISO(dateStr)
	if err != nil {
		return time.Time{}, errors.ErrInvalidDate.WithError(err).WithContext(map[string]interface{}{
			"date": dateStr,
		})
	}

	return date, nil
}

// ValidateFutureDate валидирует дату и проверяет, что она не раньше today
func ValidateFutureDate(dateStr string, today time.Time) (time.Time, error) {
	date, err := ValidateDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}

	if dateStr < calendar.FormatISO(today) {
		return time.Time{}, errors.ErrDateInPast.WithContext(map[string]interface{}{
			"date":  dateStr,
			"today": calendar.FormatISO(today),
		})
	}

	return date, nil
}

// ValidateTime валидирует время в формате HH:MM
func ValidateTime(timeStr string) (time.Time, error) {
	if timeStr == "" {
		return time.Time{}, errors.ErrInvalidTime.WithContext("время не может быть пустым")
	}

	if !timeRegex.MatchString(timeStr) {
		return time.Time{}, errors.ErrInvalidTime.WithContext(map[string]interface{}{
			"time":   timeStr,
			"reason": "время должно быть в формате HH:MM",
		})
	}

	parsed, err := calendar.ParseSlot(timeStr)
	if err != nil {
		return time.Time{}, errors.ErrInvalidTime.WithError(err).WithContext(map[string]interface{}{
			"time": timeStr,
		})
	}

	return parsed, nil
}

// ValidateClientName валидирует имя клиента
func ValidateClientName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.ErrMissingName
	}

	if len([]rune(name)) > 100 {
		return errors.ErrMissingName.WithMessage("Imię i nazwisko są za długie (maksymalnie 100 znaków).")
	}

	return nil
}

// ValidateEntries проверяет количество входов абонемента
func ValidateEntries(entries int) error {
	if entries < 0 {
		return errors.ErrInvalidEntries.WithContext(map[string]interface{}{
			"entries": entries,
		})
	}
	return nil
}

// ValidateDirection проверяет направление листания месяца
func ValidateDirection(direction int) error {
	if direction != -1 && direction != 1 {
		return errors.ErrInvalidDirection.WithContext(map[string]interface{}{
			"direction": direction,
		})
	}
	return nil
}

// ValidateChatID валидирует Telegram Chat ID
func ValidateChatID(chatID int64) error {
	if chatID == 0 {
		return errors.ErrInvalidID.WithContext("Chat ID не может быть равен нулю")
	}

	// Для групп Chat ID отрицательный, принимаем любые ненулевые значения
	return nil
}
