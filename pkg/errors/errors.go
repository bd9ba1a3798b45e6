package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind классифицирует ошибку для слоя представления
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindMalformedRequest    Kind = "malformed_request"
	KindSlotTaken           Kind = "slot_taken"
	KindPastAppointment     Kind = "past_appointment"
	KindInsufficientEntries Kind = "insufficient_entries"
	KindInternal            Kind = "internal"
)

// BookingError представляет ошибку операции бронирования с кодом и контекстом.
// Message предназначено для показа пользователю.
type BookingError struct {
	Code    string      `json:"code"`
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error реализует интерфейс error
func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *BookingError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы копии с контекстом совпадали с образцом
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithContext добавляет контекст к ошибке
func (e *BookingError) WithContext(ctx interface{}) *BookingError {
	return &BookingError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     e.Err,
		Context: ctx,
	}
}

// WithError добавляет underlying ошибку
func (e *BookingError) WithError(err error) *BookingError {
	return &BookingError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
		Context: e.Context,
	}
}

// WithMessage заменяет текст для пользователя
func (e *BookingError) WithMessage(msg string) *BookingError {
	return &BookingError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: msg,
		Err:     e.Err,
		Context: e.Context,
	}
}

// Предопределенные ошибки
var (
	// Ошибки валидации
	ErrMissingName = &BookingError{
		Code:    "MISSING_NAME",
		Kind:    KindValidation,
		Message: "Imię i nazwisko klienta są wymagane.",
	}

	ErrMissingExpiry = &BookingError{
		Code:    "MISSING_EXPIRY",
		Kind:    KindValidation,
		Message: "Data ważności karnetu jest wymagana.",
	}

	ErrNoDateSelected = &BookingError{
		Code:    "NO_DATE_SELECTED",
		Kind:    KindValidation,
		Message: "Najpierw wybierz datę z kalendarza.",
	}

	ErrInvalidDate = &BookingError{
		Code:    "INVALID_DATE",
		Kind:    KindValidation,
		Message: "Nieprawidłowa data.",
	}

	ErrInvalidTime = &BookingError{
		Code:    "INVALID_TIME",
		Kind:    KindValidation,
		Message: "Nieprawidłowa godzina.",
	}

	ErrDateInPast = &BookingError{
		Code:    "DATE_IN_PAST",
		Kind:    KindValidation,
		Message: "Nie można zarezerwować terminu w przeszłości.",
	}

	ErrInvalidEntries = &BookingError{
		Code:    "INVALID_ENTRIES",
		Kind:    KindValidation,
		Message: "Liczba wejść nie może być ujemna.",
	}

	ErrInvalidVisitStatus = &BookingError{
		Code:    "INVALID_VISIT_STATUS",
		Kind:    KindValidation,
		Message: "Nieprawidłowy status wizyty.",
	}

	ErrInvalidDirection = &BookingError{
		Code:    "INVALID_DIRECTION",
		Kind:    KindValidation,
		Message: "Nieprawidłowy kierunek nawigacji.",
	}

	ErrInvalidRole = &BookingError{
		Code:    "INVALID_ROLE",
		Kind:    KindValidation,
		Message: "Nieprawidłowa rola.",
	}

	ErrInvalidFilter = &BookingError{
		Code:    "INVALID_FILTER",
		Kind:    KindValidation,
		Message: "Nieprawidłowy filtr.",
	}

	ErrInvalidID = &BookingError{
		Code:    "INVALID_ID",
		Kind:    KindValidation,
		Message: "Nieprawidłowy identyfikator.",
	}

	ErrInvalidPhoneNumber = &BookingError{
		Code:    "INVALID_PHONE_NUMBER",
		Kind:    KindValidation,
		Message: "Nieprawidłowy numer telefonu.",
	}

	ErrRequestNotPendingAdmin = &BookingError{
		Code:    "REQUEST_NOT_PENDING_ADMIN",
		Kind:    KindValidation,
		Message: "Ta prośba nie oczekuje na decyzję administratora.",
	}

	ErrRequestNotPendingClient = &BookingError{
		Code:    "REQUEST_NOT_PENDING_CLIENT",
		Kind:    KindValidation,
		Message: "Ta propozycja nie oczekuje na odpowiedź klienta.",
	}

	ErrClientRoleRequired = &BookingError{
		Code:    "CLIENT_ROLE_REQUIRED",
		Kind:    KindValidation,
		Message: "Ta akcja jest dostępna tylko dla klienta.",
	}

	// Ошибки поиска
	ErrClientNotFound = &BookingError{
		Code:    "CLIENT_NOT_FOUND",
		Kind:    KindNotFound,
		Message: "Nie znaleziono klienta.",
	}

	ErrAppointmentNotFound = &BookingError{
		Code:    "APPOINTMENT_NOT_FOUND",
		Kind:    KindNotFound,
		Message: "Nie znaleziono wizyty.",
	}

	ErrRequestNotFound = &BookingError{
		Code:    "REQUEST_NOT_FOUND",
		Kind:    KindNotFound,
		Message: "Nie znaleziono prośby.",
	}

	ErrVisitNotFound = &BookingError{
		Code:    "VISIT_NOT_FOUND",
		Kind:    KindNotFound,
		Message: "Nie znaleziono wpisu w historii.",
	}

	ErrSessionNotFound = &BookingError{
		Code:    "SESSION_NOT_FOUND",
		Kind:    KindNotFound,
		Message: "Sesja wygasła. Zaloguj się ponownie.",
	}

	// Ошибки бизнес-логики
	ErrMalformedRequest = &BookingError{
		Code:    "MALFORMED_REQUEST",
		Kind:    KindMalformedRequest,
		Message: "Nie udało się odczytać daty i godziny z prośby.",
	}

	ErrSlotTaken = &BookingError{
		Code:    "SLOT_TAKEN",
		Kind:    KindSlotTaken,
		Message: "Ten termin jest już zajęty.",
	}

	ErrPastAppointment = &BookingError{
		Code:    "PAST_APPOINTMENT",
		Kind:    KindPastAppointment,
		Message: "Nie można zmienić terminu przeszłej wizyty.",
	}

	ErrInsufficientEntries = &BookingError{
		Code:    "INSUFFICIENT_ENTRIES",
		Kind:    KindInsufficientEntries,
		Message: "Klient nie ma już wejść na karnecie. Potwierdź, aby kontynuować.",
	}

	// Системные ошибки
	ErrStorage = &BookingError{
		Code:    "STORAGE",
		Kind:    KindInternal,
		Message: "Wystąpił błąd bazy danych.",
	}

	ErrConfigurationInvalid = &BookingError{
		Code:    "CONFIGURATION_INVALID",
		Kind:    KindInternal,
		Message: "Nieprawidłowa konfiguracja.",
	}

	ErrTelegramAPI = &BookingError{
		Code:    "TELEGRAM_API",
		Kind:    KindInternal,
		Message: "Błąd Telegram API.",
	}
)

// New создает новую ошибку бронирования
func New(code string, kind Kind, message string) *BookingError {
	return &BookingError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap оборачивает обычную ошибку в BookingError
func Wrap(err error, code, message string) *BookingError {
	return &BookingError{
		Code:    code,
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}

// IsBookingError проверяет, является ли ошибка BookingError
func IsBookingError(err error) bool {
	var be *BookingError
	return stderrors.As(err, &be)
}

// GetBookingError извлекает BookingError из цепочки ошибок
func GetBookingError(err error) (*BookingError, bool) {
	var be *BookingError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// KindOf возвращает вид ошибки; всё неизвестное считается внутренней ошибкой
func KindOf(err error) Kind {
	if be, ok := GetBookingError(err); ok {
		return be.Kind
	}
	return KindInternal
}

// UserMessage возвращает текст для показа пользователю
func UserMessage(err error) string {
	if be, ok := GetBookingError(err); ok {
		return be.Message
	}
	return ErrStorage.Message
}
