package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cryo_booking_bot/pkg/errors"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("INVALID_BODY", errors.KindValidation, "Nieprawidłowe dane żądania.")

// errorResponse это тело ответа с ошибкой
type errorResponse struct {
	Code    string      `json:"code"`
	Kind    errors.Kind `json:"kind"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorBody(err error) errorResponse {
	if be, ok := errors.GetBookingError(err); ok {
		return errorResponse{Code: be.Code, Kind: be.Kind, Message: be.Message}
	}
	return errorResponse{Code: errors.ErrStorage.Code, Kind: errors.KindInternal, Message: errors.UserMessage(err)}
}

// statusFor сопоставляет вид ошибки с HTTP статусом
func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindMalformedRequest:
		return http.StatusUnprocessableEntity
	case errors.KindSlotTaken, errors.KindPastAppointment, errors.KindInsufficientEntries:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody.WithError(err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidID.WithContext(map[string]interface{}{name: raw})
	}
	return id, nil
}
