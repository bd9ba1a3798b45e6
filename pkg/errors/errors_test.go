package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestBookingError_IsMatchesByCode(t *testing.T) {
	err := ErrSlotTaken.WithContext(map[string]interface{}{"date": "2025-08-22"})

	if !stderrors.Is(err, ErrSlotTaken) {
		t.Fatal("expected copy with context to match sentinel")
	}
	if stderrors.Is(err, ErrPastAppointment) {
		t.Fatal("expected different codes not to match")
	}
}

func TestBookingError_WrappedChain(t *testing.T) {
	inner := stderrors.New("disk full")
	err := fmt.Errorf("confirm request: %w", ErrStorage.WithError(inner))

	if !stderrors.Is(err, inner) {
		t.Error("expected underlying error to be reachable")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("expected kind %s, got %s", KindInternal, KindOf(err))
	}

	be, ok := GetBookingError(err)
	if !ok {
		t.Fatal("expected BookingError in chain")
	}
	if be.Code != "STORAGE" {
		t.Errorf("expected code STORAGE, got %s", be.Code)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", ErrNoDateSelected, KindValidation},
		{"not found", ErrRequestNotFound, KindNotFound},
		{"malformed", ErrMalformedRequest, KindMalformedRequest},
		{"slot taken", ErrSlotTaken, KindSlotTaken},
		{"past", ErrPastAppointment, KindPastAppointment},
		{"entries", ErrInsufficientEntries, KindInsufficientEntries},
		{"plain", stderrors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(ErrPastAppointment); msg != "Nie można zmienić terminu przeszłej wizyty." {
		t.Errorf("unexpected message: %q", msg)
	}
	if msg := UserMessage(stderrors.New("boom")); msg != ErrStorage.Message {
		t.Errorf("expected generic message for unknown error, got %q", msg)
	}
	if msg := UserMessage(ErrSlotTaken.WithMessage("Zajęte")); msg != "Zajęte" {
		t.Errorf("expected overridden message, got %q", msg)
	}
}
