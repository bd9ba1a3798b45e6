package validation

import (
	"testing"
	"time"

	"cryo_booking_bot/pkg/errors"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "valid ID", input: "123", want: 123},
		{name: "empty string", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative number", input: "-5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ValidateID() = %v, want %v", got, tt.want)
			}
			if err != nil && errors.KindOf(err) != errors.KindValidation {
				t.Errorf("expected validation kind, got %s", errors.KindOf(err))
			}
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid polish number", input: "+48600100200"},
		{name: "empty string", input: "", wantErr: true},
		{name: "missing plus", input: "48600100200", wantErr: true},
		{name: "letters", input: "+48abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePhoneNumber(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhoneNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"48600100200":       "+48600100200",
		"+48 600 100 200":   "+48600100200",
		" +48-600-100-200 ": "+48600100200",
		"jan@example.com":   "",
		"":                  "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2025-08-22", false},
		{"", true},
		{"22.08.2025", true},
		{"2025-02-30", true},
	}
	for _, tt := range tests {
		_, err := ValidateDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateFutureDate(t *testing.T) {
	today := time.Date(2025, time.August, 10, 18, 0, 0, 0, time.UTC)

	if _, err := ValidateFutureDate("2025-08-10", today); err != nil {
		t.Errorf("today must be accepted, got %v", err)
	}
	if _, err := ValidateFutureDate("2025-08-09", today); !errors.ErrDateInPast.Is(err) {
		t.Errorf("expected ErrDateInPast, got %v", err)
	}
}

func TestValidateTime(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"19:00", false},
		{"09:30", false},
		{"9:30", true},
		{"25:00", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ValidateTime(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateClientName(t *testing.T) {
	if err := ValidateClientName("   "); !errors.ErrMissingName.Is(err) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
	if err := ValidateClientName("Jan Kowalski"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	for _, d := range []int{-1, 1} {
		if err := ValidateDirection(d); err != nil {
			t.Errorf("direction %d: unexpected error %v", d, err)
		}
	}
	for _, d := range []int{0, 2, -12} {
		if err := ValidateDirection(d); err == nil {
			t.Errorf("direction %d: expected error", d)
		}
	}
}
