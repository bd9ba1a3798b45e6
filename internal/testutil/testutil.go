package testutil

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/storage/sqlite"
	"cryo_booking_bot/pkg/logger"
)

// StudioSchedule это шаблон студии: Nd 09:00, Pn/Cz/Pt 19:00
func StudioSchedule() models.WeeklySchedule {
	return models.WeeklySchedule{
		time.Sunday:   {"09:00"},
		time.Monday:   {"19:00"},
		time.Thursday: {"19:00"},
		time.Friday:   {"19:00"},
	}
}

// SetupTestDB создает in-memory SQLite базу данных со шаблоном студии
func SetupTestDB(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()

	storage, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		storage.Close()
	})

	if err := storage.ReplaceWeeklySchedule(context.Background(), StudioSchedule()); err != nil {
		t.Fatalf("failed to seed schedule: %v", err)
	}

	return storage
}

// SetupTestLogger создает тестовый логгер без вывода
func SetupTestLogger() *logger.Logger {
	return logger.Discard()
}

// TestContext создает контекст для тестов
func TestContext() context.Context {
	return context.Background()
}

// Warsaw возвращает часовой пояс студии или UTC, если tzdata недоступна
func Warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock это управляемые часы для тестов
type Clock struct {
	now time.Time
}

// NewClock создает часы, показывающие t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now возвращает текущее время часов
func (c *Clock) Now() time.Time {
	return c.now
}

// Set переводит часы
func (c *Clock) Set(t time.Time) {
	c.now = t
}

// CreateClient добавляет клиента с абонементом
func CreateClient(t *testing.T, s *sqlite.SQLiteStorage, name string, entries int, expires string) *models.Client {
	t.Helper()
	c := &models.Client{
		Name:    name,
		Contact: name + "@example.com",
		Subscription: models.Subscription{
			Type:        "12 wejść",
			EntriesLeft: entries,
			Expires:     expires,
		},
	}
	if err := s.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// AssertNoError проверяет отсутствие ошибки
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}
