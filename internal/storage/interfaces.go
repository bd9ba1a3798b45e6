package storage

import (
	"context"
	"errors"
	"time"

	"cryo_booking_bot/internal/storage/models"
)

// ErrNotFound возвращается, когда запись отсутствует
var ErrNotFound = errors.New("record not found")

// ClientRepository определяет интерфейс для работы с клиентами
type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id int64) error
	ListClients(ctx context.Context) ([]*models.Client, error)
	FindClientByContact(ctx context.Context, contact string) (*models.Client, error)
	FindClientByChatID(ctx context.Context, chatID int64) (*models.Client, error)
	SetClientChatID(ctx context.Context, id, chatID int64) error
}

// VisitRepository определяет интерфейс для истории посещений.
// Список возвращается в порядке добавления.
type VisitRepository interface {
	AddVisit(ctx context.Context, visit *models.VisitRecord) error
	ListVisits(ctx context.Context, clientID int64) ([]models.VisitRecord, error)
	DeleteVisit(ctx context.Context, id int64) error
}

// AppointmentRepository определяет интерфейс для работы с визитами
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	MarkPenaltyCharged(ctx context.Context, id int64) error
	FindAppointmentAt(ctx context.Context, date, slot string) (*models.Appointment, error)
	ListAppointmentsByDate(ctx context.Context, date string) ([]*models.Appointment, error)
	ListAppointmentsInRange(ctx context.Context, from, to string) ([]*models.Appointment, error)
	ListAppointmentsByClient(ctx context.Context, clientID int64) ([]*models.Appointment, error)
}

// RequestRepository определяет интерфейс для работы с заявками
type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.Request) error
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	UpdateRequest(ctx context.Context, req *models.Request) error
	DeleteRequest(ctx context.Context, id int64) error
	ListRequests(ctx context.Context) ([]*models.Request, error)
	ListRequestsByClient(ctx context.Context, clientID int64) ([]*models.Request, error)
}

// ScheduleRepository хранит недельный шаблон слотов
type ScheduleRepository interface {
	GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error)
	ReplaceWeeklySchedule(ctx context.Context, ws models.WeeklySchedule) error
	SlotsForWeekday(ctx context.Context, wd time.Weekday) ([]string, error)
}

// Repository объединяет все репозитории
type Repository interface {
	ClientRepository
	VisitRepository
	AppointmentRepository
	RequestRepository
	ScheduleRepository
}

// Storage объединяет репозитории, транзакции и управление соединением
type Storage interface {
	Repository
	// InTx выполняет fn в одной транзакции; при ошибке изменения откатываются
	InTx(ctx context.Context, fn func(repo Repository) error) error
	Close() error
	Ping(ctx context.Context) error
}
