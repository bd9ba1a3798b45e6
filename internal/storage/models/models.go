package models

import (
	"sort"
	"time"
)

// VisitStatus это итог посещения в истории клиента
type VisitStatus string

const (
	VisitAttended VisitStatus = "Odwiedzono"
	VisitNoShow   VisitStatus = "Opuszczono"
)

// Valid проверяет, известен ли статус
func (s VisitStatus) Valid() bool {
	return s == VisitAttended || s == VisitNoShow
}

// RequestStatus это состояние заявки
type RequestStatus string

const (
	StatusPendingAdmin  RequestStatus = "pending_admin_approval"
	StatusPendingClient RequestStatus = "pending_client_approval"
	StatusConfirmed     RequestStatus = "confirmed"
	StatusRejected      RequestStatus = "rejected"
)

// Типы заявок
const (
	RequestTypeBooking       = "Rezerwacja z kalendarza"
	RequestTypeSpecial       = "Termin Specjalny"
	RequestTypeReschedule    = "Prośba o zmianę terminu"
	RequestTypeAdminProposal = "Propozycja administratora"
)

// AdminName используется как автор заявок администратора
const AdminName = "Administrator"

// Subscription описывает абонемент клиента
type Subscription struct {
	Type        string `json:"type"`
	EntriesLeft int    `json:"entriesLeft"`
	Expires     string `json:"expires"`
}

// Client представляет клиента студии
type Client struct {
	ID           int64         `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Contact      string        `json:"contact" db:"contact"`
	Subscription Subscription  `json:"subscription"`
	History      []VisitRecord `json:"history"`
	Notes        string        `json:"notes" db:"notes"`
	ChatID       *int64        `json:"chatId,omitempty" db:"chat_id"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// VisitRecord это запись в истории посещений
type VisitRecord struct {
	ID            int64       `json:"id" db:"id"`
	ClientID      int64       `json:"clientId" db:"client_id"`
	Date          string      `json:"date" db:"date"`
	Duration      *string     `json:"duration" db:"duration"`
	Status        VisitStatus `json:"status" db:"status"`
	Temperature   *string     `json:"temperature" db:"temperature"`
	AppointmentID *int64      `json:"appointmentId,omitempty" db:"appointment_id"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}

// SortVisitsDesc сортирует историю по дате от новых к старым.
// При равных датах более поздняя запись идет первой.
func SortVisitsDesc(visits []VisitRecord) {
	sort.SliceStable(visits, func(i, j int) bool {
		if visits[i].Date != visits[j].Date {
			return visits[i].Date > visits[j].Date
		}
		return visits[i].ID > visits[j].ID
	})
}

// Appointment представляет подтвержденный визит
type Appointment struct {
	ID             int64     `json:"id" db:"id"`
	Date           string    `json:"date" db:"date"`
	Time           string    `json:"time" db:"time"`
	ClientID       int64     `json:"clientId" db:"client_id"`
	EntryCharged   bool      `json:"entryCharged" db:"entry_charged"`
	PenaltyCharged bool      `json:"penaltyCharged" db:"penalty_charged"` // штраф за позднюю смену уже списан
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Request представляет заявку клиента или предложение администратора.
// ProposedDate/ProposedTime являются источником истины, Details только текст для показа.
type Request struct {
	ID           int64         `json:"id" db:"id"`
	From         string        `json:"from" db:"from_name"`
	ClientID     int64         `json:"clientId" db:"client_id"`
	Type         string        `json:"type" db:"type"`
	Details      string        `json:"details" db:"details"`
	Status       RequestStatus `json:"status" db:"status"`
	ProposedDate string        `json:"proposedDate,omitempty" db:"proposed_date"`
	ProposedTime string        `json:"proposedTime,omitempty" db:"proposed_time"`
	OriginalDate string        `json:"originalDate,omitempty" db:"original_date"`
	OriginalTime string        `json:"originalTime,omitempty" db:"original_time"`
	CarriedEntry bool          `json:"carriedEntry" db:"carried_entry"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// HasProposal сообщает, заполнены ли структурированные дата и время
func (r *Request) HasProposal() bool {
	return r.ProposedDate != "" && r.ProposedTime != ""
}

// WeeklySchedule это недельный шаблон слотов
type WeeklySchedule map[time.Weekday][]string

// Slots возвращает копию слотов дня недели
func (ws WeeklySchedule) Slots(wd time.Weekday) []string {
	src := ws[wd]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
