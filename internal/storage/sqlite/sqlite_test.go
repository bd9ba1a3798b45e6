package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createClient(t *testing.T, s *SQLiteStorage, name string, entries int) *models.Client {
	t.Helper()
	c := &models.Client{
		Name:    name,
		Contact: name + "@example.com",
		Subscription: models.Subscription{
			Type:        "12 wejść",
			EntriesLeft: entries,
			Expires:     "2025-08-25",
		},
	}
	if err := s.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestClients_CRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	c := createClient(t, s, "Jan Kowalski", 8)
	if c.ID == 0 {
		t.Fatal("expected client ID to be set after creation")
	}

	got, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Name != "Jan Kowalski" || got.Subscription.EntriesLeft != 8 || got.Subscription.Expires != "2025-08-25" {
		t.Errorf("unexpected client: %+v", got)
	}
	if got.ChatID != nil {
		t.Errorf("expected no chat id, got %d", *got.ChatID)
	}

	got.Subscription.EntriesLeft = 7
	got.Notes = "Preferuje wieczorne godziny."
	if err := s.UpdateClient(ctx, got); err != nil {
		t.Fatalf("failed to update client: %v", err)
	}

	again, _ := s.GetClient(ctx, c.ID)
	if again.Subscription.EntriesLeft != 7 || again.Notes != "Preferuje wieczorne godziny." {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := s.DeleteClient(ctx, c.ID); err != nil {
		t.Fatalf("failed to delete client: %v", err)
	}
	if _, err := s.GetClient(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteClient(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestClients_ChatBinding(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	a := createClient(t, s, "Anna", 1)
	b := createClient(t, s, "Piotr", 2)

	if err := s.SetClientChatID(ctx, a.ID, 555); err != nil {
		t.Fatalf("failed to bind chat: %v", err)
	}
	found, err := s.FindClientByChatID(ctx, 555)
	if err != nil || found.ID != a.ID {
		t.Fatalf("expected client %d, got %+v (%v)", a.ID, found, err)
	}

	// тот же чат переходит к другому клиенту
	if err := s.SetClientChatID(ctx, b.ID, 555); err != nil {
		t.Fatalf("failed to rebind chat: %v", err)
	}
	found, _ = s.FindClientByChatID(ctx, 555)
	if found.ID != b.ID {
		t.Errorf("expected chat to move to client %d, got %d", b.ID, found.ID)
	}

	byContact, err := s.FindClientByContact(ctx, "Anna@example.com")
	if err != nil || byContact.ID != a.ID {
		t.Errorf("expected lookup by contact to find Anna, got %+v (%v)", byContact, err)
	}
}

func TestVisits_InsertionOrderAndCascade(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	c := createClient(t, s, "Maria", 2)

	dur := "180 sec"
	temp := "-130°C"
	for _, v := range []models.VisitRecord{
		{ClientID: c.ID, Date: "2025-07-20", Status: models.VisitNoShow},
		{ClientID: c.ID, Date: "2025-07-28", Status: models.VisitAttended, Duration: &dur, Temperature: &temp},
		{ClientID: c.ID, Date: "2025-07-10", Status: models.VisitAttended, Duration: &dur, Temperature: &temp},
	} {
		v := v
		if err := s.AddVisit(ctx, &v); err != nil {
			t.Fatalf("failed to add visit: %v", err)
		}
	}

	visits, err := s.ListVisits(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list visits: %v", err)
	}
	if len(visits) != 3 {
		t.Fatalf("expected 3 visits, got %d", len(visits))
	}
	if visits[0].Date != "2025-07-20" || visits[2].Date != "2025-07-10" {
		t.Errorf("expected insertion order, got %s, %s, %s", visits[0].Date, visits[1].Date, visits[2].Date)
	}
	if visits[0].Duration != nil || visits[1].Duration == nil || *visits[1].Duration != "180 sec" {
		t.Errorf("unexpected nullable fields: %+v", visits)
	}

	models.SortVisitsDesc(visits)
	if visits[0].Date != "2025-07-28" || visits[2].Date != "2025-07-10" {
		t.Errorf("expected descending order after sort, got %s, %s, %s", visits[0].Date, visits[1].Date, visits[2].Date)
	}

	if err := s.DeleteClient(ctx, c.ID); err != nil {
		t.Fatalf("failed to delete client: %v", err)
	}
	visits, _ = s.ListVisits(ctx, c.ID)
	if len(visits) != 0 {
		t.Errorf("expected history removed with client, got %d", len(visits))
	}
}

func TestAppointments_Queries(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, a := range []models.Appointment{
		{Date: "2025-08-22", Time: "19:00", ClientID: 1, EntryCharged: true},
		{Date: "2025-08-22", Time: "09:00", ClientID: 2},
		{Date: "2025-08-25", Time: "19:00", ClientID: 1},
	} {
		a := a
		if err := s.CreateAppointment(ctx, &a); err != nil {
			t.Fatalf("failed to create appointment: %v", err)
		}
	}

	day, err := s.ListAppointmentsByDate(ctx, "2025-08-22")
	if err != nil {
		t.Fatalf("failed to list by date: %v", err)
	}
	if len(day) != 2 || day[0].Time != "09:00" || day[1].Time != "19:00" {
		t.Errorf("expected two appointments sorted by time, got %+v", day)
	}
	if !day[1].EntryCharged || day[0].EntryCharged {
		t.Errorf("entry_charged not round-tripped: %+v", day)
	}

	inRange, _ := s.ListAppointmentsInRange(ctx, "2025-08-01", "2025-08-31")
	if len(inRange) != 3 {
		t.Errorf("expected 3 appointments in August, got %d", len(inRange))
	}

	found, err := s.FindAppointmentAt(ctx, "2025-08-22", "19:00")
	if err != nil || found.ClientID != 1 {
		t.Errorf("expected to find 19:00 appointment, got %+v (%v)", found, err)
	}
	if _, err := s.FindAppointmentAt(ctx, "2025-08-22", "11:00"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for free slot, got %v", err)
	}

	if found.PenaltyCharged {
		t.Errorf("new appointment must not carry a penalty: %+v", found)
	}
	if err := s.MarkPenaltyCharged(ctx, found.ID); err != nil {
		t.Fatalf("failed to mark penalty: %v", err)
	}
	marked, _ := s.GetAppointment(ctx, found.ID)
	if !marked.PenaltyCharged {
		t.Errorf("penalty_charged not persisted: %+v", marked)
	}
	if err := s.MarkPenaltyCharged(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing appointment, got %v", err)
	}

	byClient, _ := s.ListAppointmentsByClient(ctx, 1)
	if len(byClient) != 2 {
		t.Errorf("expected 2 appointments for client 1, got %d", len(byClient))
	}
}

func TestRequests_StableIDs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		req := &models.Request{
			From:         "Maria Nowak",
			ClientID:     2,
			Type:         models.RequestTypeBooking,
			Details:      "Prośba o wizytę: 2025-08-12 o 11:00",
			Status:       models.StatusPendingAdmin,
			ProposedDate: "2025-08-12",
			ProposedTime: "11:00",
		}
		if err := s.CreateRequest(ctx, req); err != nil {
			t.Fatalf("failed to create request: %v", err)
		}
		ids = append(ids, req.ID)
	}

	if err := s.DeleteRequest(ctx, ids[0]); err != nil {
		t.Fatalf("failed to delete request: %v", err)
	}

	// удаление первой заявки не сдвигает идентификаторы остальных
	req, err := s.GetRequest(ctx, ids[2])
	if err != nil {
		t.Fatalf("expected request %d to survive, got %v", ids[2], err)
	}
	if req.ProposedDate != "2025-08-12" || req.Status != models.StatusPendingAdmin {
		t.Errorf("unexpected request: %+v", req)
	}

	req.Status = models.StatusConfirmed
	req.CarriedEntry = true
	if err := s.UpdateRequest(ctx, req); err != nil {
		t.Fatalf("failed to update request: %v", err)
	}
	updated, _ := s.GetRequest(ctx, ids[2])
	if updated.Status != models.StatusConfirmed || !updated.CarriedEntry {
		t.Errorf("update not persisted: %+v", updated)
	}

	all, _ := s.ListRequests(ctx)
	if len(all) != 2 {
		t.Errorf("expected 2 requests, got %d", len(all))
	}
}

func TestSchedule_Replace(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ws := models.WeeklySchedule{
		time.Monday: {"19:00"},
		time.Sunday: {"11:00", "09:00"},
	}
	if err := s.ReplaceWeeklySchedule(ctx, ws); err != nil {
		t.Fatalf("failed to replace schedule: %v", err)
	}

	sunday, err := s.SlotsForWeekday(ctx, time.Sunday)
	if err != nil {
		t.Fatalf("failed to get slots: %v", err)
	}
	if len(sunday) != 2 || sunday[0] != "09:00" {
		t.Errorf("expected ordered sunday slots, got %v", sunday)
	}

	tuesday, _ := s.SlotsForWeekday(ctx, time.Tuesday)
	if len(tuesday) != 0 {
		t.Errorf("expected empty tuesday, got %v", tuesday)
	}

	if err := s.ReplaceWeeklySchedule(ctx, models.WeeklySchedule{time.Friday: {"19:00"}}); err != nil {
		t.Fatalf("failed to replace schedule: %v", err)
	}
	full, _ := s.GetWeeklySchedule(ctx)
	if len(full) != 1 || len(full[time.Friday]) != 1 {
		t.Errorf("expected only friday after replace, got %v", full)
	}
}

func TestInTx_RollbackOnError(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	c := createClient(t, s, "Jan", 8)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(r storage.Repository) error {
		if err := r.CreateAppointment(ctx, &models.Appointment{Date: "2025-08-22", Time: "19:00", ClientID: c.ID}); err != nil {
			return err
		}
		c.Subscription.EntriesLeft--
		if err := r.UpdateClient(ctx, c); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}

	appts, _ := s.ListAppointmentsByDate(ctx, "2025-08-22")
	if len(appts) != 0 {
		t.Errorf("expected rollback of appointment, got %d", len(appts))
	}
	got, _ := s.GetClient(ctx, c.ID)
	if got.Subscription.EntriesLeft != 8 {
		t.Errorf("expected entries unchanged after rollback, got %d", got.Subscription.EntriesLeft)
	}

	err = s.InTx(ctx, func(r storage.Repository) error {
		return r.CreateAppointment(ctx, &models.Appointment{Date: "2025-08-22", Time: "19:00", ClientID: c.ID})
	})
	if err != nil {
		t.Fatalf("expected commit, got %v", err)
	}
	appts, _ = s.ListAppointmentsByDate(ctx, "2025-08-22")
	if len(appts) != 1 {
		t.Errorf("expected committed appointment, got %d", len(appts))
	}
}
