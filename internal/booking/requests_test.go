package booking

import (
	"context"
	"strings"
	"testing"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
)

func TestConfirmRequest_ExtractsDateFromDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.addRequest(t, &models.Request{
		From:     "Maria Nowak",
		ClientID: f.maria.ID,
		Type:     models.RequestTypeSpecial,
		Details:  "Prośba o wizytę: 2025-08-12 o 11:00",
		Status:   models.StatusPendingAdmin,
	})

	res, err := f.svc.ConfirmRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appt := res.Appointment
	if appt == nil || appt.Date != "2025-08-12" || appt.Time != "11:00" || appt.ClientID != f.maria.ID {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if !appt.EntryCharged {
		t.Error("expected entry to be charged")
	}

	got, _ := f.store.GetRequest(ctx, req.ID)
	if got.Status != models.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got.Status)
	}
	if !strings.Contains(got.Details, "2025-08-12") || !strings.Contains(got.Details, "11:00") {
		t.Errorf("details must mention date and time, got %q", got.Details)
	}
	if n := f.entries(t, f.maria.ID); n != 1 {
		t.Errorf("expected 1 entry left, got %d", n)
	}
	if _, ok := f.reminders.scheduled[appt.ID]; !ok {
		t.Error("expected reminder for the new appointment")
	}
}

func TestConfirmRequest_MalformedLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []string{
		"Prośba o wizytę: sometime next week",
		"Prośba o wizytę: WT 11:00",
		"Prośba o wizytę: 2025-08-12",
	}

	for _, details := range tests {
		t.Run(details, func(t *testing.T) {
			req := f.addRequest(t, &models.Request{
				From:     "Maria Nowak",
				ClientID: f.maria.ID,
				Type:     models.RequestTypeSpecial,
				Details:  details,
				Status:   models.StatusPendingAdmin,
			})

			_, err := f.svc.ConfirmRequest(ctx, req.ID)
			assertErr(t, err, errors.ErrMalformedRequest)
			if errors.KindOf(err) != errors.KindMalformedRequest {
				t.Errorf("unexpected kind %s", errors.KindOf(err))
			}

			got, _ := f.store.GetRequest(ctx, req.ID)
			if got.Status != models.StatusPendingAdmin || got.Details != details {
				t.Errorf("request must stay untouched, got %+v", got)
			}
			if n := f.appointmentCount(t, "2025-08-12"); n != 0 {
				t.Errorf("expected no appointment, got %d", n)
			}
			if n := f.entries(t, f.maria.ID); n != 2 {
				t.Errorf("entries must not change, got %d", n)
			}
		})
	}
}

func TestConfirmRequest_PrefersStructuredFields(t *testing.T) {
	f := newFixture(t)

	req := f.addRequest(t, &models.Request{
		From:         "Jan Kowalski",
		ClientID:     f.jan.ID,
		Type:         models.RequestTypeBooking,
		Details:      "Prośba o wizytę: 2025-09-01 o 09:00",
		Status:       models.StatusPendingAdmin,
		ProposedDate: "2025-08-25",
		ProposedTime: "19:00",
	})

	res, err := f.svc.ConfirmRequest(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Appointment.Date != "2025-08-25" || res.Appointment.Time != "19:00" {
		t.Errorf("expected structured date to win, got %+v", res.Appointment)
	}
}

func TestConfirmRequest_OnlyFromPendingAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.SubmitBookingRequest(ctx, f.jan.ID, "2025-08-25", "19:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := res.Request.ID

	if _, err := f.svc.ConfirmRequest(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = f.svc.ConfirmRequest(ctx, id)
	assertErr(t, err, errors.ErrRequestNotPendingAdmin)

	_, err = f.svc.RejectRequest(ctx, id)
	assertErr(t, err, errors.ErrRequestNotPendingAdmin)

	_, err = f.svc.ConfirmRequest(ctx, 999)
	assertErr(t, err, errors.ErrRequestNotFound)
}

func TestSubmitBookingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Мягкая бронь: несколько заявок на один и тот же занятый слот допустимы
	for i := 0; i < 2; i++ {
		res, err := f.svc.SubmitBookingRequest(ctx, f.maria.ID, "2025-08-22", "19:00")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := res.Request
		if req.Status != models.StatusPendingAdmin || req.Type != models.RequestTypeBooking {
			t.Errorf("unexpected request %+v", req)
		}
		if req.ProposedDate != "2025-08-22" || req.ProposedTime != "19:00" || req.From != "Maria Nowak" {
			t.Errorf("unexpected proposal fields %+v", req)
		}
		if req.Details != "Prośba o wizytę: 2025-08-22 o 19:00" {
			t.Errorf("unexpected details %q", req.Details)
		}
	}

	_, err := f.svc.SubmitBookingRequest(ctx, f.maria.ID, "2025-07-31", "19:00")
	assertErr(t, err, errors.ErrDateInPast)

	_, err = f.svc.SubmitBookingRequest(ctx, f.maria.ID, "2025-08-22", "7pm")
	assertErr(t, err, errors.ErrInvalidTime)

	_, err = f.svc.SubmitBookingRequest(ctx, 999, "2025-08-22", "19:00")
	assertErr(t, err, errors.ErrClientNotFound)
}

func TestRejectRequest_KeepsAuditRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	rej, err := f.svc.RejectRequest(ctx, res.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rej.Message != `Wniosek od "Piotr Zieliński" został odrzucony.` {
		t.Errorf("unexpected message %q", rej.Message)
	}

	got, err := f.store.GetRequest(ctx, res.Request.ID)
	if err != nil {
		t.Fatalf("rejected request must be kept: %v", err)
	}
	if got.Status != models.StatusRejected {
		t.Errorf("expected rejected, got %s", got.Status)
	}
	if got.Details != "Prośba (Prośba o wizytę: 2025-08-25 o 19:00) została odrzucona." {
		t.Errorf("unexpected details %q", got.Details)
	}
	if n := f.entries(t, f.piotr.ID); n != 23 {
		t.Errorf("reject of a plain request must not touch entries, got %d", n)
	}
}

func TestCounterProposal_AcceptCreatesAppointmentAndRemovesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	id := res.Request.ID

	prop, err := f.svc.ProposeNewTime(ctx, Proposal{RequestID: id, Date: "2025-08-28", Time: "19:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prop.Request.Status != models.StatusPendingClient {
		t.Errorf("expected pending client, got %s", prop.Request.Status)
	}
	if prop.Request.Details != "Administrator zaproponował nowy termin: 2025-08-28 o 19:00." {
		t.Errorf("unexpected details %q", prop.Request.Details)
	}

	// Администратор не может повторно решать заявку, ожидающую клиента
	_, err = f.svc.ConfirmRequest(ctx, id)
	assertErr(t, err, errors.ErrRequestNotPendingAdmin)

	// Чужой клиент не видит предложение
	_, err = f.svc.AcceptProposal(ctx, f.jan.ID, id)
	assertErr(t, err, errors.ErrRequestNotFound)

	acc, err := f.svc.AcceptProposal(ctx, f.piotr.ID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.Appointment.Date != "2025-08-28" || acc.Appointment.Time != "19:00" {
		t.Errorf("unexpected appointment %+v", acc.Appointment)
	}
	if _, err := f.store.GetRequest(ctx, id); err == nil {
		t.Error("accepted proposal must be removed")
	}
	if n := f.entries(t, f.piotr.ID); n != 22 {
		t.Errorf("expected 22 entries, got %d", n)
	}
}

func TestCounterProposal_RejectRemovesRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	id := res.Request.ID
	if _, err := f.svc.ProposeNewTime(ctx, Proposal{RequestID: id, Date: "2025-08-28", Time: "19:00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.RejectProposal(ctx, f.piotr.ID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.store.GetRequest(ctx, id); err == nil {
		t.Error("rejected proposal must be removed")
	}
	_, err = f.svc.RejectProposal(ctx, f.piotr.ID, id)
	assertErr(t, err, errors.ErrRequestNotFound)
	if n := f.entries(t, f.piotr.ID); n != 23 {
		t.Errorf("entries must not change, got %d", n)
	}
}

func TestProposeNewTime_ForAppointmentCarriesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded, err := f.store.FindAppointmentAt(ctx, "2025-08-22", "19:00")
	if err != nil {
		t.Fatalf("seeded appointment missing: %v", err)
	}

	res, err := f.svc.ProposeNewTime(ctx, Proposal{AppointmentID: seeded.ID, Date: "2025-08-25", Time: "19:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := res.Request
	if req.From != models.AdminName || req.Type != models.RequestTypeAdminProposal || req.Status != models.StatusPendingClient {
		t.Errorf("unexpected request %+v", req)
	}
	if req.OriginalDate != "2025-08-22" || req.OriginalTime != "19:00" || !req.CarriedEntry {
		t.Errorf("expected original slot and carried entry, got %+v", req)
	}
	if n := f.appointmentCount(t, "2025-08-22"); n != 0 {
		t.Error("old appointment must be released immediately")
	}
	if len(f.reminders.cancelled) != 1 || f.reminders.cancelled[0] != seeded.ID {
		t.Errorf("expected reminder of %d cancelled, got %v", seeded.ID, f.reminders.cancelled)
	}

	acc, err := f.svc.AcceptProposal(ctx, f.jan.ID, req.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.Appointment.EntryCharged {
		t.Error("carried entry must mark the new appointment as charged")
	}
	if n := f.entries(t, f.jan.ID); n != 8 {
		t.Errorf("carried entry must not be charged twice, got %d", n)
	}
}

func TestProposeNewTime_RejectRefundsCarriedEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded, _ := f.store.FindAppointmentAt(ctx, "2025-08-22", "19:00")
	res, err := f.svc.ProposeNewTime(ctx, Proposal{AppointmentID: seeded.ID, Date: "2025-08-25", Time: "19:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.RejectProposal(ctx, f.jan.ID, res.Request.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := f.entries(t, f.jan.ID); n != 9 {
		t.Errorf("expected carried entry refunded to 9, got %d", n)
	}
}

func TestProposeNewTime_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ProposeNewTime(ctx, Proposal{Date: "2025-08-25", Time: "19:00"})
	assertErr(t, err, errors.ErrInvalidID)

	_, err = f.svc.ProposeNewTime(ctx, Proposal{RequestID: 1, AppointmentID: 1, Date: "2025-08-25", Time: "19:00"})
	assertErr(t, err, errors.ErrInvalidID)

	_, err = f.svc.ProposeNewTime(ctx, Proposal{AppointmentID: 999, Date: "2025-08-25", Time: "19:00"})
	assertErr(t, err, errors.ErrAppointmentNotFound)
}

func TestRequestIDs_StableAcrossRemovals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	second, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-28", "19:00")
	third, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-29", "19:00")

	// Первая заявка удаляется через отклонение контрпредложения
	if _, err := f.svc.ProposeNewTime(ctx, Proposal{RequestID: first.Request.ID, Date: "2025-08-31", Time: "09:00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.RejectProposal(ctx, f.piotr.ID, first.Request.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := f.svc.ConfirmRequest(ctx, third.Request.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Appointment.Date != "2025-08-29" {
		t.Errorf("third request must still resolve to its own slot, got %+v", res.Appointment)
	}

	got, _ := f.store.GetRequest(ctx, second.Request.ID)
	if got.Status != models.StatusPendingAdmin {
		t.Errorf("second request must be untouched, got %s", got.Status)
	}
}

func TestListRequests_PendingFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	_, _ = f.svc.ProposeNewTime(ctx, Proposal{RequestID: res.Request.ID, Date: "2025-08-28", Time: "19:00"})

	reqs, err := f.svc.ListRequests(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(reqs))
	}
	want := []models.RequestStatus{models.StatusPendingAdmin, models.StatusPendingClient, models.StatusConfirmed}
	for i, st := range want {
		if reqs[i].Status != st {
			t.Errorf("position %d: expected %s, got %s", i, st, reqs[i].Status)
		}
	}
}

func TestRequests_NotifyRequestViews(t *testing.T) {
	f := newFixture(t)
	f.drain()

	if _, err := f.svc.SubmitBookingRequest(context.Background(), f.maria.ID, "2025-08-25", "19:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evs := f.drain()
	if len(evs) != 1 || !evs[0].Has(notify.ViewRequests) || !evs[0].Has(notify.ViewClientDashboard) {
		t.Fatalf("unexpected events %+v", evs)
	}
	if evs[0].Has(notify.ViewAdminCalendar) {
		t.Error("a pending request does not change the calendar")
	}
}

func TestProposedSlot(t *testing.T) {
	tests := []struct {
		name     string
		req      models.Request
		wantDate string
		wantTime string
		wantErr  bool
	}{
		{
			name:     "structured",
			req:      models.Request{ProposedDate: "2025-08-12", ProposedTime: "11:00", Details: "x"},
			wantDate: "2025-08-12", wantTime: "11:00",
		},
		{
			name:     "last match wins",
			req:      models.Request{Details: "Klient prosi o zmianę terminu z 2025-08-22 o 19:00 na 2025-08-25 o 09:00."},
			wantDate: "2025-08-25", wantTime: "09:00",
		},
		{name: "no date", req: models.Request{Details: "Prośba o wizytę: WT 11:00"}, wantErr: true},
		{name: "impossible date", req: models.Request{Details: "2025-02-30 o 11:00"}, wantErr: true},
		{name: "impossible time", req: models.Request{Details: "2025-08-12 o 99:00"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, slot, err := proposedSlot(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if date != tt.wantDate || slot != tt.wantTime {
				t.Errorf("got %s %s, want %s %s", date, slot, tt.wantDate, tt.wantTime)
			}
		})
	}
}
