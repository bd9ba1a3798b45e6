package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestAddClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.AddClient(ctx, ClientInput{
		Name:        "  Ewa Lis ",
		Contact:     "+48 600 100 200",
		EntriesLeft: 10,
		Expires:     "2025-12-31",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := res.Client
	if c.ID == 0 || c.Name != "Ewa Lis" {
		t.Errorf("unexpected client %+v", c)
	}
	if c.Subscription.Type != DefaultSubscriptionType {
		t.Errorf("expected default subscription type, got %q", c.Subscription.Type)
	}
	if res.Message != `Klient "Ewa Lis" został dodany.` {
		t.Errorf("unexpected message %q", res.Message)
	}

	st, _ := f.svc.Statistics(ctx)
	if st.Total != 5 {
		t.Errorf("expected 5 clients, got %d", st.Total)
	}
}

func TestAddClient_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ClientInput
		want *errors.BookingError
	}{
		{"missing name", ClientInput{Name: "   ", Expires: "2025-12-31"}, errors.ErrMissingName},
		{"long name", ClientInput{Name: strings.Repeat("ą", 101), Expires: "2025-12-31"}, errors.ErrMissingName},
		{"missing expiry", ClientInput{Name: "Ewa Lis"}, errors.ErrMissingExpiry},
		{"bad expiry", ClientInput{Name: "Ewa Lis", Expires: "31/12/2025"}, errors.ErrInvalidDate},
		{"negative entries", ClientInput{Name: "Ewa Lis", Expires: "2025-12-31", EntriesLeft: -1}, errors.ErrInvalidEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddClient(ctx, tt.in)
			assertErr(t, err, tt.want)
			if errors.KindOf(err) != errors.KindValidation {
				t.Errorf("expected validation kind, got %s", errors.KindOf(err))
			}
		})
	}

	st, _ := f.svc.Statistics(ctx)
	if st.Total != 4 {
		t.Errorf("invalid input must not create clients, got %d", st.Total)
	}
}

func TestUpdateClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.UpdateClient(ctx, f.maria.ID, ClientInput{
		Name:             "Maria Nowak-Kowalska",
		Contact:          "maria.nowak@example.com",
		SubscriptionType: "12 wejść",
		EntriesLeft:      12,
		Expires:          "2025-11-15",
		Notes:            "Przedłużony karnet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != `Dane klienta "Maria Nowak-Kowalska" zostały zaktualizowane.` {
		t.Errorf("unexpected message %q", res.Message)
	}

	got, err := f.svc.GetClient(ctx, f.maria.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Subscription.EntriesLeft != 12 || got.Subscription.Expires != "2025-11-15" || got.Notes != "Przedłużony karnet" {
		t.Errorf("unexpected client %+v", got)
	}

	_, err = f.svc.UpdateClient(ctx, 999, ClientInput{Name: "X", Expires: "2025-12-31"})
	assertErr(t, err, errors.ErrClientNotFound)
}

func TestDeleteClient_KeepsAppointmentsAndRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.DeleteClient(ctx, f.jan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != `Klient "Jan Kowalski" został usunięty.` {
		t.Errorf("unexpected message %q", res.Message)
	}

	_, err = f.svc.GetClient(ctx, f.jan.ID)
	assertErr(t, err, errors.ErrClientNotFound)

	name, err := f.svc.ClientName(ctx, f.jan.ID)
	if err != nil || name != DeletedClientName {
		t.Errorf("expected deleted label, got %q (%v)", name, err)
	}

	reqs, _ := f.svc.ListRequests(ctx)
	if len(reqs) != 2 {
		t.Errorf("requests of a deleted client must stay, got %d", len(reqs))
	}

	_, err = f.svc.DeleteClient(ctx, f.jan.ID)
	assertErr(t, err, errors.ErrClientNotFound)
}

func TestConfirmRequest_DeletedClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.SubmitBookingRequest(ctx, f.piotr.ID, "2025-08-25", "19:00")
	if _, err := f.svc.DeleteClient(ctx, f.piotr.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.ConfirmRequest(ctx, res.Request.ID)
	assertErr(t, err, errors.ErrClientNotFound)
	if n := f.appointmentCount(t, "2025-08-25"); n != 0 {
		t.Errorf("expected no appointment, got %d", n)
	}
}

func TestListClients_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock.Set(time.Date(2025, time.August, 10, 12, 0, 0, 0, f.loc))

	names := func(cs []*models.Client) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		filter ClientFilter
		want   []string
	}{
		{"all", ClientFilter{}, []string{"Jan Kowalski", "Maria Nowak", "Piotr Zieliński", "Anna Wiśniewska"}},
		{"expires soon", ClientFilter{FilterBy: FilterExpiresSoon}, []string{"Maria Nowak"}},
		{"low entries", ClientFilter{FilterBy: FilterLowEntries}, []string{"Maria Nowak", "Anna Wiśniewska"}},
		{"search is case insensitive", ClientFilter{Search: "NOWAK"}, []string{"Maria Nowak"}},
		{"search with filter", ClientFilter{Search: "anna", FilterBy: FilterLowEntries}, []string{"Anna Wiśniewska"}},
		{"no match", ClientFilter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.ListClients(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			gotNames := names(got)
			if strings.Join(gotNames, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", gotNames, tt.want)
			}
		})
	}

	_, err := f.svc.ListClients(ctx, ClientFilter{FilterBy: "vip"})
	assertErr(t, err, errors.ErrInvalidFilter)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock.Set(time.Date(2025, time.August, 10, 12, 0, 0, 0, f.loc))

	st, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != (Stats{Total: 4, Active: 3, Expired: 1}) {
		t.Errorf("unexpected stats %+v", st)
	}

	// День окончания еще считается активным
	f.clock.Set(time.Date(2025, time.August, 15, 23, 0, 0, 0, f.loc))
	st, _ = f.svc.Statistics(ctx)
	if st.Active != 3 {
		t.Errorf("expected Maria active on her last day, got %+v", st)
	}
}

func TestFindClientByPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.AddClient(ctx, ClientInput{Name: "Ewa Lis", Contact: "+48 600-100-200", Expires: "2025-12-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.FindClientByPhone(ctx, "+48600100200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != res.Client.ID {
		t.Errorf("expected client %d, got %d", res.Client.ID, got.ID)
	}

	_, err = f.svc.FindClientByPhone(ctx, "+48111222333")
	assertErr(t, err, errors.ErrClientNotFound)

	_, err = f.svc.FindClientByPhone(ctx, "brak")
	assertErr(t, err, errors.ErrInvalidPhoneNumber)
}

func TestBindChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.BindChat(ctx, f.piotr.ID, 424242); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := f.svc.FindClientByChat(ctx, 424242)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != f.piotr.ID {
		t.Errorf("expected Piotr, got %+v", got)
	}

	_, err = f.svc.BindChat(ctx, f.piotr.ID, 0)
	assertErr(t, err, errors.ErrInvalidID)

	_, err = f.svc.FindClientByChat(ctx, 1)
	assertErr(t, err, errors.ErrClientNotFound)
}

func TestClientDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.ClientDashboard(ctx, f.jan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DaysLeft != 24 || d.ExpiryLabel != "24 dni" {
		t.Errorf("unexpected expiry %d %q", d.DaysLeft, d.ExpiryLabel)
	}
	if len(d.Upcoming) != 1 || d.Upcoming[0].Date != "2025-08-22" {
		t.Errorf("unexpected upcoming %+v", d.Upcoming)
	}
	if len(d.Requests) != 1 {
		t.Errorf("expected 1 request, got %d", len(d.Requests))
	}
	if len(d.Client.History) != 4 || d.Client.History[0].Date != "2025-08-13" {
		t.Errorf("history must be newest first, got %+v", d.Client.History)
	}

	f.clock.Set(time.Date(2025, time.August, 10, 12, 0, 0, 0, f.loc))
	d, _ = f.svc.ClientDashboard(ctx, f.anna.ID)
	if d.ExpiryLabel != "Wygasł" {
		t.Errorf("expected expired label, got %q", d.ExpiryLabel)
	}
}

func TestAddHistoryItem_ChargesAttended(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.AddHistoryItem(ctx, f.piotr.ID, HistoryInput{Date: "2025-08-01", Status: models.VisitAttended})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := res.Visit
	if v.Duration == nil || *v.Duration != "180 sec" || v.Temperature == nil || *v.Temperature != "-130°C" {
		t.Errorf("expected defaults, got %+v", v)
	}
	if n := f.entries(t, f.piotr.ID); n != 22 {
		t.Errorf("attended visit must charge, got %d", n)
	}

	res, err = f.svc.AddHistoryItem(ctx, f.piotr.ID, HistoryInput{
		Date: "2025-08-02", Status: models.VisitAttended, Duration: intPtr(150), Temperature: intPtr(-140),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *res.Visit.Duration != "150 sec" || *res.Visit.Temperature != "-140°C" {
		t.Errorf("unexpected visit %+v", res.Visit)
	}

	res, err = f.svc.AddHistoryItem(ctx, f.piotr.ID, HistoryInput{Date: "2025-08-03", Status: models.VisitNoShow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Visit.Duration != nil || res.Visit.Temperature != nil {
		t.Errorf("no-show must not carry measurements, got %+v", res.Visit)
	}
	if n := f.entries(t, f.piotr.ID); n != 21 {
		t.Errorf("no-show must not charge, got %d", n)
	}
}

func TestAddHistoryItem_LinkedAppointmentNotChargedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seeded, _ := f.store.FindAppointmentAt(ctx, "2025-08-22", "19:00")
	id := seeded.ID
	if _, err := f.svc.AddHistoryItem(ctx, f.jan.ID, HistoryInput{Date: "2025-08-22", Status: models.VisitAttended, AppointmentID: &id}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := f.entries(t, f.jan.ID); n != 8 {
		t.Errorf("linked visit must not charge again, got %d", n)
	}

	_, err := f.svc.AddHistoryItem(ctx, f.maria.ID, HistoryInput{Date: "2025-08-22", Status: models.VisitAttended, AppointmentID: &id})
	assertErr(t, err, errors.ErrAppointmentNotFound)
}

func TestAddHistoryItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddHistoryItem(ctx, f.jan.ID, HistoryInput{Status: models.VisitAttended})
	assertErr(t, err, errors.ErrInvalidDate)
	if errors.UserMessage(err) != "Proszę wybrać datę wizyty." {
		t.Errorf("unexpected message %q", errors.UserMessage(err))
	}

	_, err = f.svc.AddHistoryItem(ctx, f.jan.ID, HistoryInput{Date: "2025-08-01", Status: "Spóźniony"})
	assertErr(t, err, errors.ErrInvalidVisitStatus)

	_, err = f.svc.AddHistoryItem(ctx, 999, HistoryInput{Date: "2025-08-01", Status: models.VisitNoShow})
	assertErr(t, err, errors.ErrClientNotFound)
}

func TestDeleteHistoryItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jan, err := f.svc.GetClient(ctx, f.jan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := jan.History[0]

	_, err = f.svc.DeleteHistoryItem(ctx, f.maria.ID, target.ID)
	assertErr(t, err, errors.ErrVisitNotFound)

	f.drain()
	res, err := f.svc.DeleteHistoryItem(ctx, f.jan.ID, target.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "Wpis został usunięty z historii." {
		t.Errorf("unexpected message %q", res.Message)
	}
	if evs := f.drain(); len(evs) != 1 || !evs[0].Has(notify.ViewClients) {
		t.Errorf("unexpected events %+v", evs)
	}

	jan, _ = f.svc.GetClient(ctx, f.jan.ID)
	if len(jan.History) != 3 {
		t.Errorf("expected 3 visits, got %d", len(jan.History))
	}
	if n := f.entries(t, f.jan.ID); n != 8 {
		t.Errorf("deleting history must not refund, got %d", n)
	}
}
