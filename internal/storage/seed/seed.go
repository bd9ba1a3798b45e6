package seed

import (
	"context"
	"fmt"

	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
)

type demoClient struct {
	client  models.Client
	history []models.VisitRecord
}

func strPtr(s string) *string { return &s }

func demoClients() []demoClient {
	return []demoClient{
		{
			client: models.Client{
				Name:         "Jan Kowalski",
				Contact:      "jan.kowalski@example.com",
				Subscription: models.Subscription{Type: "12 wejść", EntriesLeft: 8, Expires: "2025-08-25"},
				Notes:        "Ma lekką kontuzję kolana, unikać dużych obciążeń.",
			},
			// от старых к новым, как они были внесены
			history: []models.VisitRecord{
				{Date: "2025-07-25", Status: models.VisitNoShow},
				{Date: "2025-07-28", Status: models.VisitAttended, Duration: strPtr("150 sec"), Temperature: strPtr("-130°C")},
				{Date: "2025-07-30", Status: models.VisitAttended, Duration: strPtr("180 sec"), Temperature: strPtr("-135°C")},
				{Date: "2025-08-13", Status: models.VisitAttended, Duration: strPtr("180 sec"), Temperature: strPtr("-135°C")},
			},
		},
		{client: models.Client{
			Name:         "Maria Nowak",
			Contact:      "maria.nowak@example.com",
			Subscription: models.Subscription{Type: "8 wejść", EntriesLeft: 2, Expires: "2025-08-15"},
		}},
		{client: models.Client{
			Name:         "Piotr Zieliński",
			Contact:      "piotr.zielinski@example.com",
			Subscription: models.Subscription{Type: "24 wejścia", EntriesLeft: 23, Expires: "2025-09-10"},
		}},
		{client: models.Client{
			Name:         "Anna Wiśniewska",
			Contact:      "anna.wisniewska@example.com",
			Subscription: models.Subscription{Type: "12 wejść", EntriesLeft: 1, Expires: "2025-08-05"},
		}},
	}
}

// Schedule записывает недельный шаблон слотов
func Schedule(ctx context.Context, store storage.Storage, ws models.WeeklySchedule) error {
	return store.InTx(ctx, func(repo storage.Repository) error {
		if err := repo.ReplaceWeeklySchedule(ctx, ws); err != nil {
			return fmt.Errorf("failed to seed schedule: %w", err)
		}
		return nil
	})
}

// Demo заполняет пустое хранилище демонстрационными данными студии.
// Возвращает false, если клиенты уже есть.
func Demo(ctx context.Context, store storage.Storage) (bool, error) {
	existing, err := store.ListClients(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check clients: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	err = store.InTx(ctx, func(repo storage.Repository) error {
		ids := make(map[string]int64)
		for _, dc := range demoClients() {
			c := dc.client
			if err := repo.CreateClient(ctx, &c); err != nil {
				return err
			}
			ids[c.Name] = c.ID

			for _, v := range dc.history {
				v.ClientID = c.ID
				if err := repo.AddVisit(ctx, &v); err != nil {
					return err
				}
			}
		}

		appt := &models.Appointment{Date: "2025-08-22", Time: "19:00", ClientID: ids["Jan Kowalski"], EntryCharged: true}
		if err := repo.CreateAppointment(ctx, appt); err != nil {
			return err
		}

		// Старые заявки хранят дату только в тексте
		requests := []*models.Request{
			{
				From:     "Maria Nowak",
				ClientID: ids["Maria Nowak"],
				Type:     models.RequestTypeSpecial,
				Details:  "Prośba o wizytę: WT 11:00",
				Status:   models.StatusPendingAdmin,
			},
			{
				From:     "Jan Kowalski",
				ClientID: ids["Jan Kowalski"],
				Type:     "Akceptacja",
				Details:  "Zaakceptował Twoją propozycję na PT 19:00",
				Status:   models.StatusConfirmed,
			},
		}
		for _, r := range requests {
			if err := repo.CreateRequest(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed demo data: %w", err)
	}
	return true, nil
}
