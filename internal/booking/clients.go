package booking

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/validation"
	"cryo_booking_bot/pkg/errors"
)

// DefaultSubscriptionType используется, когда тип абонемента не указан
const DefaultSubscriptionType = "Nowy"

// Фильтры списка клиентов
const (
	FilterAll         = ""
	FilterExpiresSoon = "expiresSoon"
	FilterLowEntries  = "lowEntries"
)

const (
	expiresSoonDays  = 7
	lowEntriesBorder = 2
)

// ClientInput это редактируемые поля клиента
type ClientInput struct {
	Name             string `json:"name"`
	Contact          string `json:"contact"`
	SubscriptionType string `json:"subscriptionType"`
	EntriesLeft      int    `json:"entriesLeft"`
	Expires          string `json:"expires"`
	Notes            string `json:"notes"`
}

// ClientFilter это условия списка клиентов
type ClientFilter struct {
	Search   string `json:"search"`
	FilterBy string `json:"filterBy"`
}

// Stats это сводка по абонементам
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Dashboard это данные панели клиента
type Dashboard struct {
	Client      *models.Client        `json:"client"`
	DaysLeft    int                   `json:"daysLeft"`
	ExpiryLabel string                `json:"expiryLabel"`
	Upcoming    []*models.Appointment `json:"upcoming"`
	Requests    []*models.Request     `json:"requests"`
}

func (in ClientInput) validate() error {
	if err := validation.ValidateClientName(in.Name); err != nil {
		return err
	}
	if strings.TrimSpace(in.Expires) == "" {
		return errors.ErrMissingExpiry
	}
	if _, err := validation.ValidateDate(strings.TrimSpace(in.Expires)); err != nil {
		return err
	}
	return validation.ValidateEntries(in.EntriesLeft)
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = strings.TrimSpace(in.Name)
	c.Contact = strings.TrimSpace(in.Contact)
	c.Subscription.Type = strings.TrimSpace(in.SubscriptionType)
	if c.Subscription.Type == "" {
		c.Subscription.Type = DefaultSubscriptionType
	}
	c.Subscription.EntriesLeft = in.EntriesLeft
	c.Subscription.Expires = strings.TrimSpace(in.Expires)
	c.Notes = in.Notes
}

// AddClient создает клиента
func (s *Service) AddClient(ctx context.Context, in ClientInput) (*Result, error) {
	return s.exec(ctx, "add_client", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if err := in.validate(); err != nil {
			return err
		}

		client := &models.Client{}
		in.apply(client)
		if err := repo.CreateClient(ctx, client); err != nil {
			return storageErr(err, nil, 0)
		}

		res.Client = client
		res.Message = msgClientAdded(client.Name)
		res.touch(0, notify.ViewClients, notify.ViewStatistics)
		return nil
	})
}

// UpdateClient сохраняет изменения клиента
func (s *Service) UpdateClient(ctx context.Context, id int64, in ClientInput) (*Result, error) {
	return s.exec(ctx, "update_client", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if err := in.validate(); err != nil {
			return err
		}

		client, err := repo.GetClient(ctx, id)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, id)
		}

		in.apply(client)
		if err := repo.UpdateClient(ctx, client); err != nil {
			return storageErr(err, errors.ErrClientNotFound, id)
		}

		res.Client = client
		res.Message = msgClientUpdated(client.Name)
		res.touch(client.ID, notify.ViewClients, notify.ViewStatistics, notify.ViewClientDashboard)
		return nil
	}, attribute.Int64("client.id", id))
}

// DeleteClient удаляет клиента вместе с историей.
// Визиты и заявки клиента остаются и показываются без имени.
func (s *Service) DeleteClient(ctx context.Context, id int64) (*Result, error) {
	return s.exec(ctx, "delete_client", func(ctx context.Context, repo storage.Repository, res *Result) error {
		client, err := repo.GetClient(ctx, id)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, id)
		}
		if err := repo.DeleteClient(ctx, id); err != nil {
			return storageErr(err, errors.ErrClientNotFound, id)
		}

		res.Message = msgClientDeleted(client.Name)
		res.touch(0, notify.ViewClients, notify.ViewStatistics, notify.ViewAdminCalendar, notify.ViewRequests)
		return nil
	}, attribute.Int64("client.id", id))
}

// BindChat связывает чат Telegram с клиентом
func (s *Service) BindChat(ctx context.Context, clientID, chatID int64) (*Result, error) {
	return s.exec(ctx, "bind_chat", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if err := validation.ValidateChatID(chatID); err != nil {
			return err
		}
		if err := repo.SetClientChatID(ctx, clientID, chatID); err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}
		client, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}
		res.Client = client
		return nil
	}, attribute.Int64("client.id", clientID))
}

// GetClient возвращает клиента с историей от новых визитов к старым
func (s *Service) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, storageErr(err, errors.ErrClientNotFound, id)
	}

	history, err := s.store.ListVisits(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	models.SortVisitsDesc(history)
	client.History = history
	return client, nil
}

// FindClientByChat ищет клиента по чату Telegram
func (s *Service) FindClientByChat(ctx context.Context, chatID int64) (*models.Client, error) {
	client, err := s.store.FindClientByChatID(ctx, chatID)
	if err != nil {
		return nil, storageErr(err, errors.ErrClientNotFound, chatID)
	}
	return client, nil
}

// FindClientByPhone ищет клиента, чей контакт совпадает с номером телефона
func (s *Service) FindClientByPhone(ctx context.Context, phone string) (*models.Client, error) {
	want := validation.NormalizePhone(phone)
	if want == "" {
		return nil, errors.ErrInvalidPhoneNumber
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, classify(err)
	}
	for _, c := range clients {
		if validation.NormalizePhone(c.Contact) == want {
			return c, nil
		}
	}
	return nil, errors.ErrClientNotFound.WithContext(map[string]interface{}{"phone": want})
}

// ClientName возвращает имя клиента или метку удаленного клиента
func (s *Service) ClientName(ctx context.Context, id int64) (string, error) {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return DeletedClientName, nil
		}
		return "", classify(err)
	}
	return client.Name, nil
}

// ListClients возвращает клиентов, подходящих под фильтр
func (s *Service) ListClients(ctx context.Context, f ClientFilter) ([]*models.Client, error) {
	switch f.FilterBy {
	case FilterAll, FilterExpiresSoon, FilterLowEntries:
	default:
		return nil, errors.ErrInvalidFilter.WithContext(map[string]interface{}{"filter": f.FilterBy})
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, classify(err)
	}

	query := strings.ToLower(strings.TrimSpace(f.Search))
	now := s.Now()
	out := make([]*models.Client, 0, len(clients))
	for _, c := range clients {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		switch f.FilterBy {
		case FilterExpiresSoon:
			days, err := calendar.DaysUntil(now, c.Subscription.Expires)
			if err != nil || days <= 0 || days > expiresSoonDays {
				continue
			}
		case FilterLowEntries:
			if c.Subscription.EntriesLeft > lowEntriesBorder {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Statistics считает абонементы. Абонемент активен до дня окончания включительно.
func (s *Service) Statistics(ctx context.Context) (Stats, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return Stats{}, classify(err)
	}

	today := s.Today()
	st := Stats{Total: len(clients)}
	for _, c := range clients {
		if c.Subscription.Expires >= today {
			st.Active++
		} else {
			st.Expired++
		}
	}
	return st, nil
}

// ClientDashboard собирает панель клиента
func (s *Service) ClientDashboard(ctx context.Context, clientID int64) (*Dashboard, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	days, err := calendar.DaysUntil(s.Now(), client.Subscription.Expires)
	if err != nil {
		days = 0
	}

	upcoming, err := s.ClientAppointments(ctx, clientID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.ClientRequests(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Client:      client,
		DaysLeft:    days,
		ExpiryLabel: ExpiryLabel(days),
		Upcoming:    upcoming,
		Requests:    reqs,
	}, nil
}
