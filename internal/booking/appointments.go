package booking

import (
	"context"
	stderrors "errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"cryo_booking_bot/internal/calendar"
	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/validation"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/metrics"
)

// AppointmentInput это данные прямой записи администратором.
// Force подтверждает запись клиента без входов на абонементе.
type AppointmentInput struct {
	ClientID int64  `json:"clientId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Force    bool   `json:"force"`
}

// AppointmentView это визит с именем клиента для показа
type AppointmentView struct {
	*models.Appointment
	ClientName string `json:"clientName"`
}

// ChangeTicket это результат запроса на перенос визита
type ChangeTicket struct {
	Appointment *models.Appointment `json:"appointment"`
	Penalty     bool                `json:"penalty"`
	Message     string              `json:"message"`
}

func isNotFound(err error) bool {
	return stderrors.Is(err, storage.ErrNotFound)
}

func removeAppointment(ctx context.Context, repo storage.Repository, appt *models.Appointment, reason string, res *Result) error {
	if err := repo.DeleteAppointment(ctx, appt.ID); err != nil {
		return storageErr(err, errors.ErrAppointmentNotFound, appt.ID)
	}
	res.cancel = append(res.cancel, appt.ID)
	res.touch(appt.ClientID, notify.ViewAdminCalendar, notify.ViewClientCalendar, notify.ViewClientDashboard)
	res.onCommit(func() { metrics.RecordAppointmentDeleted(reason) })
	return nil
}

// AdminCreateAppointment записывает клиента напрямую, минуя заявки.
// Единственный путь с проверкой занятости слота.
func (s *Service) AdminCreateAppointment(ctx context.Context, in AppointmentInput) (*Result, error) {
	return s.exec(ctx, "admin_create_appointment", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if in.ClientID <= 0 || in.Date == "" || in.Time == "" {
			return errors.ErrInvalidID.WithMessage("Błąd: Nie można utworzyć wizyty. Brak danych.")
		}
		if _, err := validation.ValidateDate(in.Date); err != nil {
			return err
		}
		if _, err := validation.ValidateTime(in.Time); err != nil {
			return err
		}

		client, err := repo.GetClient(ctx, in.ClientID)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound.WithMessage("Błąd: Wybrany klient nie istnieje."), in.ClientID)
		}

		existing, err := repo.FindAppointmentAt(ctx, in.Date, in.Time)
		switch {
		case err == nil:
			return errors.ErrSlotTaken.WithContext(map[string]interface{}{
				"appointment_id": existing.ID,
				"date":           in.Date,
				"time":           in.Time,
			})
		case !isNotFound(err):
			return storageErr(err, nil, 0)
		}

		if client.Subscription.EntriesLeft <= 0 && !in.Force {
			return errors.ErrInsufficientEntries.WithMessage(msgNoEntries(client.Name))
		}

		if _, err := realize(ctx, repo, client.ID, in.Date, in.Time, false, sourceAdmin, res); err != nil {
			return err
		}

		res.Message = msgAppointmentAdded(client.Name, in.Date, in.Time)
		return nil
	}, attribute.Int64("client.id", in.ClientID), attribute.String("date", in.Date), attribute.String("time", in.Time))
}

// AdminDeleteAppointment удаляет визит без возврата входа
func (s *Service) AdminDeleteAppointment(ctx context.Context, id int64) (*Result, error) {
	return s.exec(ctx, "admin_delete_appointment", func(ctx context.Context, repo storage.Repository, res *Result) error {
		appt, err := repo.GetAppointment(ctx, id)
		if err != nil {
			return storageErr(err, errors.ErrAppointmentNotFound, id)
		}
		if err := removeAppointment(ctx, repo, appt, "admin_delete", res); err != nil {
			return err
		}

		res.Appointment = appt
		res.Message = msgAppointmentGone
		return nil
	}, attribute.Int64("appointment.id", id))
}

// changeAppointment проверяет перенос визита клиентом.
// Менее чем за lateChangeWindow до начала вход списывается сразу, но не больше одного раза за визит.
func (s *Service) changeAppointment(ctx context.Context, clientID, apptID int64) (*ChangeTicket, error) {
	var ticket *ChangeTicket
	_, err := s.exec(ctx, "change_appointment_request", func(ctx context.Context, repo storage.Repository, res *Result) error {
		appt, err := repo.GetAppointment(ctx, apptID)
		if err != nil {
			return storageErr(err, errors.ErrAppointmentNotFound, apptID)
		}
		if appt.ClientID != clientID {
			return errors.ErrAppointmentNotFound.WithContext(map[string]interface{}{"id": apptID})
		}

		start, err := calendar.Combine(appt.Date, appt.Time, s.loc)
		if err != nil {
			return errors.ErrInvalidDate.WithError(err)
		}

		left := start.Sub(s.now())
		if left < 0 {
			return errors.ErrPastAppointment.WithContext(map[string]interface{}{
				"date": appt.Date,
				"time": appt.Time,
			})
		}

		ticket = &ChangeTicket{Appointment: appt, Message: msgChange}
		if left < s.lateChangeWindow && !appt.PenaltyCharged {
			client, err := repo.GetClient(ctx, clientID)
			if err != nil {
				return storageErr(err, errors.ErrClientNotFound, clientID)
			}
			if _, err := chargeEntry(ctx, repo, client, chargeLateChange, res); err != nil {
				return err
			}
			if err := repo.MarkPenaltyCharged(ctx, appt.ID); err != nil {
				return storageErr(err, errors.ErrAppointmentNotFound, appt.ID)
			}
			appt.PenaltyCharged = true
			ticket.Penalty = true
			ticket.Message = msgLateChange
		}

		res.Appointment = appt
		res.Penalty = ticket.Penalty
		res.Message = ticket.Message
		return nil
	}, attribute.Int64("appointment.id", apptID))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// AppointmentsOnDate возвращает визиты даты с именами клиентов
func (s *Service) AppointmentsOnDate(ctx context.Context, date string) ([]AppointmentView, error) {
	if _, err := validation.ValidateDate(date); err != nil {
		return nil, err
	}
	appts, err := s.engine.AppointmentsOnDate(ctx, date)
	if err != nil {
		return nil, classify(err)
	}
	return s.withNames(ctx, appts)
}

// ClientAppointments возвращает будущие визиты клиента по возрастанию
func (s *Service) ClientAppointments(ctx context.Context, clientID int64) ([]*models.Appointment, error) {
	appts, err := s.store.ListAppointmentsByClient(ctx, clientID)
	if err != nil {
		return nil, classify(err)
	}

	today := s.Today()
	upcoming := appts[:0]
	for _, a := range appts {
		if a.Date >= today {
			upcoming = append(upcoming, a)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].Date != upcoming[j].Date {
			return upcoming[i].Date < upcoming[j].Date
		}
		return upcoming[i].Time < upcoming[j].Time
	})
	return upcoming, nil
}

// GetAppointment возвращает визит по ID
func (s *Service) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, storageErr(err, errors.ErrAppointmentNotFound, id)
	}
	return appt, nil
}

func (s *Service) withNames(ctx context.Context, appts []*models.Appointment) ([]AppointmentView, error) {
	names := make(map[int64]string)
	views := make([]AppointmentView, 0, len(appts))
	for _, a := range appts {
		name, ok := names[a.ClientID]
		if !ok {
			var err error
			if name, err = s.ClientName(ctx, a.ClientID); err != nil {
				return nil, err
			}
			names[a.ClientID] = name
		}
		views = append(views, AppointmentView{Appointment: a, ClientName: name})
	}
	return views, nil
}
