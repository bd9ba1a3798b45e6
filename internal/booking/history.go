package booking

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/internal/validation"
	"cryo_booking_bot/pkg/errors"
)

// Значения формы посещения по умолчанию
const (
	DefaultDurationSec = 180
	DefaultTemperature = -130
)

// HistoryInput это новая запись истории посещений.
// AppointmentID связывает запись с визитом, за который вход уже мог быть списан.
type HistoryInput struct {
	Date          string             `json:"date"`
	Status        models.VisitStatus `json:"status"`
	Duration      *int               `json:"duration,omitempty"`
	Temperature   *int               `json:"temperature,omitempty"`
	AppointmentID *int64             `json:"appointmentId,omitempty"`
}

// AddHistoryItem добавляет посещение в историю клиента.
// Посещение списывает вход, если он не был списан за связанный визит.
func (s *Service) AddHistoryItem(ctx context.Context, clientID int64, in HistoryInput) (*Result, error) {
	return s.exec(ctx, "add_history_item", func(ctx context.Context, repo storage.Repository, res *Result) error {
		if in.Date == "" {
			return errors.ErrInvalidDate.WithMessage("Proszę wybrać datę wizyty.")
		}
		if _, err := validation.ValidateDate(in.Date); err != nil {
			return err
		}
		if !in.Status.Valid() {
			return errors.ErrInvalidVisitStatus.WithContext(map[string]interface{}{"status": in.Status})
		}

		client, err := repo.GetClient(ctx, clientID)
		if err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}

		alreadyCharged := false
		if in.AppointmentID != nil {
			appt, err := repo.GetAppointment(ctx, *in.AppointmentID)
			if err != nil {
				return storageErr(err, errors.ErrAppointmentNotFound, *in.AppointmentID)
			}
			if appt.ClientID != clientID {
				return errors.ErrAppointmentNotFound.WithContext(map[string]interface{}{"id": appt.ID})
			}
			alreadyCharged = appt.EntryCharged
		}

		visit := &models.VisitRecord{
			ClientID:      clientID,
			Date:          in.Date,
			Status:        in.Status,
			AppointmentID: in.AppointmentID,
		}

		if in.Status == models.VisitAttended {
			duration := DefaultDurationSec
			if in.Duration != nil && *in.Duration > 0 {
				duration = *in.Duration
			}
			temperature := DefaultTemperature
			if in.Temperature != nil && *in.Temperature != 0 {
				temperature = *in.Temperature
			}
			d := fmt.Sprintf("%d sec", duration)
			t := fmt.Sprintf("%d°C", temperature)
			visit.Duration, visit.Temperature = &d, &t

			if !alreadyCharged {
				if _, err := chargeEntry(ctx, repo, client, chargeHistory, res); err != nil {
					return err
				}
			}
		}

		if err := repo.AddVisit(ctx, visit); err != nil {
			return storageErr(err, errors.ErrClientNotFound, clientID)
		}

		res.Visit = visit
		res.Message = msgHistoryAdded
		res.touch(clientID, notify.ViewClients, notify.ViewClientDashboard)
		return nil
	}, attribute.Int64("client.id", clientID))
}

// DeleteHistoryItem удаляет запись истории клиента. Вход не возвращается.
func (s *Service) DeleteHistoryItem(ctx context.Context, clientID, visitID int64) (*Result, error) {
	return s.exec(ctx, "delete_history_item", func(ctx context.Context, repo storage.Repository, res *Result) error {
		visits, err := repo.ListVisits(ctx, clientID)
		if err != nil {
			return storageErr(err, nil, clientID)
		}

		found := false
		for _, v := range visits {
			if v.ID == visitID {
				found = true
				break
			}
		}
		if !found {
			return errors.ErrVisitNotFound.WithContext(map[string]interface{}{"id": visitID})
		}

		if err := repo.DeleteVisit(ctx, visitID); err != nil {
			return storageErr(err, errors.ErrVisitNotFound, visitID)
		}

		res.Message = msgHistoryDeleted
		res.touch(clientID, notify.ViewClients, notify.ViewClientDashboard)
		return nil
	}, attribute.Int64("client.id", clientID), attribute.Int64("visit.id", visitID))
}
