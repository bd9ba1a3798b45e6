package booking

import (
	"context"
	stderrors "errors"

	"cryo_booking_bot/internal/notify"
	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/metrics"
)

// Причины списания входа
const (
	chargeConfirm    = "confirm"
	chargeAdmin      = "admin_create"
	chargeHistory    = "history_attended"
	chargeLateChange = "late_change"
)

// chargeEntry списывает один вход, если он есть. Баланс не уходит ниже нуля.
func chargeEntry(ctx context.Context, repo storage.Repository, client *models.Client, reason string, res *Result) (bool, error) {
	if client.Subscription.EntriesLeft <= 0 {
		return false, nil
	}

	client.Subscription.EntriesLeft--
	if err := repo.UpdateClient(ctx, client); err != nil {
		return false, storageErr(err, errors.ErrClientNotFound, client.ID)
	}

	res.touch(client.ID, notify.ViewClients, notify.ViewClientDashboard)
	res.onCommit(func() { metrics.RecordEntryCharged(reason) })
	return true, nil
}

// refundEntry возвращает перенесенный вход. Удаленному клиенту возвращать нечего.
func refundEntry(ctx context.Context, repo storage.Repository, clientID int64, res *Result) error {
	client, err := repo.GetClient(ctx, clientID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return storageErr(err, nil, clientID)
	}

	client.Subscription.EntriesLeft++
	if err := repo.UpdateClient(ctx, client); err != nil {
		return storageErr(err, errors.ErrClientNotFound, clientID)
	}

	res.touch(clientID, notify.ViewClients, notify.ViewClientDashboard)
	res.onCommit(metrics.RecordEntryRefunded)
	return nil
}

// realize превращает согласованный термин в визит.
// carried означает, что вход уже был списан за замененный визит.
func realize(ctx context.Context, repo storage.Repository, clientID int64, date, slot string, carried bool, source string, res *Result) (*models.Appointment, error) {
	client, err := repo.GetClient(ctx, clientID)
	if err != nil {
		return nil, storageErr(err, errors.ErrClientNotFound, clientID)
	}

	charged := carried
	if !carried {
		reason := chargeConfirm
		if source == sourceAdmin {
			reason = chargeAdmin
		}
		if charged, err = chargeEntry(ctx, repo, client, reason, res); err != nil {
			return nil, err
		}
	}

	appt := &models.Appointment{
		Date:         date,
		Time:         slot,
		ClientID:     clientID,
		EntryCharged: charged,
	}
	if err := repo.CreateAppointment(ctx, appt); err != nil {
		return nil, storageErr(err, nil, 0)
	}

	res.Appointment = appt
	res.schedule = append(res.schedule, appt)
	res.touch(clientID, notify.ViewAdminCalendar, notify.ViewClientCalendar, notify.ViewClientDashboard)
	res.onCommit(func() { metrics.RecordAppointmentCreated(source) })
	return appt, nil
}
