package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
)

const appointmentColumns = `id, date, time, client_id, entry_charged, penalty_charged, created_at`

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	a := &models.Appointment{}
	if err := row.Scan(&a.ID, &a.Date, &a.Time, &a.ClientID, &a.EntryCharged, &a.PenaltyCharged, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// CreateAppointment создает визит и заполняет его ID
func (r *repo) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	query := `INSERT INTO appointments (date, time, client_id, entry_charged) VALUES (?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query, appt.Date, appt.Time, appt.ClientID, appt.EntryCharged)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get appointment ID: %w", err)
	}

	appt.ID = id
	return nil
}

// GetAppointment получает визит по ID
func (r *repo) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	a, err := scanAppointment(r.q.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// DeleteAppointment удаляет визит
func (r *repo) DeleteAppointment(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return affectOne(result, fmt.Sprintf("appointment %d", id))
}

// MarkPenaltyCharged отмечает, что за визит списан штраф за позднюю смену
func (r *repo) MarkPenaltyCharged(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE appointments SET penalty_charged = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark penalty: %w", err)
	}
	return affectOne(result, fmt.Sprintf("appointment %d", id))
}

// FindAppointmentAt ищет любой визит на точные дату и время
func (r *repo) FindAppointmentAt(ctx context.Context, date, slot string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE date = ? AND time = ? ORDER BY id LIMIT 1`

	a, err := scanAppointment(r.q.QueryRowContext(ctx, query, date, slot))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment at %s %s: %w", date, slot, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return a, nil
}

// ListAppointmentsByDate возвращает визиты дня по возрастанию времени
func (r *repo) ListAppointmentsByDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date = ? ORDER BY time, id`, date)
}

// ListAppointmentsInRange возвращает визиты в диапазоне дат включительно
func (r *repo) ListAppointmentsInRange(ctx context.Context, from, to string) ([]*models.Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date >= ? AND date <= ? ORDER BY date, time, id`, from, to)
}

// ListAppointmentsByClient возвращает визиты клиента по хронологии
func (r *repo) ListAppointmentsByClient(ctx context.Context, clientID int64) ([]*models.Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE client_id = ? ORDER BY date, time, id`, clientID)
}
