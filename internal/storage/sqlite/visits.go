package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"cryo_booking_bot/internal/storage/models"
)

// AddVisit добавляет запись в историю посещений
func (r *repo) AddVisit(ctx context.Context, visit *models.VisitRecord) error {
	query := `INSERT INTO visits (client_id, date, duration, status, temperature, appointment_id)
			  VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		visit.ClientID, visit.Date, visit.Duration, string(visit.Status), visit.Temperature, visit.AppointmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to add visit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get visit ID: %w", err)
	}

	visit.ID = id
	return nil
}

// ListVisits возвращает историю клиента в порядке добавления
func (r *repo) ListVisits(ctx context.Context, clientID int64) ([]models.VisitRecord, error) {
	query := `SELECT id, client_id, date, duration, status, temperature, appointment_id, created_at
			  FROM visits WHERE client_id = ? ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []models.VisitRecord
	for rows.Next() {
		var (
			v             models.VisitRecord
			status        string
			duration      sql.NullString
			temperature   sql.NullString
			appointmentID sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.ClientID, &v.Date, &duration, &status, &temperature, &appointmentID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.Status = models.VisitStatus(status)
		if duration.Valid {
			d := duration.String
			v.Duration = &d
		}
		if temperature.Valid {
			t := temperature.String
			v.Temperature = &t
		}
		if appointmentID.Valid {
			id := appointmentID.Int64
			v.AppointmentID = &id
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// DeleteVisit удаляет запись истории
func (r *repo) DeleteVisit(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM visits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	return affectOne(result, fmt.Sprintf("visit %d", id))
}
