package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
)

const requestColumns = `id, from_name, client_id, type, details, status, proposed_date, proposed_time,
	original_date, original_time, carried_entry, created_at, updated_at`

func scanRequest(row rowScanner) (*models.Request, error) {
	req := &models.Request{}
	var status string
	err := row.Scan(
		&req.ID, &req.From, &req.ClientID, &req.Type, &req.Details, &status,
		&req.ProposedDate, &req.ProposedTime, &req.OriginalDate, &req.OriginalTime,
		&req.CarriedEntry, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	return req, nil
}

func (r *repo) queryRequests(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// CreateRequest создает заявку и заполняет ее ID
func (r *repo) CreateRequest(ctx context.Context, req *models.Request) error {
	query := `INSERT INTO requests (from_name, client_id, type, details, status, proposed_date, proposed_time,
			  original_date, original_time, carried_entry)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		req.From, req.ClientID, req.Type, req.Details, string(req.Status), req.ProposedDate, req.ProposedTime,
		req.OriginalDate, req.OriginalTime, req.CarriedEntry,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get request ID: %w", err)
	}

	req.ID = id
	return nil
}

// GetRequest получает заявку по ID
func (r *repo) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	req, err := scanRequest(r.q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// UpdateRequest сохраняет изменяемые поля заявки
func (r *repo) UpdateRequest(ctx context.Context, req *models.Request) error {
	query := `UPDATE requests SET type = ?, details = ?, status = ?, proposed_date = ?, proposed_time = ?,
			  original_date = ?, original_time = ?, carried_entry = ?, updated_at = CURRENT_TIMESTAMP
			  WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		req.Type, req.Details, string(req.Status), req.ProposedDate, req.ProposedTime,
		req.OriginalDate, req.OriginalTime, req.CarriedEntry, req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	return affectOne(result, fmt.Sprintf("request %d", req.ID))
}

// DeleteRequest удаляет заявку
func (r *repo) DeleteRequest(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return affectOne(result, fmt.Sprintf("request %d", id))
}

// ListRequests возвращает все заявки по порядку создания
func (r *repo) ListRequests(ctx context.Context) ([]*models.Request, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY id`)
}

// ListRequestsByClient возвращает заявки клиента по порядку создания
func (r *repo) ListRequestsByClient(ctx context.Context, clientID int64) ([]*models.Request, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE client_id = ? ORDER BY id`, clientID)
}
