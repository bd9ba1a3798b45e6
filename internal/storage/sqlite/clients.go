package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cryo_booking_bot/internal/storage"
	"cryo_booking_bot/internal/storage/models"
)

const clientColumns = `id, name, contact, subscription_type, entries_left, expires, notes, chat_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	c := &models.Client{}
	var chatID sql.NullInt64
	err := row.Scan(
		&c.ID, &c.Name, &c.Contact, &c.Subscription.Type, &c.Subscription.EntriesLeft,
		&c.Subscription.Expires, &c.Notes, &chatID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if chatID.Valid {
		id := chatID.Int64
		c.ChatID = &id
	}
	return c, nil
}

// CreateClient создает клиента и заполняет его ID
func (r *repo) CreateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clients (name, contact, subscription_type, entries_left, expires, notes, chat_id)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		client.Name, client.Contact, client.Subscription.Type, client.Subscription.EntriesLeft,
		client.Subscription.Expires, client.Notes, client.ChatID,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get client ID: %w", err)
	}

	client.ID = id
	return nil
}

// GetClient получает клиента по ID (без истории)
func (r *repo) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	c, err := scanClient(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// UpdateClient сохраняет изменяемые поля клиента
func (r *repo) UpdateClient(ctx context.Context, client *models.Client) error {
	query := `UPDATE clients SET name = ?, contact = ?, subscription_type = ?, entries_left = ?,
			  expires = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		client.Name, client.Contact, client.Subscription.Type, client.Subscription.EntriesLeft,
		client.Subscription.Expires, client.Notes, client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return affectOne(result, fmt.Sprintf("client %d", client.ID))
}

// DeleteClient удаляет клиента вместе с историей
func (r *repo) DeleteClient(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return affectOne(result, fmt.Sprintf("client %d", id))
}

// ListClients возвращает всех клиентов по порядку создания
func (r *repo) ListClients(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// FindClientByContact ищет клиента по точному совпадению контакта
func (r *repo) FindClientByContact(ctx context.Context, contact string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE contact = ? ORDER BY id LIMIT 1`

	c, err := scanClient(r.q.QueryRowContext(ctx, query, contact))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client with contact %q: %w", contact, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find client by contact: %w", err)
	}
	return c, nil
}

// FindClientByChatID ищет клиента, привязанного к Telegram чату
func (r *repo) FindClientByChatID(ctx context.Context, chatID int64) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE chat_id = ?`

	c, err := scanClient(r.q.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client with chat %d: %w", chatID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find client by chat: %w", err)
	}
	return c, nil
}

// SetClientChatID привязывает Telegram чат к клиенту.
// Чат, ранее привязанный к другому клиенту, отвязывается.
func (r *repo) SetClientChatID(ctx context.Context, id, chatID int64) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE clients SET chat_id = NULL WHERE chat_id = ? AND id <> ?`, chatID, id); err != nil {
		return fmt.Errorf("failed to release chat: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE clients SET chat_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, chatID, id)
	if err != nil {
		return fmt.Errorf("failed to set client chat: %w", err)
	}
	return affectOne(result, fmt.Sprintf("client %d", id))
}
