package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cryo_booking_bot/internal/storage"

	_ "modernc.org/sqlite"
)

var _ storage.Storage = (*SQLiteStorage)(nil)

// querier покрывает общие методы *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo реализует storage.Repository поверх соединения или транзакции
type repo struct {
	q querier
}

// SQLiteStorage реализует интерфейс Storage для SQLite
type SQLiteStorage struct {
	*repo
	db *sql.DB
}

// New создает новое подключение к SQLite базе данных.
// ":memory:" дает хранилище на время жизни процесса.
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite поддерживает только одно write-подключение.
	// Для :memory: каждое соединение это отдельная база, поэтому оно не должно пересоздаваться.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if isMemory(dbPath) {
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetConnMaxLifetime(time.Hour)
	}

	s := &SQLiteStorage{repo: &repo{q: db}, db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// migrate выполняет миграции базы данных
func (s *SQLiteStorage) migrate() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := s.db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Визиты и заявки не ссылаются на clients через FK: удаление клиента их не трогает.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			subscription_type TEXT NOT NULL DEFAULT '',
			entries_left INTEGER NOT NULL DEFAULT 0,
			expires TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			chat_id INTEGER UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			duration TEXT,
			status TEXT NOT NULL,
			temperature TEXT,
			appointment_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(client_id) REFERENCES clients(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			client_id INTEGER NOT NULL,
			entry_charged INTEGER NOT NULL DEFAULT 0,
			penalty_charged INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_name TEXT NOT NULL,
			client_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			proposed_date TEXT NOT NULL DEFAULT '',
			proposed_time TEXT NOT NULL DEFAULT '',
			original_date TEXT NOT NULL DEFAULT '',
			original_time TEXT NOT NULL DEFAULT '',
			carried_entry INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_slots (
			weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
			slot TEXT NOT NULL,
			PRIMARY KEY (weekday, slot)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_client_id ON visits(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date, time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_client_id ON appointments(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_client_id ON requests(client_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// InTx выполняет fn в транзакции. Ошибка fn возвращается без обертки.
func (s *SQLiteStorage) InTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&repo{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close закрывает подключение к базе данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// affectOne проверяет, что запрос изменил ровно одну строку
func affectOne(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
