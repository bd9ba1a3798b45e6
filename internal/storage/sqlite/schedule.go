package sqlite

import (
	"context"
	"fmt"
	"time"

	"cryo_booking_bot/internal/storage/models"
)

// GetWeeklySchedule возвращает весь недельный шаблон
func (r *repo) GetWeeklySchedule(ctx context.Context) (models.WeeklySchedule, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT weekday, slot FROM schedule_slots ORDER BY weekday, slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	defer rows.Close()

	ws := models.WeeklySchedule{}
	for rows.Next() {
		var (
			wd   int
			slot string
		)
		if err := rows.Scan(&wd, &slot); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		ws[time.Weekday(wd)] = append(ws[time.Weekday(wd)], slot)
	}
	return ws, rows.Err()
}

// ReplaceWeeklySchedule полностью заменяет недельный шаблон
func (r *repo) ReplaceWeeklySchedule(ctx context.Context, ws models.WeeklySchedule) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM schedule_slots`); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	for wd, slots := range ws {
		for _, slot := range slots {
			if _, err := r.q.ExecContext(ctx,
				`INSERT OR IGNORE INTO schedule_slots (weekday, slot) VALUES (?, ?)`, int(wd), slot); err != nil {
				return fmt.Errorf("failed to insert schedule slot: %w", err)
			}
		}
	}
	return nil
}

// SlotsForWeekday возвращает упорядоченные слоты дня недели
func (r *repo) SlotsForWeekday(ctx context.Context, wd time.Weekday) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT slot FROM schedule_slots WHERE weekday = ? ORDER BY slot`, int(wd))
	if err != nil {
		return nil, fmt.Errorf("failed to get weekday slots: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan weekday slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
